package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronosschool2025-afk/algoritmo/internal/dto"
	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	"github.com/cronosschool2025-afk/algoritmo/internal/service"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Save(ctx context.Context, draftID string, req dto.SaveScheduleRequest) (*models.GeneratedSchedule, error)
	Publish(ctx context.Context, scheduleID string) error
	List(ctx context.Context, termID string) ([]models.GeneratedSchedule, error)
	GetSlots(ctx context.Context, scheduleID, groupID string) ([]models.GeneratedScheduleSlot, error)
	Deficits(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error)
	Delete(ctx context.Context, scheduleID string) error
}

// ScheduleGeneratorHandler exposes the scheduling core's run lifecycle.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Run the scheduling core over a term and return a preview
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generate schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist a previously generated draft run
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Draft schedule ID"
// @Param payload body dto.SaveScheduleRequest true "Save schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/generate/{id}/save [post]
func (h *ScheduleGeneratorHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	record, err := h.service.Save(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Publish godoc
// @Summary Publish a stored draft run
// @Tags Scheduler
// @Param id path string true "Generated schedule ID"
// @Success 204
// @Router /schedules/{id}/publish [post]
func (h *ScheduleGeneratorHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List generated schedule runs for a term
// @Tags Scheduler
// @Produce json
// @Param term_id query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleGeneratorHandler) List(c *gin.Context) {
	termID := c.Query("term_id")
	if termID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term_id is required"))
		return
	}
	result, err := h.service.List(c.Request.Context(), termID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Slots godoc
// @Summary Get placed hours for a generated schedule run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Generated schedule ID"
// @Param group_id query string false "Filter to a single group"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/slots [get]
func (h *ScheduleGeneratorHandler) Slots(c *gin.Context) {
	slots, err := h.service.GetSlots(c.Request.Context(), c.Param("id"), c.Query("group_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Deficits godoc
// @Summary Get the unplaced-hours report for a generated schedule run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Generated schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/deficits [get]
func (h *ScheduleGeneratorHandler) Deficits(c *gin.Context) {
	deficits, err := h.service.Deficits(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deficits, nil)
}

// Delete godoc
// @Summary Delete a draft generated schedule run
// @Tags Scheduler
// @Param id path string true "Generated schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleGeneratorHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
