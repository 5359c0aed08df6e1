package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	"github.com/cronosschool2025-afk/algoritmo/internal/service"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/response"
)

// TimeslotHandler exposes read-only access to the fixed timeslot grid.
type TimeslotHandler struct {
	service *service.TimeslotService
}

// NewTimeslotHandler constructs a timeslot handler.
func NewTimeslotHandler(svc *service.TimeslotService) *TimeslotHandler {
	return &TimeslotHandler{service: svc}
}

// List godoc
// @Summary List timeslots
// @Tags Timeslots
// @Produce json
// @Param day_id query int false "Day ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timeslots [get]
func (h *TimeslotHandler) List(c *gin.Context) {
	var filter models.TimeslotFilter
	if raw := c.Query("day_id"); raw != "" {
		if dayID, err := strconv.Atoi(raw); err == nil {
			filter.DayID = &dayID
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	slots, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, pagination)
}

// Get godoc
// @Summary Get timeslot detail
// @Tags Timeslots
// @Produce json
// @Param id path int true "Timeslot ID"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [get]
func (h *TimeslotHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid timeslot id"))
		return
	}
	slot, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}
