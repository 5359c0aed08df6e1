package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	"github.com/cronosschool2025-afk/algoritmo/internal/service"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
	"github.com/cronosschool2025-afk/algoritmo/pkg/response"
)

// ProfessorHandler wires professor services to HTTP routes.
type ProfessorHandler struct {
	professors  *service.ProfessorService
	assignments *service.AssignmentService
}

// NewProfessorHandler constructs a new ProfessorHandler.
func NewProfessorHandler(professors *service.ProfessorService, assignments *service.AssignmentService) *ProfessorHandler {
	return &ProfessorHandler{professors: professors, assignments: assignments}
}

// List godoc
// @Summary List professors
// @Tags Professors
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (name,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *ProfessorHandler) List(c *gin.Context) {
	filter := models.ProfessorFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	professors, pagination, err := h.professors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, pagination)
}

// Get godoc
// @Summary Get professor detail
// @Tags Professors
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [get]
func (h *ProfessorHandler) Get(c *gin.Context) {
	professor, err := h.professors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// Create godoc
// @Summary Create professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param payload body service.CreateProfessorRequest true "Professor payload"
// @Success 201 {object} response.Envelope
// @Router /professors [post]
func (h *ProfessorHandler) Create(c *gin.Context) {
	var req service.CreateProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid professor payload"))
		return
	}
	professor, err := h.professors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professor)
}

// Update godoc
// @Summary Update professor
// @Tags Professors
// @Accept json
// @Produce json
// @Param id path string true "Professor ID"
// @Param payload body service.UpdateProfessorRequest true "Professor payload"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [put]
func (h *ProfessorHandler) Update(c *gin.Context) {
	var req service.UpdateProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid professor payload"))
		return
	}
	professor, err := h.professors.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// Delete godoc
// @Summary Delete professor
// @Tags Professors
// @Param id path string true "Professor ID"
// @Success 204
// @Router /professors/{id} [delete]
func (h *ProfessorHandler) Delete(c *gin.Context) {
	if err := h.professors.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetUnavailability godoc
// @Summary Get professor unavailability
// @Tags Professors
// @Param id path string true "Professor ID"
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/unavailability [get]
func (h *ProfessorHandler) GetUnavailability(c *gin.Context) {
	slots, err := h.professors.Unavailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// SetUnavailability godoc
// @Summary Replace professor unavailability
// @Tags Professors
// @Accept json
// @Param id path string true "Professor ID"
// @Param payload body service.SetUnavailabilityRequest true "Unavailability payload"
// @Success 204
// @Router /professors/{id}/unavailability [put]
func (h *ProfessorHandler) SetUnavailability(c *gin.Context) {
	var req service.SetUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unavailability payload"))
		return
	}
	if err := h.professors.SetUnavailability(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignRoom godoc
// @Summary Bind a professor to their teaching room
// @Tags Professors
// @Accept json
// @Param id path string true "Professor ID"
// @Param payload body service.AssignRoomRequest true "Room payload"
// @Success 204
// @Router /professors/{id}/room [put]
func (h *ProfessorHandler) AssignRoom(c *gin.Context) {
	var req service.AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	if err := h.professors.AssignRoom(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAssignments godoc
// @Summary List professor assignments
// @Tags Assignments
// @Param id path string true "Professor ID"
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/assignments [get]
func (h *ProfessorHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignments.ListByProfessor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Create professor assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Professor ID"
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /professors/{id}/assignments [post]
func (h *ProfessorHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	assignment, err := h.assignments.Assign(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// DeleteAssignment godoc
// @Summary Delete professor assignment
// @Tags Assignments
// @Param id path string true "Professor ID"
// @Param aid path string true "Assignment ID"
// @Success 204
// @Router /professors/{id}/assignments/{aid} [delete]
func (h *ProfessorHandler) DeleteAssignment(c *gin.Context) {
	if err := h.assignments.Remove(c.Request.Context(), c.Param("id"), c.Param("aid")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
