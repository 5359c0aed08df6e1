package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cronosschool2025-afk/algoritmo/internal/service"
	"github.com/cronosschool2025-afk/algoritmo/pkg/response"
)

type scheduleExporter interface {
	GenerateCSV(ctx context.Context, scheduleID string) (string, time.Time, error)
	GeneratePDF(ctx context.Context, scheduleID string) (string, time.Time, error)
	Resolve(token string) (string, error)
	Open(relPath string) (io.ReadCloser, error)
}

// ScheduleExportHandler exposes signed-URL-gated CSV/PDF exports of a
// generated schedule run.
type ScheduleExportHandler struct {
	service scheduleExporter
}

// NewScheduleExportHandler constructs the handler.
func NewScheduleExportHandler(svc *service.ScheduleExportService) *ScheduleExportHandler {
	return &ScheduleExportHandler{service: svc}
}

// ExportCSV godoc
// @Summary Render a generated schedule run as CSV and return a signed download token
// @Tags Scheduler
// @Produce json
// @Param id path string true "Generated schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/export.csv [get]
func (h *ScheduleExportHandler) ExportCSV(c *gin.Context) {
	token, expiresAt, err := h.service.GenerateCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// ExportPDF godoc
// @Summary Render a generated schedule run as a printable PDF and return a signed download token
// @Tags Scheduler
// @Produce json
// @Param id path string true "Generated schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/export.pdf [get]
func (h *ScheduleExportHandler) ExportPDF(c *gin.Context) {
	token, expiresAt, err := h.service.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

// Download godoc
// @Summary Download a previously exported file using a signed token
// @Tags Scheduler
// @Param token path string true "Signed export token"
// @Success 200 {file} file
// @Router /exports/{token} [get]
func (h *ScheduleExportHandler) Download(c *gin.Context) {
	relPath, err := h.service.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Content-Disposition", "attachment")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
