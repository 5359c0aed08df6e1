package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cronosschool2025-afk/algoritmo/internal/dto"
	"github.com/cronosschool2025-afk/algoritmo/internal/models"
	appErrors "github.com/cronosschool2025-afk/algoritmo/pkg/errors"
)

type scheduleGeneratorMock struct {
	generateResp *dto.GenerateScheduleResponse
	generateErr  error
	saveResp     *models.GeneratedSchedule
	saveErr      error
	publishErr   error
	listResp     []models.GeneratedSchedule
	listErr      error
	slotsResp    []models.GeneratedScheduleSlot
	slotsErr     error
	deficitsResp []models.ScheduleDeficit
	deficitsErr  error
	deleteErr    error

	lastDraftID    string
	lastSaveReq    dto.SaveScheduleRequest
	lastScheduleID string
	lastTermID     string
	lastGroupID    string
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.lastTermID = req.TermID
	return m.generateResp, m.generateErr
}

func (m *scheduleGeneratorMock) Save(ctx context.Context, draftID string, req dto.SaveScheduleRequest) (*models.GeneratedSchedule, error) {
	m.lastDraftID = draftID
	m.lastSaveReq = req
	return m.saveResp, m.saveErr
}

func (m *scheduleGeneratorMock) Publish(ctx context.Context, scheduleID string) error {
	m.lastScheduleID = scheduleID
	return m.publishErr
}

func (m *scheduleGeneratorMock) List(ctx context.Context, termID string) ([]models.GeneratedSchedule, error) {
	m.lastTermID = termID
	return m.listResp, m.listErr
}

func (m *scheduleGeneratorMock) GetSlots(ctx context.Context, scheduleID, groupID string) ([]models.GeneratedScheduleSlot, error) {
	m.lastScheduleID = scheduleID
	m.lastGroupID = groupID
	return m.slotsResp, m.slotsErr
}

func (m *scheduleGeneratorMock) Deficits(ctx context.Context, scheduleID string) ([]models.ScheduleDeficit, error) {
	m.lastScheduleID = scheduleID
	return m.deficitsResp, m.deficitsErr
}

func (m *scheduleGeneratorMock) Delete(ctx context.Context, scheduleID string) error {
	m.lastScheduleID = scheduleID
	return m.deleteErr
}

func TestScheduleGeneratorHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		generateResp: &dto.GenerateScheduleResponse{ScheduleID: "draft-1", TermID: "term-1"},
	}
	handler := &ScheduleGeneratorHandler{service: mock}

	payload, _ := json.Marshal(dto.GenerateScheduleRequest{TermID: "term-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mock.lastTermID)
}

func TestScheduleGeneratorHandlerGenerateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleGeneratorHandler{service: &scheduleGeneratorMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewBufferString(`{"term_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerGenerateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{generateErr: appErrors.Clone(appErrors.ErrNotFound, "term not found")}
	handler := &ScheduleGeneratorHandler{service: mock}

	payload, _ := json.Marshal(dto.GenerateScheduleRequest{TermID: "missing"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Generate(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleGeneratorHandlerSave(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		saveResp: &models.GeneratedSchedule{ID: "sched-1", TermID: "term-1", Status: models.GeneratedScheduleStatusDraft},
	}
	handler := &ScheduleGeneratorHandler{service: mock}

	payload, _ := json.Marshal(dto.SaveScheduleRequest{Publish: true})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/generate/draft-1/save", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "draft-1"}}

	handler.Save(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "draft-1", mock.lastDraftID)
	assert.True(t, mock.lastSaveReq.Publish)
}

func TestScheduleGeneratorHandlerPublish(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/publish", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Publish(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sched-1", mock.lastScheduleID)
}

func TestScheduleGeneratorHandlerPublishConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{publishErr: appErrors.Clone(appErrors.ErrConflict, "generated schedule already published")}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/publish", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Publish(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestScheduleGeneratorHandlerListRequiresTermID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ScheduleGeneratorHandler{service: &scheduleGeneratorMock{}}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGeneratorHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		listResp: []models.GeneratedSchedule{{ID: "sched-1", TermID: "term-1"}},
	}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules?term_id=term-1", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "term-1", mock.lastTermID)
}

func TestScheduleGeneratorHandlerSlots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		slotsResp: []models.GeneratedScheduleSlot{{GroupID: "group-1", CourseID: "course-1"}},
	}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/sched-1/slots?group_id=group-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Slots(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sched-1", mock.lastScheduleID)
	assert.Equal(t, "group-1", mock.lastGroupID)
}

func TestScheduleGeneratorHandlerDeficits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{
		deficitsResp: []models.ScheduleDeficit{{GroupID: "group-1", CourseID: "course-1", MissingHours: 2}},
	}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedules/sched-1/deficits", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Deficits(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sched-1", mock.lastScheduleID)
}

func TestScheduleGeneratorHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/schedules/sched-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sched-1", mock.lastScheduleID)
}

func TestScheduleGeneratorHandlerDeleteNotDraft(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &scheduleGeneratorMock{deleteErr: appErrors.Clone(appErrors.ErrConflict, "only draft runs can be deleted")}
	handler := &ScheduleGeneratorHandler{service: mock}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/schedules/sched-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "sched-1"}}

	handler.Delete(c)
	require.Equal(t, http.StatusConflict, w.Code)
}
