package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
)

type taskServiceMock struct {
	task      *models.RevisionTask
	tasks     []models.TaskWithNote
	batch     []models.RevisionTask
	addResult *service.AddNoteResult

	updateErr error
	nextErr   error

	lastTaskID int64
	lastMode   string
	nextCalled bool
}

func (m *taskServiceMock) Update(ctx context.Context, taskID int64, req service.UpdateTaskRequest) (*models.RevisionTask, error) {
	m.lastTaskID = taskID
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.task, nil
}

func (m *taskServiceMock) BatchUpdate(ctx context.Context, req service.BatchUpdateTasksRequest) ([]models.RevisionTask, error) {
	return m.batch, nil
}

func (m *taskServiceMock) Next(ctx context.Context, planID *int64, rawMode string) (*models.RevisionTask, error) {
	m.nextCalled = true
	m.lastMode = rawMode
	if m.nextErr != nil {
		return nil, m.nextErr
	}
	return m.task, nil
}

func (m *taskServiceMock) Adjust(ctx context.Context, taskID int64, req service.AdjustTaskRequest) (*models.RevisionTask, error) {
	return m.task, nil
}

func (m *taskServiceMock) ListPlanTasks(ctx context.Context, planID int64, rawStatus string, date *time.Time) ([]models.TaskWithNote, error) {
	return m.tasks, nil
}

func (m *taskServiceMock) ListDaily(ctx context.Context, date time.Time, rawStatus string) ([]models.TaskWithNote, error) {
	return m.tasks, nil
}

func (m *taskServiceMock) AddNoteToPlan(ctx context.Context, noteID, planID int64, startDate *time.Time, priority *int) (*models.RevisionTask, error) {
	return m.task, nil
}

func (m *taskServiceMock) AddNoteToPlans(ctx context.Context, noteID int64, req service.AddNoteToPlansRequest) (*service.AddNoteResult, error) {
	return m.addResult, nil
}

func TestTaskHandlerNextNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{}
	handler := NewTaskHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/tasks/next?mode=intensive", nil)
	c.Request = req

	handler.Next(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.nextCalled)
	assert.Equal(t, "intensive", mockSvc.lastMode)
}

func TestTaskHandlerNextInvalidPlanID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(&taskServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/tasks/next?planId=abc", nil)
	c.Request = req

	handler.Next(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{task: &models.RevisionTask{ID: 5, Status: models.TaskStatusCompleted}}
	handler := NewTaskHandler(mockSvc)

	payload, _ := json.Marshal(map[string]string{"status": "completed"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/revisions/tasks/5", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "taskId", Value: "5"}}

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(5), mockSvc.lastTaskID)
}

func TestTaskHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{updateErr: appErrors.Clone(appErrors.ErrNotFound, "task 99 not found")}
	handler := NewTaskHandler(mockSvc)

	payload, _ := json.Marshal(map[string]string{"status": "completed"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/revisions/tasks/99", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "taskId", Value: "99"}}

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskHandlerUpdateInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(&taskServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/revisions/tasks/abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "taskId", Value: "abc"}}

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandlerBatchUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(&taskServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/revisions/tasks/batch", bytes.NewBufferString(`{"task_ids":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BatchUpdate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandlerAddNoteToPlans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &taskServiceMock{addResult: &service.AddNoteResult{
		Success:     true,
		Tasks:       []models.RevisionTask{{ID: 100}},
		FailedPlans: []models.PlanFailure{{PlanID: 2, Reason: "already exists"}},
	}}
	handler := NewTaskHandler(mockSvc)

	payload, _ := json.Marshal(map[string]interface{}{"plan_ids": []int64{1, 2}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/revisions/notes/42/plans", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "noteId", Value: "42"}}

	handler.AddNoteToPlans(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data service.AddNoteResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Success)
	assert.Len(t, envelope.Data.FailedPlans, 1)
}

func TestTaskHandlerListDailyInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTaskHandler(&taskServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/daily-tasks?date=03-10-2026", nil)
	c.Request = req

	handler.ListDaily(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
