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

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
)

type historyServiceMock struct {
	histories []models.RevisionHistory
	recorded  *models.RevisionHistory
	stats     *models.NoteStatistics
	payload   []byte
	ctype     string

	lastFilter models.HistoryFilter
	lastFormat string
}

func (m *historyServiceMock) Record(ctx context.Context, req service.RecordRevisionRequest) (*models.RevisionHistory, error) {
	return m.recorded, nil
}

func (m *historyServiceMock) List(ctx context.Context, filter models.HistoryFilter) ([]models.RevisionHistory, error) {
	m.lastFilter = filter
	return m.histories, nil
}

func (m *historyServiceMock) NoteStatistics(ctx context.Context, noteID int64) (*models.NoteStatistics, error) {
	return m.stats, nil
}

func (m *historyServiceMock) Export(ctx context.Context, filter models.HistoryFilter, format string) ([]byte, string, error) {
	m.lastFilter = filter
	m.lastFormat = format
	return m.payload, m.ctype, nil
}

func TestHistoryHandlerListFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &historyServiceMock{histories: []models.RevisionHistory{{ID: 1}}}
	handler := NewHistoryHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/history?noteId=42&startDate=2026-03-01", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastFilter.NoteID)
	assert.Equal(t, int64(42), *mockSvc.lastFilter.NoteID)
	require.NotNil(t, mockSvc.lastFilter.StartDate)
	assert.Nil(t, mockSvc.lastFilter.TaskID)
}

func TestHistoryHandlerListInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(&historyServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/history?startDate=March+1st", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &historyServiceMock{recorded: &models.RevisionHistory{ID: 31, TaskID: 5}}
	handler := NewHistoryHandler(mockSvc)

	body, _ := json.Marshal(map[string]interface{}{"task_id": 5, "mastery_level": "mastered"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/revisions/history", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Record(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHistoryHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &historyServiceMock{payload: []byte("task_id\n5\n"), ctype: "text/csv"}
	handler := NewHistoryHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/history/export?format=csv", nil)
	c.Request = req

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestHistoryHandlerNoteStatistics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &historyServiceMock{stats: &models.NoteStatistics{NoteID: 42, TotalRevisions: 3}}
	handler := NewHistoryHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revision-settings/statistics/note/42", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "noteId", Value: "42"}}

	handler.NoteStatistics(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.NoteStatistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 3, envelope.Data.TotalRevisions)
}
