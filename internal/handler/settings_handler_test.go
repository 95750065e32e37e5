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
)

type notificationServiceMock struct {
	summary  *models.DailySummary
	settings *models.RevisionSettings

	lastDate time.Time
	lastReq  service.UpdateSettingsRequest
}

func (m *notificationServiceMock) DailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	m.lastDate = date
	return m.summary, nil
}

func (m *notificationServiceMock) GetSettings(ctx context.Context) (*models.RevisionSettings, error) {
	return m.settings, nil
}

func (m *notificationServiceMock) UpdateSettings(ctx context.Context, req service.UpdateSettingsRequest) (*models.RevisionSettings, error) {
	m.lastReq = req
	return m.settings, nil
}

func TestSettingsHandlerSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{summary: &models.DailySummary{Date: "2026-03-10", TotalTasks: 10, PendingTasks: 6}}
	handler := NewSettingsHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revision-settings/notifications/summary?date=2026-03-10", nil)
	c.Request = req

	handler.Summary(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), mockSvc.lastDate)

	var envelope struct {
		Data models.DailySummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 6, envelope.Data.PendingTasks)
}

func TestSettingsHandlerUpdate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &notificationServiceMock{settings: &models.RevisionSettings{ReminderEnabled: true, ReminderTime: "21:30"}}
	handler := NewSettingsHandler(mockSvc)

	body, _ := json.Marshal(map[string]interface{}{"reminder_enabled": true, "reminder_time": "21:30"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/revision-settings/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mockSvc.lastReq.ReminderEnabled)
	assert.True(t, *mockSvc.lastReq.ReminderEnabled)
	require.NotNil(t, mockSvc.lastReq.ReminderTime)
	assert.Equal(t, "21:30", *mockSvc.lastReq.ReminderTime)
}

func TestSettingsHandlerUpdateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(&notificationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/revision-settings/settings", bytes.NewBufferString(`{"reminder_enabled":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Update(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
