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

type planServiceMock struct {
	plan     *models.RevisionPlan
	plans    []models.RevisionPlan
	handbook *models.HandbookPlans

	createErr error
	getErr    error

	lastStatus string
	lastReq    service.CreatePlanRequest
}

func (m *planServiceMock) Create(ctx context.Context, req service.CreatePlanRequest) (*models.RevisionPlan, error) {
	m.lastReq = req
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.plan, nil
}

func (m *planServiceMock) Get(ctx context.Context, id int64) (*models.RevisionPlan, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.plan, nil
}

func (m *planServiceMock) List(ctx context.Context, rawStatus string) ([]models.RevisionPlan, error) {
	m.lastStatus = rawStatus
	return m.plans, nil
}

func (m *planServiceMock) CheckHandbook(ctx context.Context, handbookID int64) (*models.HandbookPlans, error) {
	return m.handbook, nil
}

func TestPlanHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{plan: &models.RevisionPlan{ID: 12, Name: "Spring revision"}}
	handler := NewPlanHandler(mockSvc)

	body, _ := json.Marshal(service.CreatePlanRequest{
		Name:      "Spring revision",
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/revisions/plans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Spring revision", mockSvc.lastReq.Name)
}

func TestPlanHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlanHandler(&planServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/revisions/plans", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "revision plan not found")}
	handler := NewPlanHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/plans/99", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "planId", Value: "99"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlanHandlerListPassesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{plans: []models.RevisionPlan{{ID: 1}}}
	handler := NewPlanHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/plans?status=active", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", mockSvc.lastStatus)
}

func TestPlanHandlerCheckHandbook(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &planServiceMock{handbook: &models.HandbookPlans{HasPlan: true, Plans: []models.RevisionPlan{{ID: 1}}}}
	handler := NewPlanHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/revisions/handbooks/7/plans", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "handbookId", Value: "7"}}

	handler.CheckHandbook(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.HandbookPlans `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.HasPlan)
}
