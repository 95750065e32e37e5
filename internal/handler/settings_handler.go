package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/response"
)

type notificationService interface {
	DailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error)
	GetSettings(ctx context.Context) (*models.RevisionSettings, error)
	UpdateSettings(ctx context.Context, req service.UpdateSettingsRequest) (*models.RevisionSettings, error)
}

// SettingsHandler exposes reminder settings and the daily summary.
type SettingsHandler struct {
	service notificationService
}

// NewSettingsHandler builds a new handler.
func NewSettingsHandler(service notificationService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Summary godoc
// @Summary Daily task summary
// @Tags Settings
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /revision-settings/notifications/summary [get]
func (h *SettingsHandler) Summary(c *gin.Context) {
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day := time.Now().UTC()
	if date != nil {
		day = *date
	}
	summary, err := h.service.DailySummary(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Get godoc
// @Summary Get reminder settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /revision-settings/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Update reminder settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.UpdateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Router /revision-settings/settings [patch]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
