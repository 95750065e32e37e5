package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/response"
)

type historyService interface {
	Record(ctx context.Context, req service.RecordRevisionRequest) (*models.RevisionHistory, error)
	List(ctx context.Context, filter models.HistoryFilter) ([]models.RevisionHistory, error)
	NoteStatistics(ctx context.Context, noteID int64) (*models.NoteStatistics, error)
	Export(ctx context.Context, filter models.HistoryFilter, format string) ([]byte, string, error)
}

// HistoryHandler exposes the review log endpoints.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler builds a new handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

func historyFilter(c *gin.Context) (models.HistoryFilter, error) {
	var filter models.HistoryFilter
	noteID, err := idQuery(c, "noteId")
	if err != nil {
		return filter, err
	}
	taskID, err := idQuery(c, "taskId")
	if err != nil {
		return filter, err
	}
	startDate, err := dateQuery(c, "startDate")
	if err != nil {
		return filter, err
	}
	endDate, err := dateQuery(c, "endDate")
	if err != nil {
		return filter, err
	}
	filter.NoteID = noteID
	filter.TaskID = taskID
	filter.StartDate = startDate
	filter.EndDate = endDate
	return filter, nil
}

// Record godoc
// @Summary Record a review event
// @Tags History
// @Accept json
// @Produce json
// @Param payload body service.RecordRevisionRequest true "Revision payload"
// @Success 201 {object} response.Envelope
// @Router /revisions/history [post]
func (h *HistoryHandler) Record(c *gin.Context) {
	var req service.RecordRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid revision payload"))
		return
	}
	history, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, history)
}

// List godoc
// @Summary List revision history
// @Tags History
// @Produce json
// @Param noteId query int false "Note ID filter"
// @Param taskId query int false "Task ID filter"
// @Param startDate query string false "Start date (YYYY-MM-DD)"
// @Param endDate query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /revisions/history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	filter, err := historyFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	histories, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, histories, nil)
}

// Export godoc
// @Summary Export revision history as CSV or PDF
// @Tags History
// @Produce octet-stream
// @Param format query string false "csv or pdf (default csv)"
// @Success 200 {file} binary
// @Router /revisions/history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	filter, err := historyFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.Query("format")
	payload, contentType, err := h.service.Export(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if format == service.ExportFormatPDF {
		ext = "pdf"
	}
	filename := fmt.Sprintf("revision-history-%s.%s", time.Now().UTC().Format("20060102"), ext)
	response.Blob(c, contentType, filename, payload)
}

// NoteStatistics godoc
// @Summary Review statistics for one note
// @Tags History
// @Produce json
// @Param noteId path int true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /revision-settings/statistics/note/{noteId} [get]
func (h *HistoryHandler) NoteStatistics(c *gin.Context) {
	noteID, err := idParam(c, "noteId")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.service.NoteStatistics(c.Request.Context(), noteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// NoteHistory godoc
// @Summary Review history for one note
// @Tags History
// @Produce json
// @Param noteId path int true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /revision-settings/history/note/{noteId} [get]
func (h *HistoryHandler) NoteHistory(c *gin.Context) {
	noteID, err := idParam(c, "noteId")
	if err != nil {
		response.Error(c, err)
		return
	}
	histories, err := h.service.List(c.Request.Context(), models.HistoryFilter{NoteID: &noteID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, histories, nil)
}
