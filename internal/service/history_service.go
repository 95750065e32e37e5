package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mnemo-app/mnemo-api/internal/models"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/export"
)

type historyRepository interface {
	List(ctx context.Context, filter models.HistoryFilter) ([]models.RevisionHistory, error)
	Record(ctx context.Context, taskID int64, level models.MasteryLevel, mode models.RevisionMode, timeSpent int, comments *string) (*models.RevisionHistory, error)
}

// RecordRevisionRequest describes one review event to append.
type RecordRevisionRequest struct {
	TaskID       int64   `json:"task_id" validate:"required"`
	MasteryLevel string  `json:"mastery_level" validate:"required"`
	RevisionMode string  `json:"revision_mode"`
	TimeSpent    int     `json:"time_spent" validate:"gte=0"`
	Comments     *string `json:"comments"`
}

// HistoryService owns the append-only review log and its derived views.
type HistoryService struct {
	histories historyRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewHistoryService constructs HistoryService.
func NewHistoryService(histories historyRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *HistoryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		histories: histories,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Record appends one review event and bumps the owning note's aggregates.
func (s *HistoryService) Record(ctx context.Context, req RecordRevisionRequest) (*models.RevisionHistory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid revision payload")
	}
	level := models.MasteryLevel(req.MasteryLevel)
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid mastery level: "+req.MasteryLevel)
	}
	mode := models.ModeNormal
	if req.RevisionMode != "" {
		mode = models.RevisionMode(req.RevisionMode)
		if !mode.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid revision mode: "+req.RevisionMode)
		}
	}

	history, err := s.histories.Record(ctx, req.TaskID, level, mode, req.TimeSpent, req.Comments)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("task %d not found", req.TaskID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "record revision failed")
	}
	s.metrics.RecordReview(level)
	return history, nil
}

// List returns history rows matching the filter.
func (s *HistoryService) List(ctx context.Context, filter models.HistoryFilter) ([]models.RevisionHistory, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}
	histories, err := s.histories.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list revision history")
	}
	return histories, nil
}

// NoteStatistics summarizes a note's review history.
func (s *HistoryService) NoteStatistics(ctx context.Context, noteID int64) (*models.NoteStatistics, error) {
	histories, err := s.List(ctx, models.HistoryFilter{NoteID: &noteID})
	if err != nil {
		return nil, err
	}

	stats := &models.NoteStatistics{
		NoteID:         noteID,
		TotalRevisions: len(histories),
		MasteryLevels:  map[models.MasteryLevel]int{},
		RevisionDates:  make([]time.Time, 0, len(histories)),
	}
	for _, entry := range histories {
		stats.MasteryLevels[entry.MasteryLevel]++
		stats.RevisionDates = append(stats.RevisionDates, entry.RevisionDate)
	}
	if len(stats.RevisionDates) > 0 {
		last := stats.RevisionDates[len(stats.RevisionDates)-1]
		stats.LastRevision = &last
	}
	return stats, nil
}

// Export formats supported by the history export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// Export renders the filtered history as a downloadable document.
func (s *HistoryService) Export(ctx context.Context, filter models.HistoryFilter, format string) ([]byte, string, error) {
	histories, err := s.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"task_id", "note_id", "mastery_level", "revision_mode", "time_spent", "revision_date", "comments"},
		Rows:    make([]map[string]string, 0, len(histories)),
	}
	for _, entry := range histories {
		comments := ""
		if entry.Comments != nil {
			comments = *entry.Comments
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"task_id":       strconv.FormatInt(entry.TaskID, 10),
			"note_id":       strconv.FormatInt(entry.NoteID, 10),
			"mastery_level": string(entry.MasteryLevel),
			"revision_mode": string(entry.RevisionMode),
			"time_spent":    strconv.Itoa(entry.TimeSpent),
			"revision_date": entry.RevisionDate.Format(time.RFC3339),
			"comments":      comments,
		})
	}

	switch format {
	case ExportFormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, "Revision History")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "invalid export format: "+format)
	}
}
