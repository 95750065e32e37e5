package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mnemo-app/mnemo-api/internal/models"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
)

type planRepository interface {
	Create(ctx context.Context, plan *models.RevisionPlan) error
	FindByID(ctx context.Context, id int64) (*models.RevisionPlan, error)
	List(ctx context.Context, status *models.PlanStatus) ([]models.RevisionPlan, error)
	ListActiveByHandbook(ctx context.Context, handbookID int64) ([]models.RevisionPlan, error)
}

type noteScopeReader interface {
	ListByScope(ctx context.Context, scope models.NoteScope) ([]models.Note, error)
}

type taskBatchInserter interface {
	InsertBatch(ctx context.Context, tasks []models.RevisionTask) error
}

// CreatePlanRequest describes plan creation. Empty filter lists apply no
// filtering on that axis.
type CreatePlanRequest struct {
	Name         string    `json:"name" validate:"required"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required"`
	HandbookIDs  []int64   `json:"handbook_ids"`
	CategoryIDs  []int64   `json:"category_ids"`
	TagIDs       []int64   `json:"tag_ids"`
	NoteStatuses []string  `json:"note_statuses"`
}

// PlanService owns plan definitions and the generation pass that turns a
// committed plan into scheduled tasks.
type PlanService struct {
	plans     planRepository
	notes     noteScopeReader
	tasks     taskBatchInserter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs PlanService.
func NewPlanService(plans planRepository, notes noteScopeReader, tasks taskBatchInserter, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{plans: plans, notes: notes, tasks: tasks, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create persists a plan and synchronously generates its review tasks.
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (*models.RevisionPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	for _, raw := range req.NoteStatuses {
		if !models.NoteStatus(raw).Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid note status: "+raw)
		}
	}

	plan := &models.RevisionPlan{
		Name:         req.Name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Status:       models.PlanStatusActive,
		HandbookIDs:  pq.Int64Array(req.HandbookIDs),
		CategoryIDs:  pq.Int64Array(req.CategoryIDs),
		TagIDs:       pq.Int64Array(req.TagIDs),
		NoteStatuses: pq.StringArray(req.NoteStatuses),
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plan")
	}

	if err := s.generateTasks(ctx, plan); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return plan, nil
}

// generateTasks creates one pending task per (matching note, interval offset)
// whose date falls inside the plan window. Offsets past end_date are skipped,
// never clamped; dates already in the past are still scheduled, so a backfilled
// plan yields overdue pending tasks.
func (s *PlanService) generateTasks(ctx context.Context, plan *models.RevisionPlan) error {
	notes, err := s.notes.ListByScope(ctx, plan.Scope())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve plan scope")
	}

	tasks := make([]models.RevisionTask, 0, len(notes)*len(models.RevisionIntervals))
	for _, note := range notes {
		for _, days := range models.RevisionIntervals {
			candidate := plan.StartDate.AddDate(0, 0, days)
			if candidate.After(plan.EndDate) {
				continue
			}
			tasks = append(tasks, models.RevisionTask{
				PlanID:        plan.ID,
				NoteID:        note.ID,
				ScheduledDate: candidate,
				Status:        models.TaskStatusPending,
				RevisionMode:  models.ModeNormal,
			})
		}
	}

	if err := s.tasks.InsertBatch(ctx, tasks); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "task generation failed")
	}

	s.metrics.RecordTasksGenerated(len(tasks))
	s.logger.Info("revision tasks generated",
		zap.Int64("plan_id", plan.ID),
		zap.Int("notes", len(notes)),
		zap.Int("tasks", len(tasks)))
	return nil
}

// Get loads one plan.
func (s *PlanService) Get(ctx context.Context, id int64) (*models.RevisionPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "revision plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}
	return plan, nil
}

// List returns plans, optionally filtered by status.
func (s *PlanService) List(ctx context.Context, rawStatus string) ([]models.RevisionPlan, error) {
	var status *models.PlanStatus
	if rawStatus != "" {
		candidate := models.PlanStatus(rawStatus)
		if !candidate.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid plan status: "+rawStatus)
		}
		status = &candidate
	}
	plans, err := s.plans.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plans")
	}
	return plans, nil
}

// CheckHandbook reports which active plans cover a handbook.
func (s *PlanService) CheckHandbook(ctx context.Context, handbookID int64) (*models.HandbookPlans, error) {
	plans, err := s.plans.ListActiveByHandbook(ctx, handbookID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check handbook plans")
	}
	return &models.HandbookPlans{HasPlan: len(plans) > 0, Plans: plans}, nil
}

func (s *PlanService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "revision:*")
	}
}
