package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/repository"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
)

type taskRepository interface {
	Insert(ctx context.Context, task *models.RevisionTask) error
	FindByID(ctx context.Context, id int64) (*models.RevisionTask, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.TaskWithNote, error)
	NextPending(ctx context.Context, planID *int64, mode models.RevisionMode, now time.Time) (*models.RevisionTask, error)
	ExistsForPlanAndNote(ctx context.Context, planID, noteID int64) (bool, error)
	Adjust(ctx context.Context, id int64, newDate time.Time, priority *int) (*models.RevisionTask, error)
	ApplyReview(ctx context.Context, taskID int64, update repository.ReviewUpdate) (*models.RevisionTask, error)
	BatchApply(ctx context.Context, taskIDs []int64, change repository.BatchChange) ([]models.RevisionTask, error)
}

type planReader interface {
	FindByID(ctx context.Context, id int64) (*models.RevisionPlan, error)
}

type noteReader interface {
	FindByID(ctx context.Context, id int64) (*models.Note, error)
}

// UpdateTaskRequest is the explicit per-field change set for a single task.
type UpdateTaskRequest struct {
	Status       *string    `json:"status"`
	MasteryLevel *string    `json:"mastery_level"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// BatchUpdateTasksRequest applies one uniform change to many tasks.
type BatchUpdateTasksRequest struct {
	TaskIDs      []int64 `json:"task_ids" validate:"required,min=1"`
	Status       string  `json:"status" validate:"required"`
	MasteryLevel string  `json:"mastery_level" validate:"required"`
	RevisionMode string  `json:"revision_mode" validate:"required"`
	TimeSpent    *int    `json:"time_spent" validate:"omitempty,gte=0"`
	Comments     *string `json:"comments"`
}

// AdjustTaskRequest reschedules a task.
type AdjustTaskRequest struct {
	NewDate  time.Time `json:"new_date" validate:"required"`
	Priority *int      `json:"priority"`
	Comments *string   `json:"comments"`
}

// AddNoteToPlansRequest enrolls an existing note into several plans at once.
type AddNoteToPlansRequest struct {
	PlanIDs   []int64    `json:"plan_ids" validate:"required,min=1"`
	StartDate *time.Time `json:"start_date"`
	Priority  *int       `json:"priority"`
}

// AddNoteResult reports the outcome of a multi-plan enrollment.
type AddNoteResult struct {
	Success     bool                  `json:"success"`
	Tasks       []models.RevisionTask `json:"tasks"`
	FailedPlans []models.PlanFailure  `json:"failed_plans"`
}

// TaskService drives the task lifecycle: updates, batch updates, next-task
// selection, adjustment and ad-hoc plan membership.
type TaskService struct {
	tasks     taskRepository
	plans     planReader
	notes     noteReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs TaskService.
func NewTaskService(tasks taskRepository, plans planReader, notes noteReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{tasks: tasks, plans: plans, notes: notes, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Update applies a single-task lifecycle change. Assigning a mastery level
// stamps completed_at and appends a history row; it does not chain follow-up
// tasks (the batch path does that).
func (s *TaskService) Update(ctx context.Context, taskID int64, req UpdateTaskRequest) (*models.RevisionTask, error) {
	update := repository.ReviewUpdate{CompletedAt: req.CompletedAt}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid task status: "+*req.Status)
		}
		update.Status = &status
	}
	if req.MasteryLevel != nil {
		level := models.MasteryLevel(*req.MasteryLevel)
		if !level.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid mastery level: "+*req.MasteryLevel)
		}
		update.MasteryLevel = &level
	}

	task, err := s.tasks.ApplyReview(ctx, taskID, update)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("task %d not found", taskID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "update failed")
	}

	if update.MasteryLevel != nil {
		s.metrics.RecordReview(*update.MasteryLevel)
	}
	s.invalidate(ctx)
	return task, nil
}

// BatchUpdate applies one change to every listed task in a single
// transaction. Ids that do not resolve are skipped, not errors.
func (s *TaskService) BatchUpdate(ctx context.Context, req BatchUpdateTasksRequest) ([]models.RevisionTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	status := models.TaskStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid task status: "+req.Status)
	}
	level := models.MasteryLevel(req.MasteryLevel)
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid mastery level: "+req.MasteryLevel)
	}
	mode := models.RevisionMode(req.RevisionMode)
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid revision mode: "+req.RevisionMode)
	}
	timeSpent := 0
	if req.TimeSpent != nil {
		timeSpent = *req.TimeSpent
	}

	updated, err := s.tasks.BatchApply(ctx, req.TaskIDs, repository.BatchChange{
		Status:       status,
		MasteryLevel: level,
		RevisionMode: mode,
		TimeSpent:    timeSpent,
		Comments:     req.Comments,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransaction.Code, appErrors.ErrTransaction.Status, "update failed")
	}

	for range updated {
		s.metrics.RecordReview(level)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Next returns the highest-priority due pending task, or nil when none
// qualifies. An empty mode normalizes to normal; non-normal modes bypass the
// stored-mode filter.
func (s *TaskService) Next(ctx context.Context, planID *int64, rawMode string) (*models.RevisionTask, error) {
	mode := models.ModeNormal
	if rawMode != "" {
		mode = models.RevisionMode(rawMode)
		if !mode.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid revision mode: "+rawMode)
		}
	}

	task, err := s.tasks.NextPending(ctx, planID, mode, time.Now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select next task")
	}
	return task, nil
}

// Adjust reschedules a task and marks it with the adjustment mode. Rescheduling
// is not a review event, so any comment is logged rather than recorded.
func (s *TaskService) Adjust(ctx context.Context, taskID int64, req AdjustTaskRequest) (*models.RevisionTask, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid adjust payload")
	}
	task, err := s.tasks.Adjust(ctx, taskID, req.NewDate, req.Priority)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("task %d not found", taskID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to adjust task")
	}
	if req.Comments != nil {
		s.logger.Info("task adjusted", zap.Int64("task_id", taskID), zap.String("comments", *req.Comments))
	}
	s.invalidate(ctx)
	return task, nil
}

// ListPlanTasks returns a plan's tasks with denormalized note summaries.
func (s *TaskService) ListPlanTasks(ctx context.Context, planID int64, rawStatus string, date *time.Time) ([]models.TaskWithNote, error) {
	filter := models.TaskFilter{PlanID: &planID, Date: date}
	if err := applyStatusFilter(&filter, rawStatus); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("revision:tasks:plan:%d:%s:%s", planID, rawStatus, dateKey(date))
	var cached []models.TaskWithNote
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plan tasks")
	}
	_ = s.cache.Set(ctx, key, tasks, 0)
	return tasks, nil
}

// ListDaily returns all tasks scheduled on a calendar day.
func (s *TaskService) ListDaily(ctx context.Context, date time.Time, rawStatus string) ([]models.TaskWithNote, error) {
	filter := models.TaskFilter{Date: &date}
	if err := applyStatusFilter(&filter, rawStatus); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list daily tasks")
	}
	return tasks, nil
}

// AddNoteToPlan enrolls a note into one plan outside the generation pass.
func (s *TaskService) AddNoteToPlan(ctx context.Context, noteID, planID int64, startDate *time.Time, priority *int) (*models.RevisionTask, error) {
	if _, err := s.loadNote(ctx, noteID); err != nil {
		return nil, err
	}
	if _, err := s.plans.FindByID(ctx, planID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("plan %d not found", planID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}
	exists, err := s.tasks.ExistsForPlanAndNote(ctx, planID, noteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check plan membership")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "note already exists in plan")
	}

	task := membershipTask(noteID, planID, startDate, priority)
	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add note to plan")
	}
	s.invalidate(ctx)
	return task, nil
}

// AddNoteToPlans enrolls a note into many plans, reporting per-plan failures
// instead of aborting.
func (s *TaskService) AddNoteToPlans(ctx context.Context, noteID int64, req AddNoteToPlansRequest) (*AddNoteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.loadNote(ctx, noteID); err != nil {
		return nil, err
	}

	result := &AddNoteResult{Tasks: []models.RevisionTask{}, FailedPlans: []models.PlanFailure{}}
	for _, planID := range req.PlanIDs {
		if _, err := s.plans.FindByID(ctx, planID); err != nil {
			if err == sql.ErrNoRows {
				result.FailedPlans = append(result.FailedPlans, models.PlanFailure{PlanID: planID, Reason: "plan not found"})
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
		}
		exists, err := s.tasks.ExistsForPlanAndNote(ctx, planID, noteID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check plan membership")
		}
		if exists {
			result.FailedPlans = append(result.FailedPlans, models.PlanFailure{PlanID: planID, Reason: "already exists"})
			continue
		}

		task := membershipTask(noteID, planID, req.StartDate, req.Priority)
		if err := s.tasks.Insert(ctx, task); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add note to plan")
		}
		result.Tasks = append(result.Tasks, *task)
	}

	result.Success = len(result.Tasks) > 0
	if result.Success {
		s.invalidate(ctx)
	}
	return result, nil
}

func (s *TaskService) loadNote(ctx context.Context, noteID int64) (*models.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("note %d not found", noteID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

// membershipTask builds the ad-hoc enrollment task. Unlike generator output it
// pre-seeds mastery_level to not_mastered and defaults priority to 1.
func membershipTask(noteID, planID int64, startDate *time.Time, priority *int) *models.RevisionTask {
	scheduled := time.Now().UTC()
	if startDate != nil {
		scheduled = startDate.UTC()
	}
	prio := 1
	if priority != nil {
		prio = *priority
	}
	level := models.MasteryNotMastered
	return &models.RevisionTask{
		PlanID:        planID,
		NoteID:        noteID,
		ScheduledDate: scheduled,
		Status:        models.TaskStatusPending,
		MasteryLevel:  &level,
		RevisionMode:  models.ModeNormal,
		Priority:      prio,
	}
}

func applyStatusFilter(filter *models.TaskFilter, rawStatus string) error {
	if rawStatus == "" {
		return nil
	}
	status := models.TaskStatus(rawStatus)
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid task status: "+rawStatus)
	}
	filter.Status = &status
	return nil
}

func (s *TaskService) invalidate(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "revision:*")
	}
}

func dateKey(date *time.Time) string {
	if date == nil {
		return "any"
	}
	return date.Format("2006-01-02")
}
