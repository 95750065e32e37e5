package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mnemo-app/mnemo-api/internal/models"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/jobs"
)

type settingsRepository interface {
	Get(ctx context.Context) (*models.RevisionSettings, error)
	Upsert(ctx context.Context, settings *models.RevisionSettings) error
}

type dailyCounter interface {
	DailyCounts(ctx context.Context, date time.Time) (total, completed int, err error)
}

// UpdateSettingsRequest changes the reminder configuration.
type UpdateSettingsRequest struct {
	ReminderEnabled *bool   `json:"reminder_enabled"`
	ReminderTime    *string `json:"reminder_time" validate:"omitempty,len=5"`
}

// reminderPayload is what the reminder queue carries per dispatch.
type reminderPayload struct {
	Summary models.DailySummary `json:"summary"`
}

// NotificationService produces daily summaries and drives reminder dispatch.
type NotificationService struct {
	settings  settingsRepository
	tasks     dailyCounter
	cache     *CacheService
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewNotificationService constructs NotificationService. The queue may be nil
// when reminders are disabled.
func NewNotificationService(settings settingsRepository, tasks dailyCounter, cache *CacheService, queue *jobs.Queue, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		settings:  settings,
		tasks:     tasks,
		cache:     cache,
		queue:     queue,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// DailySummary reports the task load and completion rate for a day.
func (s *NotificationService) DailySummary(ctx context.Context, date time.Time) (*models.DailySummary, error) {
	key := fmt.Sprintf("revision:summary:%s", date.Format("2006-01-02"))
	var cached models.DailySummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	total, completed, err := s.tasks.DailyCounts(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build daily summary")
	}

	summary := &models.DailySummary{
		Date:           date.Format("2006-01-02"),
		TotalTasks:     total,
		CompletedTasks: completed,
		PendingTasks:   total - completed,
	}
	if total > 0 {
		summary.CompletionRate = float64(completed) / float64(total)
	}

	_ = s.cache.Set(ctx, key, summary, s.cacheTTL)
	return summary, nil
}

// GetSettings returns the reminder configuration.
func (s *NotificationService) GetSettings(ctx context.Context) (*models.RevisionSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load revision settings")
	}
	return settings, nil
}

// UpdateSettings applies a partial settings change and persists it.
func (s *NotificationService) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*models.RevisionSettings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settings payload")
	}
	if req.ReminderTime != nil {
		if _, err := time.Parse("15:04", *req.ReminderTime); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid reminder time, expected HH:MM")
		}
	}

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if req.ReminderEnabled != nil {
		settings.ReminderEnabled = *req.ReminderEnabled
	}
	if req.ReminderTime != nil {
		settings.ReminderTime = *req.ReminderTime
	}

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store revision settings")
	}
	s.logger.Sugar().Infow("revision settings updated",
		"reminder_enabled", settings.ReminderEnabled,
		"reminder_time", settings.ReminderTime)
	return settings, nil
}

// DispatchReminder enqueues a reminder job for today's summary when reminders
// are enabled. Returns true when a job was queued.
func (s *NotificationService) DispatchReminder(ctx context.Context, now time.Time) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.ReminderEnabled || s.queue == nil {
		return false, nil
	}

	summary, err := s.DailySummary(ctx, now)
	if err != nil {
		return false, err
	}
	if summary.PendingTasks == 0 {
		return false, nil
	}

	job := jobs.NewJob("daily-reminder", reminderPayload{Summary: *summary})
	if err := s.queue.Enqueue(job); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue reminder")
	}
	s.logger.Sugar().Infow("reminder queued", "job_id", job.ID, "pending_tasks", summary.PendingTasks)
	return true, nil
}

// RunReminderLoop polls the clock and dispatches at most one reminder per day
// once the configured reminder time has passed. It blocks until ctx is done.
func (s *NotificationService) RunReminderLoop(ctx context.Context, poll time.Duration) {
	if poll <= 0 {
		poll = time.Minute
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastDay string
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			day := now.Format("2006-01-02")
			if day == lastDay {
				continue
			}
			fired, err := s.maybeDispatch(ctx, now)
			if err != nil {
				s.logger.Sugar().Warnw("reminder dispatch failed", "error", err)
				continue
			}
			if fired {
				lastDay = day
			}
		}
	}
}

// maybeDispatch triggers a dispatch once the configured reminder time has
// passed. Returns true when the day is consumed.
func (s *NotificationService) maybeDispatch(ctx context.Context, now time.Time) (bool, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return false, err
	}
	if !settings.ReminderEnabled {
		return false, nil
	}

	at, err := time.Parse("15:04", settings.ReminderTime)
	if err != nil {
		return false, fmt.Errorf("malformed reminder time %q: %w", settings.ReminderTime, err)
	}
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if now.Before(fireAt) {
		return false, nil
	}

	if _, err := s.DispatchReminder(ctx, now); err != nil {
		return false, err
	}
	return true, nil
}

// HandleReminderJob logs the reminder delivery. Downstream channels (email,
// push) plug in here.
func (s *NotificationService) HandleReminderJob(_ context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reminderPayload)
	if !ok {
		return fmt.Errorf("unexpected reminder payload %T", job.Payload)
	}
	s.logger.Sugar().Infow("daily reminder",
		"date", payload.Summary.Date,
		"pending_tasks", payload.Summary.PendingTasks,
		"completion_rate", payload.Summary.CompletionRate)
	return nil
}
