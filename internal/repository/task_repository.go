package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

const taskColumns = `t.id, t.plan_id, t.note_id, t.scheduled_date, t.status, t.mastery_level, t.revision_mode, t.priority, t.time_spent,
(SELECT COUNT(*) FROM revision_histories h WHERE h.task_id = t.id) AS revision_count,
t.completed_at, t.created_at, t.updated_at`

// TaskRepository manages persistence for revision tasks, including the
// transactional review paths that touch tasks, histories and note aggregates
// together.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a new repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Insert creates a single task and fills in its generated identity.
func (r *TaskRepository) Insert(ctx context.Context, task *models.RevisionTask) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.RevisionMode == "" {
		task.RevisionMode = models.ModeNormal
	}
	if err := insertTaskTx(ctx, r.db, task); err != nil {
		return err
	}
	return nil
}

// InsertBatch creates all tasks in one transaction; any failure aborts the
// whole generation.
func (r *TaskRepository) InsertBatch(ctx context.Context, tasks []models.RevisionTask) (err error) {
	if len(tasks) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin task generation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range tasks {
		tasks[i].CreatedAt = now
		tasks[i].UpdatedAt = now
		if err = insertTaskTx(ctx, tx, &tasks[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit task generation: %w", err)
	}
	return nil
}

// FindByID loads a single task with its derived revision count.
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*models.RevisionTask, error) {
	var task models.RevisionTask
	query := fmt.Sprintf("SELECT %s FROM revision_tasks t WHERE t.id = $1", taskColumns)
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks with a denormalized note summary attached.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.TaskWithNote, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.PlanID != nil {
		where = append(where, fmt.Sprintf("t.plan_id = $%d", len(args)+1))
		args = append(args, *filter.PlanID)
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Date != nil {
		where = append(where, fmt.Sprintf("t.scheduled_date::date = $%d::date", len(args)+1))
		args = append(args, *filter.Date)
	}
	query := fmt.Sprintf(`SELECT %s, n.title AS note_title, n.status AS note_status, n.priority AS note_priority
FROM revision_tasks t
LEFT JOIN notes n ON n.id = t.note_id
WHERE %s
ORDER BY t.scheduled_date ASC, t.id ASC`, taskColumns, strings.Join(where, " AND "))
	tasks := []models.TaskWithNote{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list revision tasks: %w", err)
	}
	return tasks, nil
}

// NextPending returns the best due pending task: priority descending, then
// earliest scheduled date. The revision_mode filter applies only in normal
// mode; other modes return the best pending task regardless of stored mode.
// Returns sql.ErrNoRows when nothing qualifies.
func (r *TaskRepository) NextPending(ctx context.Context, planID *int64, mode models.RevisionMode, now time.Time) (*models.RevisionTask, error) {
	where := []string{"t.status = $1", "t.scheduled_date <= $2"}
	args := []interface{}{models.TaskStatusPending, now}
	if planID != nil {
		where = append(where, fmt.Sprintf("t.plan_id = $%d", len(args)+1))
		args = append(args, *planID)
	}
	if mode == models.ModeNormal {
		where = append(where, fmt.Sprintf("t.revision_mode = $%d", len(args)+1))
		args = append(args, mode)
	}
	query := fmt.Sprintf(`SELECT %s FROM revision_tasks t WHERE %s
ORDER BY t.priority DESC, t.scheduled_date ASC, t.id ASC LIMIT 1`, taskColumns, strings.Join(where, " AND "))
	var task models.RevisionTask
	if err := r.db.GetContext(ctx, &task, query, args...); err != nil {
		return nil, err
	}
	return &task, nil
}

// ExistsForPlanAndNote reports whether the note already has a task in the plan.
func (r *TaskRepository) ExistsForPlanAndNote(ctx context.Context, planID, noteID int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM revision_tasks WHERE plan_id = $1 AND note_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, planID, noteID); err != nil {
		return false, fmt.Errorf("check task existence: %w", err)
	}
	return exists, nil
}

// DailyCounts returns the total and completed task counts for a calendar day.
func (r *TaskRepository) DailyCounts(ctx context.Context, date time.Time) (total, completed int, err error) {
	const query = `SELECT COUNT(*) AS total,
COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed
FROM revision_tasks WHERE scheduled_date::date = $1::date`
	row := r.db.QueryRowxContext(ctx, query, date)
	if err = row.Scan(&total, &completed); err != nil {
		return 0, 0, fmt.Errorf("count daily tasks: %w", err)
	}
	return total, completed, nil
}

// Adjust reschedules a task, stamping it with the adjustment mode.
func (r *TaskRepository) Adjust(ctx context.Context, id int64, newDate time.Time, priority *int) (*models.RevisionTask, error) {
	const query = `UPDATE revision_tasks SET scheduled_date = $2, revision_mode = $3, priority = COALESCE($4, priority), updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, newDate, models.ModeAdjustment, priority, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("adjust task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("adjust task: %w", err)
	}
	if affected == 0 {
		return nil, sql.ErrNoRows
	}
	return r.FindByID(ctx, id)
}

// ReviewUpdate is the explicit per-field change set for the single-task
// lifecycle path. Nil fields are left untouched.
type ReviewUpdate struct {
	Status       *models.TaskStatus
	MasteryLevel *models.MasteryLevel
	CompletedAt  *time.Time
}

// ApplyReview runs the single-task lifecycle update in one transaction:
// status transition, mastery assignment, completion stamping, history append
// and note aggregate bump. It never creates follow-up tasks; adaptive
// insertion belongs to the batch path.
func (r *TaskRepository) ApplyReview(ctx context.Context, taskID int64, update ReviewUpdate) (task *models.RevisionTask, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin task update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err = lockTaskTx(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	completedAt := now
	if update.CompletedAt != nil {
		completedAt = update.CompletedAt.UTC()
	}

	if update.Status != nil {
		task.Status = *update.Status
		if task.Status == models.TaskStatusCompleted {
			task.CompletedAt = &completedAt
		}
	}
	if update.MasteryLevel != nil {
		task.MasteryLevel = update.MasteryLevel
		task.CompletedAt = &completedAt

		history := &models.RevisionHistory{
			NoteID:       task.NoteID,
			TaskID:       task.ID,
			MasteryLevel: *update.MasteryLevel,
			RevisionMode: models.ModeNormal,
			RevisionDate: now,
		}
		if err = insertHistoryTx(ctx, tx, history); err != nil {
			return nil, err
		}
		if err = bumpNoteRevisionTx(ctx, tx, task.NoteID, *update.MasteryLevel, now); err != nil {
			return nil, err
		}
	}

	task.UpdatedAt = now
	if err = updateTaskTx(ctx, tx, task); err != nil {
		return nil, err
	}
	if task, err = getTaskTx(ctx, tx, taskID); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit task update: %w", err)
	}
	return task, nil
}

// BatchChange is the uniform change applied to every task of a batch update.
type BatchChange struct {
	Status       models.TaskStatus
	MasteryLevel models.MasteryLevel
	RevisionMode models.RevisionMode
	TimeSpent    int
	Comments     *string
}

// BatchApply updates the listed tasks in input order inside one transaction.
// Missing ids are skipped, not errors. Every updated task gets completed_at
// stamped regardless of the requested status, one history row, a note
// aggregate bump, and, for incomplete mastery, one follow-up task.
func (r *TaskRepository) BatchApply(ctx context.Context, taskIDs []int64, change BatchChange) (updated []models.RevisionTask, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	updated = []models.RevisionTask{}
	for _, id := range taskIDs {
		var task *models.RevisionTask
		task, err = lockTaskTx(ctx, tx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				err = nil
				continue
			}
			return nil, err
		}

		level := change.MasteryLevel
		task.Status = change.Status
		task.MasteryLevel = &level
		task.RevisionMode = change.RevisionMode
		task.TimeSpent = change.TimeSpent
		task.CompletedAt = &now
		task.UpdatedAt = now
		if err = updateTaskTx(ctx, tx, task); err != nil {
			return nil, err
		}

		history := &models.RevisionHistory{
			NoteID:       task.NoteID,
			TaskID:       task.ID,
			MasteryLevel: level,
			RevisionMode: change.RevisionMode,
			TimeSpent:    change.TimeSpent,
			RevisionDate: now,
			Comments:     change.Comments,
		}
		if err = insertHistoryTx(ctx, tx, history); err != nil {
			return nil, err
		}
		if err = bumpNoteRevisionTx(ctx, tx, task.NoteID, level, now); err != nil {
			return nil, err
		}

		// Follow-up creation is not a review event: no history row of its own.
		if followUp := task.FollowUp(level, now); followUp != nil {
			followUp.CreatedAt = now
			followUp.UpdatedAt = now
			if err = insertTaskTx(ctx, tx, followUp); err != nil {
				return nil, err
			}
		}

		task, err = getTaskTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *task)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch update: %w", err)
	}
	return updated, nil
}

// lockTaskTx loads a task row FOR UPDATE inside an open transaction.
func lockTaskTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.RevisionTask, error) {
	var task models.RevisionTask
	const query = `SELECT id, plan_id, note_id, scheduled_date, status, mastery_level, revision_mode, priority, time_spent, completed_at, created_at, updated_at
FROM revision_tasks WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// getTaskTx re-reads a task with its derived revision count.
func getTaskTx(ctx context.Context, tx *sqlx.Tx, id int64) (*models.RevisionTask, error) {
	var task models.RevisionTask
	query := fmt.Sprintf("SELECT %s FROM revision_tasks t WHERE t.id = $1", taskColumns)
	if err := tx.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

func updateTaskTx(ctx context.Context, tx *sqlx.Tx, task *models.RevisionTask) error {
	const query = `UPDATE revision_tasks SET scheduled_date = $2, status = $3, mastery_level = $4, revision_mode = $5, priority = $6, time_spent = $7, completed_at = $8, updated_at = $9
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query,
		task.ID, task.ScheduledDate, task.Status, task.MasteryLevel,
		task.RevisionMode, task.Priority, task.TimeSpent, task.CompletedAt, task.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update revision task: %w", err)
	}
	return nil
}

type execer interface {
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

func insertTaskTx(ctx context.Context, ex execer, task *models.RevisionTask) error {
	const query = `INSERT INTO revision_tasks (plan_id, note_id, scheduled_date, status, mastery_level, revision_mode, priority, time_spent, completed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	if err := ex.QueryRowxContext(ctx, query,
		task.PlanID, task.NoteID, task.ScheduledDate, task.Status, task.MasteryLevel,
		task.RevisionMode, task.Priority, task.TimeSpent, task.CompletedAt,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID); err != nil {
		return fmt.Errorf("insert revision task: %w", err)
	}
	return nil
}
