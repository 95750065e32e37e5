package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

const historyColumns = `id, note_id, task_id, mastery_level, revision_mode, time_spent, revision_date, comments`

// HistoryRepository manages the append-only review log. Rows are inserted,
// never updated or deleted.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs a new repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// List returns history rows matching the filter, oldest first.
func (r *HistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.RevisionHistory, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.NoteID != nil {
		where = append(where, fmt.Sprintf("note_id = $%d", len(args)+1))
		args = append(args, *filter.NoteID)
	}
	if filter.TaskID != nil {
		where = append(where, fmt.Sprintf("task_id = $%d", len(args)+1))
		args = append(args, *filter.TaskID)
	}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("revision_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("revision_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	query := fmt.Sprintf("SELECT %s FROM revision_histories WHERE %s ORDER BY revision_date ASC, id ASC",
		historyColumns, strings.Join(where, " AND "))
	histories := []models.RevisionHistory{}
	if err := r.db.SelectContext(ctx, &histories, query, args...); err != nil {
		return nil, fmt.Errorf("list revision histories: %w", err)
	}
	return histories, nil
}

// Record appends one review event for the task and bumps the owning note's
// aggregate counters, atomically. This is the canonical place note aggregates
// move, exactly once per event.
func (r *HistoryRepository) Record(ctx context.Context, taskID int64, level models.MasteryLevel, mode models.RevisionMode, timeSpent int, comments *string) (history *models.RevisionHistory, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record revision: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var task struct {
		ID     int64 `db:"id"`
		NoteID int64 `db:"note_id"`
	}
	if err = tx.GetContext(ctx, &task, "SELECT id, note_id FROM revision_tasks WHERE id = $1", taskID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	history = &models.RevisionHistory{
		NoteID:       task.NoteID,
		TaskID:       task.ID,
		MasteryLevel: level,
		RevisionMode: mode,
		TimeSpent:    timeSpent,
		RevisionDate: now,
		Comments:     comments,
	}
	if err = insertHistoryTx(ctx, tx, history); err != nil {
		return nil, err
	}
	if err = bumpNoteRevisionTx(ctx, tx, task.NoteID, level, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record revision: %w", err)
	}
	return history, nil
}

// insertHistoryTx appends one history row inside an open transaction.
func insertHistoryTx(ctx context.Context, tx *sqlx.Tx, h *models.RevisionHistory) error {
	const query = `INSERT INTO revision_histories (note_id, task_id, mastery_level, revision_mode, time_spent, revision_date, comments)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		h.NoteID, h.TaskID, h.MasteryLevel, h.RevisionMode, h.TimeSpent, h.RevisionDate, h.Comments,
	).Scan(&h.ID); err != nil {
		return fmt.Errorf("insert revision history: %w", err)
	}
	return nil
}

// bumpNoteRevisionTx advances the note-level aggregates for one review event.
// The engine touches no other note columns.
func bumpNoteRevisionTx(ctx context.Context, tx *sqlx.Tx, noteID int64, level models.MasteryLevel, at time.Time) error {
	const query = `UPDATE notes SET total_revisions = total_revisions + 1, last_revision_date = $2, current_mastery_level = $3, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, noteID, at, level); err != nil {
		return fmt.Errorf("update note revision aggregates: %w", err)
	}
	return nil
}
