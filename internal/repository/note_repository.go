package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

const noteColumns = `id, handbook_id, category_id, title, content, status, priority, total_revisions, last_revision_date, current_mastery_level, created_at, updated_at`

// NoteRepository gives the engine its read-mostly view of the note store.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs a new repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// FindByID loads a single note.
func (r *NoteRepository) FindByID(ctx context.Context, id int64) (*models.Note, error) {
	var note models.Note
	query := fmt.Sprintf("SELECT %s FROM notes WHERE id = $1", noteColumns)
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByScope returns the notes matching a plan scope. Filter axes combine
// with AND; an empty axis is a no-op, never "match nothing".
func (r *NoteRepository) ListByScope(ctx context.Context, scope models.NoteScope) ([]models.Note, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if len(scope.HandbookIDs) > 0 {
		where = append(where, fmt.Sprintf("handbook_id = ANY($%d)", len(args)+1))
		args = append(args, scope.HandbookIDs)
	}
	if len(scope.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", len(args)+1))
		args = append(args, scope.CategoryIDs)
	}
	if len(scope.NoteStatuses) > 0 {
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, scope.NoteStatuses)
	}
	if len(scope.TagIDs) > 0 {
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag_id = ANY($%d))", len(args)+1))
		args = append(args, scope.TagIDs)
	}
	query := fmt.Sprintf("SELECT %s FROM notes WHERE %s ORDER BY id", noteColumns, strings.Join(where, " AND "))
	notes := []models.Note{}
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("list notes by scope: %w", err)
	}
	return notes, nil
}
