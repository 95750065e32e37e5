package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

func noteRows(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "handbook_id", "category_id", "title", "content", "status", "priority",
		"total_revisions", "last_revision_date", "current_mastery_level", "created_at", "updated_at",
	})
	now := time.Now().UTC()
	for _, id := range ids {
		rows.AddRow(id, int64(7), nil, "note", "", "published", 0, 0, nil, nil, now, now)
	}
	return rows
}

func TestNoteRepositoryListByScopeAllAxes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	scope := models.NoteScope{
		HandbookIDs:  pq.Int64Array{7},
		CategoryIDs:  pq.Int64Array{3},
		TagIDs:       pq.Int64Array{11},
		NoteStatuses: pq.StringArray{"published"},
	}
	mock.ExpectQuery(regexp.QuoteMeta("EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag_id = ANY($4))")).
		WithArgs(scope.HandbookIDs, scope.CategoryIDs, scope.NoteStatuses, scope.TagIDs).
		WillReturnRows(noteRows(1, 2))

	notes, err := repo.ListByScope(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestNoteRepositoryListByScopeEmptyMatchesAll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 ORDER BY id")).
		WillReturnRows(noteRows(1, 2, 3))

	notes, err := repo.ListByScope(context.Background(), models.NoteScope{})
	require.NoError(t, err)
	assert.Len(t, notes, 3)
}
