package models

import (
	"time"

	"github.com/lib/pq"
)

// NoteStatus mirrors the note store's workflow states.
type NoteStatus string

const (
	NoteStatusDraft     NoteStatus = "draft"
	NoteStatusPublished NoteStatus = "published"
	NoteStatusArchived  NoteStatus = "archived"
)

func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusDraft, NoteStatusPublished, NoteStatusArchived:
		return true
	}
	return false
}

// Note is the engine's read-mostly view of a note. Identity and content belong
// to the note store; the engine only writes the aggregate revision columns.
type Note struct {
	ID                  int64         `db:"id" json:"id"`
	HandbookID          int64         `db:"handbook_id" json:"handbook_id"`
	CategoryID          *int64        `db:"category_id" json:"category_id,omitempty"`
	Title               string        `db:"title" json:"title"`
	Content             string        `db:"content" json:"content"`
	Status              NoteStatus    `db:"status" json:"status"`
	Priority            int           `db:"priority" json:"priority"`
	TotalRevisions      int           `db:"total_revisions" json:"total_revisions"`
	LastRevisionDate    *time.Time    `db:"last_revision_date" json:"last_revision_date,omitempty"`
	CurrentMasteryLevel *MasteryLevel `db:"current_mastery_level" json:"current_mastery_level,omitempty"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at" json:"updated_at"`
}

// NoteScope selects notes along the plan's filter axes. Axes combine with AND;
// an empty axis applies no filter.
type NoteScope struct {
	HandbookIDs  pq.Int64Array
	CategoryIDs  pq.Int64Array
	TagIDs       pq.Int64Array
	NoteStatuses pq.StringArray
}

// Empty reports whether the scope applies no filtering at all.
func (s NoteScope) Empty() bool {
	return len(s.HandbookIDs) == 0 && len(s.CategoryIDs) == 0 && len(s.TagIDs) == 0 && len(s.NoteStatuses) == 0
}

// NoteStatistics aggregates the review history of a single note.
type NoteStatistics struct {
	NoteID         int64                `json:"note_id"`
	TotalRevisions int                  `json:"total_revisions"`
	MasteryLevels  map[MasteryLevel]int `json:"mastery_levels"`
	RevisionDates  []time.Time          `json:"revision_dates"`
	LastRevision   *time.Time           `json:"last_revision,omitempty"`
}
