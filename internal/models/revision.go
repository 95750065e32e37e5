package models

import (
	"time"

	"github.com/lib/pq"
)

// PlanStatus represents the administrative state of a revision plan.
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// Valid reports whether the value belongs to the closed set.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusActive, PlanStatusCompleted, PlanStatusCancelled:
		return true
	}
	return false
}

// TaskStatus represents the lifecycle state of a revision task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusSkipped:
		return true
	}
	return false
}

// MasteryLevel captures the latest self-reported assessment for a task.
type MasteryLevel string

const (
	MasteryNotMastered       MasteryLevel = "not_mastered"
	MasteryPartiallyMastered MasteryLevel = "partially_mastered"
	MasteryMastered          MasteryLevel = "mastered"
)

func (m MasteryLevel) Valid() bool {
	switch m {
	case MasteryNotMastered, MasteryPartiallyMastered, MasteryMastered:
		return true
	}
	return false
}

// RevisionMode distinguishes how a review session is conducted.
type RevisionMode string

const (
	ModeNormal     RevisionMode = "normal"
	ModeIntensive  RevisionMode = "intensive"
	ModeReview     RevisionMode = "review"
	ModeAdjustment RevisionMode = "adjustment"
)

func (m RevisionMode) Valid() bool {
	switch m {
	case ModeNormal, ModeIntensive, ModeReview, ModeAdjustment:
		return true
	}
	return false
}

// RevisionIntervals is the fixed forgetting-curve offset table, in days.
// Offsets whose date falls outside the plan window are skipped, not clamped.
var RevisionIntervals = []int{1, 2, 4, 7, 15, 30}

// Follow-up offsets applied when a review reports incomplete mastery.
const (
	FollowUpNotMasteredDays     = 1
	FollowUpNotMasteredPriority = 2
	FollowUpPartialDays         = 3
	FollowUpPartialPriority     = 1
)

// RevisionPlan defines a review campaign over a note selection.
type RevisionPlan struct {
	ID           int64          `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	StartDate    time.Time      `db:"start_date" json:"start_date"`
	EndDate      time.Time      `db:"end_date" json:"end_date"`
	Status       PlanStatus     `db:"status" json:"status"`
	HandbookIDs  pq.Int64Array  `db:"handbook_ids" json:"handbook_ids"`
	CategoryIDs  pq.Int64Array  `db:"category_ids" json:"category_ids"`
	TagIDs       pq.Int64Array  `db:"tag_ids" json:"tag_ids"`
	NoteStatuses pq.StringArray `db:"note_statuses" json:"note_statuses"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Scope returns the note selection filter the plan was created with.
func (p *RevisionPlan) Scope() NoteScope {
	return NoteScope{
		HandbookIDs:  p.HandbookIDs,
		CategoryIDs:  p.CategoryIDs,
		TagIDs:       p.TagIDs,
		NoteStatuses: p.NoteStatuses,
	}
}

// RevisionTask is a single scheduled review of a note.
type RevisionTask struct {
	ID            int64         `db:"id" json:"id"`
	PlanID        int64         `db:"plan_id" json:"plan_id"`
	NoteID        int64         `db:"note_id" json:"note_id"`
	ScheduledDate time.Time     `db:"scheduled_date" json:"scheduled_date"`
	Status        TaskStatus    `db:"status" json:"status"`
	MasteryLevel  *MasteryLevel `db:"mastery_level" json:"mastery_level,omitempty"`
	RevisionMode  RevisionMode  `db:"revision_mode" json:"revision_mode"`
	Priority      int           `db:"priority" json:"priority"`
	TimeSpent     int           `db:"time_spent" json:"time_spent"`
	RevisionCount int           `db:"revision_count" json:"revision_count"`
	CompletedAt   *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// FollowUp builds the adaptive follow-up task for an incompletely mastered
// review, anchored at the given time. Mastered reviews yield no follow-up.
func (t *RevisionTask) FollowUp(level MasteryLevel, now time.Time) *RevisionTask {
	var days, priority int
	switch level {
	case MasteryNotMastered:
		days, priority = FollowUpNotMasteredDays, FollowUpNotMasteredPriority
	case MasteryPartiallyMastered:
		days, priority = FollowUpPartialDays, FollowUpPartialPriority
	default:
		return nil
	}
	return &RevisionTask{
		PlanID:        t.PlanID,
		NoteID:        t.NoteID,
		ScheduledDate: now.AddDate(0, 0, days),
		Status:        TaskStatusPending,
		RevisionMode:  t.RevisionMode,
		Priority:      priority,
	}
}

// TaskWithNote attaches a denormalized note summary to a task row.
type TaskWithNote struct {
	RevisionTask
	NoteTitle    *string `db:"note_title" json:"note_title,omitempty"`
	NoteStatus   *string `db:"note_status" json:"note_status,omitempty"`
	NotePriority *int    `db:"note_priority" json:"note_priority,omitempty"`
}

// RevisionHistory is an immutable record of one review event.
type RevisionHistory struct {
	ID           int64        `db:"id" json:"id"`
	NoteID       int64        `db:"note_id" json:"note_id"`
	TaskID       int64        `db:"task_id" json:"task_id"`
	MasteryLevel MasteryLevel `db:"mastery_level" json:"mastery_level"`
	RevisionMode RevisionMode `db:"revision_mode" json:"revision_mode"`
	TimeSpent    int          `db:"time_spent" json:"time_spent"`
	RevisionDate time.Time    `db:"revision_date" json:"revision_date"`
	Comments     *string      `db:"comments" json:"comments,omitempty"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	PlanID *int64
	Status *TaskStatus
	Date   *time.Time
}

// HistoryFilter narrows history listings.
type HistoryFilter struct {
	NoteID    *int64
	TaskID    *int64
	StartDate *time.Time
	EndDate   *time.Time
}

// PlanFailure reports why a note could not be added to a plan.
type PlanFailure struct {
	PlanID int64  `json:"plan_id"`
	Reason string `json:"reason"`
}

// HandbookPlans is the result of checking plan coverage for a handbook.
type HandbookPlans struct {
	HasPlan bool           `json:"has_plan"`
	Plans   []RevisionPlan `json:"plans"`
}
