package models

import "time"

// RevisionSettings holds the single-tenant reminder configuration.
type RevisionSettings struct {
	ID              int64     `db:"id" json:"-"`
	ReminderEnabled bool      `db:"reminder_enabled" json:"reminder_enabled"`
	ReminderTime    string    `db:"reminder_time" json:"reminder_time"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// DailySummary reports progress over the tasks due on a given day.
type DailySummary struct {
	Date           string  `json:"date"`
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	PendingTasks   int     `json:"pending_tasks"`
	CompletionRate float64 `json:"completion_rate"`
}
