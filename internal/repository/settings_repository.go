package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

// defaultReminderTime is applied when no settings row exists yet.
const defaultReminderTime = "09:00"

// SettingsRepository persists the single-row reminder configuration.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a new repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, or defaults when none exist.
func (r *SettingsRepository) Get(ctx context.Context) (*models.RevisionSettings, error) {
	var settings models.RevisionSettings
	const query = `SELECT id, reminder_enabled, reminder_time, updated_at FROM revision_settings WHERE id = 1`
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if err == sql.ErrNoRows {
			return &models.RevisionSettings{ID: 1, ReminderEnabled: false, ReminderTime: defaultReminderTime}, nil
		}
		return nil, fmt.Errorf("load revision settings: %w", err)
	}
	return &settings, nil
}

// Upsert stores the settings, creating the row on first write.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.RevisionSettings) error {
	settings.ID = 1
	settings.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO revision_settings (id, reminder_enabled, reminder_time, updated_at)
VALUES (:id, :reminder_enabled, :reminder_time, :updated_at)
ON CONFLICT (id) DO UPDATE SET reminder_enabled = EXCLUDED.reminder_enabled, reminder_time = EXCLUDED.reminder_time, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert revision settings: %w", err)
	}
	return nil
}
