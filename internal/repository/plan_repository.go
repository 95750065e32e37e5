package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mnemo-app/mnemo-api/internal/models"
)

const planColumns = `id, name, start_date, end_date, status, handbook_ids, category_ids, tag_ids, note_statuses, created_at, updated_at`

// PlanRepository manages persistence for revision plans.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs a new repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create inserts a new plan and fills in its generated identity.
func (r *PlanRepository) Create(ctx context.Context, plan *models.RevisionPlan) error {
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Status == "" {
		plan.Status = models.PlanStatusActive
	}
	const query = `INSERT INTO revision_plans (name, start_date, end_date, status, handbook_ids, category_ids, tag_ids, note_statuses, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		plan.Name, plan.StartDate, plan.EndDate, plan.Status,
		plan.HandbookIDs, plan.CategoryIDs, plan.TagIDs, plan.NoteStatuses,
		plan.CreatedAt, plan.UpdatedAt,
	).Scan(&plan.ID); err != nil {
		return fmt.Errorf("create revision plan: %w", err)
	}
	return nil
}

// FindByID loads a single plan.
func (r *PlanRepository) FindByID(ctx context.Context, id int64) (*models.RevisionPlan, error) {
	var plan models.RevisionPlan
	query := fmt.Sprintf("SELECT %s FROM revision_plans WHERE id = $1", planColumns)
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// List returns plans, optionally narrowed by status.
func (r *PlanRepository) List(ctx context.Context, status *models.PlanStatus) ([]models.RevisionPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM revision_plans", planColumns)
	args := []interface{}{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY start_date DESC, id DESC"
	plans := []models.RevisionPlan{}
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("list revision plans: %w", err)
	}
	return plans, nil
}

// ListActiveByHandbook returns active plans whose scope covers the handbook.
func (r *PlanRepository) ListActiveByHandbook(ctx context.Context, handbookID int64) ([]models.RevisionPlan, error) {
	query := fmt.Sprintf("SELECT %s FROM revision_plans WHERE status = $1 AND $2 = ANY(handbook_ids) ORDER BY start_date DESC", planColumns)
	plans := []models.RevisionPlan{}
	if err := r.db.SelectContext(ctx, &plans, query, models.PlanStatusActive, handbookID); err != nil {
		return nil, fmt.Errorf("list plans by handbook: %w", err)
	}
	return plans, nil
}
