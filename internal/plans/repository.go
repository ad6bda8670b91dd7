// Package plans implements member-created plans. Plans have no review gate,
// only the quota gate at creation.
package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/quotas"
)

const planColumns = `id, creator_id, title, description, starts_at, ends_at,
	status, created_at, updated_at`

// Repository handles plan persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a plans repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Description, &p.StartsAt, &p.EndsAt,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// CreateWithQuota inserts a plan after re-checking the weekly quota inside
// the same transaction, with the creator's account row locked to serialize
// concurrent creations.
func (r *Repository) CreateWithQuota(ctx context.Context, p *models.Plan) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var limit int
	err = tx.QueryRow(ctx,
		`SELECT weekly_plan_quota FROM users WHERE id = $1 FOR UPDATE`,
		p.CreatorID).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("lock account row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM plans WHERE creator_id = $1 AND created_at >= NOW() - $2::interval`,
		p.CreatorID, quotas.Window.String()).Scan(&count)
	if err != nil {
		return fmt.Errorf("count window: %w", err)
	}
	if count >= limit {
		return fmt.Errorf("%w: %d of %d plans this week", apperr.ErrQuotaExceeded, count, limit)
	}

	const q = `INSERT INTO plans (creator_id, title, description, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(ctx, q, p.CreatorID, p.Title, p.Description, p.StartsAt, p.EndsAt).
		Scan(&p.ID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns a plan.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return scanPlan(r.pool.QueryRow(ctx, q, id))
}

// ListByStatus returns plans in a status, soonest first. An empty status
// lists everything.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans ORDER BY starts_at`
	args := []any{}
	if status != "" {
		q = `SELECT ` + planColumns + ` FROM plans WHERE status = $1 ORDER BY starts_at`
		args = append(args, status)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// SetStatus moves an active plan to completed or cancelled.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status != models.PlanCompleted && status != models.PlanCancelled {
		return fmt.Errorf("%w: plan status %q", apperr.ErrInvalidValue, status)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE plans SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'active'`,
		id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrInvalidStateTransition
	}
	return nil
}
