// Package reports implements content reporting: user-filed complaints about
// events, plans or other users, triaged by admins through the review
// workflow.
package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/workflow"
)

// Reportable target types.
var targetTypes = map[string]bool{"event": true, "plan": true, "user": true}

const reportColumns = `id, reporter_id, target_type, target_id, reason,
	status, resolved_at, resolved_by, created_at, updated_at`

// Repository handles report persistence. It also implements workflow.Store
// for the report kind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanReport(row pgx.Row) (*models.Report, error) {
	var rep models.Report
	err := row.Scan(&rep.ID, &rep.ReporterID, &rep.TargetType, &rep.TargetID,
		&rep.Reason, &rep.Status, &rep.ResolvedAt, &rep.ResolvedBy,
		&rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

// Create inserts a report in the pending status.
func (r *Repository) Create(ctx context.Context, rep *models.Report) error {
	if !targetTypes[rep.TargetType] {
		return fmt.Errorf("%w: target type %q", apperr.ErrInvalidValue, rep.TargetType)
	}
	const q = `INSERT INTO reports (reporter_id, target_type, target_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, rep.ReporterID, rep.TargetType, rep.TargetID, rep.Reason).
		Scan(&rep.ID, &rep.Status, &rep.CreatedAt, &rep.UpdatedAt)
}

// GetByID returns a report.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(r.pool.QueryRow(ctx, q, id))
}

// ListByStatus returns reports in a status, oldest first. An empty status
// lists everything.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.Report, error) {
	q := `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at`
	args := []any{}
	if status != "" {
		q = `SELECT ` + reportColumns + ` FROM reports WHERE status = $1 ORDER BY created_at`
		args = append(args, status)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rep)
	}
	return list, rows.Err()
}

// Get implements workflow.Store.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*workflow.Meta, error) {
	rep, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &workflow.Meta{
		ID:      rep.ID,
		OwnerID: rep.ReporterID,
		Status:  workflow.State(rep.Status),
		Subject: fmt.Sprintf("report on a %s", rep.TargetType),
		Link:    "/reports",
	}, nil
}

// Decide implements workflow.Store. The reviewed marker only applies to a
// pending report; terminal decisions apply from pending or reviewed and
// stamp who resolved the report and when.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, decision workflow.State, actorID uuid.UUID, comment string) (bool, error) {
	var q string
	switch decision {
	case workflow.StateReviewed:
		q = `UPDATE reports SET status = $2, updated_at = NOW()
			WHERE id = $1 AND status = 'pending'`
	default:
		q = `UPDATE reports SET status = $2, resolved_at = NOW(), resolved_by = $3, updated_at = NOW()
			WHERE id = $1 AND status IN ('pending', 'reviewed')`
	}
	var tag pgconn.CommandTag
	var err error
	if decision == workflow.StateReviewed {
		tag, err = r.pool.Exec(ctx, q, id, decision)
	} else {
		tag, err = r.pool.Exec(ctx, q, id, decision, actorID)
	}
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
