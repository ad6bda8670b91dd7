package attendance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/database"
)

const attendanceColumns = `id, user_id, event_id, plan_id, status,
	COALESCE(message,''), created_at, updated_at`

// Repository handles attendance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAttendance(row pgx.Row) (*models.Attendance, error) {
	var a models.Attendance
	err := row.Scan(&a.ID, &a.UserID, &a.EventID, &a.PlanID, &a.Status,
		&a.Message, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// targetColumn maps a target kind to its foreign key column.
func targetColumn(kind models.TargetKind) (string, error) {
	switch kind {
	case models.TargetEvent:
		return "event_id", nil
	case models.TargetPlan:
		return "plan_id", nil
	}
	return "", fmt.Errorf("%w: target kind %q", apperr.ErrInvalidValue, kind)
}

// Create inserts an attendance. The partial unique indexes on
// (user, event) and (user, plan) make duplicate applications atomic
// failures, surfaced as AlreadyApplied.
func (r *Repository) Create(ctx context.Context, a *models.Attendance) error {
	const q = `INSERT INTO attendances (user_id, event_id, plan_id, message)
		VALUES ($1, $2, $3, NULLIF($4,''))
		RETURNING id, status, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, a.UserID, a.EventID, a.PlanID, a.Message).
		Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrAlreadyApplied
		}
		return err
	}
	return nil
}

// GetByID returns an attendance.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attendance, error) {
	const q = `SELECT ` + attendanceColumns + ` FROM attendances WHERE id = $1`
	return scanAttendance(r.pool.QueryRow(ctx, q, id))
}

// Delete removes a user's attendance for a target.
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) error {
	col, err := targetColumn(kind)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM attendances WHERE user_id = $1 AND `+col+` = $2`, userID, targetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ListByTarget returns all attendances for a target, oldest first.
func (r *Repository) ListByTarget(ctx context.Context, kind models.TargetKind, targetID uuid.UUID) ([]models.Attendance, error) {
	col, err := targetColumn(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+attendanceColumns+` FROM attendances WHERE `+col+` = $1 ORDER BY created_at`,
		targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// SetStatus applies a decision with a compare-and-swap from pending.
// Returns false when the attendance was already decided.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendances SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		id, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
