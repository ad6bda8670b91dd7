// Package events implements organizer-created events with a quota-gated,
// race-free creation path and an optional admin approval queue.
package events

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
	"github.com/gatherhub/backend/internal/workflow"
)

const eventColumns = `id, organizer_id, title, description, COALESCE(location,''),
	starts_at, ends_at, status, created_at, updated_at`

// Repository handles event persistence. It also implements workflow.Store
// for the event approval kind.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var ev models.Event
	err := row.Scan(&ev.ID, &ev.OrganizerID, &ev.Title, &ev.Description, &ev.Location,
		&ev.StartsAt, &ev.EndsAt, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

// CreateWithQuota inserts an event after re-checking the weekly quota inside
// the same transaction. The organizer's account row is locked first, so two
// concurrent creations by the same account serialize and cannot both pass a
// count-then-insert check.
func (r *Repository) CreateWithQuota(ctx context.Context, ev *models.Event, initialStatus string) (err error) {
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
		`SELECT weekly_event_quota FROM users WHERE id = $1 FOR UPDATE`,
		ev.OrganizerID).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("lock account row: %w", err)
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND created_at >= NOW() - $2::interval`,
		ev.OrganizerID, quotas.Window.String()).Scan(&count)
	if err != nil {
		return fmt.Errorf("count window: %w", err)
	}
	if count >= limit {
		return fmt.Errorf("%w: %d of %d events this week", apperr.ErrQuotaExceeded, count, limit)
	}

	const q = `INSERT INTO events (organizer_id, title, description, location, starts_at, ends_at, status)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, $7)
		RETURNING id, status, created_at, updated_at`
	err = tx.QueryRow(ctx, q, ev.OrganizerID, ev.Title, ev.Description, ev.Location,
		ev.StartsAt, ev.EndsAt, initialStatus).
		Scan(&ev.ID, &ev.Status, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns an event.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.pool.QueryRow(ctx, q, id))
}

// ListByStatus returns events in a status, soonest first. An empty status
// lists everything.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events ORDER BY starts_at`
	args := []any{}
	if status != "" {
		q = `SELECT ` + eventColumns + ` FROM events WHERE status = $1 ORDER BY starts_at`
		args = append(args, status)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ev)
	}
	return list, rows.Err()
}

// Cancel marks an event cancelled. Only pending or approved events can be
// cancelled.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status IN ('pending', 'approved')`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrInvalidStateTransition
	}
	return nil
}

// Get implements workflow.Store.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*workflow.Meta, error) {
	ev, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &workflow.Meta{
		ID:      ev.ID,
		OwnerID: ev.OrganizerID,
		Status:  workflow.State(ev.Status),
		Subject: fmt.Sprintf("event %q", ev.Title),
		Link:    "/events/" + ev.ID.String(),
	}, nil
}

// Decide implements workflow.Store for the admin pre-publication queue.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, decision workflow.State, actorID uuid.UUID, comment string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'pending'`,
		id, decision)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
