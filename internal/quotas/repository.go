package quotas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhub/backend/internal/accounts"
	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/database"
)

const requestColumns = `id, requester_id, resource_kind, requested_limit, reason,
	status, COALESCE(admin_comment,''), created_at, updated_at`

// Repository handles quota request persistence and usage counting. It also
// implements workflow.Store for the quota request kind.
type Repository struct {
	pool     *pgxpool.Pool
	accounts *accounts.Repository
}

// NewRepository creates a quotas repository.
func NewRepository(pool *pgxpool.Pool, accounts *accounts.Repository) *Repository {
	return &Repository{pool: pool, accounts: accounts}
}

func scanRequest(row pgx.Row) (*models.QuotaRequest, error) {
	var req models.QuotaRequest
	err := row.Scan(&req.ID, &req.RequesterID, &req.ResourceKind, &req.RequestedLimit,
		&req.Reason, &req.Status, &req.AdminComment, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create inserts a quota request. The partial unique index on pending
// requests makes the at-most-one-pending rule atomic; a violation surfaces
// as DuplicatePendingRequest.
func (r *Repository) Create(ctx context.Context, req *models.QuotaRequest) error {
	const q = `INSERT INTO quota_requests (requester_id, resource_kind, requested_limit, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, req.RequesterID, req.ResourceKind, req.RequestedLimit, req.Reason).
		Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrDuplicatePendingRequest
		}
		return err
	}
	return nil
}

// GetByID returns a quota request.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuotaRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM quota_requests WHERE id = $1`
	return scanRequest(r.pool.QueryRow(ctx, q, id))
}

// ListByRequester returns an account's quota requests, newest first.
func (r *Repository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.QuotaRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM quota_requests WHERE requester_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, requesterID)
}

// ListByStatus returns quota requests in a status, oldest first (admin queue
// order). An empty status lists everything.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.QuotaRequest, error) {
	if status == "" {
		const q = `SELECT ` + requestColumns + ` FROM quota_requests ORDER BY created_at`
		return r.list(ctx, q)
	}
	const q = `SELECT ` + requestColumns + ` FROM quota_requests WHERE status = $1 ORDER BY created_at`
	return r.list(ctx, q, status)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.QuotaRequest, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.QuotaRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *req)
	}
	return list, rows.Err()
}

// CountSince counts resources of a kind created by the account since the
// given time. Implements quotas.UsageCounter.
func (r *Repository) CountSince(ctx context.Context, accountID uuid.UUID, kind models.ResourceKind, since time.Time) (int, error) {
	var q string
	switch kind {
	case models.ResourceEvent:
		q = `SELECT COUNT(*) FROM events WHERE organizer_id = $1 AND created_at >= $2`
	case models.ResourcePlan:
		q = `SELECT COUNT(*) FROM plans WHERE creator_id = $1 AND created_at >= $2`
	default:
		return 0, fmt.Errorf("%w: resource kind %q", apperr.ErrInvalidValue, kind)
	}
	var count int
	err := r.pool.QueryRow(ctx, q, accountID, since).Scan(&count)
	return count, err
}

// Get implements workflow.Store.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*workflow.Meta, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &workflow.Meta{
		ID:      req.ID,
		OwnerID: req.RequesterID,
		Status:  workflow.State(req.Status),
		Subject: fmt.Sprintf("%s quota request", req.ResourceKind),
		Link:    "/quotas",
	}, nil
}

// Decide implements workflow.Store. The status transition and, on approval,
// the account quota update commit in one transaction.
func (r *Repository) Decide(ctx context.Context, id uuid.UUID, decision workflow.State, actorID uuid.UUID, comment string) (ok bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const q = `UPDATE quota_requests
		SET status = $2, admin_comment = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING requester_id, resource_kind, requested_limit`
	var requesterID uuid.UUID
	var kind models.ResourceKind
	var requestedLimit int
	err = tx.QueryRow(ctx, q, id, decision, comment).Scan(&requesterID, &kind, &requestedLimit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already decided by a concurrent actor.
			err = nil
			_ = tx.Rollback(ctx)
			return false, nil
		}
		return false, err
	}

	if decision == workflow.StateApproved {
		if err = r.accounts.SetWeeklyQuotaTx(ctx, tx, requesterID, kind, requestedLimit); err != nil {
			return false, fmt.Errorf("apply quota: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
