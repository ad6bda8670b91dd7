// Package organizers implements organizer applications: submission by
// members and the admin review path that escalates the applicant's role.
package organizers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherhub/backend/internal/accounts"
	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/workflow"
	"github.com/gatherhub/backend/pkg/database"
)

const requestColumns = `id, applicant_id, reason, COALESCE(organization_name,''),
	status, COALESCE(admin_comment,''), created_at, updated_at`

// Repository handles organizer request persistence. It also implements
// workflow.Store for the organizer request kind.
type Repository struct {
	pool     *pgxpool.Pool
	accounts *accounts.Repository
}

// NewRepository creates an organizers repository.
func NewRepository(pool *pgxpool.Pool, accounts *accounts.Repository) *Repository {
	return &Repository{pool: pool, accounts: accounts}
}

func scanRequest(row pgx.Row) (*models.OrganizerRequest, error) {
	var req models.OrganizerRequest
	err := row.Scan(&req.ID, &req.ApplicantID, &req.Reason, &req.OrganizationName,
		&req.Status, &req.AdminComment, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// Create inserts an organizer request. The partial unique index on pending
// requests enforces at most one pending application per applicant.
func (r *Repository) Create(ctx context.Context, req *models.OrganizerRequest) error {
	const q = `INSERT INTO organizer_requests (applicant_id, reason, organization_name)
		VALUES ($1, $2, NULLIF($3,''))
		RETURNING id, status, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, req.ApplicantID, req.Reason, req.OrganizationName).
		Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.ErrDuplicatePendingRequest
		}
		return err
	}
	return nil
}

// GetByID returns an organizer request.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.OrganizerRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM organizer_requests WHERE id = $1`
	return scanRequest(r.pool.QueryRow(ctx, q, id))
}

// GetLatestByApplicant returns the applicant's most recent request.
func (r *Repository) GetLatestByApplicant(ctx context.Context, applicantID uuid.UUID) (*models.OrganizerRequest, error) {
	const q = `SELECT ` + requestColumns + ` FROM organizer_requests
		WHERE applicant_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanRequest(r.pool.QueryRow(ctx, q, applicantID))
}

// ListByStatus returns requests in a status, oldest first. An empty status
// lists everything.
func (r *Repository) ListByStatus(ctx context.Context, status string) ([]models.OrganizerRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM organizer_requests ORDER BY created_at`
	args := []any{}
	if status != "" {
		q = `SELECT ` + requestColumns + ` FROM organizer_requests WHERE status = $1 ORDER BY created_at`
		args = append(args, status)
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.OrganizerRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *req)
	}
	return list, rows.Err()
}

// Get implements workflow.Store.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*workflow.Meta, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &workflow.Meta{
		ID:      req.ID,
		OwnerID: req.ApplicantID,
		Status:  workflow.State(req.Status),
		Subject: "organizer application",
		Link:    "/organizers/application",
	}, nil
}

// Decide implements workflow.Store. On approval the applicant's role
// escalates to organizer in the same transaction as the status transition.
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

	const q = `UPDATE organizer_requests
		SET status = $2, admin_comment = NULLIF($3,''), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING applicant_id, COALESCE(organization_name,'')`
	var applicantID uuid.UUID
	var organizationName string
	err = tx.QueryRow(ctx, q, id, decision, comment).Scan(&applicantID, &organizationName)
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
		if err = r.accounts.SetRoleTx(ctx, tx, applicantID, models.RoleOrganizer, organizationName); err != nil {
			return false, fmt.Errorf("escalate role: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
