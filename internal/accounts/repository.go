// Package accounts is the identity & role store: the single source of truth
// for a user's role, capability checks, and weekly creation quotas.
package accounts

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

// Capability is a derived permission checked against the role.
type Capability string

const (
	CapOrganizer Capability = "organizer"
	CapAdmin     Capability = "admin"
)

const userColumns = `id, email, password_hash, full_name, role,
	COALESCE(organization_name,''), weekly_event_quota, weekly_plan_quota,
	created_at, updated_at`

// Repository handles user persistence. It is the only writer of the role
// column.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an accounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &u.Role,
		&u.OrganizationName, &u.WeeklyEventQuota, &u.WeeklyPlanQuota,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with the member role and the given default
// quotas.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, eventQuota, planQuota int) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role, weekly_event_quota, weekly_plan_quota)
		VALUES ($1, $2, $3, 'member', $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, eventQuota, planQuota))
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

// List returns all users for the admin user listing.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, full_name, role,
		COALESCE(organization_name,''), created_at FROM users ORDER BY full_name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.OrganizationName, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// GetRole returns the role of an account.
func (r *Repository) GetRole(ctx context.Context, id uuid.UUID) (models.Role, error) {
	var role models.Role
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return role, nil
}

// SetRole updates an account's role. All capability flags derive from the
// role, so this single update keeps authorization consistent.
func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", apperr.ErrInvalidValue, role)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetRoleTx updates role (and optionally organization name) inside a caller
// transaction, so workflow approvals commit the request transition and the
// role escalation atomically.
func (r *Repository) SetRoleTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, role models.Role, organizationName string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", apperr.ErrInvalidValue, role)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE users SET role = $2, organization_name = NULLIF($3,''), updated_at = NOW() WHERE id = $1`,
		id, role, organizationName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// SetWeeklyQuotaTx sets the weekly quota for a resource kind inside a caller
// transaction (used when a quota request is approved).
func (r *Repository) SetWeeklyQuotaTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, kind models.ResourceKind, limit int) error {
	col, err := quotaColumn(kind)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx,
		`UPDATE users SET `+col+` = $2, updated_at = NOW() WHERE id = $1`, id, limit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// QuotaFor returns the account's weekly quota for a resource kind.
func (r *Repository) QuotaFor(ctx context.Context, id uuid.UUID, kind models.ResourceKind) (int, error) {
	col, err := quotaColumn(kind)
	if err != nil {
		return 0, err
	}
	var limit int
	err = r.pool.QueryRow(ctx, `SELECT `+col+` FROM users WHERE id = $1`, id).Scan(&limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.ErrNotFound
		}
		return 0, err
	}
	return limit, nil
}

// Authorize reports whether the account holds the capability. It returns
// false for unknown accounts and on lookup failure; callers treat false as
// 401/403.
func (r *Repository) Authorize(ctx context.Context, id uuid.UUID, cap Capability) bool {
	role, err := r.GetRole(ctx, id)
	if err != nil {
		return false
	}
	switch cap {
	case CapOrganizer:
		return role.IsOrganizer()
	case CapAdmin:
		return role.IsAdmin()
	}
	return false
}

// FullName returns the display name of an account.
func (r *Repository) FullName(ctx context.Context, id uuid.UUID) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT full_name FROM users WHERE id = $1`, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// IsAdmin reports whether the account has the admin role.
func (r *Repository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	role, err := r.GetRole(ctx, id)
	if err != nil {
		return false, err
	}
	return role.IsAdmin(), nil
}

// ListAdminIDs returns the IDs of all admin accounts, for broadcast fan-out.
func (r *Repository) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role = 'admin'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsDuplicateEmail reports whether err is the unique violation on the users
// email column.
func IsDuplicateEmail(err error) bool {
	return database.IsUniqueViolation(err)
}

func quotaColumn(kind models.ResourceKind) (string, error) {
	switch kind {
	case models.ResourceEvent:
		return "weekly_event_quota", nil
	case models.ResourcePlan:
		return "weekly_plan_quota", nil
	}
	return "", fmt.Errorf("%w: resource kind %q", apperr.ErrInvalidValue, kind)
}
