// Package quotas implements the weekly creation-quota ledger: sliding-window
// usage checks and quota-increase requests.
package quotas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

// Window is the trailing period counted against the quota. It is a sliding
// window recomputed on every check, not a calendar-week counter.
const Window = 7 * 24 * time.Hour

// CheckResult is the outcome of a quota check.
type CheckResult struct {
	Allowed      bool `json:"allowed"`
	Limit        int  `json:"limit"`
	CurrentCount int  `json:"current_count"`
}

// QuotaSource reads an account's current weekly quota for a resource kind.
type QuotaSource interface {
	QuotaFor(ctx context.Context, id uuid.UUID, kind models.ResourceKind) (int, error)
}

// UsageCounter counts resources of a kind created by an account since a
// point in time.
type UsageCounter interface {
	CountSince(ctx context.Context, accountID uuid.UUID, kind models.ResourceKind, since time.Time) (int, error)
}

// RequestStore persists quota-increase requests.
type RequestStore interface {
	Create(ctx context.Context, req *models.QuotaRequest) error
}

// Ledger computes quota admission and records increase requests. The
// check here is advisory (for display); the authoritative gate runs inside
// the resource-creation transaction.
type Ledger struct {
	quotas   QuotaSource
	usage    UsageCounter
	requests RequestStore
	now      func() time.Time
}

// NewLedger creates a quota ledger.
func NewLedger(quotas QuotaSource, usage UsageCounter, requests RequestStore) *Ledger {
	return &Ledger{quotas: quotas, usage: usage, requests: requests, now: time.Now}
}

// CanCreate reports whether the account may create another resource of the
// kind within the trailing window.
func (l *Ledger) CanCreate(ctx context.Context, accountID uuid.UUID, kind models.ResourceKind) (CheckResult, error) {
	if !kind.Valid() {
		return CheckResult{}, fmt.Errorf("%w: resource kind %q", apperr.ErrInvalidValue, kind)
	}
	limit, err := l.quotas.QuotaFor(ctx, accountID, kind)
	if err != nil {
		return CheckResult{}, err
	}
	count, err := l.usage.CountSince(ctx, accountID, kind, l.now().Add(-Window))
	if err != nil {
		return CheckResult{}, err
	}
	return CheckResult{Allowed: count < limit, Limit: limit, CurrentCount: count}, nil
}

// RequestIncrease submits a quota-increase request. Fails when the limit is
// non-positive or a pending request of the same kind already exists for the
// account.
func (l *Ledger) RequestIncrease(ctx context.Context, accountID uuid.UUID, kind models.ResourceKind, requestedLimit int, reason string) (*models.QuotaRequest, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: resource kind %q", apperr.ErrInvalidValue, kind)
	}
	if requestedLimit <= 0 {
		return nil, fmt.Errorf("%w: requested limit must be positive", apperr.ErrInvalidValue)
	}
	req := &models.QuotaRequest{
		RequesterID:    accountID,
		ResourceKind:   kind,
		RequestedLimit: requestedLimit,
		Reason:         reason,
	}
	if err := l.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}
