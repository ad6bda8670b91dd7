// Package apperr defines the domain error taxonomy shared by the workflow
// core. Repositories and services wrap these sentinels; handlers map them to
// HTTP responses with a stable machine-readable code.
package apperr

import "errors"

var (
	// ErrForbidden indicates a role or ownership check failed.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicatePendingRequest indicates the actor already has an
	// unresolved request of this kind.
	ErrDuplicatePendingRequest = errors.New("a pending request of this kind already exists")
	// ErrAlreadyApplied indicates an attendance already exists for this
	// (user, target) pair.
	ErrAlreadyApplied = errors.New("already applied")
	// ErrInvalidStateTransition indicates a decision on an already-resolved
	// request, or a decision value outside the allowed set.
	ErrInvalidStateTransition = errors.New("invalid state transition")
	// ErrQuotaExceeded indicates the weekly creation quota is used up.
	ErrQuotaExceeded = errors.New("weekly quota exceeded")
	// ErrInvalidValue indicates a rejected input value, e.g. a non-positive
	// requested quota.
	ErrInvalidValue = errors.New("invalid value")
)

// Code returns the stable machine-readable code for a domain error, or ""
// when err is not part of the taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicatePendingRequest):
		return "duplicate_pending_request"
	case errors.Is(err, ErrAlreadyApplied):
		return "already_applied"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_state_transition"
	case errors.Is(err, ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, ErrInvalidValue):
		return "invalid_value"
	}
	return ""
}
