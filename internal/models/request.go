package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind identifies a rate-limited resource type.
type ResourceKind string

const (
	ResourceEvent ResourceKind = "event"
	ResourcePlan  ResourceKind = "plan"
)

// Valid reports whether k is a known resource kind.
func (k ResourceKind) Valid() bool {
	return k == ResourceEvent || k == ResourcePlan
}

// OrganizerRequest is a user's application to become an organizer.
// At most one pending request per applicant at a time.
type OrganizerRequest struct {
	ID               uuid.UUID `json:"id"`
	ApplicantID      uuid.UUID `json:"applicant_id"`
	Reason           string    `json:"reason"`
	OrganizationName string    `json:"organization_name,omitempty"`
	Status           string    `json:"status"`
	AdminComment     string    `json:"admin_comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// QuotaRequest is a user's request for a higher weekly creation quota.
// At most one pending request per (requester, resource kind).
type QuotaRequest struct {
	ID             uuid.UUID    `json:"id"`
	RequesterID    uuid.UUID    `json:"requester_id"`
	ResourceKind   ResourceKind `json:"resource_kind"`
	RequestedLimit int          `json:"requested_limit"`
	Reason         string       `json:"reason"`
	Status         string       `json:"status"`
	AdminComment   string       `json:"admin_comment,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
