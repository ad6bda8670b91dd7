package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform. Capability checks derive from
// the role value; there are no separate capability flags.
type Role string

const (
	RoleMember    Role = "member"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// IsOrganizer reports whether the role grants organizer capability.
// Admins are not implicitly organizers: event creation requires a verified
// organizer profile.
func (r Role) IsOrganizer() bool { return r == RoleOrganizer }

// IsAdmin reports whether the role grants admin capability.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User represents a platform user.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Password         string    `json:"-"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	OrganizationName string    `json:"organization_name,omitempty"`
	WeeklyEventQuota int       `json:"weekly_event_quota"`
	WeeklyPlanQuota  int       `json:"weekly_plan_quota"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	OrganizationName string    `json:"organization_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Role:             u.Role,
		OrganizationName: u.OrganizationName,
		CreatedAt:        u.CreatedAt,
	}
}
