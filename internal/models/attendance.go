package models

import (
	"time"

	"github.com/google/uuid"
)

// TargetKind identifies what an attendance joins.
type TargetKind string

const (
	TargetEvent TargetKind = "event"
	TargetPlan  TargetKind = "plan"
)

// Attendance status values.
const (
	AttendancePending  = "pending"
	AttendanceApproved = "approved"
	AttendanceRejected = "rejected"
)

// Attendance is a user's request to join an event or a plan. Exactly one of
// EventID/PlanID is set; one attendance per (user, target).
type Attendance struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	EventID   *uuid.UUID `json:"event_id,omitempty"`
	PlanID    *uuid.UUID `json:"plan_id,omitempty"`
	Status    string     `json:"status"`
	Message   string     `json:"message,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Target returns the kind and ID of the joined resource.
func (a *Attendance) Target() (TargetKind, uuid.UUID) {
	if a.EventID != nil {
		return TargetEvent, *a.EventID
	}
	return TargetPlan, *a.PlanID
}
