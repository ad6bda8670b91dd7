// Package attendance implements the application (join) manager: a user's
// intent to attend an event or plan, owner/admin decisions over it, and the
// role-dependent visibility of applications.
package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

// Target is the joinable resource an attendance refers to.
type Target struct {
	ID      uuid.UUID
	Kind    models.TargetKind
	OwnerID uuid.UUID
	Title   string
	// Open reports whether the target currently accepts applications
	// (approved event, active plan).
	Open bool
}

// TargetResolver looks up a joinable target.
type TargetResolver interface {
	Resolve(ctx context.Context, kind models.TargetKind, id uuid.UUID) (*Target, error)
}

// Store persists attendances.
type Store interface {
	Create(ctx context.Context, a *models.Attendance) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attendance, error)
	Delete(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) error
	ListByTarget(ctx context.Context, kind models.TargetKind, targetID uuid.UUID) ([]models.Attendance, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (bool, error)
}

// Directory resolves account details for authorization and notification
// text.
type Directory interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
	FullName(ctx context.Context, id uuid.UUID) (string, error)
}

// Notifier delivers best-effort notifications.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind models.NotificationKind, title, message, link string)
}

// Manager orchestrates attendance operations.
type Manager struct {
	store    Store
	targets  TargetResolver
	accounts Directory
	notifier Notifier
	logger   *zap.Logger
}

// NewManager creates an attendance manager.
func NewManager(store Store, targets TargetResolver, accounts Directory, notifier Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, targets: targets, accounts: accounts, notifier: notifier, logger: logger}
}

// Apply records userID's intent to attend the target and notifies its owner.
func (m *Manager) Apply(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID, message string) (*models.Attendance, error) {
	target, err := m.targets.Resolve(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}
	if !target.Open {
		return nil, fmt.Errorf("%w: target is not accepting applications", apperr.ErrInvalidStateTransition)
	}
	if target.OwnerID == userID {
		return nil, fmt.Errorf("%w: cannot apply to your own %s", apperr.ErrInvalidValue, kind)
	}

	a := &models.Attendance{UserID: userID, Message: message}
	switch kind {
	case models.TargetEvent:
		a.EventID = &targetID
	case models.TargetPlan:
		a.PlanID = &targetID
	}
	if err := m.store.Create(ctx, a); err != nil {
		return nil, err
	}

	applicant, nameErr := m.accounts.FullName(ctx, userID)
	if nameErr != nil {
		applicant = "A member"
	}
	m.notifier.Notify(ctx, target.OwnerID, models.NotificationInfo,
		fmt.Sprintf("New application for %q", target.Title),
		fmt.Sprintf("%s applied to %q.", applicant, target.Title),
		targetLink(target))
	return a, nil
}

// Cancel withdraws userID's attendance for the target.
func (m *Manager) Cancel(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) error {
	return m.store.Delete(ctx, userID, kind, targetID)
}

// List returns a target's attendances under the visibility rule: the
// target's owner and admins see everything including private messages;
// everyone else sees approved attendances plus their own, with messages
// stripped.
func (m *Manager) List(ctx context.Context, kind models.TargetKind, targetID, requesterID uuid.UUID) ([]models.Attendance, error) {
	target, err := m.targets.Resolve(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}
	all, err := m.store.ListByTarget(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}

	if target.OwnerID == requesterID {
		return all, nil
	}
	if isAdmin, err := m.accounts.IsAdmin(ctx, requesterID); err == nil && isAdmin {
		return all, nil
	}

	visible := make([]models.Attendance, 0, len(all))
	for _, a := range all {
		if a.Status != models.AttendanceApproved && a.UserID != requesterID {
			continue
		}
		a.Message = ""
		visible = append(visible, a)
	}
	return visible, nil
}

// SetStatus applies an owner/admin decision to an attendance and notifies
// the applicant. The authorization check runs before the mutation; a
// decision on an already-decided attendance fails.
func (m *Manager) SetStatus(ctx context.Context, attendanceID uuid.UUID, decision string, actorID uuid.UUID) (*models.Attendance, error) {
	if decision != models.AttendanceApproved && decision != models.AttendanceRejected {
		return nil, fmt.Errorf("%w: decision %q", apperr.ErrInvalidStateTransition, decision)
	}

	a, err := m.store.GetByID(ctx, attendanceID)
	if err != nil {
		return nil, err
	}
	kind, targetID := a.Target()
	target, err := m.targets.Resolve(ctx, kind, targetID)
	if err != nil {
		return nil, err
	}
	if target.OwnerID != actorID {
		isAdmin, err := m.accounts.IsAdmin(ctx, actorID)
		if err != nil || !isAdmin {
			return nil, apperr.ErrForbidden
		}
	}

	applied, err := m.store.SetStatus(ctx, attendanceID, decision)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: application already decided", apperr.ErrInvalidStateTransition)
	}
	a.Status = decision

	nKind := models.NotificationSuccess
	if decision == models.AttendanceRejected {
		nKind = models.NotificationWarning
	}
	m.notifier.Notify(ctx, a.UserID, nKind,
		fmt.Sprintf("Your application to %q was %s", target.Title, decision),
		fmt.Sprintf("Your application to %q was %s.", target.Title, decision),
		targetLink(target))
	return a, nil
}

func targetLink(t *Target) string {
	return fmt.Sprintf("/%ss/%s", t.Kind, t.ID)
}
