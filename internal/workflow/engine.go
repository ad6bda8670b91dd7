// Package workflow implements the review state machine shared by organizer
// applications, quota requests, event approvals, and content reports. The
// engine owns decision validation, admin gating, terminal-state enforcement,
// and notification emission; per-kind stores own the transactional transition
// and its approval side effects.
package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

// Meta is the kind-independent view of a reviewable request.
type Meta struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Status  State
	// Subject is a short human label for notification text, e.g. an event
	// title or "organizer application".
	Subject string
	// Link is the in-app location of the request, carried on notifications.
	Link string
}

// Store is the per-kind persistence adapter. Decide must apply the
// transition with a compare-and-swap on the current status and commit any
// kind-specific approval side effects (role escalation, quota application,
// resolved_at/resolved_by stamps) in the same transaction. It returns false
// when the request was no longer decidable, i.e. a concurrent decision won.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Meta, error)
	Decide(ctx context.Context, id uuid.UUID, decision State, actorID uuid.UUID, comment string) (bool, error)
}

// Notifier delivers best-effort notifications; implementations must never
// return delivery failures to the workflow.
type Notifier interface {
	Notify(ctx context.Context, recipientID uuid.UUID, kind models.NotificationKind, title, message, link string)
}

// AdminChecker verifies the admin capability of the deciding actor.
type AdminChecker interface {
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// Engine is the generic tri-state review machine.
type Engine struct {
	stores   map[Kind]Store
	roles    AdminChecker
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates a review engine. Kinds are attached with Register.
func NewEngine(roles AdminChecker, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		stores:   make(map[Kind]Store),
		roles:    roles,
		notifier: notifier,
		logger:   logger,
	}
}

// Register attaches a kind's store to the engine.
func (e *Engine) Register(kind Kind, store Store) {
	e.stores[kind] = store
}

// Decide applies an admin decision to a pending request. The authorization
// check runs before any read or mutation; a decision on an already-terminal
// request fails rather than being silently accepted.
func (e *Engine) Decide(ctx context.Context, kind Kind, id uuid.UUID, decision State, actorID uuid.UUID, comment string) (*Meta, error) {
	store, ok := e.stores[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown request kind %q", apperr.ErrInvalidValue, kind)
	}
	if !DecisionAllowed(kind, decision) {
		return nil, fmt.Errorf("%w: decision %q not allowed for %s", apperr.ErrInvalidStateTransition, decision, kind)
	}

	isAdmin, err := e.roles.IsAdmin(ctx, actorID)
	if err != nil || !isAdmin {
		return nil, apperr.ErrForbidden
	}

	meta, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.Status.Terminal() {
		return nil, fmt.Errorf("%w: request already %s", apperr.ErrInvalidStateTransition, meta.Status)
	}

	applied, err := store.Decide(ctx, id, decision, actorID, comment)
	if err != nil {
		return nil, fmt.Errorf("decide %s %s: %w", kind, id, err)
	}
	if !applied {
		// Lost the race against a concurrent decision.
		return nil, fmt.Errorf("%w: request already decided", apperr.ErrInvalidStateTransition)
	}

	e.logger.Info("request decided",
		zap.String("kind", string(kind)),
		zap.String("request_id", id.String()),
		zap.String("decision", string(decision)),
		zap.String("actor_id", actorID.String()),
	)

	meta.Status = decision
	title, message, nKind := decisionNotice(meta, decision, comment)
	e.notifier.Notify(ctx, meta.OwnerID, nKind, title, message, meta.Link)
	return meta, nil
}

// decisionNotice builds the owner-facing notification for a decision.
func decisionNotice(meta *Meta, decision State, comment string) (title, message string, kind models.NotificationKind) {
	switch decision {
	case StateApproved, StateResolved:
		kind = models.NotificationSuccess
	case StateRejected, StateDismissed:
		kind = models.NotificationWarning
	default:
		kind = models.NotificationInfo
	}
	title = fmt.Sprintf("Your %s was %s", meta.Subject, decision)
	message = title + "."
	if comment != "" {
		message += " Reviewer comment: " + comment
	}
	return title, message, kind
}
