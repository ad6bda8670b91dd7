package attendance

import (
	"context"

	"github.com/google/uuid"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/internal/workflow"
)

// EventSource looks up events for attendance resolution.
type EventSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// PlanSource looks up plans for attendance resolution.
type PlanSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// Resolver maps events and plans onto the joinable Target shape. An event is
// open while approved; a plan is open while active.
type Resolver struct {
	events EventSource
	plans  PlanSource
}

// NewResolver creates a target resolver over the event and plan stores.
func NewResolver(events EventSource, plans PlanSource) *Resolver {
	return &Resolver{events: events, plans: plans}
}

// Resolve implements TargetResolver.
func (r *Resolver) Resolve(ctx context.Context, kind models.TargetKind, id uuid.UUID) (*Target, error) {
	switch kind {
	case models.TargetEvent:
		ev, err := r.events.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Target{
			ID:      ev.ID,
			Kind:    models.TargetEvent,
			OwnerID: ev.OrganizerID,
			Title:   ev.Title,
			Open:    ev.Status == string(workflow.StateApproved),
		}, nil
	case models.TargetPlan:
		p, err := r.plans.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Target{
			ID:      p.ID,
			Kind:    models.TargetPlan,
			OwnerID: p.CreatorID,
			Title:   p.Title,
			Open:    p.Status == models.PlanActive,
		}, nil
	}
	return nil, apperr.ErrNotFound
}
