package attendance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

type fakeEventSource struct {
	event *models.Event
}

func (f *fakeEventSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if f.event == nil {
		return nil, apperr.ErrNotFound
	}
	return f.event, nil
}

type fakePlanSource struct {
	plan *models.Plan
}

func (f *fakePlanSource) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	if f.plan == nil {
		return nil, apperr.ErrNotFound
	}
	return f.plan, nil
}

func TestResolve_Event(t *testing.T) {
	ev := &models.Event{ID: uuid.New(), OrganizerID: uuid.New(), Title: "Meetup", Status: "approved"}
	r := NewResolver(&fakeEventSource{event: ev}, &fakePlanSource{})

	target, err := r.Resolve(context.Background(), models.TargetEvent, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.OrganizerID, target.OwnerID)
	assert.True(t, target.Open)

	ev.Status = "pending"
	target, err = r.Resolve(context.Background(), models.TargetEvent, ev.ID)
	require.NoError(t, err)
	assert.False(t, target.Open, "unpublished events do not accept applications")
}

func TestResolve_Plan(t *testing.T) {
	p := &models.Plan{ID: uuid.New(), CreatorID: uuid.New(), Title: "Board games", Status: models.PlanActive}
	r := NewResolver(&fakeEventSource{}, &fakePlanSource{plan: p})

	target, err := r.Resolve(context.Background(), models.TargetPlan, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.CreatorID, target.OwnerID)
	assert.True(t, target.Open)

	p.Status = models.PlanCompleted
	target, err = r.Resolve(context.Background(), models.TargetPlan, p.ID)
	require.NoError(t, err)
	assert.False(t, target.Open)
}

func TestResolve_Missing(t *testing.T) {
	r := NewResolver(&fakeEventSource{}, &fakePlanSource{})

	_, err := r.Resolve(context.Background(), models.TargetEvent, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.Resolve(context.Background(), models.TargetKind("group"), uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
