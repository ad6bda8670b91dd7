package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

type fakeStore struct {
	meta      *Meta
	getErr    error
	decideOK  bool
	decideErr error

	decided     bool
	gotDecision State
	gotActor    uuid.UUID
	gotComment  string
}

func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*Meta, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	m := *s.meta
	return &m, nil
}

func (s *fakeStore) Decide(ctx context.Context, id uuid.UUID, decision State, actorID uuid.UUID, comment string) (bool, error) {
	s.decided = true
	s.gotDecision = decision
	s.gotActor = actorID
	s.gotComment = comment
	return s.decideOK, s.decideErr
}

type fakeRoles struct {
	admin bool
	err   error
}

func (r *fakeRoles) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.admin, r.err
}

type recordedNotice struct {
	recipientID uuid.UUID
	kind        models.NotificationKind
	title       string
	message     string
	link        string
}

type fakeNotifier struct {
	sent []recordedNotice
}

func (n *fakeNotifier) Notify(ctx context.Context, recipientID uuid.UUID, kind models.NotificationKind, title, message, link string) {
	n.sent = append(n.sent, recordedNotice{recipientID, kind, title, message, link})
}

func newTestEngine(store *fakeStore, roles *fakeRoles, notifier *fakeNotifier) *Engine {
	e := NewEngine(roles, notifier, nil)
	e.Register(KindOrganizerRequest, store)
	return e
}

func pendingMeta() *Meta {
	return &Meta{
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Status:  StatePending,
		Subject: "organizer application",
		Link:    "/organizers/application",
	}
}

func TestDecide_ApprovesAndNotifiesOwner(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: true}
	notifier := &fakeNotifier{}
	e := newTestEngine(store, &fakeRoles{admin: true}, notifier)
	actor := uuid.New()

	meta, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, StateApproved, actor, "welcome aboard")
	require.NoError(t, err)
	assert.Equal(t, StateApproved, meta.Status)
	assert.Equal(t, StateApproved, store.gotDecision)
	assert.Equal(t, actor, store.gotActor)

	require.Len(t, notifier.sent, 1)
	got := notifier.sent[0]
	assert.Equal(t, store.meta.OwnerID, got.recipientID)
	assert.Equal(t, models.NotificationSuccess, got.kind)
	assert.Contains(t, got.message, "welcome aboard")
	assert.Equal(t, store.meta.Link, got.link)
}

func TestDecide_RejectionSendsWarning(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: true}
	notifier := &fakeNotifier{}
	e := newTestEngine(store, &fakeRoles{admin: true}, notifier)

	_, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, StateRejected, uuid.New(), "")
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationWarning, notifier.sent[0].kind)
}

func TestDecide_NonAdminForbidden(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: true}
	e := newTestEngine(store, &fakeRoles{admin: false}, &fakeNotifier{})

	_, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, StateApproved, uuid.New(), "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.False(t, store.decided, "store must not be touched when authorization fails")
}

func TestDecide_RoleLookupFailureFailsClosed(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: true}
	e := newTestEngine(store, &fakeRoles{admin: true, err: errors.New("db down")}, &fakeNotifier{})

	_, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, StateApproved, uuid.New(), "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.False(t, store.decided)
}

func TestDecide_TerminalRequestRejected(t *testing.T) {
	meta := pendingMeta()
	meta.Status = StateApproved
	store := &fakeStore{meta: meta, decideOK: true}
	notifier := &fakeNotifier{}
	e := newTestEngine(store, &fakeRoles{admin: true}, notifier)

	_, err := e.Decide(context.Background(), KindOrganizerRequest, meta.ID, StateRejected, uuid.New(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	assert.False(t, store.decided)
	assert.Empty(t, notifier.sent)
}

func TestDecide_ConcurrentDecisionLosesRace(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: false}
	notifier := &fakeNotifier{}
	e := newTestEngine(store, &fakeRoles{admin: true}, notifier)

	_, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, StateApproved, uuid.New(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	assert.Empty(t, notifier.sent, "no notification when the transition did not apply")
}

func TestDecide_DecisionOutsideAllowedSet(t *testing.T) {
	store := &fakeStore{meta: pendingMeta(), decideOK: true}
	e := newTestEngine(store, &fakeRoles{admin: true}, &fakeNotifier{})

	for _, bad := range []State{StateResolved, StateDismissed, StateReviewed, StatePending, State("banana")} {
		_, err := e.Decide(context.Background(), KindOrganizerRequest, store.meta.ID, bad, uuid.New(), "")
		require.ErrorIs(t, err, apperr.ErrInvalidStateTransition, "decision %q", bad)
	}
	assert.False(t, store.decided)
}

func TestDecide_ReportDecisions(t *testing.T) {
	for _, decision := range []State{StateReviewed, StateResolved, StateDismissed} {
		store := &fakeStore{meta: pendingMeta(), decideOK: true}
		e := NewEngine(&fakeRoles{admin: true}, &fakeNotifier{}, nil)
		e.Register(KindReport, store)

		_, err := e.Decide(context.Background(), KindReport, store.meta.ID, decision, uuid.New(), "")
		require.NoError(t, err, "decision %q", decision)
	}
}

func TestDecide_UnknownKind(t *testing.T) {
	e := NewEngine(&fakeRoles{admin: true}, &fakeNotifier{}, nil)
	_, err := e.Decide(context.Background(), Kind("mystery"), uuid.New(), StateApproved, uuid.New(), "")
	require.ErrorIs(t, err, apperr.ErrInvalidValue)
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatePending.Terminal())
	assert.False(t, StateReviewed.Terminal())
	assert.True(t, StateApproved.Terminal())
	assert.True(t, StateRejected.Terminal())
	assert.True(t, StateResolved.Terminal())
	assert.True(t, StateDismissed.Terminal())
}
