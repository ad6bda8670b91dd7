package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/backend/internal/models"
	"github.com/gatherhub/backend/pkg/queue"
)

type fakeSink struct {
	created []*models.Notification
	err     error
	failFor map[uuid.UUID]bool
}

func (f *fakeSink) Create(ctx context.Context, n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	if f.failFor[n.RecipientID] {
		return errors.New("insert failed")
	}
	f.created = append(f.created, n)
	return nil
}

type fakeEnqueuer struct {
	jobs []queue.NotificationPayload
	err  error
}

func (f *fakeEnqueuer) EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, payload)
	return nil
}

type fakePublisher struct {
	published []*models.Notification
	err       error
}

func (f *fakePublisher) PublishNotification(n *models.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, n)
	return nil
}

type fakeAdminLister struct {
	ids []uuid.UUID
	err error
}

func (f *fakeAdminLister) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

func TestNotify_PrefersQueue(t *testing.T) {
	sink := &fakeSink{}
	q := &fakeEnqueuer{}
	f := NewFanout(sink, q, nil, &fakeAdminLister{}, nil)
	recipient := uuid.New()

	f.Notify(context.Background(), recipient, models.NotificationInfo, "hello", "body", "/events")

	require.Len(t, q.jobs, 1)
	assert.Equal(t, recipient, q.jobs[0].RecipientID)
	assert.Empty(t, sink.created, "queued notifications must not be double-written")
}

func TestNotify_FallsBackOnEnqueueFailure(t *testing.T) {
	sink := &fakeSink{}
	q := &fakeEnqueuer{err: errors.New("redis gone")}
	pub := &fakePublisher{}
	f := NewFanout(sink, q, pub, &fakeAdminLister{}, nil)

	f.Notify(context.Background(), uuid.New(), models.NotificationInfo, "hello", "body", "")

	require.Len(t, sink.created, 1)
	assert.Len(t, pub.published, 1)
}

func TestNotify_DirectPathWithoutQueue(t *testing.T) {
	sink := &fakeSink{}
	f := NewFanout(sink, nil, nil, &fakeAdminLister{}, nil)

	f.Notify(context.Background(), uuid.New(), models.NotificationSuccess, "hello", "body", "")
	require.Len(t, sink.created, 1)
	assert.Equal(t, models.NotificationSuccess, sink.created[0].Kind)
}

func TestNotify_SwallowsSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	f := NewFanout(sink, nil, nil, &fakeAdminLister{}, nil)

	// Must not panic or surface: delivery is best-effort.
	f.Notify(context.Background(), uuid.New(), models.NotificationError, "hello", "body", "")
}

func TestNotify_SwallowsPushFailure(t *testing.T) {
	sink := &fakeSink{}
	pub := &fakePublisher{err: errors.New("no subscribers")}
	f := NewFanout(sink, nil, pub, &fakeAdminLister{}, nil)

	f.Notify(context.Background(), uuid.New(), models.NotificationInfo, "hello", "body", "")
	require.Len(t, sink.created, 1, "push failure must not undo the stored record")
}

func TestBroadcastToAdmins(t *testing.T) {
	admins := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	sink := &fakeSink{}
	f := NewFanout(sink, nil, nil, &fakeAdminLister{ids: admins}, nil)

	f.BroadcastToAdmins(context.Background(), models.NotificationInfo, "review needed", "body", "/admin")

	require.Len(t, sink.created, 3)
	got := map[uuid.UUID]bool{}
	for _, n := range sink.created {
		got[n.RecipientID] = true
	}
	for _, id := range admins {
		assert.True(t, got[id])
	}
}

func TestBroadcastToAdmins_PartialFailureContinues(t *testing.T) {
	admins := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	sink := &fakeSink{failFor: map[uuid.UUID]bool{admins[1]: true}}
	f := NewFanout(sink, nil, nil, &fakeAdminLister{ids: admins}, nil)

	f.BroadcastToAdmins(context.Background(), models.NotificationInfo, "review needed", "body", "")
	assert.Len(t, sink.created, 2, "one failed delivery must not abort the rest")
}

func TestBroadcastToAdmins_ListerFailure(t *testing.T) {
	sink := &fakeSink{}
	f := NewFanout(sink, nil, nil, &fakeAdminLister{err: errors.New("db down")}, nil)

	f.BroadcastToAdmins(context.Background(), models.NotificationInfo, "review needed", "body", "")
	assert.Empty(t, sink.created)
}
