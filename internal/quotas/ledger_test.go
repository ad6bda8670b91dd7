package quotas

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/backend/internal/apperr"
	"github.com/gatherhub/backend/internal/models"
)

type fakeQuotaSource struct {
	limit int
	err   error
}

func (f *fakeQuotaSource) QuotaFor(ctx context.Context, id uuid.UUID, kind models.ResourceKind) (int, error) {
	return f.limit, f.err
}

type fakeUsageCounter struct {
	count    int
	gotSince time.Time
}

func (f *fakeUsageCounter) CountSince(ctx context.Context, accountID uuid.UUID, kind models.ResourceKind, since time.Time) (int, error) {
	f.gotSince = since
	return f.count, nil
}

type fakeRequestStore struct {
	created *models.QuotaRequest
	err     error
}

func (f *fakeRequestStore) Create(ctx context.Context, req *models.QuotaRequest) error {
	if f.err != nil {
		return f.err
	}
	f.created = req
	return nil
}

func TestCanCreate_UnderLimit(t *testing.T) {
	usage := &fakeUsageCounter{count: 2}
	l := NewLedger(&fakeQuotaSource{limit: 3}, usage, &fakeRequestStore{})

	res, err := l.CanCreate(context.Background(), uuid.New(), models.ResourceEvent)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Limit)
	assert.Equal(t, 2, res.CurrentCount)
}

func TestCanCreate_AtLimit(t *testing.T) {
	l := NewLedger(&fakeQuotaSource{limit: 1}, &fakeUsageCounter{count: 1}, &fakeRequestStore{})

	res, err := l.CanCreate(context.Background(), uuid.New(), models.ResourcePlan)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestCanCreate_SlidingWindow(t *testing.T) {
	usage := &fakeUsageCounter{}
	l := NewLedger(&fakeQuotaSource{limit: 1}, usage, &fakeRequestStore{})
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	_, err := l.CanCreate(context.Background(), uuid.New(), models.ResourceEvent)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(-Window), usage.gotSince,
		"usage must count a trailing window from now, not a calendar week")
}

func TestCanCreate_InvalidKind(t *testing.T) {
	l := NewLedger(&fakeQuotaSource{limit: 1}, &fakeUsageCounter{}, &fakeRequestStore{})
	_, err := l.CanCreate(context.Background(), uuid.New(), models.ResourceKind("meetup"))
	require.ErrorIs(t, err, apperr.ErrInvalidValue)
}

func TestRequestIncrease(t *testing.T) {
	store := &fakeRequestStore{}
	l := NewLedger(&fakeQuotaSource{limit: 1}, &fakeUsageCounter{}, store)
	accountID := uuid.New()

	req, err := l.RequestIncrease(context.Background(), accountID, models.ResourceEvent, 5, "running a workshop series")
	require.NoError(t, err)
	require.NotNil(t, store.created)
	assert.Equal(t, accountID, req.RequesterID)
	assert.Equal(t, models.ResourceEvent, req.ResourceKind)
	assert.Equal(t, 5, req.RequestedLimit)
}

func TestRequestIncrease_NonPositiveLimit(t *testing.T) {
	l := NewLedger(&fakeQuotaSource{limit: 1}, &fakeUsageCounter{}, &fakeRequestStore{})
	for _, limit := range []int{0, -3} {
		_, err := l.RequestIncrease(context.Background(), uuid.New(), models.ResourceEvent, limit, "")
		require.ErrorIs(t, err, apperr.ErrInvalidValue, "limit %d", limit)
	}
}

func TestRequestIncrease_DuplicatePending(t *testing.T) {
	store := &fakeRequestStore{err: apperr.ErrDuplicatePendingRequest}
	l := NewLedger(&fakeQuotaSource{limit: 1}, &fakeUsageCounter{}, store)

	_, err := l.RequestIncrease(context.Background(), uuid.New(), models.ResourcePlan, 4, "")
	require.ErrorIs(t, err, apperr.ErrDuplicatePendingRequest)
}
