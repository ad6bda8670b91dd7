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

type fakeResolver struct {
	target *Target
	err    error
}

func (f *fakeResolver) Resolve(ctx context.Context, kind models.TargetKind, id uuid.UUID) (*Target, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.target, nil
}

type fakeAttendanceStore struct {
	createErr error
	created   *models.Attendance
	byID      *models.Attendance
	list      []models.Attendance
	setOK     bool
	setErr    error
	deleted   bool
}

func (f *fakeAttendanceStore) Create(ctx context.Context, a *models.Attendance) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	a.Status = models.AttendancePending
	f.created = a
	return nil
}

func (f *fakeAttendanceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Attendance, error) {
	if f.byID == nil {
		return nil, apperr.ErrNotFound
	}
	a := *f.byID
	return &a, nil
}

func (f *fakeAttendanceStore) Delete(ctx context.Context, userID uuid.UUID, kind models.TargetKind, targetID uuid.UUID) error {
	f.deleted = true
	return nil
}

func (f *fakeAttendanceStore) ListByTarget(ctx context.Context, kind models.TargetKind, targetID uuid.UUID) ([]models.Attendance, error) {
	out := make([]models.Attendance, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeAttendanceStore) SetStatus(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	return f.setOK, f.setErr
}

type fakeDirectory struct {
	admins map[uuid.UUID]bool
	names  map[uuid.UUID]string
}

func (f *fakeDirectory) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	return f.admins[id], nil
}

func (f *fakeDirectory) FullName(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := f.names[id]; ok {
		return name, nil
	}
	return "", apperr.ErrNotFound
}

type captureNotifier struct {
	sent []struct {
		recipient uuid.UUID
		kind      models.NotificationKind
		title     string
	}
}

func (n *captureNotifier) Notify(ctx context.Context, recipientID uuid.UUID, kind models.NotificationKind, title, message, link string) {
	n.sent = append(n.sent, struct {
		recipient uuid.UUID
		kind      models.NotificationKind
		title     string
	}{recipientID, kind, title})
}

func openEvent(ownerID uuid.UUID) *Target {
	return &Target{
		ID:      uuid.New(),
		Kind:    models.TargetEvent,
		OwnerID: ownerID,
		Title:   "Community Picnic",
		Open:    true,
	}
}

func TestApply_CreatesAndNotifiesOwner(t *testing.T) {
	owner := uuid.New()
	applicant := uuid.New()
	target := openEvent(owner)
	store := &fakeAttendanceStore{}
	notifier := &captureNotifier{}
	dir := &fakeDirectory{names: map[uuid.UUID]string{applicant: "Sam Rivera"}}
	m := NewManager(store, &fakeResolver{target: target}, dir, notifier, nil)

	a, err := m.Apply(context.Background(), applicant, models.TargetEvent, target.ID, "see you there")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePending, a.Status)
	require.NotNil(t, a.EventID)
	assert.Equal(t, target.ID, *a.EventID)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, owner, notifier.sent[0].recipient)
	assert.Contains(t, notifier.sent[0].title, "Community Picnic")
}

func TestApply_ClosedTarget(t *testing.T) {
	target := openEvent(uuid.New())
	target.Open = false
	m := NewManager(&fakeAttendanceStore{}, &fakeResolver{target: target}, &fakeDirectory{}, &captureNotifier{}, nil)

	_, err := m.Apply(context.Background(), uuid.New(), models.TargetEvent, target.ID, "")
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
}

func TestApply_OwnerCannotApply(t *testing.T) {
	owner := uuid.New()
	target := openEvent(owner)
	m := NewManager(&fakeAttendanceStore{}, &fakeResolver{target: target}, &fakeDirectory{}, &captureNotifier{}, nil)

	_, err := m.Apply(context.Background(), owner, models.TargetEvent, target.ID, "")
	require.ErrorIs(t, err, apperr.ErrInvalidValue)
}

func TestApply_DuplicateSurfaces(t *testing.T) {
	target := openEvent(uuid.New())
	store := &fakeAttendanceStore{createErr: apperr.ErrAlreadyApplied}
	notifier := &captureNotifier{}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, notifier, nil)

	_, err := m.Apply(context.Background(), uuid.New(), models.TargetEvent, target.ID, "")
	require.ErrorIs(t, err, apperr.ErrAlreadyApplied)
	assert.Empty(t, notifier.sent)
}

func attendanceList(targetID uuid.UUID, requester uuid.UUID) []models.Attendance {
	other := uuid.New()
	return []models.Attendance{
		{ID: uuid.New(), UserID: other, EventID: &targetID, Status: models.AttendanceApproved, Message: "private note"},
		{ID: uuid.New(), UserID: uuid.New(), EventID: &targetID, Status: models.AttendancePending, Message: "another note"},
		{ID: uuid.New(), UserID: requester, EventID: &targetID, Status: models.AttendancePending, Message: "my own note"},
	}
}

func TestList_OwnerSeesEverything(t *testing.T) {
	owner := uuid.New()
	target := openEvent(owner)
	store := &fakeAttendanceStore{list: attendanceList(target.ID, uuid.New())}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, &captureNotifier{}, nil)

	got, err := m.List(context.Background(), models.TargetEvent, target.ID, owner)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "private note", got[0].Message)
}

func TestList_AdminSeesEverything(t *testing.T) {
	admin := uuid.New()
	target := openEvent(uuid.New())
	store := &fakeAttendanceStore{list: attendanceList(target.ID, uuid.New())}
	dir := &fakeDirectory{admins: map[uuid.UUID]bool{admin: true}}
	m := NewManager(store, &fakeResolver{target: target}, dir, &captureNotifier{}, nil)

	got, err := m.List(context.Background(), models.TargetEvent, target.ID, admin)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestList_MemberSeesApprovedPlusOwnWithoutMessages(t *testing.T) {
	requester := uuid.New()
	target := openEvent(uuid.New())
	store := &fakeAttendanceStore{list: attendanceList(target.ID, requester)}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, &captureNotifier{}, nil)

	got, err := m.List(context.Background(), models.TargetEvent, target.ID, requester)
	require.NoError(t, err)
	require.Len(t, got, 2, "approved entries plus the requester's own pending one")
	for _, a := range got {
		assert.Empty(t, a.Message, "messages are private to the owner and admins")
	}
}

func TestSetStatus_OwnerApprovesAndApplicantNotified(t *testing.T) {
	owner := uuid.New()
	applicant := uuid.New()
	target := openEvent(owner)
	a := &models.Attendance{ID: uuid.New(), UserID: applicant, EventID: &target.ID, Status: models.AttendancePending}
	store := &fakeAttendanceStore{byID: a, setOK: true}
	notifier := &captureNotifier{}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, notifier, nil)

	got, err := m.SetStatus(context.Background(), a.ID, models.AttendanceApproved, owner)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceApproved, got.Status)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, applicant, notifier.sent[0].recipient)
	assert.Equal(t, models.NotificationSuccess, notifier.sent[0].kind)
}

func TestSetStatus_RejectionWarnsApplicant(t *testing.T) {
	owner := uuid.New()
	target := openEvent(owner)
	a := &models.Attendance{ID: uuid.New(), UserID: uuid.New(), EventID: &target.ID, Status: models.AttendancePending}
	store := &fakeAttendanceStore{byID: a, setOK: true}
	notifier := &captureNotifier{}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, notifier, nil)

	_, err := m.SetStatus(context.Background(), a.ID, models.AttendanceRejected, owner)
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, models.NotificationWarning, notifier.sent[0].kind)
}

func TestSetStatus_StrangerForbidden(t *testing.T) {
	target := openEvent(uuid.New())
	a := &models.Attendance{ID: uuid.New(), UserID: uuid.New(), EventID: &target.ID, Status: models.AttendancePending}
	store := &fakeAttendanceStore{byID: a, setOK: true}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, &captureNotifier{}, nil)

	_, err := m.SetStatus(context.Background(), a.ID, models.AttendanceApproved, uuid.New())
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestSetStatus_AdminAllowed(t *testing.T) {
	admin := uuid.New()
	target := openEvent(uuid.New())
	a := &models.Attendance{ID: uuid.New(), UserID: uuid.New(), EventID: &target.ID, Status: models.AttendancePending}
	store := &fakeAttendanceStore{byID: a, setOK: true}
	dir := &fakeDirectory{admins: map[uuid.UUID]bool{admin: true}}
	m := NewManager(store, &fakeResolver{target: target}, dir, &captureNotifier{}, nil)

	_, err := m.SetStatus(context.Background(), a.ID, models.AttendanceRejected, admin)
	require.NoError(t, err)
}

func TestSetStatus_InvalidDecision(t *testing.T) {
	m := NewManager(&fakeAttendanceStore{}, &fakeResolver{}, &fakeDirectory{}, &captureNotifier{}, nil)
	_, err := m.SetStatus(context.Background(), uuid.New(), "maybe", uuid.New())
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
}

func TestSetStatus_AlreadyDecided(t *testing.T) {
	owner := uuid.New()
	target := openEvent(owner)
	a := &models.Attendance{ID: uuid.New(), UserID: uuid.New(), EventID: &target.ID, Status: models.AttendanceApproved}
	store := &fakeAttendanceStore{byID: a, setOK: false}
	notifier := &captureNotifier{}
	m := NewManager(store, &fakeResolver{target: target}, &fakeDirectory{}, notifier, nil)

	_, err := m.SetStatus(context.Background(), a.ID, models.AttendanceRejected, owner)
	require.ErrorIs(t, err, apperr.ErrInvalidStateTransition)
	assert.Empty(t, notifier.sent)
}

func TestCancel(t *testing.T) {
	store := &fakeAttendanceStore{}
	m := NewManager(store, &fakeResolver{}, &fakeDirectory{}, &captureNotifier{}, nil)
	require.NoError(t, m.Cancel(context.Background(), uuid.New(), models.TargetPlan, uuid.New()))
	assert.True(t, store.deleted)
}
