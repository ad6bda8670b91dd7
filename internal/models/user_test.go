package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.False(t, RoleMember.IsOrganizer())
	assert.False(t, RoleMember.IsAdmin())

	assert.True(t, RoleOrganizer.IsOrganizer())
	assert.False(t, RoleOrganizer.IsAdmin())

	// Admins moderate; they do not implicitly hold an organizer profile.
	assert.False(t, RoleAdmin.IsOrganizer())
	assert.True(t, RoleAdmin.IsAdmin())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMember.Valid())
	assert.True(t, RoleOrganizer.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserJSONOmitsPassword(t *testing.T) {
	u := User{Email: "a@b.c", Password: "secret-hash", FullName: "A"}
	data, err := json.Marshal(u)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "secret-hash")
}

func TestAttendanceTarget(t *testing.T) {
	a := Attendance{}
	eventID := a.ID
	a.EventID = &eventID
	kind, id := a.Target()
	assert.Equal(t, TargetEvent, kind)
	assert.Equal(t, eventID, id)

	b := Attendance{PlanID: &eventID}
	kind, _ = b.Target()
	assert.Equal(t, TargetPlan, kind)
}
