package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndLeave(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	ms := env.services.Memberships

	require.True(t, ms.Join(context.Background(), 1001, 10))
	assert.True(t, ms.IsActiveMember(1001, 10))
	assert.Equal(t, []int64{1001}, ms.ActiveMembers(10))
	assert.Equal(t, []int64{10}, ms.GroupsFor(1001))

	g, _ := env.repos.Groups.GetByID(10)
	assert.Equal(t, 1, g.Size, "group size tracks active members")

	require.True(t, ms.Leave(context.Background(), 1001, 10))
	assert.False(t, ms.IsActiveMember(1001, 10))
	g, _ = env.repos.Groups.GetByID(10)
	assert.Equal(t, 0, g.Size)
}

func TestJoinRejectsUnknownParties(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	ms := env.services.Memberships

	assert.False(t, ms.Join(context.Background(), 404, 10))
	assert.False(t, ms.Join(context.Background(), 1001, 404))
}

func TestJoinRejectsSecondActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	ms := env.services.Memberships

	require.True(t, ms.Join(context.Background(), 1001, 10))
	assert.False(t, ms.Join(context.Background(), 1001, 10))
}

func TestLeaveWithoutActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")

	assert.False(t, env.services.Memberships.Leave(context.Background(), 1001, 10))
}

func TestRejoinInsertsNewRow(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	ms := env.services.Memberships

	require.True(t, ms.Join(context.Background(), 1001, 10))
	require.True(t, ms.Leave(context.Background(), 1001, 10))
	require.True(t, ms.Join(context.Background(), 1001, 10))

	history := ms.MembershipsFor(1001)
	require.Len(t, history, 2, "leaving and rejoining keeps the old row")
	assert.NotNil(t, history[0].EndedAt)
	assert.Nil(t, history[1].EndedAt)
}

func TestSetEndDateInFutureKeepsMembershipActive(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	ms := env.services.Memberships

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ms.now = func() time.Time { return base }

	require.True(t, ms.Join(context.Background(), 1001, 10))
	require.True(t, ms.SetEndDate(context.Background(), 1001, 10, base.Add(time.Hour)))
	assert.True(t, ms.IsActiveMember(1001, 10), "future end date stays active until it passes")

	ms.now = func() time.Time { return base.Add(2 * time.Hour) }
	assert.False(t, ms.IsActiveMember(1001, 10))
	assert.False(t, ms.HasActiveMembers(10))
}

func TestSetEndDateWithoutRowsIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")

	assert.False(t, env.services.Memberships.SetEndDate(context.Background(), 1001, 10, time.Now()))
}

func TestEndAllForEndsEveryActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")
	env.addGroup(t, 11, "Chess Club")
	ms := env.services.Memberships

	require.True(t, ms.Join(context.Background(), 1001, 10))
	require.True(t, ms.Join(context.Background(), 1001, 11))

	require.True(t, ms.EndAllFor(context.Background(), 1001))

	assert.False(t, ms.IsActiveMember(1001, 10))
	assert.False(t, ms.IsActiveMember(1001, 11))
	g, _ := env.repos.Groups.GetByID(10)
	assert.Equal(t, 0, g.Size)
}

func TestJoinStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")

	env.store.failing = true
	assert.False(t, env.services.Memberships.Join(context.Background(), 1001, 10))
	assert.False(t, env.services.Memberships.IsActiveMember(1001, 10))
}
