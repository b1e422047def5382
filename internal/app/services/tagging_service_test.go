package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignAndQueryTags(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addTag(t, 1, "IT")
	tg := env.services.Tagging

	require.True(t, tg.Assign(context.Background(), 1001, 1))

	tags := tg.TagsFor(1001)
	require.Len(t, tags, 1)
	assert.Equal(t, "IT", tags[0].Name)
	assert.Equal(t, []int64{1001}, tg.StudentsWith(1))
}

func TestAssignRejectsDuplicatesAndUnknowns(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addTag(t, 1, "IT")
	tg := env.services.Tagging

	require.True(t, tg.Assign(context.Background(), 1001, 1))
	assert.False(t, tg.Assign(context.Background(), 1001, 1), "double assignment is rejected")
	assert.False(t, tg.Assign(context.Background(), 404, 1))
	assert.False(t, tg.Assign(context.Background(), 1001, 404))
}

func TestUnassign(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addTag(t, 1, "IT")
	tg := env.services.Tagging

	require.True(t, tg.Assign(context.Background(), 1001, 1))
	require.True(t, tg.Unassign(context.Background(), 1001, 1))

	assert.Empty(t, tg.TagsFor(1001))
	assert.False(t, tg.Unassign(context.Background(), 1001, 1), "unassigning twice is rejected")
}

func TestTagRemovalUnassignsEveryStudent(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addStudent(t, 1002, "maria", "Maria Silva")
	env.addTag(t, 1, "IT")
	tg := env.services.Tagging

	require.True(t, tg.Assign(context.Background(), 1001, 1))
	require.True(t, tg.Assign(context.Background(), 1002, 1))

	// The removal hook wired in NewServices clears assignments first
	require.True(t, env.repos.Tags.Remove(context.Background(), 1))

	assert.Empty(t, tg.TagsFor(1001))
	assert.Empty(t, tg.TagsFor(1002))
	assert.Empty(t, tg.StudentsWith(1))
}

func TestAssignStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addTag(t, 1, "IT")

	env.store.failing = true
	assert.False(t, env.services.Tagging.Assign(context.Background(), 1001, 1))
	assert.Empty(t, env.services.Tagging.TagsFor(1001))
}
