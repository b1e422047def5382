package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectorySearchStudents(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addStudent(t, 1002, "maria", "Maria Silva")

	found := env.services.Directory.SearchStudents("silva")
	require.Len(t, found, 1)
	assert.Equal(t, "maria", found[0].Username)
}

func TestDirectoryStudentsByTag(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addStudent(t, 1002, "maria", "Maria Silva")
	env.addTag(t, 1, "IT")

	ctx := context.Background()
	require.True(t, env.services.Tagging.Assign(ctx, 1001, 1))

	students := env.services.Directory.StudentsByTag(1)
	require.Len(t, students, 1)
	assert.Equal(t, int64(1001), students[0].ID)
}

func TestDirectoryGroupQueries(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addStudent(t, 1002, "maria", "Maria Silva")
	env.addGroup(t, 10, "Robotics Club")
	env.addPost(t, 1, 1001, "robot update")

	ctx := context.Background()
	require.True(t, env.services.Memberships.Join(ctx, 1001, 10))
	require.True(t, env.services.Memberships.Join(ctx, 1002, 10))
	require.True(t, env.repos.Posts.AddToGroup(ctx, 1, 10))

	members := env.services.Directory.GroupMembers(10)
	require.Len(t, members, 2)
	assert.Equal(t, int64(1001), members[0].ID)

	posts := env.services.Directory.PostsInGroup(10)
	require.Len(t, posts, 1)
	assert.Equal(t, "robot update", posts[0].Content)

	assert.Nil(t, env.services.Directory.PostsInGroup(404), "unknown group yields nil, not empty")

	groups := env.services.Directory.GroupsOfStudent(1001)
	require.Len(t, groups, 1)
	assert.Equal(t, "Robotics Club", groups[0].Name)
}
