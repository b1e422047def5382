package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Account deletion tears down everything hanging off a student: tag
// assignments, memberships, posts with their shares and bookmarks,
// social relations, and finally the student row itself.
func TestAccountDeletionCascade(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addStudent(t, 1002, "maria", "Maria Silva")
	env.addGroup(t, 10, "Robotics Club")
	env.addTag(t, 1, "IT")
	env.addTag(t, 2, "chess")
	env.addPost(t, 1, 1001, "first post")
	env.addPost(t, 2, 1001, "second post")
	env.addPost(t, 3, 1002, "maria's post")

	ctx := context.Background()
	svcs := env.services
	require.True(t, svcs.Tagging.Assign(ctx, 1001, 1))
	require.True(t, svcs.Tagging.Assign(ctx, 1001, 2))
	require.True(t, svcs.Memberships.Join(ctx, 1001, 10))
	require.True(t, env.repos.Posts.AddToGroup(ctx, 1, 10))
	require.True(t, svcs.Social.SendFriendRequest(ctx, 1001, 1002))
	require.True(t, svcs.Social.AcceptFriendRequest(ctx, 1002, 1001))
	require.True(t, svcs.Social.AddBookmark(ctx, 1002, 1), "another student bookmarks the doomed post")

	require.True(t, env.repos.Students.Remove(ctx, 1001))

	_, ok := env.repos.Students.GetByID(1001)
	assert.False(t, ok)
	assert.Empty(t, svcs.Tagging.TagsFor(1001))
	assert.False(t, svcs.Memberships.IsActiveMember(1001, 10))
	assert.Empty(t, env.repos.Posts.ByOwner(1001))
	assert.Empty(t, env.repos.Posts.PostsInGroup(10))
	assert.Empty(t, svcs.Social.Friends(1002))
	assert.Empty(t, svcs.Social.Bookmarks(1002), "bookmarks of deleted posts are gone")

	g, _ := env.repos.Groups.GetByID(10)
	assert.Equal(t, 0, g.Size)

	// Untouched neighbors
	_, ok = env.repos.Students.GetByID(1002)
	assert.True(t, ok)
	require.Len(t, env.repos.Posts.ByOwner(1002), 1)
	_, ok = env.repos.Tags.GetByID(1)
	assert.True(t, ok, "tags themselves survive, only assignments go")
}

// Group deletion is rejected while members are active and succeeds
// once everyone has left.
func TestGroupDeletionGuard(t *testing.T) {
	env := newTestEnv(t)
	env.addStudent(t, 1001, "xavier", "Xavier Santos")
	env.addGroup(t, 10, "Robotics Club")

	ctx := context.Background()
	require.True(t, env.services.Memberships.Join(ctx, 1001, 10))

	assert.False(t, env.repos.Groups.Remove(ctx, 10), "deletion is rejected with active members")

	require.True(t, env.services.Memberships.Leave(ctx, 1001, 10))
	assert.True(t, env.repos.Groups.Remove(ctx, 10))
}
