package repositories

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbird/connect/internal/app/models"
)

func TestTagAddAndGet(t *testing.T) {
	fake := newFakeStore()
	repo := NewTagRepository(fake, zerolog.Nop())

	tag := &models.Tag{ID: 1, Name: "IT", Description: "information technology"}
	require.True(t, repo.Add(context.Background(), tag))

	got, ok := repo.GetByID(1)
	require.True(t, ok)
	assert.Equal(t, "IT", got.Name)

	got, ok = repo.GetByName("IT")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.ID)
}

func TestTagNameUniquenessCostsNoStoreCall(t *testing.T) {
	fake := newFakeStore()
	repo := NewTagRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), &models.Tag{ID: 1, Name: "IT"}))
	before := fake.callCount()

	assert.False(t, repo.Add(context.Background(), &models.Tag{ID: 2, Name: "IT"}))
	assert.Equal(t, before, fake.callCount())
}

func TestTagUpdate(t *testing.T) {
	fake := newFakeStore()
	repo := NewTagRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), &models.Tag{ID: 1, Name: "IT"}))

	tag, _ := repo.GetByID(1)
	tag.Description = "programming, networks, systems"
	require.True(t, repo.Update(context.Background(), tag))

	got, _ := repo.GetByID(1)
	assert.Equal(t, "programming, networks, systems", got.Description)
}

func TestTagRemoveRunsCleanupFirst(t *testing.T) {
	fake := newFakeStore()
	repo := NewTagRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), &models.Tag{ID: 1, Name: "IT"}))

	cleaned := false
	repo.SetRemovalHook(func(ctx context.Context, tagID int64) bool {
		cleaned = true
		return true
	})

	require.True(t, repo.Remove(context.Background(), 1))
	assert.True(t, cleaned)
	_, ok := repo.GetByID(1)
	assert.False(t, ok)
}

func TestTagRemoveAbortsWhenCleanupFails(t *testing.T) {
	fake := newFakeStore()
	repo := NewTagRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), &models.Tag{ID: 1, Name: "IT"}))

	repo.SetRemovalHook(func(ctx context.Context, tagID int64) bool { return false })

	assert.False(t, repo.Remove(context.Background(), 1))
	_, ok := repo.GetByID(1)
	assert.True(t, ok, "tag survives an aborted removal")
}
