package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/pkg/auth"
)

// testEnv wires the full repository/service graph over a fake store
type testEnv struct {
	store    *fakeStore
	repos    *repositories.Repositories
	services *Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := newFakeStore()
	repos := repositories.NewRepositories(fake, zerolog.Nop())
	jwt := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "test",
	})
	svcs := NewServices(fake, repos, jwt, zerolog.Nop())

	return &testEnv{store: fake, repos: repos, services: svcs}
}

func (e *testEnv) addStudent(t *testing.T, id int64, username, name string) {
	t.Helper()
	require.True(t, e.repos.Students.Add(context.Background(), &models.Student{
		ID:       id,
		Username: username,
		Name:     name,
		Year:     models.ClassYearJunior,
	}))
}

func (e *testEnv) addGroup(t *testing.T, id int64, name string) {
	t.Helper()
	require.True(t, e.repos.Groups.Add(context.Background(), &models.Group{ID: id, Name: name}))
}

func (e *testEnv) addTag(t *testing.T, id int64, name string) {
	t.Helper()
	require.True(t, e.repos.Tags.Add(context.Background(), &models.Tag{ID: id, Name: name}))
}

func (e *testEnv) addPost(t *testing.T, id, ownerID int64, content string) {
	t.Helper()
	require.True(t, e.repos.Posts.Add(context.Background(), &models.Post{
		ID:      id,
		OwnerID: ownerID,
		Content: content,
	}))
}
