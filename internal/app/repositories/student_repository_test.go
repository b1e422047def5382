package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbird/connect/internal/app/models"
)

func testStudent(id int64, username, name string) *models.Student {
	return &models.Student{
		ID:       id,
		Username: username,
		Name:     name,
		Year:     models.ClassYearJunior,
	}
}

func TestStudentAddAndGetByID(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())

	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	got, ok := repo.GetByID(1001)
	require.True(t, ok)
	assert.Equal(t, "xavier", got.Username)
	assert.Equal(t, models.ClassYearJunior, got.Year)
	assert.Equal(t, 1, fake.callCount())
}

func TestStudentAddAssignsIDWhenZero(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())

	s := testStudent(0, "xavier", "Xavier Santos")
	require.True(t, repo.Add(context.Background(), s))
	assert.NotZero(t, s.ID, "store-assigned id should be written back")

	_, ok := repo.GetByID(s.ID)
	assert.True(t, ok)
}

func TestStudentAddStoreFailureLeavesCacheUnchanged(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	fake.failing = true

	assert.False(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	_, ok := repo.GetByID(1001)
	assert.False(t, ok, "failed add must not cache the student")
	assert.Equal(t, 0, repo.Count())
}

func TestStudentAddRejectsDuplicates(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())

	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))
	before := fake.callCount()

	assert.False(t, repo.Add(context.Background(), testStudent(1001, "other", "Other Name")))
	assert.False(t, repo.Add(context.Background(), testStudent(1002, "xavier", "Second Xavier")))
	assert.Equal(t, before, fake.callCount(), "duplicates are rejected before any store call")
}

func TestStudentAddRejectsInvalidFields(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())

	bad := testStudent(1001, "xavier", "Xavier Santos")
	bad.Year = models.ClassYear("GRADUATE")
	assert.False(t, repo.Add(context.Background(), bad))
	assert.False(t, repo.Add(context.Background(), testStudent(1002, "", "No Username")))
	assert.Equal(t, 0, fake.callCount())
}

func TestStudentGetByUsername(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	got, ok := repo.GetByUsername("xavier")
	require.True(t, ok)
	assert.Equal(t, int64(1001), got.ID)

	_, ok = repo.GetByUsername("nobody")
	assert.False(t, ok)
}

func TestStudentSearchByNameIsCaseInsensitive(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1002, "maria", "Maria Silva")))
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))
	require.True(t, repo.Add(context.Background(), testStudent(1003, "joao", "Joao Pereira")))

	found := repo.SearchByName("sIl")
	require.Len(t, found, 1)
	assert.Equal(t, "maria", found[0].Username)

	all := repo.SearchByName("a")
	require.Len(t, all, 3)
	assert.Equal(t, int64(1001), all[0].ID, "results are ordered by id")
}

func TestStudentUpdateStoreFirst(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	s, _ := repo.GetByID(1001)
	s.Name = "Xavier M. Santos"
	require.True(t, repo.Update(context.Background(), s))

	got, _ := repo.GetByID(1001)
	assert.Equal(t, "Xavier M. Santos", got.Name)

	fake.failing = true
	s.Name = "Never Applied"
	assert.False(t, repo.Update(context.Background(), s))
	got, _ = repo.GetByID(1001)
	assert.Equal(t, "Xavier M. Santos", got.Name, "failed update must not touch the cache")
}

func TestStudentRemoveRunsCascadeInOrder(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	var ran []string
	repo.RegisterCascade(
		CascadeStep{Name: "first", Run: func(ctx context.Context, id int64) bool {
			ran = append(ran, "first")
			return true
		}},
		CascadeStep{Name: "second", Run: func(ctx context.Context, id int64) bool {
			ran = append(ran, "second")
			return true
		}},
	)

	require.True(t, repo.Remove(context.Background(), 1001))
	assert.Equal(t, []string{"first", "second"}, ran)

	_, ok := repo.GetByID(1001)
	assert.False(t, ok)
}

func TestStudentRemoveAbortsOnCascadeFailure(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	secondRan := false
	repo.RegisterCascade(
		CascadeStep{Name: "failing", Run: func(ctx context.Context, id int64) bool { return false }},
		CascadeStep{Name: "second", Run: func(ctx context.Context, id int64) bool {
			secondRan = true
			return true
		}},
	)

	assert.False(t, repo.Remove(context.Background(), 1001))
	assert.False(t, secondRan, "steps after the failing one must not run")

	_, ok := repo.GetByID(1001)
	assert.True(t, ok, "aborted removal keeps the student")
}

func TestStudentRemoveUnknownIsRejected(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())

	assert.False(t, repo.Remove(context.Background(), 404))
	assert.Equal(t, 0, fake.callCount())
}

func TestStudentWarmLoadsExistingRows(t *testing.T) {
	fake := newFakeStore()
	email := "xavier@school.edu"
	fake.seed("students", []any{
		int64(1001), "xavier", "Xavier Santos", models.ClassYearJunior,
		&email, "hash", false, time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	})

	repo := NewStudentRepository(fake, zerolog.Nop())

	got, ok := repo.GetByID(1001)
	require.True(t, ok)
	assert.Equal(t, "xavier", got.Username)
	require.NotNil(t, got.Email)
	assert.Equal(t, email, *got.Email)
}

func TestStudentListAllReturnsCopies(t *testing.T) {
	fake := newFakeStore()
	repo := NewStudentRepository(fake, zerolog.Nop())
	require.True(t, repo.Add(context.Background(), testStudent(1001, "xavier", "Xavier Santos")))

	repo.ListAll()[0].Name = "Mutated"

	got, _ := repo.GetByID(1001)
	assert.Equal(t, "Xavier Santos", got.Name, "callers must not reach the cached value")
}
