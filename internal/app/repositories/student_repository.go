package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/store"
)

// CascadeStep is one ordered sub-operation of a student deletion.
// Steps run best-effort: the first failing step aborts the removal and
// already-completed steps are not undone.
type CascadeStep struct {
	Name string
	Run  func(ctx context.Context, studentID int64) bool
}

// StudentRepository owns the in-memory student cache and keeps it
// consistent with the backing store. Every mutation is tried against
// the store first and applied to the cache only on success; reads never
// consult the store. The cache is warmed once at construction.
type StudentRepository struct {
	store store.Store

	mu      sync.Mutex // guards the store-then-cache sequence
	cache   *xsync.MapOf[int64, *models.Student]
	cascade []CascadeStep

	log zerolog.Logger
}

// NewStudentRepository creates the repository and warms its cache
func NewStudentRepository(st store.Store, lgr zerolog.Logger) *StudentRepository {
	r := &StudentRepository{
		store: st,
		cache: xsync.NewMapOf[int64, *models.Student](),
		log:   lgr.With().Str("repository", "students").Logger(),
	}
	r.warm(context.Background())
	return r
}

// RegisterCascade sets the ordered deletion sub-operations. Called once
// at wiring time, before any Remove.
func (r *StudentRepository) RegisterCascade(steps ...CascadeStep) {
	r.cascade = steps
}

func (r *StudentRepository) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("id", "username", "name", "year", "email", "password_hash", "anonymous", "created_at").
		From("students").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := r.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var s models.Student
			if err := rows.Scan(&s.ID, &s.Username, &s.Name, &s.Year, &s.Email, &s.PasswordHash, &s.Anonymous, &s.CreatedAt); err != nil {
				return err
			}
			r.cache.Store(s.ID, &s)
			loaded++
		}
		return nil
	})
	if !ok {
		r.log.Warn().Msg("student cache warm failed, serving what was loaded")
		return
	}
	r.log.Info().Int("students", loaded).Msg("student cache warmed")
}

// Add persists a new student and caches it. Uniqueness of id and
// username is checked against the cache before any store call.
// A zero id means the store assigns one.
func (r *StudentRepository) Add(ctx context.Context, s *models.Student) bool {
	if s.Username == "" || s.Name == "" {
		r.log.Debug().Msg("rejecting student with empty username or name")
		return false
	}
	if !s.Year.Valid() {
		r.log.Debug().Str("year", string(s.Year)).Msg("rejecting student with unrecognized class year")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Load(s.ID); s.ID != 0 && exists {
		r.log.Debug().Int64("id", s.ID).Msg("rejecting duplicate student id")
		return false
	}
	if _, taken := r.findByUsername(s.Username); taken {
		r.log.Debug().Str("username", s.Username).Msg("rejecting duplicate username")
		return false
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	if s.ID == 0 {
		sql, args, err := squirrel.Insert("students").
			Columns("username", "name", "year", "email", "password_hash", "anonymous", "created_at").
			Values(s.Username, s.Name, s.Year, s.Email, s.PasswordHash, s.Anonymous, s.CreatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if !r.store.ExecuteReturning(ctx, "insert student "+s.Username, sql, args, &s.ID) {
			return false
		}
	} else {
		sql, args, err := squirrel.Insert("students").
			Columns("id", "username", "name", "year", "email", "password_hash", "anonymous", "created_at").
			Values(s.ID, s.Username, s.Name, s.Year, s.Email, s.PasswordHash, s.Anonymous, s.CreatedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if r.store.Execute(ctx, "insert student "+s.Username, sql, args...) <= 0 {
			return false
		}
	}

	r.cache.Store(s.ID, s.Clone())
	return true
}

// GetByID is a cache-only read
func (r *StudentRepository) GetByID(id int64) (*models.Student, bool) {
	s, ok := r.cache.Load(id)
	return s.Clone(), ok
}

// GetByUsername is a cache-only read by exact username
func (r *StudentRepository) GetByUsername(username string) (*models.Student, bool) {
	s, ok := r.findByUsername(username)
	return s.Clone(), ok
}

func (r *StudentRepository) findByUsername(username string) (*models.Student, bool) {
	var found *models.Student
	r.cache.Range(func(_ int64, s *models.Student) bool {
		if s.Username == username {
			found = s
			return false
		}
		return true
	})
	return found, found != nil
}

// SearchByName returns students whose name contains the given substring,
// case-insensitively, ordered by id.
func (r *StudentRepository) SearchByName(substr string) []*models.Student {
	needle := strings.ToLower(substr)
	var out []*models.Student
	r.cache.Range(func(_ int64, s *models.Student) bool {
		if strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, s.Clone())
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update rewrites a student's mutable profile fields, store first
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) bool {
	if s.Name == "" || !s.Year.Valid() {
		r.log.Debug().Int64("id", s.ID).Msg("rejecting student update with invalid fields")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(s.ID); !ok {
		r.log.Debug().Int64("id", s.ID).Msg("rejecting update of unknown student")
		return false
	}

	sql, args, err := squirrel.Update("students").
		Set("name", s.Name).
		Set("year", s.Year).
		Set("email", s.Email).
		Set("password_hash", s.PasswordHash).
		Set("anonymous", s.Anonymous).
		Where(squirrel.Eq{"id": s.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building update")
		return false
	}

	if r.store.Execute(ctx, "update student profile", sql, args...) <= 0 {
		return false
	}

	r.cache.Store(s.ID, s.Clone())
	return true
}

// Remove deletes a student. The registered cascade runs first, in
// order; its first failure aborts the removal with the completed steps
// left in place. The student row and cache entry go last.
func (r *StudentRepository) Remove(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(id); !ok {
		r.log.Debug().Int64("id", id).Msg("rejecting removal of unknown student")
		return false
	}

	for _, step := range r.cascade {
		if !step.Run(ctx, id) {
			r.log.Error().Int64("id", id).Str("step", step.Name).
				Msg("student removal aborted, earlier cascade steps are not rolled back")
			return false
		}
		r.log.Info().Int64("id", id).Str("step", step.Name).Msg("cascade step completed")
	}

	sql, args, err := squirrel.Delete("students").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building delete")
		return false
	}

	if r.store.Execute(ctx, "delete student", sql, args...) <= 0 {
		return false
	}

	r.cache.Delete(id)
	return true
}

// ListAll returns copies of every cached student, ordered by id
func (r *StudentRepository) ListAll() []*models.Student {
	out := make([]*models.Student, 0, r.cache.Size())
	r.cache.Range(func(_ int64, s *models.Student) bool {
		out = append(out, s.Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of cached students
func (r *StudentRepository) Count() int {
	return r.cache.Size()
}
