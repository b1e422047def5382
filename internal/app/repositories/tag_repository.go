package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/store"
)

// TagRepository owns the in-memory tag cache. Tag names are unique by
// name alone; a duplicate name is rejected from the cache without any
// store interaction.
type TagRepository struct {
	store store.Store

	mu    sync.Mutex
	cache *xsync.MapOf[int64, *models.Tag]

	// cleanup removes all student assignments of a tag before the tag
	// row itself is deleted
	cleanup func(ctx context.Context, tagID int64) bool

	log zerolog.Logger
}

// NewTagRepository creates the repository and warms its cache
func NewTagRepository(st store.Store, lgr zerolog.Logger) *TagRepository {
	r := &TagRepository{
		store: st,
		cache: xsync.NewMapOf[int64, *models.Tag](),
		log:   lgr.With().Str("repository", "tags").Logger(),
	}
	r.warm(context.Background())
	return r
}

// SetRemovalHook installs the assignment cleanup used by Remove
func (r *TagRepository) SetRemovalHook(cleanup func(ctx context.Context, tagID int64) bool) {
	r.cleanup = cleanup
}

func (r *TagRepository) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("id", "name", "description").
		From("tags").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := r.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var t models.Tag
			if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
				return err
			}
			r.cache.Store(t.ID, &t)
			loaded++
		}
		return nil
	})
	if !ok {
		r.log.Warn().Msg("tag cache warm failed, serving what was loaded")
		return
	}
	r.log.Info().Int("tags", loaded).Msg("tag cache warmed")
}

// Add persists a new tag and caches it. A name matching any cached
// tag's name fails without calling the store.
func (r *TagRepository) Add(ctx context.Context, t *models.Tag) bool {
	if t.Name == "" {
		r.log.Debug().Msg("rejecting tag with empty name")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Load(t.ID); t.ID != 0 && exists {
		r.log.Debug().Int64("id", t.ID).Msg("rejecting duplicate tag id")
		return false
	}
	if _, taken := r.findByName(t.Name); taken {
		r.log.Debug().Str("name", t.Name).Msg("rejecting duplicate tag name")
		return false
	}

	if t.ID == 0 {
		sql, args, err := squirrel.Insert("tags").
			Columns("name", "description").
			Values(t.Name, t.Description).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if !r.store.ExecuteReturning(ctx, "insert tag "+t.Name, sql, args, &t.ID) {
			return false
		}
	} else {
		sql, args, err := squirrel.Insert("tags").
			Columns("id", "name", "description").
			Values(t.ID, t.Name, t.Description).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if r.store.Execute(ctx, "insert tag "+t.Name, sql, args...) <= 0 {
			return false
		}
	}

	r.cache.Store(t.ID, t.Clone())
	return true
}

// GetByID is a cache-only read
func (r *TagRepository) GetByID(id int64) (*models.Tag, bool) {
	t, ok := r.cache.Load(id)
	return t.Clone(), ok
}

// GetByName is a cache-only read by exact name
func (r *TagRepository) GetByName(name string) (*models.Tag, bool) {
	t, ok := r.findByName(name)
	return t.Clone(), ok
}

func (r *TagRepository) findByName(name string) (*models.Tag, bool) {
	var found *models.Tag
	r.cache.Range(func(_ int64, t *models.Tag) bool {
		if t.Name == name {
			found = t
			return false
		}
		return true
	})
	return found, found != nil
}

// Update rewrites a tag's name and description, store first
func (r *TagRepository) Update(ctx context.Context, t *models.Tag) bool {
	if t.Name == "" {
		r.log.Debug().Int64("id", t.ID).Msg("rejecting tag update with empty name")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(t.ID); !ok {
		r.log.Debug().Int64("id", t.ID).Msg("rejecting update of unknown tag")
		return false
	}
	if other, taken := r.findByName(t.Name); taken && other.ID != t.ID {
		r.log.Debug().Str("name", t.Name).Msg("rejecting rename to a taken tag name")
		return false
	}

	sql, args, err := squirrel.Update("tags").
		Set("name", t.Name).
		Set("description", t.Description).
		Where(squirrel.Eq{"id": t.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building update")
		return false
	}

	if r.store.Execute(ctx, "update tag "+t.Name, sql, args...) <= 0 {
		return false
	}

	r.cache.Store(t.ID, t.Clone())
	return true
}

// Remove deletes a tag, clearing its student assignments first
func (r *TagRepository) Remove(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(id); !ok {
		r.log.Debug().Int64("id", id).Msg("rejecting removal of unknown tag")
		return false
	}

	if r.cleanup != nil && !r.cleanup(ctx, id) {
		r.log.Error().Int64("id", id).Msg("tag removal aborted, assignment cleanup failed")
		return false
	}

	sql, args, err := squirrel.Delete("tags").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building delete")
		return false
	}

	if r.store.Execute(ctx, "delete tag", sql, args...) <= 0 {
		return false
	}

	r.cache.Delete(id)
	return true
}

// ListAll returns copies of every cached tag, ordered by id
func (r *TagRepository) ListAll() []*models.Tag {
	out := make([]*models.Tag, 0, r.cache.Size())
	r.cache.Range(func(_ int64, t *models.Tag) bool {
		out = append(out, t.Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
