package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/store"
)

// GroupRepository owns the in-memory group cache. Same discipline as
// the student repository: store-then-cache writes, cache-only reads,
// eager warm at construction. Group names are unique, checked against
// the cache before the store is touched.
type GroupRepository struct {
	store store.Store

	mu    sync.Mutex
	cache *xsync.MapOf[int64, *models.Group]

	// memberGuard reports whether a group still has active members.
	// Deleting such a group is rejected; there is no membership cascade.
	memberGuard func(groupID int64) bool

	log zerolog.Logger
}

// NewGroupRepository creates the repository and warms its cache
func NewGroupRepository(st store.Store, lgr zerolog.Logger) *GroupRepository {
	r := &GroupRepository{
		store: st,
		cache: xsync.NewMapOf[int64, *models.Group](),
		log:   lgr.With().Str("repository", "groups").Logger(),
	}
	r.warm(context.Background())
	return r
}

// SetRemovalGuard installs the active-member check used by Remove
func (r *GroupRepository) SetRemovalGuard(guard func(groupID int64) bool) {
	r.memberGuard = guard
}

func (r *GroupRepository) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("id", "name", "description", "size", "created_at").
		From("groups").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := r.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var g models.Group
			if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Size, &g.CreatedAt); err != nil {
				return err
			}
			r.cache.Store(g.ID, &g)
			loaded++
		}
		return nil
	})
	if !ok {
		r.log.Warn().Msg("group cache warm failed, serving what was loaded")
		return
	}
	r.log.Info().Int("groups", loaded).Msg("group cache warmed")
}

// Add persists a new group and caches it
func (r *GroupRepository) Add(ctx context.Context, g *models.Group) bool {
	if g.Name == "" {
		r.log.Debug().Msg("rejecting group with empty name")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Load(g.ID); g.ID != 0 && exists {
		r.log.Debug().Int64("id", g.ID).Msg("rejecting duplicate group id")
		return false
	}
	if other, taken := r.findByName(g.Name); taken && other.ID != g.ID {
		r.log.Debug().Str("name", g.Name).Msg("rejecting duplicate group name")
		return false
	}

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}

	if g.ID == 0 {
		sql, args, err := squirrel.Insert("groups").
			Columns("name", "description", "size", "created_at").
			Values(g.Name, g.Description, g.Size, g.CreatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if !r.store.ExecuteReturning(ctx, "insert group "+g.Name, sql, args, &g.ID) {
			return false
		}
	} else {
		sql, args, err := squirrel.Insert("groups").
			Columns("id", "name", "description", "size", "created_at").
			Values(g.ID, g.Name, g.Description, g.Size, g.CreatedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if r.store.Execute(ctx, "insert group "+g.Name, sql, args...) <= 0 {
			return false
		}
	}

	r.cache.Store(g.ID, g.Clone())
	return true
}

// GetByID is a cache-only read
func (r *GroupRepository) GetByID(id int64) (*models.Group, bool) {
	g, ok := r.cache.Load(id)
	return g.Clone(), ok
}

// GetByName is a cache-only read by exact name
func (r *GroupRepository) GetByName(name string) (*models.Group, bool) {
	g, ok := r.findByName(name)
	return g.Clone(), ok
}

func (r *GroupRepository) findByName(name string) (*models.Group, bool) {
	var found *models.Group
	r.cache.Range(func(_ int64, g *models.Group) bool {
		if g.Name == name {
			found = g
			return false
		}
		return true
	})
	return found, found != nil
}

// Update rewrites a group's name and description, store first
func (r *GroupRepository) Update(ctx context.Context, g *models.Group) bool {
	if g.Name == "" {
		r.log.Debug().Int64("id", g.ID).Msg("rejecting group update with empty name")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.cache.Load(g.ID)
	if !ok {
		r.log.Debug().Int64("id", g.ID).Msg("rejecting update of unknown group")
		return false
	}
	if other, taken := r.findByName(g.Name); taken && other.ID != g.ID {
		r.log.Debug().Str("name", g.Name).Msg("rejecting rename to a taken group name")
		return false
	}

	sql, args, err := squirrel.Update("groups").
		Set("name", g.Name).
		Set("description", g.Description).
		Where(squirrel.Eq{"id": g.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building update")
		return false
	}

	if r.store.Execute(ctx, "update group "+g.Name, sql, args...) <= 0 {
		return false
	}

	updated := g.Clone()
	updated.Size = cached.Size
	r.cache.Store(g.ID, updated)
	return true
}

// UpdateSize rewrites the derived member counter, store first.
// Called by the membership manager after every membership change.
func (r *GroupRepository) UpdateSize(ctx context.Context, id int64, size int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.cache.Load(id)
	if !ok {
		r.log.Debug().Int64("id", id).Msg("rejecting size update of unknown group")
		return false
	}

	sql, args, err := squirrel.Update("groups").
		Set("size", size).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building size update")
		return false
	}

	if r.store.Execute(ctx, "update group size", sql, args...) <= 0 {
		return false
	}

	updated := cached.Clone()
	updated.Size = size
	r.cache.Store(id, updated)
	return true
}

// Remove deletes a group. Removal is rejected while the group still has
// active members; members must leave (or be removed) first.
func (r *GroupRepository) Remove(ctx context.Context, id int64) bool {
	// Guard runs before taking r.mu: it consults the membership manager,
	// which itself calls back into this repository for size updates.
	if r.memberGuard != nil && r.memberGuard(id) {
		r.log.Debug().Int64("id", id).Msg("rejecting removal of group with active members")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(id); !ok {
		r.log.Debug().Int64("id", id).Msg("rejecting removal of unknown group")
		return false
	}

	sql, args, err := squirrel.Delete("groups").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building delete")
		return false
	}

	if r.store.Execute(ctx, "delete group", sql, args...) <= 0 {
		return false
	}

	r.cache.Delete(id)
	return true
}

// ListAll returns copies of every cached group, ordered by id
func (r *GroupRepository) ListAll() []*models.Group {
	out := make([]*models.Group, 0, r.cache.Size())
	r.cache.Range(func(_ int64, g *models.Group) bool {
		out = append(out, g.Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
