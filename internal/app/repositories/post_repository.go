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

// PostRepository owns the in-memory post cache and the "post appears in
// group" relation. A post's group visibility lives in the post_groups
// relation, not on the post row.
type PostRepository struct {
	store store.Store

	mu     sync.Mutex
	cache  *xsync.MapOf[int64, *models.Post]
	shares map[int64]map[int64]struct{} // post id -> group ids

	// cleanup clears external references to a post (bookmarks) before
	// the post row itself is deleted
	cleanup func(ctx context.Context, postID int64) bool

	log zerolog.Logger
}

// NewPostRepository creates the repository and warms both caches
func NewPostRepository(st store.Store, lgr zerolog.Logger) *PostRepository {
	r := &PostRepository{
		store:  st,
		cache:  xsync.NewMapOf[int64, *models.Post](),
		shares: make(map[int64]map[int64]struct{}),
		log:    lgr.With().Str("repository", "posts").Logger(),
	}
	r.warm(context.Background())
	return r
}

// SetRemovalHook installs the reference cleanup used by Remove
func (r *PostRepository) SetRemovalHook(cleanup func(ctx context.Context, postID int64) bool) {
	r.cleanup = cleanup
}

func (r *PostRepository) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("id", "owner_id", "content", "created_at").
		From("posts").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := r.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var p models.Post
			if err := rows.Scan(&p.ID, &p.OwnerID, &p.Content, &p.CreatedAt); err != nil {
				return err
			}
			r.cache.Store(p.ID, &p)
			loaded++
		}
		return nil
	})
	if !ok {
		r.log.Warn().Msg("post cache warm failed, serving what was loaded")
	} else {
		r.log.Info().Int("posts", loaded).Msg("post cache warmed")
	}

	sql, args, err = squirrel.
		Select("post_id", "group_id").
		From("post_groups").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building share warm query")
		return
	}
	ok = r.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var postID, groupID int64
			if err := rows.Scan(&postID, &groupID); err != nil {
				return err
			}
			if r.shares[postID] == nil {
				r.shares[postID] = make(map[int64]struct{})
			}
			r.shares[postID][groupID] = struct{}{}
		}
		return nil
	})
	if !ok {
		r.log.Warn().Msg("post share warm failed, serving what was loaded")
	}
}

// Add persists a new post and caches it
func (r *PostRepository) Add(ctx context.Context, p *models.Post) bool {
	if p.Content == "" || p.OwnerID == 0 {
		r.log.Debug().Msg("rejecting post with empty content or missing owner")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Load(p.ID); p.ID != 0 && exists {
		r.log.Debug().Int64("id", p.ID).Msg("rejecting duplicate post id")
		return false
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	if p.ID == 0 {
		sql, args, err := squirrel.Insert("posts").
			Columns("owner_id", "content", "created_at").
			Values(p.OwnerID, p.Content, p.CreatedAt).
			Suffix("RETURNING id").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if !r.store.ExecuteReturning(ctx, "insert post", sql, args, &p.ID) {
			return false
		}
	} else {
		sql, args, err := squirrel.Insert("posts").
			Columns("id", "owner_id", "content", "created_at").
			Values(p.ID, p.OwnerID, p.Content, p.CreatedAt).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			r.log.Error().Err(err).Msg("error building insert")
			return false
		}
		if r.store.Execute(ctx, "insert post", sql, args...) <= 0 {
			return false
		}
	}

	r.cache.Store(p.ID, p.Clone())
	return true
}

// GetByID is a cache-only read
func (r *PostRepository) GetByID(id int64) (*models.Post, bool) {
	p, ok := r.cache.Load(id)
	return p.Clone(), ok
}

// ByOwner returns all cached posts authored by a student, ordered by id
func (r *PostRepository) ByOwner(ownerID int64) []*models.Post {
	var out []*models.Post
	r.cache.Range(func(_ int64, p *models.Post) bool {
		if p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update rewrites a post's content, store first. Ownership never changes.
func (r *PostRepository) Update(ctx context.Context, p *models.Post) bool {
	if p.Content == "" {
		r.log.Debug().Int64("id", p.ID).Msg("rejecting post update with empty content")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.cache.Load(p.ID)
	if !ok {
		r.log.Debug().Int64("id", p.ID).Msg("rejecting update of unknown post")
		return false
	}

	sql, args, err := squirrel.Update("posts").
		Set("content", p.Content).
		Where(squirrel.Eq{"id": p.ID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building update")
		return false
	}

	if r.store.Execute(ctx, "update post content", sql, args...) <= 0 {
		return false
	}

	updated := cached.Clone()
	updated.Content = p.Content
	r.cache.Store(p.ID, updated)
	return true
}

// Remove deletes a post: external references, then group shares, then
// the post row. Best-effort ordering, no rollback of completed steps.
func (r *PostRepository) Remove(ctx context.Context, id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(ctx, id)
}

func (r *PostRepository) removeLocked(ctx context.Context, id int64) bool {
	if _, ok := r.cache.Load(id); !ok {
		r.log.Debug().Int64("id", id).Msg("rejecting removal of unknown post")
		return false
	}

	if r.cleanup != nil && !r.cleanup(ctx, id) {
		r.log.Error().Int64("id", id).Msg("post removal aborted, reference cleanup failed")
		return false
	}

	sql, args, err := squirrel.Delete("post_groups").
		Where(squirrel.Eq{"post_id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building share delete")
		return false
	}
	if r.store.Execute(ctx, "clear post group shares", sql, args...) < 0 {
		return false
	}
	delete(r.shares, id)

	sql, args, err = squirrel.Delete("posts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building delete")
		return false
	}
	if r.store.Execute(ctx, "delete post", sql, args...) <= 0 {
		return false
	}

	r.cache.Delete(id)
	return true
}

// RemoveByOwner deletes every post authored by a student. Used by the
// account-deletion cascade. Fails at the first post that cannot be
// removed; posts already removed stay removed.
func (r *PostRepository) RemoveByOwner(ctx context.Context, ownerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []int64
	r.cache.Range(func(id int64, p *models.Post) bool {
		if p.OwnerID == ownerID {
			ids = append(ids, id)
		}
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if !r.removeLocked(ctx, id) {
			return false
		}
	}
	return true
}

// AddToGroup shares a post into a group, store first
func (r *PostRepository) AddToGroup(ctx context.Context, postID, groupID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cache.Load(postID); !ok {
		r.log.Debug().Int64("postId", postID).Msg("rejecting share of unknown post")
		return false
	}
	if _, shared := r.shares[postID][groupID]; shared {
		r.log.Debug().Int64("postId", postID).Int64("groupId", groupID).Msg("post already shared to group")
		return false
	}

	sql, args, err := squirrel.Insert("post_groups").
		Columns("post_id", "group_id").
		Values(postID, groupID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building share insert")
		return false
	}
	if r.store.Execute(ctx, "share post to group", sql, args...) <= 0 {
		return false
	}

	if r.shares[postID] == nil {
		r.shares[postID] = make(map[int64]struct{})
	}
	r.shares[postID][groupID] = struct{}{}
	return true
}

// RemoveFromGroup withdraws a post from a group, store first
func (r *PostRepository) RemoveFromGroup(ctx context.Context, postID, groupID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, shared := r.shares[postID][groupID]; !shared {
		r.log.Debug().Int64("postId", postID).Int64("groupId", groupID).Msg("post is not shared to group")
		return false
	}

	sql, args, err := squirrel.Delete("post_groups").
		Where(squirrel.Eq{"post_id": postID, "group_id": groupID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		r.log.Error().Err(err).Msg("error building share delete")
		return false
	}
	if r.store.Execute(ctx, "withdraw post from group", sql, args...) <= 0 {
		return false
	}

	delete(r.shares[postID], groupID)
	if len(r.shares[postID]) == 0 {
		delete(r.shares, postID)
	}
	return true
}

// PostsInGroup returns all cached posts shared into a group, ordered by id
func (r *PostRepository) PostsInGroup(groupID int64) []*models.Post {
	r.mu.Lock()
	var ids []int64
	for postID, groups := range r.shares {
		if _, ok := groups[groupID]; ok {
			ids = append(ids, postID)
		}
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.cache.Load(id); ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// GroupsFor returns the ids of groups a post is shared into
func (r *PostRepository) GroupsFor(postID int64) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int64, 0, len(r.shares[postID]))
	for groupID := range r.shares[postID] {
		out = append(out, groupID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ListAll returns copies of every cached post, ordered by id
func (r *PostRepository) ListAll() []*models.Post {
	out := make([]*models.Post, 0, r.cache.Size())
	r.cache.Range(func(_ int64, p *models.Post) bool {
		out = append(out, p.Clone())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
