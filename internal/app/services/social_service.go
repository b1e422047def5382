package services

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/store"
)

// SocialService manages the social graph: friendships, blocks, pending
// friend requests and post bookmarks. Friendship rows are stored once
// per pair (lower id first) and cached in both directions.
//
// Invariant: two students are never simultaneously friends and blocked.
// Blocking tears down the friendship and any pending requests between
// the pair; friending a blocked student is rejected before any store call.
type SocialService struct {
	store    store.Store
	students *repositories.StudentRepository
	posts    *repositories.PostRepository

	mu        sync.Mutex
	friends   map[int64]map[int64]struct{} // both directions
	blocks    map[int64]map[int64]struct{} // blocker -> blocked
	requests  map[int64]map[int64]struct{} // to -> from
	bookmarks map[int64]map[int64]struct{} // student -> post

	log zerolog.Logger
}

// NewSocialService creates the manager and warms its caches
func NewSocialService(st store.Store, students *repositories.StudentRepository, posts *repositories.PostRepository, lgr zerolog.Logger) *SocialService {
	s := &SocialService{
		store:     st,
		students:  students,
		posts:     posts,
		friends:   make(map[int64]map[int64]struct{}),
		blocks:    make(map[int64]map[int64]struct{}),
		requests:  make(map[int64]map[int64]struct{}),
		bookmarks: make(map[int64]map[int64]struct{}),
		log:       lgr.With().Str("service", "social").Logger(),
	}
	s.warm(context.Background())
	return s
}

func (s *SocialService) warm(ctx context.Context) {
	type pairTable struct {
		table    string
		colA     string
		colB     string
		populate func(a, b int64)
	}
	tables := []pairTable{
		{"friendships", "student_a", "student_b", func(a, b int64) {
			s.link(s.friends, a, b)
			s.link(s.friends, b, a)
		}},
		{"blocks", "blocker_id", "blocked_id", func(a, b int64) { s.link(s.blocks, a, b) }},
		{"friend_requests", "to_id", "from_id", func(a, b int64) { s.link(s.requests, a, b) }},
		{"bookmarks", "student_id", "post_id", func(a, b int64) { s.link(s.bookmarks, a, b) }},
	}

	for _, t := range tables {
		sql, args, err := squirrel.
			Select(t.colA, t.colB).
			From(t.table).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			s.log.Error().Err(err).Str("table", t.table).Msg("error building warm query")
			continue
		}
		ok := s.store.Query(ctx, sql, args, func(rows store.Rows) error {
			for rows.Next() {
				var a, b int64
				if err := rows.Scan(&a, &b); err != nil {
					return err
				}
				t.populate(a, b)
			}
			return nil
		})
		if !ok {
			s.log.Warn().Str("table", t.table).Msg("social cache warm failed, serving what was loaded")
		}
	}
}

func (s *SocialService) link(m map[int64]map[int64]struct{}, a, b int64) {
	if m[a] == nil {
		m[a] = make(map[int64]struct{})
	}
	m[a][b] = struct{}{}
}

func (s *SocialService) unlink(m map[int64]map[int64]struct{}, a, b int64) {
	delete(m[a], b)
	if len(m[a]) == 0 {
		delete(m, a)
	}
}

func normalizePair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// SendFriendRequest files a pending request from one student to another
func (s *SocialService) SendFriendRequest(ctx context.Context, fromID, toID int64) bool {
	if fromID == toID {
		s.log.Debug().Int64("studentId", fromID).Msg("rejecting friend request to self")
		return false
	}
	if _, ok := s.students.GetByID(fromID); !ok {
		return false
	}
	if _, ok := s.students.GetByID(toID); !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blockedLocked(fromID, toID) {
		s.log.Debug().Int64("fromId", fromID).Int64("toId", toID).
			Msg("rejecting friend request across a block")
		return false
	}
	if _, already := s.friends[fromID][toID]; already {
		s.log.Debug().Int64("fromId", fromID).Int64("toId", toID).Msg("students are already friends")
		return false
	}
	if _, pending := s.requests[toID][fromID]; pending {
		s.log.Debug().Int64("fromId", fromID).Int64("toId", toID).Msg("friend request already pending")
		return false
	}

	sql, args, err := squirrel.Insert("friend_requests").
		Columns("from_id", "to_id").
		Values(fromID, toID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building request insert")
		return false
	}
	if s.store.Execute(ctx, "send friend request", sql, args...) <= 0 {
		return false
	}

	s.link(s.requests, toID, fromID)
	return true
}

// AcceptFriendRequest turns a pending request into a friendship.
// Two store steps, best-effort: the request row is consumed first.
func (s *SocialService) AcceptFriendRequest(ctx context.Context, toID, fromID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.requests[toID][fromID]; !pending {
		s.log.Debug().Int64("fromId", fromID).Int64("toId", toID).Msg("no pending friend request")
		return false
	}

	if !s.deleteRequestLocked(ctx, fromID, toID) {
		return false
	}

	a, b := normalizePair(fromID, toID)
	sql, args, err := squirrel.Insert("friendships").
		Columns("student_a", "student_b").
		Values(a, b).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building friendship insert")
		return false
	}
	if s.store.Execute(ctx, "create friendship", sql, args...) <= 0 {
		s.log.Error().Int64("fromId", fromID).Int64("toId", toID).
			Msg("friendship insert failed after request was consumed")
		return false
	}

	s.link(s.friends, fromID, toID)
	s.link(s.friends, toID, fromID)
	return true
}

// DeclineFriendRequest drops a pending request
func (s *SocialService) DeclineFriendRequest(ctx context.Context, toID, fromID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.requests[toID][fromID]; !pending {
		s.log.Debug().Int64("fromId", fromID).Int64("toId", toID).Msg("no pending friend request")
		return false
	}
	return s.deleteRequestLocked(ctx, fromID, toID)
}

func (s *SocialService) deleteRequestLocked(ctx context.Context, fromID, toID int64) bool {
	sql, args, err := squirrel.Delete("friend_requests").
		Where(squirrel.Eq{"from_id": fromID, "to_id": toID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building request delete")
		return false
	}
	if s.store.Execute(ctx, "remove friend request", sql, args...) <= 0 {
		return false
	}
	s.unlink(s.requests, toID, fromID)
	return true
}

// Unfriend dissolves a friendship
func (s *SocialService) Unfriend(ctx context.Context, studentID, otherID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.friends[studentID][otherID]; !ok {
		s.log.Debug().Int64("studentId", studentID).Int64("otherId", otherID).Msg("students are not friends")
		return false
	}

	if !s.deleteFriendshipLocked(ctx, studentID, otherID) {
		return false
	}
	return true
}

func (s *SocialService) deleteFriendshipLocked(ctx context.Context, studentID, otherID int64) bool {
	a, b := normalizePair(studentID, otherID)
	sql, args, err := squirrel.Delete("friendships").
		Where(squirrel.Eq{"student_a": a, "student_b": b}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building friendship delete")
		return false
	}
	if s.store.Execute(ctx, "remove friendship", sql, args...) <= 0 {
		return false
	}
	s.unlink(s.friends, studentID, otherID)
	s.unlink(s.friends, otherID, studentID)
	return true
}

// Block makes blocked invisible to blocker. Any friendship and pending
// requests between the pair are removed first; those steps are
// best-effort and stay done even if the block row itself fails.
func (s *SocialService) Block(ctx context.Context, blockerID, blockedID int64) bool {
	if blockerID == blockedID {
		s.log.Debug().Int64("studentId", blockerID).Msg("rejecting self block")
		return false
	}
	if _, ok := s.students.GetByID(blockerID); !ok {
		return false
	}
	if _, ok := s.students.GetByID(blockedID); !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, already := s.blocks[blockerID][blockedID]; already {
		s.log.Debug().Int64("blockerId", blockerID).Int64("blockedId", blockedID).Msg("already blocked")
		return false
	}

	if _, friends := s.friends[blockerID][blockedID]; friends {
		if !s.deleteFriendshipLocked(ctx, blockerID, blockedID) {
			return false
		}
	}
	if _, pending := s.requests[blockerID][blockedID]; pending {
		if !s.deleteRequestLocked(ctx, blockedID, blockerID) {
			return false
		}
	}
	if _, pending := s.requests[blockedID][blockerID]; pending {
		if !s.deleteRequestLocked(ctx, blockerID, blockedID) {
			return false
		}
	}

	sql, args, err := squirrel.Insert("blocks").
		Columns("blocker_id", "blocked_id").
		Values(blockerID, blockedID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building block insert")
		return false
	}
	if s.store.Execute(ctx, "block student", sql, args...) <= 0 {
		return false
	}

	s.link(s.blocks, blockerID, blockedID)
	return true
}

// Unblock lifts a block
func (s *SocialService) Unblock(ctx context.Context, blockerID, blockedID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, blocked := s.blocks[blockerID][blockedID]; !blocked {
		s.log.Debug().Int64("blockerId", blockerID).Int64("blockedId", blockedID).Msg("no such block")
		return false
	}

	sql, args, err := squirrel.Delete("blocks").
		Where(squirrel.Eq{"blocker_id": blockerID, "blocked_id": blockedID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building block delete")
		return false
	}
	if s.store.Execute(ctx, "unblock student", sql, args...) <= 0 {
		return false
	}

	s.unlink(s.blocks, blockerID, blockedID)
	return true
}

func (s *SocialService) blockedLocked(a, b int64) bool {
	if _, ok := s.blocks[a][b]; ok {
		return true
	}
	_, ok := s.blocks[b][a]
	return ok
}

// IsBlocked reports whether either student blocks the other
func (s *SocialService) IsBlocked(a, b int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockedLocked(a, b)
}

// Friends returns the ids of a student's friends, sorted
func (s *SocialService) Friends(studentID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.friends[studentID])
}

// Blocked returns the ids a student has blocked, sorted
func (s *SocialService) Blocked(studentID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.blocks[studentID])
}

// PendingRequests returns the ids of students with a request pending
// toward the given student, sorted.
func (s *SocialService) PendingRequests(studentID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.requests[studentID])
}

// AddBookmark saves a post for a student
func (s *SocialService) AddBookmark(ctx context.Context, studentID, postID int64) bool {
	if _, ok := s.students.GetByID(studentID); !ok {
		return false
	}
	if _, ok := s.posts.GetByID(postID); !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, has := s.bookmarks[studentID][postID]; has {
		s.log.Debug().Int64("studentId", studentID).Int64("postId", postID).Msg("post already bookmarked")
		return false
	}

	sql, args, err := squirrel.Insert("bookmarks").
		Columns("student_id", "post_id").
		Values(studentID, postID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building bookmark insert")
		return false
	}
	if s.store.Execute(ctx, "bookmark post", sql, args...) <= 0 {
		return false
	}

	s.link(s.bookmarks, studentID, postID)
	return true
}

// RemoveBookmark drops a saved post
func (s *SocialService) RemoveBookmark(ctx context.Context, studentID, postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, has := s.bookmarks[studentID][postID]; !has {
		s.log.Debug().Int64("studentId", studentID).Int64("postId", postID).Msg("post is not bookmarked")
		return false
	}

	sql, args, err := squirrel.Delete("bookmarks").
		Where(squirrel.Eq{"student_id": studentID, "post_id": postID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building bookmark delete")
		return false
	}
	if s.store.Execute(ctx, "remove bookmark", sql, args...) <= 0 {
		return false
	}

	s.unlink(s.bookmarks, studentID, postID)
	return true
}

// Bookmarks resolves a student's saved posts, ordered by post id
func (s *SocialService) Bookmarks(studentID int64) []*models.Post {
	s.mu.Lock()
	ids := sortedKeys(s.bookmarks[studentID])
	s.mu.Unlock()

	out := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts.GetByID(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// RemoveBookmarksForPost drops every bookmark of a post. Installed as
// the post repository's removal hook.
func (s *SocialService) RemoveBookmarksForPost(ctx context.Context, postID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sql, args, err := squirrel.Delete("bookmarks").
		Where(squirrel.Eq{"post_id": postID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building bookmark delete")
		return false
	}
	if s.store.Execute(ctx, "clear bookmarks of post", sql, args...) < 0 {
		return false
	}

	for studentID, posts := range s.bookmarks {
		delete(posts, postID)
		if len(posts) == 0 {
			delete(s.bookmarks, studentID)
		}
	}
	return true
}

// ClearAllForStudent removes every social relation of a student:
// friendships, blocks in both directions, pending requests in both
// directions and bookmarks. Used by the account-deletion cascade.
func (s *SocialService) ClearAllForStudent(ctx context.Context, studentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deletes := []struct {
		desc string
		sqlb squirrel.DeleteBuilder
	}{
		{"clear friendships of student", squirrel.Delete("friendships").
			Where(squirrel.Or{squirrel.Eq{"student_a": studentID}, squirrel.Eq{"student_b": studentID}})},
		{"clear friend requests of student", squirrel.Delete("friend_requests").
			Where(squirrel.Or{squirrel.Eq{"from_id": studentID}, squirrel.Eq{"to_id": studentID}})},
		{"clear blocks of student", squirrel.Delete("blocks").
			Where(squirrel.Or{squirrel.Eq{"blocker_id": studentID}, squirrel.Eq{"blocked_id": studentID}})},
		{"clear bookmarks of student", squirrel.Delete("bookmarks").
			Where(squirrel.Eq{"student_id": studentID})},
	}

	for _, d := range deletes {
		sql, args, err := d.sqlb.PlaceholderFormat(squirrel.Dollar).ToSql()
		if err != nil {
			s.log.Error().Err(err).Str("op", d.desc).Msg("error building delete")
			return false
		}
		if s.store.Execute(ctx, d.desc, sql, args...) < 0 {
			return false
		}
	}

	for otherID := range s.friends[studentID] {
		s.unlink(s.friends, otherID, studentID)
	}
	delete(s.friends, studentID)
	delete(s.blocks, studentID)
	for blocker, blocked := range s.blocks {
		delete(blocked, studentID)
		if len(blocked) == 0 {
			delete(s.blocks, blocker)
		}
	}
	delete(s.requests, studentID)
	for to, from := range s.requests {
		delete(from, studentID)
		if len(from) == 0 {
			delete(s.requests, to)
		}
	}
	delete(s.bookmarks, studentID)
	return true
}

func sortedKeys(m map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
