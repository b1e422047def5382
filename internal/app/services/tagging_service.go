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

// TaggingService manages the student/tag assignment relation: a plain
// presence toggle, store-then-cache like everything else.
type TaggingService struct {
	store    store.Store
	students *repositories.StudentRepository
	tags     *repositories.TagRepository

	mu       sync.Mutex
	assigned map[int64]map[int64]struct{} // student id -> tag ids

	log zerolog.Logger
}

// NewTaggingService creates the manager and warms its cache
func NewTaggingService(st store.Store, students *repositories.StudentRepository, tags *repositories.TagRepository, lgr zerolog.Logger) *TaggingService {
	s := &TaggingService{
		store:    st,
		students: students,
		tags:     tags,
		assigned: make(map[int64]map[int64]struct{}),
		log:      lgr.With().Str("service", "tagging").Logger(),
	}
	s.warm(context.Background())
	return s
}

func (s *TaggingService) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("student_id", "tag_id").
		From("student_tags").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := s.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var studentID, tagID int64
			if err := rows.Scan(&studentID, &tagID); err != nil {
				return err
			}
			if s.assigned[studentID] == nil {
				s.assigned[studentID] = make(map[int64]struct{})
			}
			s.assigned[studentID][tagID] = struct{}{}
			loaded++
		}
		return nil
	})
	if !ok {
		s.log.Warn().Msg("tag assignment cache warm failed, serving what was loaded")
		return
	}
	s.log.Info().Int("assignments", loaded).Msg("tag assignment cache warmed")
}

// Assign attaches a tag to a student's profile
func (s *TaggingService) Assign(ctx context.Context, studentID, tagID int64) bool {
	if _, ok := s.students.GetByID(studentID); !ok {
		s.log.Debug().Int64("studentId", studentID).Msg("rejecting assignment for unknown student")
		return false
	}
	if _, ok := s.tags.GetByID(tagID); !ok {
		s.log.Debug().Int64("tagId", tagID).Msg("rejecting assignment of unknown tag")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, has := s.assigned[studentID][tagID]; has {
		s.log.Debug().Int64("studentId", studentID).Int64("tagId", tagID).Msg("tag already assigned")
		return false
	}

	sql, args, err := squirrel.Insert("student_tags").
		Columns("student_id", "tag_id").
		Values(studentID, tagID).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building assignment insert")
		return false
	}
	if s.store.Execute(ctx, "assign tag to student", sql, args...) <= 0 {
		return false
	}

	if s.assigned[studentID] == nil {
		s.assigned[studentID] = make(map[int64]struct{})
	}
	s.assigned[studentID][tagID] = struct{}{}
	return true
}

// Unassign detaches a tag from a student's profile
func (s *TaggingService) Unassign(ctx context.Context, studentID, tagID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, has := s.assigned[studentID][tagID]; !has {
		s.log.Debug().Int64("studentId", studentID).Int64("tagId", tagID).Msg("tag is not assigned")
		return false
	}

	sql, args, err := squirrel.Delete("student_tags").
		Where(squirrel.Eq{"student_id": studentID, "tag_id": tagID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building assignment delete")
		return false
	}
	if s.store.Execute(ctx, "unassign tag from student", sql, args...) <= 0 {
		return false
	}

	delete(s.assigned[studentID], tagID)
	if len(s.assigned[studentID]) == 0 {
		delete(s.assigned, studentID)
	}
	return true
}

// TagsFor resolves a student's assigned tags, ordered by tag id
func (s *TaggingService) TagsFor(studentID int64) []*models.Tag {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.assigned[studentID]))
	for tagID := range s.assigned[studentID] {
		ids = append(ids, tagID)
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tags.GetByID(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// StudentsWith returns the ids of students holding a tag
func (s *TaggingService) StudentsWith(tagID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []int64
	for studentID, tags := range s.assigned {
		if _, has := tags[tagID]; has {
			out = append(out, studentID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UnassignAllForStudent clears every tag of a student. Used by the
// account-deletion cascade.
func (s *TaggingService) UnassignAllForStudent(ctx context.Context, studentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sql, args, err := squirrel.Delete("student_tags").
		Where(squirrel.Eq{"student_id": studentID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building assignment delete")
		return false
	}
	// Zero affected rows is fine: the student may hold no tags
	if s.store.Execute(ctx, "clear tag assignments of student", sql, args...) < 0 {
		return false
	}

	delete(s.assigned, studentID)
	return true
}

// UnassignAllForTag clears every assignment of a tag. Installed as the
// tag repository's removal hook.
func (s *TaggingService) UnassignAllForTag(ctx context.Context, tagID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sql, args, err := squirrel.Delete("student_tags").
		Where(squirrel.Eq{"tag_id": tagID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building assignment delete")
		return false
	}
	if s.store.Execute(ctx, "clear assignments of tag", sql, args...) < 0 {
		return false
	}

	for studentID, tags := range s.assigned {
		delete(tags, tagID)
		if len(tags) == 0 {
			delete(s.assigned, studentID)
		}
	}
	return true
}
