package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/store"
)

type memberPair struct {
	studentID int64
	groupID   int64
}

// MembershipService manages the temporally-bounded student/group
// relation. At most one active membership may exist per pair; leaving
// ends the row, and a later re-join inserts a fresh row. Membership
// rows are cached at startup so activity checks never hit the store.
type MembershipService struct {
	store    store.Store
	students *repositories.StudentRepository
	groups   *repositories.GroupRepository

	mu     sync.Mutex
	byPair map[memberPair][]*models.Membership

	log zerolog.Logger
	now func() time.Time
}

// NewMembershipService creates the manager and warms its cache
func NewMembershipService(st store.Store, students *repositories.StudentRepository, groups *repositories.GroupRepository, lgr zerolog.Logger) *MembershipService {
	s := &MembershipService{
		store:    st,
		students: students,
		groups:   groups,
		byPair:   make(map[memberPair][]*models.Membership),
		log:      lgr.With().Str("service", "memberships").Logger(),
		now:      time.Now,
	}
	s.warm(context.Background())
	return s
}

func (s *MembershipService) warm(ctx context.Context) {
	sql, args, err := squirrel.
		Select("id", "student_id", "group_id", "joined_at", "ended_at").
		From("memberships").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building warm query")
		return
	}

	loaded := 0
	ok := s.store.Query(ctx, sql, args, func(rows store.Rows) error {
		for rows.Next() {
			var m models.Membership
			if err := rows.Scan(&m.ID, &m.StudentID, &m.GroupID, &m.JoinedAt, &m.EndedAt); err != nil {
				return err
			}
			key := memberPair{m.StudentID, m.GroupID}
			s.byPair[key] = append(s.byPair[key], &m)
			loaded++
		}
		return nil
	})
	if !ok {
		s.log.Warn().Msg("membership cache warm failed, serving what was loaded")
		return
	}
	s.log.Info().Int("memberships", loaded).Msg("membership cache warmed")
}

// Join adds a student to a group. Rejected when either side is unknown
// or an active membership already exists for the pair.
func (s *MembershipService) Join(ctx context.Context, studentID, groupID int64) bool {
	if _, ok := s.students.GetByID(studentID); !ok {
		s.log.Debug().Int64("studentId", studentID).Msg("rejecting join for unknown student")
		return false
	}
	if _, ok := s.groups.GetByID(groupID); !ok {
		s.log.Debug().Int64("groupId", groupID).Msg("rejecting join for unknown group")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := memberPair{studentID, groupID}
	if s.activeLocked(key, now) {
		s.log.Debug().Int64("studentId", studentID).Int64("groupId", groupID).
			Msg("rejecting join, active membership already exists")
		return false
	}

	m := &models.Membership{StudentID: studentID, GroupID: groupID, JoinedAt: now}
	sql, args, err := squirrel.Insert("memberships").
		Columns("student_id", "group_id", "joined_at").
		Values(m.StudentID, m.GroupID, m.JoinedAt).
		Suffix("RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building membership insert")
		return false
	}
	if !s.store.ExecuteReturning(ctx, "insert membership", sql, args, &m.ID) {
		return false
	}

	s.byPair[key] = append(s.byPair[key], m)
	s.recomputeSizeLocked(ctx, groupID)
	return true
}

// Leave ends the active membership(s) for the pair. More than one
// active row should not exist, but all of them are ended defensively.
func (s *MembershipService) Leave(ctx context.Context, studentID, groupID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := memberPair{studentID, groupID}
	if !s.activeLocked(key, now) {
		s.log.Debug().Int64("studentId", studentID).Int64("groupId", groupID).
			Msg("rejecting leave, no active membership")
		return false
	}

	sql, args, err := squirrel.Update("memberships").
		Set("ended_at", now).
		Where(squirrel.Eq{"student_id": studentID, "group_id": groupID}).
		Where(squirrel.Or{squirrel.Eq{"ended_at": nil}, squirrel.Gt{"ended_at": now}}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building membership update")
		return false
	}
	if s.store.Execute(ctx, "end membership", sql, args...) <= 0 {
		return false
	}

	ended := now
	for _, m := range s.byPair[key] {
		if m.ActiveAt(now) {
			m.EndedAt = &ended
		}
	}
	s.recomputeSizeLocked(ctx, groupID)
	return true
}

// SetEndDate is an administrative override: it stamps an end date on
// every membership row for the pair, with no precondition and no
// validation against the join date.
func (s *MembershipService) SetEndDate(ctx context.Context, studentID, groupID int64, date time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberPair{studentID, groupID}
	if len(s.byPair[key]) == 0 {
		s.log.Debug().Int64("studentId", studentID).Int64("groupId", groupID).
			Msg("rejecting end-date override, no membership rows")
		return false
	}

	sql, args, err := squirrel.Update("memberships").
		Set("ended_at", date).
		Where(squirrel.Eq{"student_id": studentID, "group_id": groupID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building membership update")
		return false
	}
	if s.store.Execute(ctx, "override membership end date", sql, args...) <= 0 {
		return false
	}

	for _, m := range s.byPair[key] {
		ended := date
		m.EndedAt = &ended
	}
	s.recomputeSizeLocked(ctx, groupID)
	return true
}

// IsActiveMember reports whether the student currently belongs to the group
func (s *MembershipService) IsActiveMember(studentID, groupID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(memberPair{studentID, groupID}, s.now())
}

// HasActiveMembers reports whether any student currently belongs to the
// group. Installed as the group repository's removal guard.
func (s *MembershipService) HasActiveMembers(groupID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, ms := range s.byPair {
		if key.groupID != groupID {
			continue
		}
		for _, m := range ms {
			if m.ActiveAt(now) {
				return true
			}
		}
	}
	return false
}

// ActiveMembers returns the ids of students currently in the group
func (s *MembershipService) ActiveMembers(groupID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeMembersLocked(groupID)
}

func (s *MembershipService) activeMembersLocked(groupID int64) []int64 {
	now := s.now()
	var out []int64
	for key, ms := range s.byPair {
		if key.groupID != groupID {
			continue
		}
		for _, m := range ms {
			if m.ActiveAt(now) {
				out = append(out, key.studentID)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GroupsFor returns the ids of groups a student currently belongs to
func (s *MembershipService) GroupsFor(studentID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []int64
	for key, ms := range s.byPair {
		if key.studentID != studentID {
			continue
		}
		for _, m := range ms {
			if m.ActiveAt(now) {
				out = append(out, key.groupID)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MembershipsFor returns copies of every membership row of a student,
// ended ones included.
func (s *MembershipService) MembershipsFor(studentID int64) []*models.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Membership
	for key, ms := range s.byPair {
		if key.studentID != studentID {
			continue
		}
		for _, m := range ms {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// EndAllFor ends every active membership of a student. Used by the
// account-deletion cascade.
func (s *MembershipService) EndAllFor(ctx context.Context, studentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sql, args, err := squirrel.Update("memberships").
		Set("ended_at", now).
		Where(squirrel.Eq{"student_id": studentID}).
		Where(squirrel.Or{squirrel.Eq{"ended_at": nil}, squirrel.Gt{"ended_at": now}}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		s.log.Error().Err(err).Msg("error building membership update")
		return false
	}
	// Zero affected rows is fine here: the student may not belong anywhere
	if s.store.Execute(ctx, "end all memberships of student", sql, args...) < 0 {
		return false
	}

	ended := now
	touched := make(map[int64]struct{})
	for key, ms := range s.byPair {
		if key.studentID != studentID {
			continue
		}
		for _, m := range ms {
			if m.ActiveAt(now) {
				m.EndedAt = &ended
				touched[key.groupID] = struct{}{}
			}
		}
	}
	for groupID := range touched {
		s.recomputeSizeLocked(ctx, groupID)
	}
	return true
}

func (s *MembershipService) activeLocked(key memberPair, now time.Time) bool {
	for _, m := range s.byPair[key] {
		if m.ActiveAt(now) {
			return true
		}
	}
	return false
}

// recomputeSizeLocked pushes the derived member counter to the group
// repository. A failure here is logged but does not undo the membership
// change that triggered it.
func (s *MembershipService) recomputeSizeLocked(ctx context.Context, groupID int64) {
	size := len(s.activeMembersLocked(groupID))
	if !s.groups.UpdateSize(ctx, groupID, size) {
		s.log.Warn().Int64("groupId", groupID).Int("size", size).
			Msg("failed to persist recomputed group size")
	}
}
