package services

import (
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/repositories"
)

// DirectoryService answers the cross-entity queries: it composes the
// entity repositories and relation managers and reads from their caches
// only, never from the store.
type DirectoryService struct {
	students    *repositories.StudentRepository
	groups      *repositories.GroupRepository
	posts       *repositories.PostRepository
	memberships *MembershipService
	tagging     *TaggingService

	log zerolog.Logger
}

// NewDirectoryService creates the aggregate query service
func NewDirectoryService(
	students *repositories.StudentRepository,
	groups *repositories.GroupRepository,
	posts *repositories.PostRepository,
	memberships *MembershipService,
	tagging *TaggingService,
	lgr zerolog.Logger,
) *DirectoryService {
	return &DirectoryService{
		students:    students,
		groups:      groups,
		posts:       posts,
		memberships: memberships,
		tagging:     tagging,
		log:         lgr.With().Str("service", "directory").Logger(),
	}
}

// SearchStudents finds students whose name contains the substring,
// case-insensitively.
func (s *DirectoryService) SearchStudents(nameSubstring string) []*models.Student {
	return s.students.SearchByName(nameSubstring)
}

// StudentsByTag resolves the students holding a tag
func (s *DirectoryService) StudentsByTag(tagID int64) []*models.Student {
	ids := s.tagging.StudentsWith(tagID)
	out := make([]*models.Student, 0, len(ids))
	for _, id := range ids {
		if student, ok := s.students.GetByID(id); ok {
			out = append(out, student)
		}
	}
	return out
}

// PostsInGroup returns the posts shared into a group
func (s *DirectoryService) PostsInGroup(groupID int64) []*models.Post {
	if _, ok := s.groups.GetByID(groupID); !ok {
		return nil
	}
	return s.posts.PostsInGroup(groupID)
}

// PostsByStudent returns the posts authored by a student
func (s *DirectoryService) PostsByStudent(studentID int64) []*models.Post {
	return s.posts.ByOwner(studentID)
}

// GroupMembers resolves the students currently in a group
func (s *DirectoryService) GroupMembers(groupID int64) []*models.Student {
	ids := s.memberships.ActiveMembers(groupID)
	out := make([]*models.Student, 0, len(ids))
	for _, id := range ids {
		if student, ok := s.students.GetByID(id); ok {
			out = append(out, student)
		}
	}
	return out
}

// GroupsOfStudent resolves the groups a student currently belongs to
func (s *DirectoryService) GroupsOfStudent(studentID int64) []*models.Group {
	ids := s.memberships.GroupsFor(studentID)
	out := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := s.groups.GetByID(id); ok {
			out = append(out, g)
		}
	}
	return out
}
