package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/pkg/auth"
	"github.com/redbird/connect/internal/store"
)

// Services bundles all services for dependency injection
type Services struct {
	Memberships *MembershipService
	Tagging     *TaggingService
	Social      *SocialService
	Directory   *DirectoryService
	Auth        *AuthService
}

// NewServices wires all services over the repositories and registers
// the cross-component hooks: the student deletion cascade, the group
// removal guard, and the tag and post cleanup hooks.
func NewServices(st store.Store, repos *repositories.Repositories, jwtService *auth.JWTService, lgr zerolog.Logger) *Services {
	s := &Services{}

	s.Memberships = NewMembershipService(st, repos.Students, repos.Groups, lgr)
	s.Tagging = NewTaggingService(st, repos.Students, repos.Tags, lgr)
	s.Social = NewSocialService(st, repos.Students, repos.Posts, lgr)
	s.Directory = NewDirectoryService(repos.Students, repos.Groups, repos.Posts, s.Memberships, s.Tagging, lgr)
	s.Auth = NewAuthService(repos.Students, jwtService, lgr)

	repos.Groups.SetRemovalGuard(s.Memberships.HasActiveMembers)
	repos.Tags.SetRemovalHook(s.Tagging.UnassignAllForTag)
	repos.Posts.SetRemovalHook(s.Social.RemoveBookmarksForPost)

	// Account deletion cascade: children before the parent row.
	// Steps run in this order and are not rolled back on a later failure.
	repos.Students.RegisterCascade(
		repositories.CascadeStep{Name: "unassign tags", Run: s.Tagging.UnassignAllForStudent},
		repositories.CascadeStep{Name: "end memberships", Run: s.Memberships.EndAllFor},
		repositories.CascadeStep{Name: "delete posts", Run: repos.Posts.RemoveByOwner},
		repositories.CascadeStep{Name: "clear social relations", Run: s.Social.ClearAllForStudent},
		repositories.CascadeStep{Name: "revoke sessions", Run: func(_ context.Context, studentID int64) bool {
			s.Auth.RevokeAllFor(studentID)
			return true
		}},
	)

	return s
}
