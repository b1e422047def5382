package repositories

import (
	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/store"
)

// Repositories bundles all entity repositories for dependency injection
type Repositories struct {
	Students *StudentRepository
	Groups   *GroupRepository
	Tags     *TagRepository
	Posts    *PostRepository
}

// NewRepositories creates all repositories over one store adapter.
// Each repository warms its cache during construction.
func NewRepositories(st store.Store, lgr zerolog.Logger) *Repositories {
	return &Repositories{
		Students: NewStudentRepository(st, lgr),
		Groups:   NewGroupRepository(st, lgr),
		Tags:     NewTagRepository(st, lgr),
		Posts:    NewPostRepository(st, lgr),
	}
}
