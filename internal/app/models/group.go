package models

import "time"

// Group represents a student group.
// Size is a derived counter: the number of active memberships. It is
// recomputed by the membership manager after every membership change
// rather than maintained independently.
type Group struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Size        int       `json:"size" db:"size"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a copy safe to hand outside the repository
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	out := *g
	return &out
}
