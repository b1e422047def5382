package models

import "time"

// Post represents a free-text post authored by a student.
// Group visibility is a separate relation ("post appears in group"),
// not a column on the post row itself.
type Post struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"ownerId" db:"owner_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a copy safe to hand outside the repository
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}
