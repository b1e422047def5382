package models

// Tag represents an interest tag students can attach to their profile.
// Tag names are unique; uniqueness is by name only.
type Tag struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Clone returns a copy safe to hand outside the repository
func (t *Tag) Clone() *Tag {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
