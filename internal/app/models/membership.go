package models

import "time"

// Membership represents one stay of a student in a group. A student who
// leaves and rejoins gets a new row; old rows are never reactivated.
type Membership struct {
	ID        int64      `json:"id" db:"id"`
	StudentID int64      `json:"studentId" db:"student_id"`
	GroupID   int64      `json:"groupId" db:"group_id"`
	JoinedAt  time.Time  `json:"joinedAt" db:"joined_at"`
	EndedAt   *time.Time `json:"endedAt,omitempty" db:"ended_at"`
}

// ActiveAt reports whether the membership is active at the given time:
// no end date, or an end date strictly after it.
func (m *Membership) ActiveAt(now time.Time) bool {
	return m.EndedAt == nil || m.EndedAt.After(now)
}

// Clone returns a copy safe to hand outside the manager
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	out := *m
	if m.EndedAt != nil {
		ended := *m.EndedAt
		out.EndedAt = &ended
	}
	return &out
}
