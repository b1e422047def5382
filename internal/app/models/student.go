package models

import "time"

// ClassYear defines a student's enrollment year
type ClassYear string

const (
	ClassYearFreshman  ClassYear = "FRESHMAN"
	ClassYearSophomore ClassYear = "SOPHOMORE"
	ClassYearJunior    ClassYear = "JUNIOR"
	ClassYearSenior    ClassYear = "SENIOR"
)

// Valid reports whether the value is one of the recognized years
func (y ClassYear) Valid() bool {
	switch y {
	case ClassYearFreshman, ClassYearSophomore, ClassYearJunior, ClassYearSenior:
		return true
	}
	return false
}

// Student represents a registered student profile
type Student struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Name         string    `json:"name" db:"name"`
	Year         ClassYear `json:"year" db:"year"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Anonymous    bool      `json:"anonymous" db:"anonymous"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a copy safe to hand outside the repository
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	out := *s
	if s.Email != nil {
		email := *s.Email
		out.Email = &email
	}
	return &out
}
