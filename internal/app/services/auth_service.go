package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/redbird/connect/internal/app/models"
	"github.com/redbird/connect/internal/app/repositories"
	"github.com/redbird/connect/internal/pkg/apperrors"
	"github.com/redbird/connect/internal/pkg/auth"
)

// TokenPair is what a successful login or refresh hands back
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type refreshRecord struct {
	studentID int64
	expiresAt time.Time
}

// AuthService handles registration and login. Passwords are digested
// before the student repository ever sees them; the plaintext never
// reaches the store. Refresh tokens are opaque ids held in memory.
type AuthService struct {
	students *repositories.StudentRepository
	jwt      *auth.JWTService

	mu      sync.Mutex
	refresh map[string]refreshRecord
	log     zerolog.Logger
}

// NewAuthService creates the auth service
func NewAuthService(students *repositories.StudentRepository, jwtService *auth.JWTService, lgr zerolog.Logger) *AuthService {
	return &AuthService{
		students: students,
		jwt:      jwtService,
		refresh:  make(map[string]refreshRecord),
		log:      lgr.With().Str("service", "auth").Logger(),
	}
}

// Register creates a new student account. The store assigns the id.
func (s *AuthService) Register(ctx context.Context, username, name, password string, year models.ClassYear, email *string) (*models.Student, bool) {
	if password == "" {
		s.log.Debug().Str("username", username).Msg("rejecting registration with empty password")
		return nil, false
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		return nil, false
	}

	student := &models.Student{
		Username:     username,
		Name:         name,
		Year:         year,
		Email:        email,
		PasswordHash: hash,
	}
	if !s.students.Add(ctx, student) {
		return nil, false
	}
	return student, true
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(username, password string) (*TokenPair, error) {
	student, ok := s.students.GetByUsername(username)
	if !ok || !auth.CheckPassword(student.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, expiresIn, err := s.jwt.GenerateTokenPair(student.ID, student.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue tokens")
		return nil, err
	}

	s.mu.Lock()
	s.refresh[refresh] = refreshRecord{studentID: student.ID, expiresAt: s.jwt.RefreshTokenExpiry()}
	s.mu.Unlock()

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: expiresIn}, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The old
// refresh token is consumed.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	s.mu.Lock()
	record, ok := s.refresh[refreshToken]
	if ok {
		delete(s.refresh, refreshToken)
	}
	s.mu.Unlock()

	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	if time.Now().After(record.expiresAt) {
		return nil, apperrors.ErrTokenExpired
	}

	student, found := s.students.GetByID(record.studentID)
	if !found {
		return nil, apperrors.ErrStudentNotFound
	}

	access, refresh, expiresIn, err := s.jwt.GenerateTokenPair(student.ID, student.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue tokens")
		return nil, err
	}

	s.mu.Lock()
	s.refresh[refresh] = refreshRecord{studentID: student.ID, expiresAt: s.jwt.RefreshTokenExpiry()}
	s.mu.Unlock()

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: expiresIn}, nil
}

// RevokeAllFor drops every refresh token of a student. Used by the
// account-deletion cascade.
func (s *AuthService) RevokeAllFor(studentID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, record := range s.refresh {
		if record.studentID == studentID {
			delete(s.refresh, token)
		}
	}
}
