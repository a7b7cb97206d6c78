package auth

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/users"
)

// Service wraps authentication business rules.
type Service struct {
	users    users.Repository
	sessions SessionRepository
}

func NewService(userRepo users.Repository, sessionRepo SessionRepository) *Service {
	return &Service{users: userRepo, sessions: sessionRepo}
}

// Authenticate validates email/password credentials. All failure modes
// collapse into ErrInvalidCredentials so the response does not leak whether
// the account exists.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ResolveScope turns the session's user reference into the authorization
// scope attached to every request. Missing, stale, or deactivated accounts
// resolve to no scope.
func (s *Service) ResolveScope(ctx context.Context, sess *shared.Session) (shared.Scope, bool) {
	if sess == nil {
		return shared.Scope{}, false
	}
	raw := sess.User()
	if raw == "" {
		return shared.Scope{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return shared.Scope{}, false
	}
	user, err := s.users.Get(ctx, id)
	if err != nil || !user.IsActive {
		return shared.Scope{}, false
	}
	return user.Scope(), true
}

// RegisterSession persists the session metadata for auditing.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.sessions.Create(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}
