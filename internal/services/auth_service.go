package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"zeendr/internal/core"
	"zeendr/internal/storage"
)

var (
	// ErrInvalidCredentials carries the message shown on the login form.
	ErrInvalidCredentials = errors.New("Usuario o contraseña incorrectos")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

const minPasswordLength = 8

// AuthService issues and checks session tokens.
type AuthService struct {
	repo *storage.SQLiteRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewAuthService(repo *storage.SQLiteRepository, ttl time.Duration) *AuthService {
	return &AuthService{repo: repo, ttl: ttl, now: time.Now}
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, username, password string) (core.Session, error) {
	u, err := s.repo.Queries().GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		slog.WarnContext(ctx, "Failed login", "user", u.Username)
		return core.Session{}, ErrInvalidCredentials
	}

	session := core.Session{
		Token:     uuid.NewString(),
		User:      u,
		ExpiresAt: core.NewTimestamp(s.now().Add(s.ttl)),
	}
	if err := s.repo.Queries().CreateSession(ctx, session.Token, u.ID, session.ExpiresAt); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}
	slog.InfoContext(ctx, "User logged in", "user", u.Username)
	return session, nil
}

// Authenticate resolves a bearer token to its session. Expired sessions
// are removed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, ErrUnauthorized
	}
	if _, err := uuid.Parse(token); err != nil {
		return core.Session{}, ErrUnauthorized
	}
	session, err := s.repo.Queries().GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Session{}, ErrUnauthorized
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !session.ExpiresAt.After(s.now()) {
		if err := s.repo.Queries().DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return core.Session{}, ErrUnauthorized
	}
	return session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.repo.Queries().DeleteSession(ctx, token)
}

// PurgeExpired deletes every expired session and returns how many there were.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.Queries().DeleteExpiredSessions(ctx, core.NewTimestamp(s.now()))
}

// CreateUser stores a user with a bcrypt hash of password.
func (s *AuthService) CreateUser(ctx context.Context, u core.User, password string) (core.User, error) {
	if strings.TrimSpace(u.Username) == "" {
		return core.User{}, invalid(core.ErrEmptyName)
	}
	if u.Role == "" {
		u.Role = core.RoleStaff
	}
	if _, err := core.ParseRole(string(u.Role)); err != nil {
		return core.User{}, invalid(err)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash
	id, err := s.repo.Queries().CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	return u, nil
}

func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	u, err := s.repo.Queries().GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.Queries().UpdateUserPassword(ctx, u.ID, hash)
}

func (s *AuthService) Users(ctx context.Context) ([]core.User, error) {
	return s.repo.Queries().ListUsers(ctx)
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalid(fmt.Errorf("password must have at least %d characters", minPasswordLength))
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// RequireAdmin returns ErrForbidden unless the session belongs to an admin.
func RequireAdmin(s core.Session) error {
	if s.User.Role != core.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
