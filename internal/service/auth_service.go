package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/repository"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthResult carries an account with a freshly issued token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration, login and role assignment.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, dispatcher events.Dispatcher) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		dispatcher: dispatcher,
	}
}

// Register creates a user-role account and signs it in.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"field": "email"})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, apperrors.NewValidationError("password is too long", map[string]any{"field": "password"})
	}
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		Role:         domain.RoleUser,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventUserRegistered,
			SubjectID: user.ID,
			Actor:     events.ActorOf(user),
		})
	}
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !auth.PasswordMatches(user.PasswordHash, password) {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// Refresh issues a new token for an already authenticated account.
func (s *AuthService) Refresh(_ context.Context, user *domain.User) (*AuthResult, error) {
	if user == nil {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	return s.issue(user)
}

// SetRole changes an account's role. Only admins may call it.
func (s *AuthService) SetRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"field": "role", "value": role})
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func validateCredentials(email, password string) error {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password too short", map[string]any{"field": "password", "min": minPasswordLength})
	}
	return nil
}
