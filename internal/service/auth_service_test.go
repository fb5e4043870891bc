package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/repository/repotest"
	apperrors "github.com/spec-kit/daily-status/pkg/util/errorutil"
)

func newAuthService(t *testing.T) (*AuthService, *repotest.Users, *recordingDispatcher) {
	t.Helper()
	users := repotest.NewUsers()
	dispatcher := &recordingDispatcher{}
	svc := NewAuthService(config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}, users, dispatcher)
	return svc, users, dispatcher
}

func TestRegisterCreatesUserRoleAndToken(t *testing.T) {
	svc, _, dispatcher := newAuthService(t)

	result, err := svc.Register(context.Background(), " Dana ", " Dana@Corp.io ", "correct-horse")
	require.NoError(t, err)

	assert.Equal(t, "dana@corp.io", result.User.Email)
	assert.Equal(t, "Dana", result.User.Name)
	assert.Equal(t, domain.RoleUser, result.User.Role)
	assert.NotEqual(t, "correct-horse", result.User.PasswordHash)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.Subject)
	assert.Equal(t, []events.EventType{events.EventUserRegistered}, dispatcher.types())
}

func TestRegisterRejects(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Dana", "dana@corp.io", "correct-horse")
	require.NoError(t, err)

	cases := []struct {
		name     string
		fullName string
		email    string
		password string
		code     string
	}{
		{name: "duplicate email", fullName: "Dana", email: "DANA@corp.io", password: "correct-horse", code: "CONFLICT"},
		{name: "malformed email", fullName: "Dana", email: "not-an-email", password: "correct-horse", code: "VALIDATION_FAILED"},
		{name: "short password", fullName: "Dana", email: "new@corp.io", password: "short", code: "VALIDATION_FAILED"},
		{name: "blank name", fullName: "  ", email: "new@corp.io", password: "correct-horse", code: "VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.fullName, tc.email, tc.password)
			require.Error(t, err)
			assert.Equal(t, tc.code, apperrors.ToDomainError(err).Code)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "Dana", "dana@corp.io", "correct-horse")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "dana@corp.io", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "dana@corp.io", result.User.Email)

	_, err = svc.Login(context.Background(), "dana@corp.io", "wrong-password")
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	_, err = svc.Login(context.Background(), "ghost@corp.io", "correct-horse")
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestSetRole(t *testing.T) {
	svc, users, _ := newAuthService(t)
	registered, err := svc.Register(context.Background(), "Dana", "dana@corp.io", "correct-horse")
	require.NoError(t, err)

	_, err = svc.SetRole(context.Background(), dev, registered.User.ID, domain.RoleManager)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	_, err = svc.SetRole(context.Background(), admin, registered.User.ID, domain.Role("owner"))
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	updated, err := svc.SetRole(context.Background(), admin, registered.User.ID, domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)

	stored, err := users.GetByID(context.Background(), registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, stored.Role)
}
