package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/daily-status/internal/api/http/handlers"
	"github.com/spec-kit/daily-status/internal/auth"
	"github.com/spec-kit/daily-status/internal/config"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/events"
	"github.com/spec-kit/daily-status/internal/observability"
	"github.com/spec-kit/daily-status/internal/repository/repotest"
	"github.com/spec-kit/daily-status/internal/service"
)

type apiFixture struct {
	app     *fiber.App
	users   *repotest.Users
	teams   *repotest.Teams
	updates *service.UpdateService
	auth    *service.AuthService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	users := repotest.NewUsers()
	teams := &repotest.Teams{}
	updateRepo := &repotest.Updates{Teams: teams, Now: time.Now().UTC()}
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "router-test",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}, users, dispatcher)
	updateService := service.NewUpdateService(service.UpdateDependencies{
		UpdateRepo: updateRepo,
		TeamRepo:   teams,
		Dispatcher: dispatcher,
	})
	teamService := service.NewTeamService(teams, dispatcher)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("daily-status", "test", map[string]handlers.Pinger{
			"postgres": handlers.ReadinessFunc(func(context.Context) error { return nil }),
		}),
		Users:          handlers.NewUsersHandler(authService),
		Updates:        handlers.NewUpdatesHandler(updateService),
		Teams:          handlers.NewTeamsHandler(teamService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
		Registry:       metrics.Registry(),
	})

	return &apiFixture{app: app, users: users, teams: teams, updates: updateService, auth: authService}
}

// account stores a user with the given role and returns a bearer token.
func (f *apiFixture) account(t *testing.T, email string, role domain.Role) (*domain.User, string) {
	t.Helper()
	user := &domain.User{Email: email, Name: strings.Split(email, "@")[0], Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	token, _, err := f.auth.TokenManager().GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	envelope, _ := body["error"].(map[string]any)
	code, _ := envelope["code"].(string)
	return code
}

func TestHealthProbes(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestRegisterLoginMe(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "Dana", "email": "Dana@corp.io", "password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "user", data["user"].(map[string]any)["role"])

	status, body = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "dana@corp.io", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, status)
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)

	status, body = f.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "dana@corp.io", body["data"].(map[string]any)["email"])

	status, body = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "dana@corp.io", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestUpdatesRequireAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	status, body := f.do(t, http.MethodGet, "/updates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestOwnerCannotEditCompletedUpdate(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.account(t, "dev@corp.io", domain.RoleUser)

	status, body := f.do(t, http.MethodPost, "/updates", token, map[string]any{
		"tasks_completed": "closed the sprint",
		"status":          "completed",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)

	status, body = f.do(t, http.MethodPatch, "/updates/"+id, token, map[string]any{
		"tasks_completed": "rewritten history",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = f.do(t, http.MethodGet, "/updates/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "closed the sprint", body["data"].(map[string]any)["tasks_completed"])
}

func TestOwnerEditsOpenUpdate(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.account(t, "dev@corp.io", domain.RoleUser)

	status, body := f.do(t, http.MethodPost, "/updates", token, map[string]any{
		"tasks_completed": "started the migration",
		"status":          "in-progress",
		"start_date":      "2026-05-01",
	})
	require.Equal(t, http.StatusCreated, status)
	id := body["data"].(map[string]any)["id"].(string)

	status, body = f.do(t, http.MethodPatch, "/updates/"+id, token, map[string]any{
		"blocker_type":        "Dependency",
		"blocker_description": "waiting on DBA",
	})
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Dependency", data["blocker_type"])
	assert.Equal(t, "waiting on DBA", data["blocker_description"])
}

func TestCreateUpdateValidation(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.account(t, "dev@corp.io", domain.RoleUser)

	status, body := f.do(t, http.MethodPost, "/updates", token, map[string]any{
		"tasks_completed": "x",
		"blocker_type":    "Risk",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = f.do(t, http.MethodPost, "/updates", token, map[string]any{
		"tasks_completed": "x",
		"start_date":      "yesterday",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestListUpdatesQuery(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.account(t, "dev@corp.io", domain.RoleUser)

	status, body := f.do(t, http.MethodGet, "/updates?created_from=not-a-time", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = f.do(t, http.MethodGet, "/updates?employee_email=other@corp.io", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = f.do(t, http.MethodGet, "/updates", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])
}

func TestTeamRoutesEnforceRoles(t *testing.T) {
	f := newAPIFixture(t)
	_, userToken := f.account(t, "dev@corp.io", domain.RoleUser)
	_, adminToken := f.account(t, "root@corp.io", domain.RoleAdmin)
	_, leadToken := f.account(t, "lead@corp.io", domain.RoleManager)

	status, body := f.do(t, http.MethodPost, "/teams", userToken, map[string]string{"team_name": "Core", "manager_email": "lead@corp.io"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = f.do(t, http.MethodPost, "/teams", adminToken, map[string]string{"team_name": "Core", "manager_email": "lead@corp.io"})
	require.Equal(t, http.StatusCreated, status)
	teamID := body["data"].(map[string]any)["id"].(string)

	status, _ = f.do(t, http.MethodPost, "/teams/"+teamID+"/members", leadToken, map[string]string{"employee_email": "dev@corp.io"})
	assert.Equal(t, http.StatusCreated, status)

	status, body = f.do(t, http.MethodPost, "/teams/"+teamID+"/members", leadToken, map[string]string{"employee_email": "dev@corp.io"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = f.do(t, http.MethodGet, "/teams", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}

func TestSetRoleIsAdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	dev, userToken := f.account(t, "dev@corp.io", domain.RoleUser)
	_, adminToken := f.account(t, "root@corp.io", domain.RoleAdmin)

	status, _ := f.do(t, http.MethodPatch, "/users/"+dev.ID+"/role", userToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := f.do(t, http.MethodPatch, "/users/"+dev.ID+"/role", adminToken, map[string]string{"role": "Manager"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "manager", body["data"].(map[string]any)["role"])

	status, body = f.do(t, http.MethodGet, "/auth/me", userToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "manager", body["data"].(map[string]any)["role"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.do(t, http.MethodGet, "/health/live", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "daily_status_http_requests_total")
	assert.Contains(t, string(raw), `route="/health/live"`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(observability.HeaderRequestID, "req-42")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(observability.HeaderRequestID))
}
