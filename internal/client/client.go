// Package client talks to the daily status API on behalf of the dashboard.
// It implements the feed package's session, update store and team source.
package client

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/spec-kit/daily-status/internal/api/dto"
	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/feed"
)

// ErrNotSignedIn is returned when no token is stored.
var ErrNotSignedIn error = &sessionError{msg: "not signed in"}

type sessionError struct {
	msg string
}

func (e *sessionError) Error() string { return e.msg }

// Permanent reports that signing in again is the only remedy.
func (e *sessionError) Permanent() bool { return true }

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Unauthorized reports whether the server rejected the token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Permanent reports whether repeating the request cannot succeed. Server
// errors, timeouts and rate limits are worth another attempt.
func (e *APIError) Permanent() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.Status < http.StatusInternalServerError
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// Client is a resty-backed API client. The resolved user is memoized until
// RefreshUser or SignOut.
type Client struct {
	http   *resty.Client
	tokens TokenStore

	mu   sync.Mutex
	user *domain.User
}

var (
	_ feed.SessionProvider = (*Client)(nil)
	_ feed.UpdateStore     = (*Client)(nil)
	_ feed.TeamSource      = (*Client)(nil)
)

// New builds a client for baseURL. A zero timeout leaves requests bounded
// only by their context.
func New(baseURL string, tokens TokenStore, timeout time.Duration) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		httpClient.SetTimeout(timeout)
	}
	return &Client{http: httpClient, tokens: tokens}
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	result, err := call[dto.AuthResult](ctx, c, c.http.R().
		SetBody(dto.UserLoginRequest{Email: email, Password: password}), http.MethodPost, "/auth/login")
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Save(result.Auth.Token); err != nil {
		return nil, err
	}
	user := result.User.ToDomain()
	c.setUser(&user)
	return &user, nil
}

// CurrentUser returns the memoized user, resolving it on first use.
func (c *Client) CurrentUser(ctx context.Context) (*domain.User, error) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	if user != nil {
		copied := *user
		return &copied, nil
	}
	return c.RefreshUser(ctx)
}

// RefreshUser reloads the signed-in account from the API.
func (c *Client) RefreshUser(ctx context.Context) (*domain.User, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := call[dto.UserResponse](ctx, c, req, http.MethodGet, "/auth/me")
	if err != nil {
		return nil, err
	}
	user := resp.ToDomain()
	c.setUser(&user)
	return &user, nil
}

// SignOut forgets the stored token and memoized user.
func (c *Client) SignOut(context.Context) error {
	c.setUser(nil)
	return c.tokens.Clear()
}

// ListUpdates queries GET /updates. The API accepts one team id; a larger
// team set is applied to the response instead.
func (c *Client) ListUpdates(ctx context.Context, query feed.UpdateQuery) ([]domain.Update, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	params := map[string]string{}
	if query.EmployeeEmail != "" {
		params["employee_email"] = query.EmployeeEmail
	}
	if len(query.TeamIDs) == 1 {
		params["team_id"] = query.TeamIDs[0]
	}
	if !query.CreatedFrom.IsZero() {
		params["created_from"] = query.CreatedFrom.UTC().Format(time.RFC3339Nano)
	}
	if !query.CreatedTo.IsZero() {
		params["created_to"] = query.CreatedTo.UTC().Format(time.RFC3339Nano)
	}

	items, err := call[[]dto.UpdateResponse](ctx, c, req.SetQueryParams(params), http.MethodGet, "/updates")
	if err != nil {
		return nil, err
	}
	updates := make([]domain.Update, 0, len(items))
	for _, item := range items {
		update := item.ToDomain()
		if len(query.TeamIDs) > 1 && !slices.Contains(query.TeamIDs, update.TeamIDValue()) {
			continue
		}
		updates = append(updates, update)
	}
	return updates, nil
}

// ManagedTeams returns the teams managed by managerEmail.
func (c *Client) ManagedTeams(ctx context.Context, managerEmail string) ([]domain.Team, error) {
	teams, err := c.AllTeams(ctx)
	if err != nil {
		return nil, err
	}
	managed := teams[:0]
	for _, team := range teams {
		if domain.SameEmail(team.ManagerEmail, managerEmail) {
			managed = append(managed, team)
		}
	}
	return managed, nil
}

// AllTeams returns every team visible to the signed-in user.
func (c *Client) AllTeams(ctx context.Context) ([]domain.Team, error) {
	req, err := c.authed(ctx)
	if err != nil {
		return nil, err
	}
	items, err := call[[]dto.TeamResponse](ctx, c, req, http.MethodGet, "/teams")
	if err != nil {
		return nil, err
	}
	teams := make([]domain.Team, 0, len(items))
	for _, item := range items {
		teams = append(teams, item.ToDomain())
	}
	return teams, nil
}

func (c *Client) authed(ctx context.Context) (*resty.Request, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotSignedIn
	}
	return c.http.R().SetContext(ctx).SetAuthToken(token), nil
}

func (c *Client) setUser(user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
}

// call executes req and decodes the data envelope. A 401 drops the memoized
// user so the next CurrentUser re-resolves the session.
func call[T any](ctx context.Context, c *Client, req *resty.Request, method, path string) (T, error) {
	var (
		out     dataEnvelope[T]
		failure errorEnvelope
	)
	resp, err := req.SetContext(ctx).
		SetResult(&out).
		SetError(&failure).
		Execute(method, path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{
			Status:  resp.StatusCode(),
			Code:    failure.Error.Code,
			Message: failure.Error.Message,
		}
		if apiErr.Unauthorized() {
			c.setUser(nil)
		}
		var zero T
		return zero, apiErr
	}
	return out.Data, nil
}
