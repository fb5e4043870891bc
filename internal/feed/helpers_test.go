package feed

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func update(id, email string, status domain.UpdateStatus, createdAt time.Time) domain.Update {
	return domain.Update{
		ID:             id,
		EmployeeEmail:  email,
		EmployeeName:   email,
		CreatedAt:      createdAt,
		TasksCompleted: "work on " + id,
		Priority:       domain.PriorityMedium,
		Status:         status,
	}
}

func withBlocker(u domain.Update, kind domain.BlockerType) domain.Update {
	u.BlockerType = &kind
	u.BlockerDescription = ptr("waiting on " + string(kind))
	return u
}

func withTeam(u domain.Update, teamID string) domain.Update {
	u.TeamID = &teamID
	u.TeamName = "team " + teamID
	return u
}

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memKV) Keys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

type storeFunc func(ctx context.Context, q UpdateQuery) ([]domain.Update, error)

func (f storeFunc) ListUpdates(ctx context.Context, q UpdateQuery) ([]domain.Update, error) {
	return f(ctx, q)
}

type stubTeams struct {
	managed map[string][]domain.Team
	err     error
}

func (s stubTeams) ManagedTeams(_ context.Context, email string) ([]domain.Team, error) {
	return s.managed[domain.NormalizeEmail(email)], s.err
}

func (s stubTeams) AllTeams(context.Context) ([]domain.Team, error) {
	var all []domain.Team
	for _, teams := range s.managed {
		all = append(all, teams...)
	}
	return all, s.err
}

type stubSession struct {
	mu      sync.Mutex
	user    *domain.User
	err     error
	signOut int
}

func (s *stubSession) CurrentUser(context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.err
}

func (s *stubSession) RefreshUser(ctx context.Context) (*domain.User, error) {
	return s.CurrentUser(ctx)
}

func (s *stubSession) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signOut++
	s.user = nil
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	errors    []string
	successes []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}
