// Package repotest provides in-memory repositories for tests.
package repotest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/internal/repository"
)

var (
	_ repository.UserRepository   = (*Users)(nil)
	_ repository.TeamRepository   = (*Teams)(nil)
	_ repository.UpdateRepository = (*Updates)(nil)
)

// Users is an in-memory UserRepository.
type Users struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	seq  int
}

// NewUsers returns an empty store.
func NewUsers() *Users {
	return &Users{byID: map[string]*domain.User{}}
}

func (m *Users) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if domain.SameEmail(existing.Email, user.Email) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = time.Now()
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func (m *Users) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *user
	m.byID[user.ID] = &copied
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if domain.SameEmail(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

// Teams is an in-memory TeamRepository. Duplicate memberships fail with a
// unique violation the way Postgres reports it.
type Teams struct {
	mu      sync.Mutex
	teams   []domain.Team
	members []domain.TeamMember
}

func (m *Teams) Create(_ context.Context, team *domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	team.ID = fmt.Sprintf("team-%d", len(m.teams)+1)
	m.teams = append(m.teams, *team)
	return nil
}

func (m *Teams) GetByID(_ context.Context, id string) (*domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, team := range m.teams {
		if team.ID == id {
			copied := team
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Teams) ListAll(context.Context) ([]domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.teams), nil
}

func (m *Teams) ListByManagerEmail(_ context.Context, email string) ([]domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Team
	for _, team := range m.teams {
		if domain.SameEmail(team.ManagerEmail, email) {
			out = append(out, team)
		}
	}
	return out, nil
}

func (m *Teams) ListByMemberEmail(_ context.Context, email string) ([]domain.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Team
	for _, member := range m.members {
		if !domain.SameEmail(member.EmployeeEmail, email) {
			continue
		}
		for _, team := range m.teams {
			if team.ID == member.TeamID {
				out = append(out, team)
			}
		}
	}
	return out, nil
}

func (m *Teams) AddMember(_ context.Context, member *domain.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.members {
		if existing.TeamID == member.TeamID && domain.SameEmail(existing.EmployeeEmail, member.EmployeeEmail) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_team_members_team_employee"}
		}
	}
	member.ID = fmt.Sprintf("member-%d", len(m.members)+1)
	m.members = append(m.members, *member)
	return nil
}

func (m *Teams) ListMembers(_ context.Context, teamID string) ([]domain.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TeamMember
	for _, member := range m.members {
		if member.TeamID == teamID {
			out = append(out, member)
		}
	}
	return out, nil
}

// Updates is an in-memory UpdateRepository. Teams, when set, fills in team
// names on reads. Created updates are stamped Now plus one minute per row.
type Updates struct {
	Teams *Teams
	Now   time.Time

	mu      sync.Mutex
	updates []domain.Update
}

func (m *Updates) Create(_ context.Context, update *domain.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	update.ID = fmt.Sprintf("update-%d", len(m.updates)+1)
	if update.CreatedAt.IsZero() {
		update.CreatedAt = m.Now.Add(time.Duration(len(m.updates)) * time.Minute)
	}
	m.updates = append(m.updates, *update)
	return nil
}

func (m *Updates) Update(_ context.Context, update *domain.Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.updates {
		if m.updates[i].ID == update.ID {
			m.updates[i] = *update
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *Updates) GetByID(_ context.Context, id string) (*domain.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, update := range m.updates {
		if update.ID == id {
			copied := update
			if copied.TeamID != nil && m.Teams != nil {
				if team, err := m.Teams.GetByID(context.Background(), *copied.TeamID); err == nil {
					copied.TeamName = team.TeamName
				}
			}
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *Updates) ListWithFilter(_ context.Context, filter repository.UpdateFilter) ([]domain.Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Update{}
	for _, update := range m.updates {
		if filter.EmployeeEmail != nil && !domain.SameEmail(update.EmployeeEmail, *filter.EmployeeEmail) {
			continue
		}
		if len(filter.TeamIDs) > 0 && !slices.Contains(filter.TeamIDs, update.TeamIDValue()) {
			continue
		}
		if filter.CreatedFrom != nil && update.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && update.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		out = append(out, update)
	}
	return out, nil
}
