// Package feed implements the update feed controller shared by the employee
// and manager dashboards: session gate, update fetcher, filter engine, stats,
// recovery cache and silent refresh.
package feed

import (
	"context"
	"time"

	"github.com/spec-kit/daily-status/internal/domain"
)

// SessionProvider resolves the signed-in user.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
	RefreshUser(ctx context.Context) (*domain.User, error)
	SignOut(ctx context.Context) error
}

// UpdateQuery is the filter sent to the update store. Empty fields do not filter.
type UpdateQuery struct {
	EmployeeEmail string
	TeamIDs       []string
	CreatedFrom   time.Time
	CreatedTo     time.Time
}

// UpdateStore lists updates with the owning team's display name joined.
type UpdateStore interface {
	ListUpdates(ctx context.Context, query UpdateQuery) ([]domain.Update, error)
}

// TeamSource resolves teams visible to a manager or an admin.
type TeamSource interface {
	ManagedTeams(ctx context.Context, managerEmail string) ([]domain.Team, error)
	AllTeams(ctx context.Context) ([]domain.Team, error)
}

// Notifier is a fire-and-forget toast surface.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
