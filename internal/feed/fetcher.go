package feed

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/domain"
	"github.com/spec-kit/daily-status/pkg/retry"
)

// Mode selects the retry budget of a fetch.
type Mode int

const (
	// ModeInteractive is a user-initiated load.
	ModeInteractive Mode = iota
	// ModeBackground is a silent refresh.
	ModeBackground
)

func (m Mode) String() string {
	if m == ModeBackground {
		return "background"
	}
	return "interactive"
}

// FetcherConfig tunes retries and the wait bound.
type FetcherConfig struct {
	InteractiveAttempts int
	BackgroundAttempts  int
	BaseDelay           time.Duration
	Timeout             time.Duration
	Location            *time.Location
}

// DefaultFetcherConfig returns the stock budgets: 3 interactive attempts,
// 2 background attempts, 1s linear backoff, 15s wait bound.
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		InteractiveAttempts: 3,
		BackgroundAttempts:  2,
		BaseDelay:           time.Second,
		Timeout:             15 * time.Second,
		Location:            time.Local,
	}
}

// FetchRequest describes one fetch.
type FetchRequest struct {
	User   domain.User
	Range  DateRange
	TeamID string
	Mode   Mode
}

// LateResult receives the outcome of a fetch that outlived its wait bound.
type LateResult func(updates []domain.Update, err error)

// Fetcher queries the update store scoped by role and retries transient failures.
type Fetcher struct {
	store  UpdateStore
	teams  TeamSource
	cfg    FetcherConfig
	logger *zap.Logger
}

// NewFetcher constructs a fetcher. Zero config fields fall back to defaults.
func NewFetcher(store UpdateStore, teams TeamSource, cfg FetcherConfig, logger *zap.Logger) *Fetcher {
	def := DefaultFetcherConfig()
	if cfg.InteractiveAttempts <= 0 {
		cfg.InteractiveAttempts = def.InteractiveAttempts
	}
	if cfg.BackgroundAttempts <= 0 {
		cfg.BackgroundAttempts = def.BackgroundAttempts
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{store: store, teams: teams, cfg: cfg, logger: logger}
}

// Attempts returns the retry budget for mode.
func (f *Fetcher) Attempts(mode Mode) int {
	if mode == ModeBackground {
		return f.cfg.BackgroundAttempts
	}
	return f.cfg.InteractiveAttempts
}

// Location is the zone used for calendar-date bounds.
func (f *Fetcher) Location() *time.Location {
	return f.cfg.Location
}

type fetchOutcome struct {
	updates []domain.Update
	err     error
}

// Fetch runs the scoped query with retries. If the wait bound passes first it
// returns a timeout Failure without cancelling the attempt; the attempt's
// eventual outcome is passed to late when late is non-nil. Exhausted retries
// return a query Failure.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest, late LateResult) ([]domain.Update, error) {
	done := make(chan fetchOutcome, 1)
	go func() {
		updates, err := f.fetchWithRetry(ctx, req)
		done <- fetchOutcome{updates: updates, err: err}
	}()

	timer := time.NewTimer(f.cfg.Timeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.updates, out.err
	case <-timer.C:
		f.logger.Warn("fetch exceeded wait bound",
			zap.String("user", req.User.Email),
			zap.String("mode", req.Mode.String()),
			zap.Duration("timeout", f.cfg.Timeout))
		if late != nil {
			go func() {
				out := <-done
				late(out.updates, out.err)
			}()
		}
		return nil, &Failure{Kind: FailureTimeout, Err: context.DeadlineExceeded}
	}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, req FetchRequest) ([]domain.Update, error) {
	var result []domain.Update
	err := retry.Do(ctx, func(ctx context.Context) error {
		updates, err := f.fetchOnce(ctx, req)
		if err != nil {
			return err
		}
		result = updates
		return nil
	},
		retry.WithMaxAttempts(f.Attempts(req.Mode)),
		retry.WithBackoff(retry.Linear(f.cfg.BaseDelay)),
		retry.WithRetryIf(transient),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			f.logger.Warn("fetch attempt failed",
				zap.Int("attempt", attempt),
				zap.String("mode", req.Mode.String()),
				zap.Duration("backoff", wait),
				zap.Error(err))
		}),
	)
	if err != nil {
		var failure *Failure
		if errors.As(err, &failure) {
			return nil, failure
		}
		return nil, &Failure{Kind: FailureQuery, Err: err}
	}
	return result, nil
}

// permanentError is implemented by store errors that another attempt cannot
// fix, such as a rejected session or a forbidden query.
type permanentError interface {
	Permanent() bool
}

func transient(err error) bool {
	var p permanentError
	if errors.As(err, &p) && p.Permanent() {
		return false
	}
	return retry.IsRetryableError(err)
}

func (f *Fetcher) fetchOnce(ctx context.Context, req FetchRequest) ([]domain.Update, error) {
	query, empty, err := f.buildQuery(ctx, req)
	if err != nil {
		return nil, err
	}
	if empty {
		return []domain.Update{}, nil
	}
	updates, err := f.store.ListUpdates(ctx, query)
	if err != nil {
		return nil, err
	}
	return normalize(updates), nil
}

// buildQuery scopes the query by role. empty reports that the scope admits no
// rows, in which case the store is not queried.
func (f *Fetcher) buildQuery(ctx context.Context, req FetchRequest) (UpdateQuery, bool, error) {
	from, to := req.Range.Bounds(f.cfg.Location)
	query := UpdateQuery{CreatedFrom: from, CreatedTo: to}
	if req.TeamID != "" {
		query.TeamIDs = []string{req.TeamID}
	}

	switch req.User.Role {
	case domain.RoleAdmin:
		return query, false, nil
	case domain.RoleManager:
		if f.teams == nil {
			return query, true, nil
		}
		teams, err := f.teams.ManagedTeams(ctx, req.User.Email)
		if err != nil {
			return query, false, err
		}
		managed := make([]string, 0, len(teams))
		for _, team := range teams {
			if req.TeamID == "" || team.ID == req.TeamID {
				managed = append(managed, team.ID)
			}
		}
		if len(managed) == 0 {
			return query, true, nil
		}
		query.TeamIDs = managed
		return query, false, nil
	default:
		query.EmployeeEmail = domain.NormalizeEmail(req.User.Email)
		return query, false, nil
	}
}

func normalize(updates []domain.Update) []domain.Update {
	out := make([]domain.Update, len(updates))
	copy(out, updates)
	for i := range out {
		out[i].Normalize()
	}
	slices.SortStableFunc(out, func(a, b domain.Update) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
