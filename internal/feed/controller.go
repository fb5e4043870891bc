package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/daily-status/internal/domain"
)

// AppContext is the explicit view state the controller works against.
type AppContext struct {
	CurrentUser *domain.User
	Visible     bool
	LastRefresh time.Time
}

// Selection is the user-chosen filter of a view.
type Selection struct {
	Range  DateRange
	TeamID string
	Tab    Tab
}

// ViewState is what a view renders.
type ViewState struct {
	User       *domain.User
	Selection  Selection
	Rows       []Row
	Stats      Stats
	Loading    bool
	Failure    *Failure
	FromCache  bool
	LoadedOnce bool
	Fetched    int
}

// ControllerDeps wires the controller's collaborators.
type ControllerDeps struct {
	Session  SessionProvider
	Fetcher  *Fetcher
	Recovery *RecoveryCache
	Notifier Notifier
	Logger   *zap.Logger
	Now      func() time.Time
}

// Controller owns the fetched update set of one dashboard view. The set is
// replaced only by a successful fetch carrying the latest sequence token or
// by a recovery fallback; Filter and Aggregate only read it.
type Controller struct {
	session  SessionProvider
	fetcher  *Fetcher
	recovery *RecoveryCache
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	seq atomic.Uint64

	mu         sync.Mutex
	app        AppContext
	selection  Selection
	updates    []domain.Update
	inflight   int
	failure    *Failure
	fromCache  bool
	loadedOnce bool
}

// NewController builds a controller. The view starts visible with the
// selection covering the last seven days.
func NewController(deps ControllerDeps, selection Selection) *Controller {
	c := &Controller{
		session:   deps.Session,
		fetcher:   deps.Fetcher,
		recovery:  deps.Recovery,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		now:       deps.Now,
		selection: selection,
		app:       AppContext{Visible: true},
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.selection.Tab == "" {
		c.selection.Tab = TabAll
	}
	if c.selection.Range.Start.IsZero() && c.selection.Range.End.IsZero() {
		c.selection.Range = LastNDays(c.now(), 7, c.fetcher.Location())
	}
	return c
}

// Load resolves the session and fetches with the interactive retry budget.
// On failure the previously displayed set is kept and the error is surfaced
// once through the notifier. The loading flag is released on every path.
func (c *Controller) Load(ctx context.Context) error {
	token := c.seq.Add(1)
	c.beginLoading()
	defer c.endLoading()

	user, err := c.session.CurrentUser(ctx)
	if err != nil || user == nil {
		if err == nil {
			err = errors.New("no active session")
		}
		c.logger.Warn("session gate failed", zap.Error(err))
		return c.fallback(ctx, token, "", FailureRecovery, err)
	}
	c.setUser(user)

	req := c.request(*user, ModeInteractive)
	updates, err := c.fetcher.Fetch(ctx, req, c.lateResult(token, *user))
	if err != nil {
		c.logger.Warn("interactive fetch failed", zap.String("user", user.Email), zap.Error(err))
		if IsFailureKind(err, FailureTimeout) && !c.hasLoaded() {
			return c.fallback(ctx, token, user.Email, FailureTimeout, err)
		}
		return c.fail(token, asFailure(err))
	}

	c.apply(ctx, token, *user, updates)
	return nil
}

// Refresh re-fetches silently with the background budget. It never touches
// the loading flag and keeps the displayed set on failure. It is skipped
// while an interactive load is in flight, so it never supersedes one.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight > 0 {
		c.mu.Unlock()
		c.logger.Debug("refresh skipped, load in flight")
		return nil
	}
	user := c.app.CurrentUser
	c.app.LastRefresh = c.now()
	c.mu.Unlock()
	if user == nil {
		return errors.New("refresh before first load")
	}

	token := c.seq.Add(1)
	updates, err := c.fetcher.Fetch(ctx, c.request(*user, ModeBackground), c.lateResult(token, *user))
	if err != nil {
		c.logger.Warn("silent refresh failed", zap.String("user", user.Email), zap.Error(err))
		return err
	}
	c.apply(ctx, token, *user, updates)
	return nil
}

// Retry re-runs Load.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Load(ctx)
}

// ClearCache discards in-memory state and loads again.
func (c *Controller) ClearCache(ctx context.Context) error {
	c.mu.Lock()
	c.updates = nil
	c.failure = nil
	c.fromCache = false
	c.loadedOnce = false
	c.mu.Unlock()
	return c.Load(ctx)
}

// SignOut ends the session and drops the in-memory state.
func (c *Controller) SignOut(ctx context.Context) error {
	c.seq.Add(1)
	c.mu.Lock()
	c.updates = nil
	c.failure = nil
	c.fromCache = false
	c.loadedOnce = false
	c.app.CurrentUser = nil
	c.mu.Unlock()
	return c.session.SignOut(ctx)
}

// SetVisible records a visibility change of the view.
func (c *Controller) SetVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app.Visible = visible
}

// SetSelection replaces the filter. Callers Load again when the date range or
// team changed, since those narrow the fetch as well.
func (c *Controller) SetSelection(selection Selection) {
	if selection.Tab == "" {
		selection.Tab = TabAll
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = selection
}

// AppContext returns a copy of the app context.
func (c *Controller) AppContext() AppContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	app := c.app
	if app.CurrentUser != nil {
		u := *app.CurrentUser
		app.CurrentUser = &u
	}
	return app
}

// HasLoaded reports whether data has been displayed at least once.
func (c *Controller) HasLoaded() bool {
	return c.hasLoaded()
}

// View filters the current set and aggregates stats over the filtered rows.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	updates := c.updates
	selection := c.selection
	state := ViewState{
		Selection:  selection,
		Loading:    c.inflight > 0,
		Failure:    c.failure,
		FromCache:  c.fromCache,
		LoadedOnce: c.loadedOnce,
		Fetched:    len(updates),
	}
	if c.app.CurrentUser != nil {
		u := *c.app.CurrentUser
		state.User = &u
	}
	c.mu.Unlock()

	if updates == nil {
		updates = []domain.Update{}
	}
	filtered := Filter(updates, Criteria{
		Range:    selection.Range,
		TeamID:   selection.TeamID,
		Tab:      selection.Tab,
		Now:      c.now(),
		Location: c.fetcher.Location(),
	})
	state.Rows = ListRows(state.User, filtered)
	state.Stats = Aggregate(filtered)
	return state
}

// Detail returns the expanded view of the update with id, if loaded.
func (c *Controller) Detail(id string) (Detail, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.updates {
		if c.updates[i].ID == id {
			return DetailOf(c.app.CurrentUser, c.updates[i]), true
		}
	}
	return Detail{}, false
}

func (c *Controller) request(user domain.User, mode Mode) FetchRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return FetchRequest{
		User:   user,
		Range:  c.selection.Range,
		TeamID: c.selection.TeamID,
		Mode:   mode,
	}
}

// apply installs a successful fetch if token is still the latest issued.
func (c *Controller) apply(ctx context.Context, token uint64, user domain.User, updates []domain.Update) bool {
	c.mu.Lock()
	if token != c.seq.Load() {
		c.mu.Unlock()
		c.logger.Debug("discarding stale fetch", zap.Uint64("token", token))
		return false
	}
	c.updates = updates
	c.failure = nil
	c.fromCache = false
	c.loadedOnce = true
	c.app.LastRefresh = c.now()
	c.mu.Unlock()

	if c.recovery != nil {
		if err := c.recovery.Save(ctx, user, updates); err != nil {
			c.logger.Warn("recovery snapshot not saved", zap.Error(err))
		}
	}
	return true
}

func (c *Controller) lateResult(token uint64, user domain.User) LateResult {
	return func(updates []domain.Update, err error) {
		if err != nil {
			c.logger.Warn("late fetch failed", zap.Uint64("token", token), zap.Error(err))
			return
		}
		if c.apply(context.Background(), token, user, updates) {
			c.logger.Info("late fetch applied", zap.Uint64("token", token), zap.Int("updates", len(updates)))
		}
	}
}

// fallback serves the recovery snapshot after the session gate failed or the
// first fetch timed out. email narrows recovery to a known user. Without a
// usable snapshot the load fails with kind, carrying both errors.
func (c *Controller) fallback(ctx context.Context, token uint64, email string, kind FailureKind, cause error) error {
	if c.recovery == nil {
		return c.fail(token, &Failure{Kind: kind, Err: errors.Join(cause, ErrNoSnapshot)})
	}

	var (
		snapshot *Snapshot
		err      error
	)
	if email != "" {
		snapshot, err = c.recovery.RecoverUser(ctx, email)
	} else {
		snapshot, err = c.recovery.Recover(ctx)
	}
	if err != nil {
		c.logger.Warn("recovery failed", zap.Error(err))
		return c.fail(token, &Failure{Kind: kind, Err: errors.Join(cause, err)})
	}

	c.mu.Lock()
	if token != c.seq.Load() {
		c.mu.Unlock()
		return nil
	}
	user := snapshot.User
	c.updates = snapshot.Updates
	c.failure = nil
	c.fromCache = true
	c.loadedOnce = true
	if c.app.CurrentUser == nil {
		c.app.CurrentUser = &user
	}
	c.mu.Unlock()

	c.logger.Info("serving cached updates",
		zap.String("user", snapshot.User.Email),
		zap.Time("saved_at", snapshot.SavedAt),
		zap.Int("updates", len(snapshot.Updates)))
	c.notifier.Error("Showing cached updates from " + snapshot.SavedAt.Local().Format(time.DateTime))
	return nil
}

func (c *Controller) fail(token uint64, failure *Failure) error {
	c.mu.Lock()
	if token == c.seq.Load() {
		c.failure = failure
	}
	c.mu.Unlock()
	c.notifier.Error(failure.Message())
	return failure
}

func (c *Controller) setUser(user *domain.User) {
	u := *user
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app.CurrentUser = &u
}

func (c *Controller) hasLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedOnce
}

func (c *Controller) beginLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight++
}

func (c *Controller) endLoading() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		c.inflight--
	}
}

func asFailure(err error) *Failure {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure
	}
	return &Failure{Kind: FailureQuery, Err: err}
}
