package feed

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Refreshable is the slice of the controller the refresher drives.
type Refreshable interface {
	AppContext() AppContext
	HasLoaded() bool
	Refresh(ctx context.Context) error
}

// Refresher triggers silent refreshes while the view is visible, has loaded
// once, and the last refresh is at least Interval old.
type Refresher struct {
	target   Refreshable
	interval time.Duration
	poll     time.Duration
	now      func() time.Time
	logger   *zap.Logger

	running atomic.Bool
}

// NewRefresher builds a refresher; zero durations use 5m and 30s.
func NewRefresher(target Refreshable, interval, poll time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if poll <= 0 {
		poll = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{target: target, interval: interval, poll: poll, now: time.Now, logger: logger}
}

// Due reports whether a refresh should run now.
func (r *Refresher) Due() bool {
	app := r.target.AppContext()
	if !app.Visible || app.CurrentUser == nil || !r.target.HasLoaded() {
		return false
	}
	return r.now().Sub(app.LastRefresh) >= r.interval
}

// Tick evaluates the gate once and refreshes if due. It reports whether a
// refresh ran. Overlapping ticks are skipped.
func (r *Refresher) Tick(ctx context.Context) bool {
	if !r.Due() {
		return false
	}
	if !r.running.CompareAndSwap(false, true) {
		return false
	}
	defer r.running.Store(false)

	if err := r.target.Refresh(ctx); err != nil {
		r.logger.Debug("refresh tick failed", zap.Error(err))
	}
	return true
}

// Run polls until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	r.logger.Info("refresher started",
		zap.Duration("interval", r.interval),
		zap.Duration("poll", r.poll))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}
