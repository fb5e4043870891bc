package worker

import (
	"context"

	"github.com/spec-kit/daily-status/internal/feed"
)

// StartRefreshWorker runs the dashboard's silent refresh loop in the
// background. The returned channel closes once the loop has stopped.
func StartRefreshWorker(ctx context.Context, refresher *feed.Refresher) <-chan struct{} {
	done := make(chan struct{})
	if refresher == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		refresher.Run(ctx)
	}()
	return done
}
