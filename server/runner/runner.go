// Package runner hosts the server's background tasks.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/mazvydas/kasdien/server/dayclock"
)

// Runner periodically re-syncs the session clock against the server time
// source, so skew compensation stays current on long-running processes.
// Stats flushing is deliberately not scheduled here: queued outcomes retry at
// the next answer submission or stats read, never on a timer.
type Runner struct {
	clock       *dayclock.Clock
	syncEnabled bool
	interval    time.Duration
}

// NewRunner creates the background runner.
func NewRunner(clock *dayclock.Clock, syncEnabled bool) *Runner {
	return &Runner{
		clock:       clock,
		syncEnabled: syncEnabled,
		interval:    time.Hour,
	}
}

// Run starts the background task and blocks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if !r.syncEnabled {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("clock sync runner stopped")
			return
		}
	}
}

// RunOnce performs one sync (for manual trigger).
func (r *Runner) RunOnce(ctx context.Context) {
	r.clock.Sync(ctx)
}
