// Package stats merges locally observed answer outcomes into streak and
// mastery counters under optimistic-update semantics, and reconciles them
// against the authoritative stats backend.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	engineerrors "github.com/mazvydas/kasdien/internal/errors"
	"github.com/mazvydas/kasdien/plugin/statsbackend"
	"github.com/mazvydas/kasdien/server/dayclock"
	"github.com/mazvydas/kasdien/store"
)

const submitTimeout = 10 * time.Second

type pendingOutcome struct {
	questionID string
	wasCorrect bool
}

// Reconciler owns the client-side copy of UserProgressStats.
//
// Every outcome is applied optimistically first and surfaced immediately; the
// backend submission runs in the background. Failed submissions are queued
// per user and retried at the next natural reconciliation point (next outcome
// or next explicit Reconcile), never via a retry loop. Queues are independent:
// one user's failing submissions never hold back another user's. Backend
// responses replace the local copy wholesale: the backend recomputes streaks
// from its own event log and may legitimately disagree with the optimistic
// guess.
type Reconciler struct {
	store   *store.Store
	backend statsbackend.Service
	clock   *dayclock.Clock

	mu      sync.Mutex
	pending map[string][]pendingOutcome // per user, in submission order

	flushMu sync.Mutex
	wg      sync.WaitGroup
}

// NewReconciler creates a reconciler.
func NewReconciler(st *store.Store, backend statsbackend.Service, clock *dayclock.Clock) *Reconciler {
	return &Reconciler{
		store:   st,
		backend: backend,
		clock:   clock,
		pending: make(map[string][]pendingOutcome),
	}
}

// RecordOutcome applies one answer outcome optimistically and returns the
// updated local stats for immediate display. The backend submission happens
// asynchronously; its failure is invisible to the caller.
func (r *Reconciler) RecordOutcome(ctx context.Context, userID, questionID string, wasCorrect bool) *store.UserProgressStats {
	day := r.clock.DayKey(userID).Date

	r.mu.Lock()
	stats := r.loadLocked(ctx, userID, day)
	if wasCorrect {
		stats.TodayCorrect++
		stats.TotalCorrect++
		stats.CurrentStreak++
	} else {
		stats.TodayIncorrect++
		stats.TotalIncorrect++
		stats.CurrentStreak = 0
	}
	stats.ClampStreaks()
	r.persistLocked(ctx, stats)

	r.pending[userID] = append(r.pending[userID], pendingOutcome{questionID: questionID, wasCorrect: wasCorrect})
	snapshot := *stats
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		flushCtx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		r.flush(flushCtx)
	}()

	return &snapshot
}

// RecordCompletion bumps the completed-sessions counter optimistically.
func (r *Reconciler) RecordCompletion(ctx context.Context, userID string) *store.UserProgressStats {
	day := r.clock.DayKey(userID).Date

	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.loadLocked(ctx, userID, day)
	stats.TotalCompleted++
	r.persistLocked(ctx, stats)
	snapshot := *stats
	return &snapshot
}

// Stats returns the current local copy without touching the backend.
func (r *Reconciler) Stats(ctx context.Context, userID string) *store.UserProgressStats {
	day := r.clock.DayKey(userID).Date

	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := *r.loadLocked(ctx, userID, day)
	return &snapshot
}

// Reconcile flushes any queued outcomes and adopts the backend's
// authoritative stats. On backend failure the optimistic copy is returned
// alongside a retryable FetchFailure, letting the caller keep showing it.
func (r *Reconciler) Reconcile(ctx context.Context, userID string) (*store.UserProgressStats, error) {
	r.flush(ctx)

	authoritative, err := r.backend.GetStats(ctx, userID)
	if err != nil {
		slog.Warn("stats reconciliation failed, keeping optimistic copy",
			slog.String("user_id", userID), slog.String("error", err.Error()))
		return r.Stats(ctx, userID), engineerrors.FetchFailure("stats backend unreachable", err)
	}

	return r.adopt(ctx, userID, authoritative), nil
}

// Drain waits for in-flight background submissions to settle.
func (r *Reconciler) Drain() {
	r.wg.Wait()
}

// flush walks every user's queue. A failure only stops that user's queue;
// the rest keep flushing.
func (r *Reconciler) flush(ctx context.Context) {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	users := make([]string, 0, len(r.pending))
	for userID := range r.pending {
		users = append(users, userID)
	}
	r.mu.Unlock()

	for _, userID := range users {
		r.flushUser(ctx, userID)
	}
}

// flushUser submits one user's queued outcomes in order, stopping at the
// first failure and leaving the remainder queued for the next natural flush
// point.
func (r *Reconciler) flushUser(ctx context.Context, userID string) {
	for {
		r.mu.Lock()
		queue := r.pending[userID]
		if len(queue) == 0 {
			delete(r.pending, userID)
			r.mu.Unlock()
			return
		}
		outcome := queue[0]
		r.mu.Unlock()

		authoritative, err := r.backend.SubmitAnswerOutcome(ctx, userID, outcome.questionID, outcome.wasCorrect)
		if err != nil {
			// Best-effort background sync: keep the optimistic value and
			// leave the queue intact for the next flush.
			slog.Debug("outcome submission failed, will retry later",
				slog.String("user_id", userID),
				slog.String("question_id", outcome.questionID),
				slog.String("error", err.Error()))
			return
		}

		r.mu.Lock()
		r.pending[userID] = r.pending[userID][1:]
		r.mu.Unlock()

		r.adopt(ctx, userID, authoritative)
	}
}

// adopt replaces the local copy with an authoritative backend response.
func (r *Reconciler) adopt(ctx context.Context, userID string, authoritative *store.UserProgressStats) *store.UserProgressStats {
	day := r.clock.DayKey(userID).Date

	adopted := *authoritative
	adopted.UserID = userID
	if adopted.Day == "" {
		adopted.Day = day
	}
	adopted.ClampStreaks()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.persistLocked(ctx, &adopted)
	snapshot := adopted
	return &snapshot
}

// loadLocked returns the persisted local copy rolled over to the given day,
// or a fresh zeroed copy. Must be called with mu held.
func (r *Reconciler) loadLocked(ctx context.Context, userID, day string) *store.UserProgressStats {
	stats, err := r.store.GetProgressStats(ctx, userID)
	if err != nil || stats == nil {
		stats = &store.UserProgressStats{UserID: userID, Day: day}
	}
	stats.RollOver(day)
	return stats
}

// persistLocked writes the local copy, logging instead of failing: the
// in-memory copy remains correct and the next write retries persistence.
// Must be called with mu held.
func (r *Reconciler) persistLocked(ctx context.Context, stats *store.UserProgressStats) {
	if err := r.store.UpsertProgressStats(ctx, stats); err != nil {
		slog.Warn("failed to persist progress stats",
			slog.String("user_id", stats.UserID), slog.String("error", err.Error()))
	}
}
