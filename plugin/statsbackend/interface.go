// Package statsbackend provides the client interface for the authoritative
// stats backend. The backend recomputes streaks server-side from its own
// event log; the client copy is only an optimistic guess until reconciled.
package statsbackend

import (
	"context"

	"github.com/mazvydas/kasdien/store"
)

// Service defines the stats backend contract.
type Service interface {
	// SubmitAnswerOutcome reports one answer outcome and returns the
	// backend's recomputed authoritative stats.
	SubmitAnswerOutcome(ctx context.Context, userID, questionID string, wasCorrect bool) (*store.UserProgressStats, error)

	// GetStats returns the authoritative stats for the user.
	GetStats(ctx context.Context, userID string) (*store.UserProgressStats, error)
}
