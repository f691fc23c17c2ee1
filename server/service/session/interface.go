// Package session implements the daily learning session state machine: one
// resumable, day-scoped question session per user, completed at most once per
// UTC day.
package session

import (
	"context"

	"github.com/mazvydas/kasdien/store"
)

// SubmitResult is the outcome of one answer submission.
type SubmitResult struct {
	Correct       bool                     `json:"correct"`
	CorrectAnswer string                   `json:"correctAnswer"`
	Completed     bool                     `json:"completed"`
	Record        *store.SessionRecord     `json:"record"`
	Stats         *store.UserProgressStats `json:"stats"`
}

// Service defines the session engine contract consumed by the API adapter.
type Service interface {
	// Current returns today's session for the user, creating and persisting
	// it on first access. Resuming restores progress without re-fetching.
	Current(ctx context.Context, userID string) (*store.SessionRecord, error)

	// SubmitAnswer grades the answer to the current question, advances the
	// session and forwards the outcome to the stats reconciler. Submissions
	// against a completed session are rejected with AlreadyCompleted.
	SubmitAnswer(ctx context.Context, userID, answer string) (*SubmitResult, error)

	// Reset discards today's record so the next Current starts fresh.
	// Developer affordance: rejected outside dev mode.
	Reset(ctx context.Context, userID string) error

	// Practice returns a stateless category question set with freshly
	// generated options. Not day-scoped, never persisted.
	Practice(ctx context.Context, userID, category string, count int, difficulty string) ([]store.QuestionItem, error)
}
