// Package questionsource provides the client interface for the remote
// question source API. The engine treats the question source as an external
// collaborator: any implementation satisfying Service can back a session.
package questionsource

import (
	"context"

	"github.com/mazvydas/kasdien/store"
)

// Service defines the question source contract.
type Service interface {
	// FetchDailyQuestions returns the question set for the user's daily
	// session. Items arrive without multiple-choice options; the engine
	// generates those at session creation.
	FetchDailyQuestions(ctx context.Context, userID string) ([]store.QuestionItem, error)

	// FetchCategoryQuestions returns a practice set for one category.
	FetchCategoryQuestions(ctx context.Context, category string, count int, difficulty string) ([]store.QuestionItem, error)

	// FetchVocabularyPool returns the user's known-word pool, used as the
	// candidate source for distractor generation.
	FetchVocabularyPool(ctx context.Context, userID string) ([]string, error)
}
