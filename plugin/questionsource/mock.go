package questionsource

import (
	"context"
	"sync"
	"time"

	"github.com/mazvydas/kasdien/store"
)

// MockService is a scriptable in-memory Service for tests.
type MockService struct {
	mu sync.Mutex

	// Questions is returned by FetchDailyQuestions and FetchCategoryQuestions.
	Questions []store.QuestionItem
	// Pool is returned by FetchVocabularyPool.
	Pool []string
	// Err, when set, is returned by every fetch.
	Err error
	// Delay is slept before every fetch, to widen concurrency windows.
	Delay time.Duration

	// DailyCalls counts FetchDailyQuestions invocations.
	DailyCalls int
}

// NewMockService creates a MockService.
func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) FetchDailyQuestions(ctx context.Context, _ string) ([]store.QuestionItem, error) {
	m.mu.Lock()
	m.DailyCalls++
	delay, err, questions := m.Delay, m.Err, m.cloneQuestions()
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (m *MockService) FetchCategoryQuestions(_ context.Context, _ string, count int, _ string) ([]store.QuestionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	questions := m.cloneQuestions()
	if count < len(questions) {
		questions = questions[:count]
	}
	return questions, nil
}

func (m *MockService) FetchVocabularyPool(_ context.Context, _ string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]string(nil), m.Pool...), nil
}

// SetErr scripts the next fetches to fail (or succeed again with nil).
func (m *MockService) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Calls returns how many daily fetches have been issued.
func (m *MockService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DailyCalls
}

func (m *MockService) cloneQuestions() []store.QuestionItem {
	questions := make([]store.QuestionItem, len(m.Questions))
	copy(questions, m.Questions)
	return questions
}

// Ensure MockService implements Service.
var _ Service = (*MockService)(nil)
