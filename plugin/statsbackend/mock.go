package statsbackend

import (
	"context"
	"sync"

	"github.com/mazvydas/kasdien/store"
)

// MockService is a scriptable in-memory Service for tests.
type MockService struct {
	mu sync.Mutex

	// Stats is returned by GetStats and SubmitAnswerOutcome when Response is nil.
	Stats map[string]*store.UserProgressStats
	// Response, when set, is returned by the next submissions verbatim.
	Response *store.UserProgressStats
	// Err, when set, is returned by every call.
	Err error
	// ErrByUser, when set for a user, is returned by that user's calls only.
	ErrByUser map[string]error

	// Submitted records every outcome received, in order.
	Submitted []SubmittedOutcome
}

// SubmittedOutcome is one recorded SubmitAnswerOutcome call.
type SubmittedOutcome struct {
	UserID     string
	QuestionID string
	WasCorrect bool
}

// NewMockService creates a MockService.
func NewMockService() *MockService {
	return &MockService{Stats: make(map[string]*store.UserProgressStats)}
}

func (m *MockService) SubmitAnswerOutcome(_ context.Context, userID, questionID string, wasCorrect bool) (*store.UserProgressStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.ErrByUser[userID]; err != nil {
		return nil, err
	}

	m.Submitted = append(m.Submitted, SubmittedOutcome{UserID: userID, QuestionID: questionID, WasCorrect: wasCorrect})

	if m.Response != nil {
		cp := *m.Response
		cp.UserID = userID
		return &cp, nil
	}

	stats, ok := m.Stats[userID]
	if !ok {
		stats = &store.UserProgressStats{UserID: userID}
		m.Stats[userID] = stats
	}
	// A deliberately naive server-side recount: totals only.
	if wasCorrect {
		stats.TotalCorrect++
		stats.TodayCorrect++
		stats.CurrentStreak++
	} else {
		stats.TotalIncorrect++
		stats.TodayIncorrect++
		stats.CurrentStreak = 0
	}
	stats.ClampStreaks()
	cp := *stats
	return &cp, nil
}

func (m *MockService) GetStats(_ context.Context, userID string) (*store.UserProgressStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := m.ErrByUser[userID]; err != nil {
		return nil, err
	}
	if m.Response != nil {
		cp := *m.Response
		cp.UserID = userID
		return &cp, nil
	}
	if stats, ok := m.Stats[userID]; ok {
		cp := *stats
		return &cp, nil
	}
	return &store.UserProgressStats{UserID: userID}, nil
}

// SetErr scripts the backend to fail (or succeed again with nil).
func (m *MockService) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// SetUserErr scripts one user's calls to fail (or succeed again with nil).
func (m *MockService) SetUserErr(userID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ErrByUser == nil {
		m.ErrByUser = make(map[string]error)
	}
	m.ErrByUser[userID] = err
}

// SubmittedCount returns how many outcomes the backend has accepted.
func (m *MockService) SubmittedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

// Ensure MockService implements Service.
var _ Service = (*MockService)(nil)
