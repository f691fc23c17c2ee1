package session

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/sync/singleflight"

	engineerrors "github.com/mazvydas/kasdien/internal/errors"
	"github.com/mazvydas/kasdien/internal/observability"
	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/plugin/distractor"
	"github.com/mazvydas/kasdien/plugin/questionsource"
	"github.com/mazvydas/kasdien/server/dayclock"
	"github.com/mazvydas/kasdien/server/service/stats"
	"github.com/mazvydas/kasdien/store"
)

// Engine is the per-day session state machine.
//
// State lives in the store under the learning day key; the engine itself
// holds no session state, so a cold start resumes wherever the persisted
// record left off. The singleflight group is the duplicate-fetch guard:
// while a question-set fetch for a key is outstanding, concurrent callers
// await the same outcome instead of issuing a second fetch.
type Engine struct {
	profile    *profile.Profile
	store      *store.Store
	source     questionsource.Service
	clock      *dayclock.Clock
	reconciler *stats.Reconciler
	selector   *distractor.Selector
	logger     *slog.Logger

	// mu serializes answer submissions so they are graded and persisted in
	// the order the user submitted them.
	mu         sync.Mutex
	fetchGroup singleflight.Group
	rand       *rand.Rand
	randMu     sync.Mutex
}

// NewEngine creates a session engine.
func NewEngine(p *profile.Profile, st *store.Store, source questionsource.Service, clock *dayclock.Clock, reconciler *stats.Reconciler, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		profile:    p,
		store:      st,
		source:     source,
		clock:      clock,
		reconciler: reconciler,
		selector:   distractor.NewSelector(p.DistractorWildcards),
		logger:     logger,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Current returns today's session record, creating it on first access.
func (e *Engine) Current(ctx context.Context, userID string) (*store.SessionRecord, error) {
	if userID == "" {
		return nil, engineerrors.InvalidArgument("user id is required")
	}

	key := e.clock.DayKey(userID)
	if record, err := e.store.GetSessionRecord(ctx, key); err == nil && record != nil {
		return record, nil
	}

	value, err, _ := e.fetchGroup.Do(key.String(), func() (any, error) {
		return e.createSession(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return value.(*store.SessionRecord), nil
}

// SubmitAnswer grades the answer to the current question and advances the
// session. Submissions are processed strictly in arrival order.
func (e *Engine) SubmitAnswer(ctx context.Context, userID, answer string) (*SubmitResult, error) {
	if userID == "" {
		return nil, engineerrors.InvalidArgument("user id is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := e.clock.DayKey(userID)
	opCtx := observability.NewSessionContext(e.logger, userID, key.String())

	record, err := e.store.GetSessionRecord(ctx, key)
	if err != nil || record == nil {
		return nil, engineerrors.SessionNotStarted("no session for today, fetch it first")
	}
	if record.Status == store.SessionStatusCompleted {
		return nil, engineerrors.AlreadyCompleted("today's session is already completed")
	}

	question := record.CurrentQuestion()
	if question == nil {
		// A record in progress with no question left should not exist;
		// close it out rather than crash.
		record.Status = store.SessionStatusCompleted
		e.persist(ctx, opCtx, record)
		return nil, engineerrors.AlreadyCompleted("today's session is already completed")
	}

	correct := answersMatch(answer, question.Answer)
	if correct {
		record.Score++
	}
	record.CurrentIndex++
	completed := record.CurrentIndex == len(record.Questions)
	if completed {
		record.Status = store.SessionStatusCompleted
	}
	e.persist(ctx, opCtx, record)

	statsCopy := e.reconciler.RecordOutcome(ctx, userID, question.ID, correct)
	if completed {
		statsCopy = e.reconciler.RecordCompletion(ctx, userID)
		opCtx.Info("session completed",
			slog.Int("score", record.Score),
			slog.Int("questions", len(record.Questions)))
	}

	return &SubmitResult{
		Correct:       correct,
		CorrectAnswer: question.Answer,
		Completed:     completed,
		Record:        record,
		Stats:         statsCopy,
	}, nil
}

// Reset discards today's record. Developer affordance, dev mode only.
func (e *Engine) Reset(ctx context.Context, userID string) error {
	if !e.profile.IsDev() {
		return engineerrors.ResetForbidden("session reset is only available in dev mode")
	}
	if userID == "" {
		return engineerrors.InvalidArgument("user id is required")
	}

	key := e.clock.DayKey(userID)
	if err := e.store.DeleteSessionRecord(ctx, key); err != nil {
		return err
	}
	return nil
}

// Practice returns a stateless category question set with fresh options.
func (e *Engine) Practice(ctx context.Context, userID, category string, count int, difficulty string) ([]store.QuestionItem, error) {
	if count <= 0 {
		return nil, engineerrors.InvalidArgument("count must be positive")
	}

	questions, err := e.source.FetchCategoryQuestions(ctx, category, count, difficulty)
	if err != nil {
		return nil, engineerrors.FetchFailure("question source unreachable", err)
	}

	e.populateOptions(ctx, userID, questions)
	return questions, nil
}

// createSession fetches the question set and builds a fresh record for the
// key. On fetch failure nothing is persisted and the day stays NotStarted,
// so the caller can simply retry.
func (e *Engine) createSession(ctx context.Context, key store.DayKey) (*store.SessionRecord, error) {
	opCtx := observability.NewSessionContext(e.logger, key.UserID, key.String())

	questions, err := e.source.FetchDailyQuestions(ctx, key.UserID)
	if err != nil {
		return nil, engineerrors.FetchFailure("question source unreachable", err)
	}
	if len(questions) == 0 {
		return nil, engineerrors.FetchFailure("question source returned an empty set", nil)
	}

	e.populateOptions(ctx, key.UserID, questions)

	now := e.clock.Now()
	record := &store.SessionRecord{
		UID:          shortuuid.New(),
		DayKey:       key,
		Questions:    questions,
		CurrentIndex: 0,
		Score:        0,
		Status:       store.SessionStatusInProgress,
		CreatedTs:    now.Unix(),
	}

	// The day may have rolled over mid-fetch; persisting under the stale key
	// would resurrect yesterday's slot. Drop the result instead.
	if current := e.clock.DayKey(key.UserID); current != key {
		opCtx.Warn("discarding session fetched for a rolled-over day",
			slog.String("current_day_key", current.String()))
		return nil, engineerrors.StaleKeyDiscard("learning day rolled over during fetch")
	}

	e.persist(ctx, opCtx, record)
	opCtx.Info("session created",
		slog.Int("questions", len(record.Questions)),
		slog.Int64(observability.LogFieldDuration, opCtx.DurationMs()))
	return record, nil
}

// populateOptions regenerates multiple-choice options: distractors from the
// vocabulary pool plus the correct answer exactly once, shuffled. Options are
// rebuilt on every session creation so positions cannot be memorized.
func (e *Engine) populateOptions(ctx context.Context, userID string, questions []store.QuestionItem) {
	pool, err := e.source.FetchVocabularyPool(ctx, userID)
	if err != nil || len(pool) == 0 {
		// Degrade to the answers of the set itself as the candidate pool.
		if err != nil {
			slog.Warn("vocabulary pool unavailable, using question answers",
				slog.String(observability.LogFieldUserID, userID),
				slog.String("error", err.Error()))
		}
		pool = pool[:0]
		for _, q := range questions {
			pool = append(pool, q.Answer)
		}
	}

	for i := range questions {
		if questions[i].Kind != store.QuestionKindMultipleChoice {
			questions[i].Options = nil
			continue
		}
		options := e.selector.Select(questions[i].Answer, pool, e.profile.OptionCount)
		options = append(options, questions[i].Answer)
		e.shuffle(options)
		questions[i].Options = options
	}
}

// persist writes the record, logging on failure: the store keeps the cached
// copy so the in-flight session survives, and the next write retries.
func (e *Engine) persist(ctx context.Context, opCtx *observability.SessionContext, record *store.SessionRecord) {
	if err := e.store.UpsertSessionRecord(ctx, record); err != nil {
		opCtx.Error("failed to persist session record", err)
	}
}

func (e *Engine) shuffle(options []string) {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	e.rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}

// Ensure Engine implements Service.
var _ Service = (*Engine)(nil)
