package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engineerrors "github.com/mazvydas/kasdien/internal/errors"
	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/plugin/questionsource"
	"github.com/mazvydas/kasdien/plugin/statsbackend"
	"github.com/mazvydas/kasdien/server/dayclock"
	"github.com/mazvydas/kasdien/server/service/stats"
	"github.com/mazvydas/kasdien/store"
	storetest "github.com/mazvydas/kasdien/store/test"
)

type engineFixture struct {
	engine  *Engine
	store   *store.Store
	driver  *storetest.Driver
	source  *questionsource.MockService
	backend *statsbackend.MockService
	clock   *dayclock.Clock
	now     *time.Time
	profile *profile.Profile
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	st, driver := storetest.NewTestingStore()
	t.Cleanup(func() { _ = st.Close() })

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := dayclock.NewWithNow(nil, func() time.Time { return now })

	source := questionsource.NewMockService()
	source.Questions = []store.QuestionItem{
		{ID: "q1", Kind: store.QuestionKindMultipleChoice, Prompt: "cat", Answer: "katė"},
		{ID: "q2", Kind: store.QuestionKindFillBlank, Prompt: "Aš geriu ___", Answer: "arbatą"},
		{ID: "q3", Kind: store.QuestionKindMultipleChoice, Prompt: "house", Answer: "namas"},
	}
	source.Pool = []string{"katė", "šuo", "namas", "knyga", "arbata", "stalas", "kėdė"}

	backend := statsbackend.NewMockService()
	p := &profile.Profile{Mode: "dev", DistractorWildcards: 1, OptionCount: 3}

	f := &engineFixture{
		store:   st,
		driver:  driver,
		source:  source,
		backend: backend,
		clock:   clock,
		now:     &now,
		profile: p,
	}
	f.engine = NewEngine(p, st, source, clock, stats.NewReconciler(st, backend, clock), nil)
	return f
}

func TestEngine_CurrentCreatesAndPersists(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	record, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, store.SessionStatusInProgress, record.Status)
	assert.Zero(t, record.CurrentIndex)
	assert.Zero(t, record.Score)
	assert.NotEmpty(t, record.UID)
	assert.Len(t, record.Questions, 3)

	persisted, err := f.store.GetSessionRecord(ctx, f.clock.DayKey("u1"))
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, record.UID, persisted.UID)
}

func TestEngine_OptionsContainCorrectAnswerExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	record, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)

	for _, question := range record.Questions {
		if question.Kind != store.QuestionKindMultipleChoice {
			assert.Empty(t, question.Options)
			continue
		}
		require.Len(t, question.Options, f.profile.OptionCount+1, "question %s", question.ID)

		occurrences := 0
		seen := map[string]int{}
		for _, option := range question.Options {
			seen[option]++
			if option == question.Answer {
				occurrences++
			}
		}
		assert.Equal(t, 1, occurrences, "correct answer must appear exactly once in %v", question.Options)
		for option, n := range seen {
			assert.Equal(t, 1, n, "option %q duplicated", option)
		}
	}
}

func TestEngine_ResumeRestoresProgressWithoutRefetch(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	result, err := f.engine.SubmitAnswer(ctx, "u1", "katė")
	require.NoError(t, err)
	require.True(t, result.Correct)
	require.Equal(t, 1, f.source.Calls())

	// A fresh engine over the same store stands in for a process restart.
	restarted := NewEngine(f.profile, f.store, f.source, f.clock, stats.NewReconciler(f.store, f.backend, f.clock), nil)
	record, err := restarted.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, record.CurrentIndex)
	assert.Equal(t, 1, record.Score)
	assert.Equal(t, store.SessionStatusInProgress, record.Status)
	assert.Equal(t, 1, f.source.Calls(), "resuming must not trigger a second fetch")
}

func TestEngine_ConcurrentCurrentFetchesOnce(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.source.Delay = 50 * time.Millisecond

	const callers = 8
	records := make([]*store.SessionRecord, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := f.engine.Current(ctx, "u1")
			assert.NoError(t, err)
			records[i] = record
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.source.Calls(), "concurrent callers must share one fetch")
	for i := 1; i < callers; i++ {
		require.NotNil(t, records[i])
		assert.Equal(t, records[0].UID, records[i].UID)
	}
}

func TestEngine_FetchFailureLeavesDayNotStarted(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.source.SetErr(assert.AnError)

	_, err := f.engine.Current(ctx, "u1")
	require.Error(t, err)
	assert.True(t, engineerrors.IsCode(err, engineerrors.ErrCodeFetchFailure))

	persisted, err := f.store.GetSessionRecord(ctx, f.clock.DayKey("u1"))
	require.NoError(t, err)
	assert.Nil(t, persisted, "a failed fetch must not persist a record")

	// The day is still open: a later retry succeeds normally.
	f.source.SetErr(nil)
	record, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.SessionStatusInProgress, record.Status)
}

func TestEngine_StoreReadFailureTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, f.source.Calls())

	// A cold store whose driver fails reads must fall back to a fresh fetch
	// instead of erroring out.
	f.driver.FailGet = assert.AnError
	coldStore := store.New(f.driver, f.profile)
	t.Cleanup(func() { _ = coldStore.Close() })
	cold := NewEngine(f.profile, coldStore, f.source, f.clock, stats.NewReconciler(coldStore, f.backend, f.clock), nil)

	record, err := cold.Current(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 2, f.source.Calls())
}

func TestEngine_SubmitAnswerGradesAndAdvances(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)

	// Diacritic-insensitive grading: "kate" matches "katė".
	result, err := f.engine.SubmitAnswer(ctx, "u1", "kate")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, "katė", result.CorrectAnswer)
	assert.False(t, result.Completed)
	assert.Equal(t, 1, result.Record.CurrentIndex)
	assert.Equal(t, 1, result.Record.Score)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.TodayCorrect)

	result, err = f.engine.SubmitAnswer(ctx, "u1", "kava")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, 1, result.Record.Score)

	result, err = f.engine.SubmitAnswer(ctx, "u1", "namas")
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.True(t, result.Completed)
	assert.Equal(t, store.SessionStatusCompleted, result.Record.Status)
	assert.Equal(t, 2, result.Record.Score)
	assert.Equal(t, 1, result.Stats.TotalCompleted)
	f.engine.reconciler.Drain()
}

func TestEngine_SubmitAfterCompletionRejected(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	for _, answer := range []string{"katė", "arbatą", "namas"} {
		_, err = f.engine.SubmitAnswer(ctx, "u1", answer)
		require.NoError(t, err)
	}

	_, err = f.engine.SubmitAnswer(ctx, "u1", "katė")
	require.Error(t, err)
	assert.True(t, engineerrors.IsCode(err, engineerrors.ErrCodeAlreadyCompleted))
	f.engine.reconciler.Drain()
}

func TestEngine_SubmitWithoutSessionRejected(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.SubmitAnswer(ctx, "u1", "katė")
	require.Error(t, err)
	assert.True(t, engineerrors.IsCode(err, engineerrors.ErrCodeSessionNotStarted))
}

func TestEngine_ResetDevOnly(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, f.engine.Reset(ctx, "u1"))
	_, err = f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, f.source.Calls(), "reset must force a fresh fetch")

	f.profile.Mode = "prod"
	err = f.engine.Reset(ctx, "u1")
	require.Error(t, err)
	assert.True(t, engineerrors.IsCode(err, engineerrors.ErrCodeResetForbidden))
}

func TestEngine_StaleKeyDiscardedAfterRollover(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	// Key computed yesterday, fetch resolving after UTC midnight.
	staleKey := store.NewDayKey("u1", f.now.AddDate(0, 0, -1))

	_, err := f.engine.createSession(ctx, staleKey)
	require.Error(t, err)
	assert.True(t, engineerrors.IsCode(err, engineerrors.ErrCodeStaleKeyDiscard))

	persisted, err := f.store.GetSessionRecord(ctx, staleKey)
	require.NoError(t, err)
	assert.Nil(t, persisted, "a stale-keyed record must never be persisted")
}

func TestEngine_DayRolloverStartsFreshSession(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	first, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)

	*f.now = f.now.AddDate(0, 0, 1)

	second, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, first.UID, second.UID)
	assert.NotEqual(t, first.DayKey, second.DayKey)
	assert.Equal(t, 2, f.source.Calls())
}

func TestEngine_ConcurrentPracticeRequests(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	// Every request shares the engine's selector and rand; run under -race.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				questions, err := f.engine.Practice(ctx, "u1", "animals", 2, "")
				assert.NoError(t, err)
				assert.Len(t, questions, 2)
			}
		}()
	}
	wg.Wait()
}

func TestEngine_CurrentSnapshotNotAliasedBySubmit(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	snapshot, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, snapshot.CurrentIndex)

	_, err = f.engine.SubmitAnswer(ctx, "u1", "katė")
	require.NoError(t, err)

	// The record handed out earlier is a private copy; advancing the session
	// must not write through it.
	assert.Zero(t, snapshot.CurrentIndex)
	assert.Zero(t, snapshot.Score)
	assert.Equal(t, store.SessionStatusInProgress, snapshot.Status)

	current, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, current.CurrentIndex)
	f.engine.reconciler.Drain()
}

func TestEngine_PracticeIsStateless(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	questions, err := f.engine.Practice(ctx, "u1", "animals", 2, "easy")
	require.NoError(t, err)
	require.Len(t, questions, 2)
	for _, question := range questions {
		if question.Kind == store.QuestionKindMultipleChoice {
			assert.Len(t, question.Options, f.profile.OptionCount+1)
		}
	}

	persisted, err := f.store.GetSessionRecord(ctx, f.clock.DayKey("u1"))
	require.NoError(t, err)
	assert.Nil(t, persisted, "practice sets are never persisted")
}

func TestEngine_SparsePoolDegradesGracefully(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	f.source.Pool = []string{"šuo"}

	record, err := f.engine.Current(ctx, "u1")
	require.NoError(t, err)
	for _, question := range record.Questions {
		if question.Kind != store.QuestionKindMultipleChoice {
			continue
		}
		assert.NotEmpty(t, question.Options)
		assert.LessOrEqual(t, len(question.Options), f.profile.OptionCount+1)
		assert.Contains(t, question.Options, question.Answer)
	}
}
