package dayclock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mazvydas/kasdien/store"
)

type fakeTimeSource struct {
	serverTime time.Time
	err        error
}

func (f *fakeTimeSource) FetchServerTime(context.Context) (time.Time, error) {
	return f.serverTime, f.err
}

func fixedClock(at time.Time) *Clock {
	c := New(nil)
	c.now = func() time.Time { return at }
	return c
}

func TestClock_DayKeyStableWithinDay(t *testing.T) {
	morning := fixedClock(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC))
	night := fixedClock(time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC))

	assert.Equal(t, morning.DayKey("u1"), night.DayKey("u1"))
}

func TestClock_DayKeyChangesAtMidnight(t *testing.T) {
	before := fixedClock(time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC))
	after := fixedClock(time.Date(2024, 6, 11, 0, 0, 1, 0, time.UTC))

	keyBefore := before.DayKey("u1")
	keyAfter := after.DayKey("u1")

	assert.NotEqual(t, keyBefore, keyAfter)
	assert.Equal(t, store.DayKey{UserID: "u1", Date: "2024-06-10"}, keyBefore)
	assert.Equal(t, store.DayKey{UserID: "u1", Date: "2024-06-11"}, keyAfter)
}

func TestClock_DayKeyIgnoresLocalZone(t *testing.T) {
	east := time.FixedZone("EET", 2*60*60)
	// 2024-06-11 01:30 EET is still 2024-06-10 in UTC.
	c := fixedClock(time.Date(2024, 6, 11, 1, 30, 0, 0, east))

	assert.Equal(t, "2024-06-10", c.DayKey("u1").Date)
}

func TestClock_TimeUntilNextDay(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want Countdown
	}{
		{
			name: "midday",
			at:   time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC),
			want: Countdown{Hours: 12, Minutes: 0, Seconds: 0, TotalSeconds: 43200},
		},
		{
			name: "one second to midnight",
			at:   time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC),
			want: Countdown{Hours: 0, Minutes: 0, Seconds: 1, TotalSeconds: 1},
		},
		{
			name: "just past midnight",
			at:   time.Date(2024, 6, 10, 0, 0, 1, 0, time.UTC),
			want: Countdown{Hours: 23, Minutes: 59, Seconds: 59, TotalSeconds: 86399},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fixedClock(tt.at).TimeUntilNextDay())
		})
	}
}

func TestClock_SyncAppliesServerOffset(t *testing.T) {
	local := time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)
	// The server is an hour ahead: it is already the next day there.
	source := &fakeTimeSource{serverTime: local.Add(90 * time.Minute)}

	c := New(source)
	c.now = func() time.Time { return local }
	c.Sync(context.Background())

	assert.Equal(t, "2024-06-11", c.DayKey("u1").Date)
}

func TestClock_SyncFailureFallsBackToLocal(t *testing.T) {
	local := time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)
	source := &fakeTimeSource{err: assert.AnError}

	c := New(source)
	c.now = func() time.Time { return local }
	c.Sync(context.Background())

	assert.Equal(t, "2024-06-10", c.DayKey("u1").Date)
	assert.Equal(t, local, c.Now())
}

func TestClock_NilSourceSyncIsNoop(t *testing.T) {
	c := fixedClock(time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC))
	c.Sync(context.Background())
	assert.Equal(t, "2024-06-10", c.DayKey("u1").Date)
}
