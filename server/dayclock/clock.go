// Package dayclock computes learning-day keys and the countdown to the next
// session unlock. The day boundary is fixed at UTC midnight regardless of
// device locale, so all users reset simultaneously.
package dayclock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mazvydas/kasdien/store"
)

// TimeSource optionally supplies a server-reported current time, used to
// compensate for device clock skew.
type TimeSource interface {
	FetchServerTime(ctx context.Context) (time.Time, error)
}

// Countdown is the time remaining until the next learning day unlocks.
type Countdown struct {
	Hours        int   `json:"hours"`
	Minutes      int   `json:"minutes"`
	Seconds      int   `json:"seconds"`
	TotalSeconds int64 `json:"totalSeconds"`
}

// Clock computes day keys from wall-clock time plus an optional server-time
// offset. It owns no timer: TimeUntilNextDay recomputes on every call and is
// meant to be polled by a caller-owned ticker.
type Clock struct {
	mu     sync.RWMutex
	now    func() time.Time
	offset time.Duration
	source TimeSource
}

// New creates a clock. source may be nil, in which case Sync is a no-op.
func New(source TimeSource) *Clock {
	return NewWithNow(source, time.Now)
}

// NewWithNow creates a clock with a custom wall-clock function, for
// simulations and tests that need to sit on either side of a day boundary.
func NewWithNow(source TimeSource, now func() time.Time) *Clock {
	return &Clock{
		now:    now,
		source: source,
	}
}

// Now returns the current skew-adjusted instant in UTC.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Add(c.offset).UTC()
}

// DayKey returns the learning day key for the user at the current instant.
// Calling it twice within the same UTC calendar day yields equal keys; calls
// straddling UTC midnight yield unequal keys.
func (c *Clock) DayKey(userID string) store.DayKey {
	return store.NewDayKey(userID, c.Now())
}

// TimeUntilNextDay returns the remaining time until the next UTC midnight.
func (c *Clock) TimeUntilNextDay() Countdown {
	now := c.Now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	remaining := nextMidnight.Sub(now)

	total := int64(remaining / time.Second)
	return Countdown{
		Hours:        int(total / 3600),
		Minutes:      int(total % 3600 / 60),
		Seconds:      int(total % 60),
		TotalSeconds: total,
	}
}

// Sync fetches the server time and records the offset between it and the
// local wall clock. On failure the clock keeps its current offset and falls
// back to unadjusted local time without surfacing an error.
func (c *Clock) Sync(ctx context.Context) {
	if c.source == nil {
		return
	}

	serverTime, err := c.source.FetchServerTime(ctx)
	if err != nil {
		slog.Warn("server time sync failed, using local clock", slog.String("error", err.Error()))
		return
	}

	c.mu.Lock()
	c.offset = serverTime.Sub(c.now())
	c.mu.Unlock()
}
