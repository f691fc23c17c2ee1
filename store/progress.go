package store

// UserProgressStats are the streak and mastery counters for one user.
//
// The stats backend is authoritative; this struct is the client-side cached
// copy, updated optimistically and replaced wholesale on reconciliation. Day
// records which UTC date the today-counters belong to: when it differs from
// the current day key date, TodayCorrect/TodayIncorrect/CurrentStreak start
// over from zero.
type UserProgressStats struct {
	UserID         string `json:"userId"`
	Day            string `json:"day"` // UTC calendar date, DayDateLayout
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
	TodayCorrect   int    `json:"todayCorrect"`
	TodayIncorrect int    `json:"todayIncorrect"`
	TotalCorrect   int    `json:"totalCorrect"`
	TotalIncorrect int    `json:"totalIncorrect"`
	TotalCompleted int    `json:"totalCompleted"`
}

// Clone returns an independent copy.
func (s *UserProgressStats) Clone() *UserProgressStats {
	cp := *s
	return &cp
}

// ClampStreaks enforces LongestStreak >= CurrentStreak. Applied after every
// mutation regardless of whether the values came from an optimistic update or
// an authoritative backend response.
func (s *UserProgressStats) ClampStreaks() {
	if s.LongestStreak < s.CurrentStreak {
		s.LongestStreak = s.CurrentStreak
	}
}

// RollOver zeroes the per-day counters when the stored day no longer matches
// the current day key date. Lifetime counters persist.
func (s *UserProgressStats) RollOver(day string) {
	if s.Day == day {
		return
	}
	s.Day = day
	s.TodayCorrect = 0
	s.TodayIncorrect = 0
	s.CurrentStreak = 0
}
