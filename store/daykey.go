package store

import (
	"fmt"
	"time"
)

// DayDateLayout is the calendar-date layout used inside day keys.
const DayDateLayout = "2006-01-02"

// DayKey scopes every cached artifact to one user and one UTC calendar date.
// Two keys are equal iff same user and same UTC date, so crossing UTC midnight
// invalidates the previous day's state without explicit deletion: lookups for
// the new key simply miss.
type DayKey struct {
	UserID string `json:"userId"`
	Date   string `json:"date"` // UTC calendar date, DayDateLayout
}

// NewDayKey builds the day key for the given user at the given instant.
// The instant is converted to UTC before the date is taken.
func NewDayKey(userID string, at time.Time) DayKey {
	return DayKey{
		UserID: userID,
		Date:   at.UTC().Format(DayDateLayout),
	}
}

// String renders the key for logging and storage-key composition.
func (k DayKey) String() string {
	return fmt.Sprintf("%s:%s", k.UserID, k.Date)
}
