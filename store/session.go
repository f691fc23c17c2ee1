package store

// QuestionKind is the presentation type of a question item.
type QuestionKind string

const (
	// QuestionKindMultipleChoice presents the prompt with one correct option among distractors.
	QuestionKindMultipleChoice QuestionKind = "multiple_choice"
	// QuestionKindFillBlank presents a sentence with a blank to type into.
	QuestionKindFillBlank QuestionKind = "fill_blank"
	// QuestionKindTrueFalse presents a statement to judge.
	QuestionKindTrueFalse QuestionKind = "true_false"
)

// QuestionItem is one question inside a daily session.
//
// For multiple_choice items Options contains the correct answer exactly once
// plus generated distractors, shuffled at session creation. Options are never
// reused across sessions so option positions cannot be memorized.
type QuestionItem struct {
	ID      string       `json:"id"`
	Kind    QuestionKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Answer  string       `json:"answer"`
	Options []string     `json:"options,omitempty"`
}

// SessionStatus is the lifecycle state of a daily session.
type SessionStatus string

const (
	// SessionStatusNotStarted means no record exists for today's key yet.
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	// SessionStatusInProgress means the session has unanswered questions.
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	// SessionStatusCompleted means every question has been answered today.
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// SessionRecord is the persistent state of one user's session for one UTC day.
//
// CurrentIndex is monotonically non-decreasing within a record. Status moves
// NotStarted -> InProgress -> Completed and never backward; the only way out of
// Completed before day rollover is an explicit reset, which replaces the record
// wholesale.
type SessionRecord struct {
	UID          string         `json:"uid"`
	DayKey       DayKey         `json:"dayKey"`
	Questions    []QuestionItem `json:"questions"`
	CurrentIndex int            `json:"currentIndex"`
	Score        int            `json:"score"`
	Status       SessionStatus  `json:"status"`
	CreatedTs    int64          `json:"createdTs"`
	UpdatedTs    int64          `json:"updatedTs"`
}

// Clone returns an independent copy. The store hands clones to callers so a
// record being advanced by one request is never read through an aliased
// pointer by another.
func (r *SessionRecord) Clone() *SessionRecord {
	cp := *r
	cp.Questions = make([]QuestionItem, len(r.Questions))
	copy(cp.Questions, r.Questions)
	return &cp
}

// Remaining returns the number of unanswered questions.
func (r *SessionRecord) Remaining() int {
	if r.CurrentIndex >= len(r.Questions) {
		return 0
	}
	return len(r.Questions) - r.CurrentIndex
}

// CurrentQuestion returns the question awaiting an answer, or nil when the
// session is complete.
func (r *SessionRecord) CurrentQuestion() *QuestionItem {
	if r.CurrentIndex >= len(r.Questions) {
		return nil
	}
	return &r.Questions[r.CurrentIndex]
}
