package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRequestID is the field name for request ID.
	LogFieldRequestID = "request_id"
	// LogFieldUserID is the field name for user ID.
	LogFieldUserID = "user_id"
	// LogFieldDayKey is the field name for the learning day key.
	LogFieldDayKey = "day_key"
	// LogFieldQuestionID is the field name for question ID.
	LogFieldQuestionID = "question_id"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// SessionContext represents the logging context for one engine operation.
type SessionContext struct {
	RequestID string
	UserID    string
	DayKey    string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewSessionContext creates a new session context with a generated request ID.
func NewSessionContext(logger *slog.Logger, userID, dayKey string) *SessionContext {
	return &SessionContext{
		RequestID: uuid.New().String(),
		UserID:    userID,
		DayKey:    dayKey,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (s *SessionContext) Info(msg string, attrs ...slog.Attr) {
	s.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, s.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (s *SessionContext) Debug(msg string, attrs ...slog.Attr) {
	s.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, s.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (s *SessionContext) Warn(msg string, attrs ...slog.Attr) {
	s.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, s.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error.
func (s *SessionContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	s.Logger.LogAttrs(context.Background(), slog.LevelError, msg, s.baseAttrsAppended(allAttrs...)...)
}

// Duration returns the elapsed time since the operation started.
func (s *SessionContext) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (s *SessionContext) DurationMs() int64 {
	return s.Duration().Milliseconds()
}

func (s *SessionContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldRequestID, s.RequestID),
		slog.String(LogFieldUserID, s.UserID),
		slog.String(LogFieldDayKey, s.DayKey),
	}
}

func (s *SessionContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	return append(s.baseAttrs(), attrs...)
}
