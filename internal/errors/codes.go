package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific failure class of the session engine.
type ErrorCode string

const (
	// ErrCodeFetchFailure indicates the question source or stats backend was unreachable.
	ErrCodeFetchFailure ErrorCode = "FETCH_FAILURE"
	// ErrCodeAlreadyCompleted indicates an answer was submitted to a finished session.
	ErrCodeAlreadyCompleted ErrorCode = "ALREADY_COMPLETED"
	// ErrCodeSessionNotStarted indicates an answer was submitted with no session for today.
	ErrCodeSessionNotStarted ErrorCode = "SESSION_NOT_STARTED"
	// ErrCodeResetForbidden indicates a session reset was requested outside dev mode.
	ErrCodeResetForbidden ErrorCode = "RESET_FORBIDDEN"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeStaleKeyDiscard indicates a background result was dropped because the
	// learning day rolled over before it finished.
	ErrCodeStaleKeyDiscard ErrorCode = "STALE_KEY_DISCARD"
)

// EngineError represents a structured error for session engine operations.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *EngineError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// FetchFailure creates a retryable fetch failure error.
func FetchFailure(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeFetchFailure, Message: msg, Cause: cause}
}

// AlreadyCompleted creates an already-completed rejection error.
func AlreadyCompleted(msg string) *EngineError {
	return &EngineError{Code: ErrCodeAlreadyCompleted, Message: msg}
}

// SessionNotStarted creates a session-not-started error.
func SessionNotStarted(msg string) *EngineError {
	return &EngineError{Code: ErrCodeSessionNotStarted, Message: msg}
}

// ResetForbidden creates a reset-forbidden error.
func ResetForbidden(msg string) *EngineError {
	return &EngineError{Code: ErrCodeResetForbidden, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// StaleKeyDiscard creates a stale-key discard error.
func StaleKeyDiscard(msg string) *EngineError {
	return &EngineError{Code: ErrCodeStaleKeyDiscard, Message: msg}
}

// Wrap wraps an existing error with an engine error code.
func Wrap(cause error, code ErrorCode, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an EngineError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return defaultCode
}
