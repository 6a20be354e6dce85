package errors

import (
	"errors"
	"fmt"
)

// ErrorWrapper attaches module/operation context and a user-facing message to errors.
type ErrorWrapper struct {
	operation string
	module    string
}

// NewWrapper creates a new error wrapper with operation and module context.
func NewWrapper(module, operation string) *ErrorWrapper {
	return &ErrorWrapper{
		module:    module,
		operation: operation,
	}
}

// Wrap wraps an error with operation context.
// Returns nil if err is nil.
func (w *ErrorWrapper) Wrap(err error, userMessage string) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   w.operation,
		Module:      w.module,
		Cause:       err,
		UserMessage: userMessage,
	}
}

// Wrapf wraps an error with formatted message.
func (w *ErrorWrapper) Wrapf(err error, userMessageFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	return &WrappedError{
		Operation:   w.operation,
		Module:      w.module,
		Cause:       err,
		UserMessage: fmt.Sprintf(userMessageFormat, args...),
	}
}

// WrappedError contains both internal error details and user-facing message.
type WrappedError struct {
	Operation   string // e.g. "apply", "search_jobs"
	Module      string // e.g. "bot", "dashboard"
	Cause       error
	UserMessage string
}

func (e *WrappedError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %v", e.Module, e.Operation, e.UserMessage, e.Cause)
}

func (e *WrappedError) Unwrap() error {
	return e.Cause
}

// GetUserMessage returns the user-facing message for err.
// A WrappedError anywhere in the chain wins; otherwise the message is derived
// from the error class so internal details never reach end users.
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var wrapped *WrappedError
	if errors.As(err, &wrapped) {
		return wrapped.UserMessage
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}
	switch {
	case IsNotFound(err):
		return "Not found."
	case IsConflict(err):
		return "That was already done."
	case IsForbidden(err):
		return "You are not allowed to do that."
	case IsUnavailable(err):
		return "The service is busy right now, please try again shortly."
	case IsRateLimitExceeded(err):
		return "Too many requests, please slow down."
	default:
		return "Something went wrong, please try again later."
	}
}
