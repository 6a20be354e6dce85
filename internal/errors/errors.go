// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates the caller provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict indicates a uniqueness rule rejected the write.
	ErrConflict = errors.New("conflict")

	// ErrForbidden indicates the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates a transient failure (store busy, closed, timed out).
	// Callers may retry.
	ErrUnavailable = errors.New("temporarily unavailable")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err is or wraps ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConflict reports whether err is or wraps ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsForbidden reports whether err is or wraps ErrForbidden.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnavailable reports whether err is or wraps ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsRateLimitExceeded reports whether err is or wraps ErrRateLimitExceeded.
func IsRateLimitExceeded(err error) bool {
	return errors.Is(err, ErrRateLimitExceeded)
}

// Kind returns a short label for the error class, used as a metrics label.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsNotFound(err):
		return "not_found"
	case IsInvalidInput(err):
		return "invalid_input"
	case IsConflict(err):
		return "conflict"
	case IsForbidden(err):
		return "forbidden"
	case IsUnavailable(err):
		return "unavailable"
	case IsRateLimitExceeded(err):
		return "rate_limited"
	default:
		return "internal"
	}
}

// ValidationError represents input validation failures.
// It unwraps to ErrInvalidInput so callers can branch on the class alone.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
