package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorWrapper(t *testing.T) {
	wrapper := NewWrapper("bot", "apply")

	t.Run("Wrap returns nil for nil error", func(t *testing.T) {
		if result := wrapper.Wrap(nil, "Application failed"); result != nil {
			t.Errorf("expected nil, got %v", result)
		}
	})

	t.Run("Wrap creates WrappedError", func(t *testing.T) {
		baseErr := errors.New("database connection failed")
		wrapped := wrapper.Wrap(baseErr, "Application failed")

		var wrappedErr *WrappedError
		if !errors.As(wrapped, &wrappedErr) {
			t.Fatal("expected WrappedError type")
		}
		if wrappedErr.Module != "bot" {
			t.Errorf("expected module 'bot', got %q", wrappedErr.Module)
		}
		if wrappedErr.Operation != "apply" {
			t.Errorf("expected operation 'apply', got %q", wrappedErr.Operation)
		}
		if !errors.Is(wrapped, baseErr) {
			t.Error("wrapped error should unwrap to base error")
		}
	})

	t.Run("Wrapf formats message", func(t *testing.T) {
		wrapped := wrapper.Wrapf(ErrNotFound, "Job #%d was not found", 42)
		if got := GetUserMessage(wrapped); got != "Job #42 was not found" {
			t.Errorf("unexpected user message %q", got)
		}
		if !IsNotFound(wrapped) {
			t.Error("class must survive wrapping")
		}
	})
}

func TestGetUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation message", fmt.Errorf("add job: %w", NewValidationError("title", "title is required")), "title is required"},
		{"not found", fmt.Errorf("get: %w", ErrNotFound), "Not found."},
		{"conflict", ErrConflict, "That was already done."},
		{"unavailable", ErrUnavailable, "The service is busy right now, please try again shortly."},
		{"internal details hidden", errors.New("near \"SELEC\": syntax error"), "Something went wrong, please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetUserMessage(tt.err); got != tt.want {
				t.Errorf("GetUserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrappedError_Error(t *testing.T) {
	wrapped := &WrappedError{
		Operation:   "search",
		Module:      "dashboard",
		Cause:       errors.New("db error"),
		UserMessage: "Search failed",
	}

	expected := "[dashboard:search] Search failed: db error"
	if got := wrapped.Error(); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
