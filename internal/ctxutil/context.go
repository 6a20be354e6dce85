// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
	updateIDKey  contextKey = "ctxutil.updateID"
)

// WithUserID adds the Telegram user ID of the caller to the context.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the Telegram user ID from the context.
// Returns 0 if absent.
func GetUserID(ctx context.Context) int64 {
	if userID, ok := ctx.Value(userIDKey).(int64); ok {
		return userID
	}
	return 0
}

// MustGetUserID retrieves the user ID from the context.
// Panics if the user ID is not found. Use this where the user ID is
// guaranteed to exist (e.g., inside bot command handlers).
func MustGetUserID(ctx context.Context) int64 {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok || userID == 0 {
		panic("ctxutil: userID not found")
	}
	return userID
}

// WithChatID adds a chat ID to the context.
func WithChatID(ctx context.Context, chatID int64) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// GetChatID retrieves the chat ID from the context.
// Returns 0 if absent.
func GetChatID(ctx context.Context) int64 {
	if chatID, ok := ctx.Value(chatIDKey).(int64); ok {
		return chatID
	}
	return 0
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithUpdateID adds the Telegram update ID to the context.
func WithUpdateID(ctx context.Context, updateID int) context.Context {
	return context.WithValue(ctx, updateIDKey, updateID)
}

// GetUpdateID retrieves the Telegram update ID from the context.
func GetUpdateID(ctx context.Context) (int, bool) {
	updateID, ok := ctx.Value(updateIDKey).(int)
	return updateID, ok
}

// PreserveTracing creates a detached context that preserves tracing values.
// The new context is independent of the parent's cancellation and deadlines.
//
// Use for async work that must outlive the parent, such as handling a
// webhook update after the HTTP response has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if userID := GetUserID(ctx); userID != 0 {
		newCtx = WithUserID(newCtx, userID)
	}
	if chatID := GetChatID(ctx); chatID != 0 {
		newCtx = WithChatID(newCtx, chatID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if updateID, ok := GetUpdateID(ctx); ok {
		newCtx = WithUpdateID(newCtx, updateID)
	}

	return newCtx
}
