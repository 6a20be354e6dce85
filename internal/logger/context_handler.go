package logger

import (
	"context"
	"log/slog"

	"github.com/zewedjobs/zewed-jobs-go/internal/ctxutil"
)

// ContextHandler wraps another handler and adds the tracing values stored
// by ctxutil (user_id, chat_id, request_id, update_id) to every record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds context values as attributes, then delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if userID := ctxutil.GetUserID(ctx); userID != 0 {
		r.AddAttrs(slog.Int64("user_id", userID))
	}
	if chatID := ctxutil.GetChatID(ctx); chatID != 0 {
		r.AddAttrs(slog.Int64("chat_id", chatID))
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if updateID, ok := ctxutil.GetUpdateID(ctx); ok {
		r.AddAttrs(slog.Int("update_id", updateID))
	}
	return h.handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
