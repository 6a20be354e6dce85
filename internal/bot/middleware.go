package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/sentry"
)

// LoggingMiddleware logs handler execution with timing and result info.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, h Handler, req *Request) []Reply {
			start := time.Now()
			l := log.WithModule(h.Name())
			if req.IsCallback() {
				l = l.WithField("callback", req.Data)
			} else {
				l = l.WithField("command", req.Command).WithField("args_length", len(req.Args))
			}
			l.DebugContext(ctx, "Handler started")

			replies := next(ctx, h, req)

			l.WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("reply_count", len(replies)).
				DebugContext(ctx, "Handler completed")
			return replies
		}
	}
}

// RecoveryMiddleware turns a handler panic into an apology, logs the stack
// and reports it to Sentry when enabled.
func RecoveryMiddleware(log *logger.Logger) Middleware {
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, h Handler, req *Request) (replies []Reply) {
			defer func() {
				if r := recover(); r != nil {
					log.WithModule(h.Name()).
						WithField("panic", fmt.Sprint(r)).
						WithField("stack", string(debug.Stack())).
						ErrorContext(ctx, "Handler panicked")
					sentry.RecoverWithContext(ctx, r, map[string]string{
						"module":  h.Name(),
						"command": req.Command,
					})
					replies = []Reply{Text(internalErrorText)}
				}
			}()

			return next(ctx, h, req)
		}
	}
}
