// Package sentry wraps the Sentry Go SDK: optional initialization, gin
// middleware for the dashboard and panic capture for bot handlers.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// Config holds Sentry configuration.
type Config struct {
	// DSN enables reporting. Empty disables Sentry entirely.
	DSN string

	// Environment identifies the deployment environment (e.g., "production", "staging").
	Environment string

	Release string

	// SampleRate controls error sampling (0.0-1.0, default 1.0 = 100%).
	SampleRate float64

	// TracesSampleRate enables performance tracing when positive.
	TracesSampleRate float64

	Debug bool
}

// Initialize sets up the Sentry SDK. If DSN is empty, Sentry is disabled and nil is returned.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout, and always
// true when Sentry is disabled since nothing can be pending.
func Flush(timeout time.Duration) bool {
	if !IsEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Middleware returns the gin middleware that attaches a hub to each request
// and reports panics. It re-panics so gin's own recovery still answers 500.
func Middleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 2 * time.Second,
	})
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureExceptionWithContext captures an error using the hub attached to ctx, if any.
func CaptureExceptionWithContext(ctx context.Context, err error) {
	if err == nil || !IsEnabled() {
		return
	}
	hubFromContext(ctx).CaptureException(err)
}

// RecoverWithContext reports a value recovered from a panic, tagging the
// event with the given labels (for example the bot command).
func RecoverWithContext(ctx context.Context, recovered any, tags map[string]string) {
	if recovered == nil || !IsEnabled() {
		return
	}
	hub := hubFromContext(ctx).Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
	})
	hub.RecoverWithContext(ctx, recovered)
}
