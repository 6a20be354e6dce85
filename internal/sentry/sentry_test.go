package sentry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestInitialize_EmptyDSN(t *testing.T) {
	t.Parallel()

	if err := Initialize(Config{}); err != nil {
		t.Errorf("Expected nil error for empty DSN, got %v", err)
	}
}

func TestInitialize_InvalidDSN(t *testing.T) {
	// Sentry uses global state
	if err := Initialize(Config{DSN: "::not a dsn::"}); err == nil {
		t.Error("Expected error for malformed DSN")
	}
}

func TestCapture_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	// Neither call may panic when Sentry is not configured
	CaptureExceptionWithContext(context.Background(), errors.New("boom"))
	RecoverWithContext(context.Background(), "boom", map[string]string{"command": "jobs"})
	CaptureExceptionWithContext(context.Background(), nil)
}

func TestMiddleware_Repanics(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(gin.Recovery(), Middleware())
	r.GET("/panic", func(*gin.Context) { panic("handler exploded") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 from gin recovery, got %d", w.Code)
	}
}

func TestFlush(t *testing.T) {
	t.Parallel()

	if !Flush(100 * time.Millisecond) {
		t.Error("Expected Flush to return true when no events pending")
	}
	if IsEnabled() {
		t.Error("Expected Sentry to stay disabled after Flush")
	}
}
