package dashboard

import (
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/metrics"
)

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithMetrics records singleflight deduplication.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithAdminToken enables the admin-only routes. An empty token keeps them closed.
func WithAdminToken(token string) HandlerOption {
	return func(h *Handler) {
		h.adminToken = token
	}
}

// WithPageSize overrides the job list page size.
func WithPageSize(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithQueryTimeout bounds each handler's database work.
func WithQueryTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.queryTimeout = d
		}
	}
}
