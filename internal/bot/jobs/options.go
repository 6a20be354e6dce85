package jobs

import "time"

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithPageSize sets how many jobs a browse page shows.
func WithPageSize(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithClock overrides the clock used for expiry labels.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.now = now
	}
}

// WithMetrics records submitted applications.
func WithMetrics(m ApplicationRecorder) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}
