package employer

import "github.com/zewedjobs/zewed-jobs-go/internal/ratelimit"

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithPosting toggles /post. Disabled posting still lets employers manage
// existing listings.
func WithPosting(enabled bool) HandlerOption {
	return func(h *Handler) {
		h.postingEnabled = enabled
	}
}

// WithPostQuota limits how many jobs one employer can post per window.
func WithPostQuota(quota *ratelimit.KeyedLimiter[int64]) HandlerOption {
	return func(h *Handler) {
		h.postQuota = quota
	}
}

// WithMetrics records posted jobs.
func WithMetrics(m PostRecorder) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}
