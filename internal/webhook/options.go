package webhook

import "time"

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithSecret requires deliveries to carry secret in SecretHeader.
func WithSecret(secret string) HandlerOption {
	return func(h *Handler) {
		h.secret = secret
	}
}

// WithMaxBodyBytes caps the accepted request body.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithSubmitTimeout bounds how long a delivery waits for a free worker.
func WithSubmitTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.submitTimeout = d
		}
	}
}
