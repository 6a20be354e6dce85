package dashboard

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zewedjobs/zewed-jobs-go/internal/ctxutil"
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/metrics"
	"github.com/zewedjobs/zewed-jobs-go/internal/sentry"
)

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-Id"

// RequestID reuses an incoming request id or assigns a new one, and stores
// it in the request context for logging.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = c.GetHeader("X-Correlation-Id")
		}
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(route, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// requireAdmin checks a bearer token against the configured admin token.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminToken == "" {
			h.writeError(c, domerrors.ErrForbidden)
			return
		}
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
			c.Header("WWW-Authenticate", `Bearer realm="dashboard"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// statusFor maps a domain error class to an HTTP status.
func statusFor(err error) int {
	switch {
	case domerrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case domerrors.IsForbidden(err):
		return http.StatusForbidden
	case domerrors.IsNotFound(err):
		return http.StatusNotFound
	case domerrors.IsConflict(err):
		return http.StatusConflict
	case domerrors.IsRateLimitExceeded(err):
		return http.StatusTooManyRequests
	case domerrors.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": domerrors.GetUserMessage(err)}

	var ve *domerrors.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("http_path", c.FullPath()).Error("Dashboard query failed")
		sentry.CaptureExceptionWithContext(c.Request.Context(), err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}
