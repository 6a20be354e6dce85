package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zewedjobs/zewed-jobs-go/internal/ctxutil"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
)

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404 and 2xx/3xx=Debug. Probe and metrics scrapes
// are not logged below Warn.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())
		if requestID, ok := ctxutil.GetRequestID(c.Request.Context()); ok {
			entry = entry.WithRequestID(requestID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400 && status != 404:
			entry.Warn("HTTP request rejected")
		case status == 404:
			entry.Debug("HTTP request not found")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
