// Package webhook receives Telegram updates pushed to the bot's HTTPS
// endpoint and hands them to the update processor.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"

	"github.com/zewedjobs/zewed-jobs-go/internal/ctxutil"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
)

// SecretHeader carries the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	defaultMaxBodyBytes  = 1 << 20
	defaultSubmitTimeout = 10 * time.Second
)

// Submitter queues an update for processing. bot.Processor implements it.
type Submitter interface {
	Submit(ctx context.Context, update tgbotapi.Update) error
}

// Handler handles Telegram webhook deliveries.
type Handler struct {
	processor     Submitter
	logger        *logger.Logger
	secret        string
	maxBodyBytes  int64
	submitTimeout time.Duration
}

// NewHandler creates a webhook handler. Without WithSecret every delivery is accepted.
func NewHandler(processor Submitter, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		processor:     processor,
		logger:        log,
		maxBodyBytes:  defaultMaxBodyBytes,
		submitTimeout: defaultSubmitTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle is the Gin handler for the webhook endpoint.
// Telegram retries any non-2xx response, so 503 is returned only when the
// update could not be queued.
func (h *Handler) Handle(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.WithField("client_ip", c.ClientIP()).Warn("Webhook rejected: bad secret token")
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	var update tgbotapi.Update
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&update); err != nil {
		h.logger.WithError(err).Warn("Webhook rejected: malformed update")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	ctx := ctxutil.PreserveTracing(c.Request.Context())
	ctx, cancel := context.WithTimeout(ctx, h.submitTimeout)
	defer cancel()

	if err := h.processor.Submit(ctx, update); err != nil {
		h.logger.WithError(err).WithField("update_id", update.UpdateID).Warn("Webhook update not queued")
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	c.Status(http.StatusOK)
}
