package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/ctxutil"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/ratelimit"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

// UserStore registers the users the bot talks to.
type UserStore interface {
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) error
}

// UpdateRecorder records one observation per processed update.
type UpdateRecorder interface {
	RecordBotUpdate(kind, status string, duration float64)
}

// Update statuses used in metrics.
const (
	statusSuccess     = "success"
	statusError       = "error"
	statusRateLimited = "rate_limited"
	statusIgnored     = "ignored"
)

// Processor handles the core logic of processing Telegram updates.
// It orchestrates rate limiting, user registration, dispatch and replies.
type Processor struct {
	registry    *Registry
	users       UserStore
	sender      *Sender
	userLimiter *ratelimit.KeyedLimiter[int64]
	logger      *logger.Logger
	metrics     UpdateRecorder
	admins      map[int64]bool

	updateTimeout time.Duration

	sem chan struct{}
	wg  sync.WaitGroup
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Registry    *Registry
	Users       UserStore
	Sender      *Sender
	UserLimiter *ratelimit.KeyedLimiter[int64]
	Logger      *logger.Logger
	Metrics     UpdateRecorder // optional
	AdminIDs    []int64
	BotConfig   config.BotConfig
}

// NewProcessor creates a new update processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	admins := make(map[int64]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}
	workers := max(cfg.BotConfig.MaxConcurrentUpdates, 1)
	timeout := cfg.BotConfig.UpdateTimeout
	if timeout <= 0 {
		timeout = config.UpdateProcessing
	}
	return &Processor{
		registry:      cfg.Registry,
		users:         cfg.Users,
		sender:        cfg.Sender,
		userLimiter:   cfg.UserLimiter,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		admins:        admins,
		updateTimeout: timeout,
		sem:           make(chan struct{}, workers),
	}
}

// Submit processes update on a worker, blocking while all workers are busy.
// Processing outlives ctx cancellation so accepted updates are finished
// during shutdown; see Shutdown.
func (p *Processor) Submit(ctx context.Context, update tgbotapi.Update) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	detached := context.WithoutCancel(ctx)
	p.wg.Go(func() {
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				p.logger.WithField("panic", r).Error("Panic in update processing")
			}
		}()
		p.HandleUpdate(detached, update)
	})
	return nil
}

// Shutdown waits for in-flight updates. It returns ctx.Err() if they do not finish in time.
func (p *Processor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdate processes one update synchronously.
func (p *Processor) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	ctx = ctxutil.WithUpdateID(ctx, update.UpdateID)

	var kind, status string
	switch {
	case update.Message != nil:
		kind = "message"
		status = p.processMessage(ctx, update.UpdateID, update.Message)
	case update.CallbackQuery != nil:
		kind = "callback"
		status = p.processCallback(ctx, update.UpdateID, update.CallbackQuery)
	default:
		p.logger.WithField("update_id", update.UpdateID).DebugContext(ctx, "Unsupported update type")
		return
	}

	if p.metrics != nil {
		p.metrics.RecordBotUpdate(kind, status, time.Since(start).Seconds())
	}
	p.logger.WithField("update_kind", kind).
		WithField("status", status).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		InfoContext(ctx, "Update processed")
}

func (p *Processor) newRequest(updateID int, from *tgbotapi.User, chat *tgbotapi.Chat) *Request {
	req := &Request{
		UpdateID:  updateID,
		UserID:    from.ID,
		ChatID:    from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Private:   true,
		IsAdmin:   p.admins[from.ID],
	}
	if chat != nil {
		req.ChatID = chat.ID
		req.Private = chat.IsPrivate()
	}
	return req
}

func (p *Processor) processMessage(ctx context.Context, updateID int, msg *tgbotapi.Message) string {
	if msg.From == nil || msg.From.IsBot || msg.Chat == nil {
		return statusIgnored
	}
	req := p.newRequest(updateID, msg.From, msg.Chat)
	ctx = ctxutil.WithUserID(ctx, req.UserID)
	ctx = ctxutil.WithChatID(ctx, req.ChatID)

	if !msg.IsCommand() && !req.Private {
		// Group chatter is not addressed to us
		return statusIgnored
	}

	if !p.allow(req.UserID) {
		p.logger.WithField("user_id", req.UserID).WarnContext(ctx, "User rate limit exceeded")
		if req.Private {
			p.send(ctx, req, []Reply{Text(rateLimitedText)})
		}
		return statusRateLimited
	}

	p.ensureUser(ctx, req)

	processCtx, cancel := context.WithTimeout(ctx, p.updateTimeout)
	defer cancel()

	if !msg.IsCommand() {
		return p.send(processCtx, req, []Reply{Text(plainTextHint)})
	}

	req.Command = strings.ToLower(msg.Command())
	req.Args = strings.TrimSpace(msg.CommandArguments())
	// Clickable "/view_12" links from job lists
	if id, ok := strings.CutPrefix(req.Command, "view_"); ok && req.Args == "" {
		req.Command, req.Args = "view", id
	}

	return p.send(processCtx, req, p.dispatchCommand(processCtx, req))
}

func (p *Processor) dispatchCommand(ctx context.Context, req *Request) []Reply {
	switch req.Command {
	case "start":
		return []Reply{WithKeyboard(welcomeText(req.FirstName), tgutil.MainMenuKeyboard())}
	case "help":
		return []Reply{Text(helpText(p.registry.Commands(req.IsAdmin)))}
	case "about":
		return []Reply{Text(aboutText)}
	}

	if replies, ok := p.registry.DispatchCommand(ctx, req); ok {
		return replies
	}
	return []Reply{Text(unknownCommandText)}
}

func (p *Processor) processCallback(ctx context.Context, updateID int, cq *tgbotapi.CallbackQuery) string {
	if cq.From == nil {
		return statusIgnored
	}
	var chat *tgbotapi.Chat
	if cq.Message != nil {
		chat = cq.Message.Chat
	}
	req := p.newRequest(updateID, cq.From, chat)
	req.CallbackID = cq.ID
	req.Data = strings.TrimSpace(cq.Data)
	if cq.Message != nil {
		req.MessageID = cq.Message.MessageID
	}
	ctx = ctxutil.WithUserID(ctx, req.UserID)
	ctx = ctxutil.WithChatID(ctx, req.ChatID)

	if req.Data == "" || len(req.Data) > tgutil.MaxCallbackDataLength {
		p.logger.WithField("data_length", len(req.Data)).WarnContext(ctx, "Invalid callback data")
		p.answer(ctx, req, invalidButtonText)
		return statusIgnored
	}

	if !p.allow(req.UserID) {
		p.answer(ctx, req, rateLimitedText)
		return statusRateLimited
	}

	p.ensureUser(ctx, req)

	processCtx, cancel := context.WithTimeout(ctx, p.updateTimeout)
	defer cancel()

	var replies []Reply
	if req.Data == tgutil.CallbackMenu {
		replies = []Reply{EditWithKeyboard(menuText, tgutil.MainMenuKeyboard())}
	} else if r, ok := p.registry.DispatchCallback(processCtx, req); ok && len(r) > 0 {
		replies = r
	} else {
		p.answer(processCtx, req, expiredButtonText)
		return statusIgnored
	}

	p.answer(processCtx, req, replies[0].Notice)
	return p.send(processCtx, req, replies)
}

// allow applies the per-user limit. A nil limiter admits everyone.
func (p *Processor) allow(userID int64) bool {
	return p.userLimiter == nil || p.userLimiter.Allow(userID)
}

// ensureUser upserts the sender so foreign keys hold for saves and applications.
func (p *Processor) ensureUser(ctx context.Context, req *Request) {
	if err := p.users.AddUser(ctx, req.UserID, req.Username, req.FirstName, req.LastName); err != nil {
		p.logger.WithError(err).WarnContext(ctx, "Failed to register user")
	}
}

func (p *Processor) answer(ctx context.Context, req *Request, text string) {
	if err := p.sender.AnswerCallback(ctx, req.CallbackID, text); err != nil {
		p.logger.WithError(err).DebugContext(ctx, "Failed to answer callback")
	}
}

func (p *Processor) send(ctx context.Context, req *Request, replies []Reply) string {
	status := statusSuccess
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		if err := p.sender.Send(ctx, req.ChatID, req.MessageID, r); err != nil {
			p.logger.WithError(err).ErrorContext(ctx, "Failed to send reply")
			status = statusError
		}
	}
	return status
}
