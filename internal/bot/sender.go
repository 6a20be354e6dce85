package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zewedjobs/zewed-jobs-go/internal/ratelimit"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// DropRecorder counts rate-limited operations.
type DropRecorder interface {
	RecordRateLimiterDrop(limiterType string)
}

// Sender delivers replies through the Telegram API, paced by a global
// token bucket so bursts stay under Telegram's per-bot limit.
type Sender struct {
	api     API
	limiter *ratelimit.Limiter
	drops   DropRecorder
}

// NewSender creates a sender allowing ratePerSec messages per second.
func NewSender(api API, ratePerSec float64, drops DropRecorder) *Sender {
	return &Sender{
		api:     api,
		limiter: ratelimit.New(ratePerSec, ratePerSec),
		drops:   drops,
	}
}

func (s *Sender) wait(ctx context.Context) error {
	if s.limiter.Allow() {
		return nil
	}
	if s.drops != nil {
		s.drops.RecordRateLimiterDrop("global")
	}
	return s.limiter.Wait(ctx)
}

// Send delivers r to chatID. Edit replies replace messageID.
func (s *Sender) Send(ctx context.Context, chatID int64, messageID int, r Reply) error {
	if err := s.wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	// Formatters keep text within MaxMessageLength; cutting rendered HTML
	// here could split a tag and get the whole message rejected.
	text := r.Text

	if r.Edit && messageID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ParseMode = tgbotapi.ModeHTML
		edit.DisableWebPagePreview = true
		edit.ReplyMarkup = r.Keyboard
		if _, err := s.api.Request(edit); err != nil {
			// Pressing the same button twice re-renders identical content
			if strings.Contains(err.Error(), "message is not modified") {
				return nil
			}
			return fmt.Errorf("edit message: %w", err)
		}
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if r.Keyboard != nil {
		msg.ReplyMarkup = *r.Keyboard
	}
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// AnswerCallback stops the client's loading spinner, optionally showing text.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := s.wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// SetCommands publishes the command menu shown by Telegram clients.
func (s *Sender) SetCommands(commands []Command) error {
	list := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		list = append(list, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := s.api.Request(tgbotapi.NewSetMyCommands(list...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}
