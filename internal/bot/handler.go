// Package bot is the Telegram command layer. Feature modules (jobs,
// employer, admin) implement Handler; the Processor turns updates into
// Requests, dispatches them through the Registry and sends the Replies.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler defines the interface that all bot modules must implement.
type Handler interface {
	// Name identifies the module in logs and metrics.
	Name() string

	// Commands lists the slash commands this module answers.
	Commands() []Command

	// HandleCommand processes a slash command. req.Command is one of Commands().
	HandleCommand(ctx context.Context, req *Request) []Reply

	// CanHandleCallback reports whether the callback data belongs to this module.
	CanHandleCallback(data string) bool

	// HandleCallback processes an inline keyboard press.
	//
	// Callback data is "action" or "action:param[:param]" and must fit in
	// 64 bytes (see tgutil.MaxCallbackDataLength).
	HandleCallback(ctx context.Context, req *Request) []Reply
}

// Command describes one slash command for dispatch and for /help.
type Command struct {
	Name        string // without the leading slash
	Args        string // usage hint, e.g. "<jobId>"
	Description string
	Admin       bool // only ZEWED_ADMIN_IDS may run it
	Hidden      bool // left out of /help and the Telegram command menu
}

// Usage returns "/name args".
func (c Command) Usage() string {
	if c.Args == "" {
		return "/" + c.Name
	}
	return "/" + c.Name + " " + c.Args
}

// Request is one command or callback from a Telegram user.
type Request struct {
	UpdateID  int
	UserID    int64
	ChatID    int64
	MessageID int // the message a callback was attached to
	Username  string
	FirstName string
	LastName  string
	Private   bool
	IsAdmin   bool

	// Commands
	Command string
	Args    string

	// Callbacks
	CallbackID string
	Data       string
}

// IsCallback reports whether the request came from an inline keyboard.
func (r *Request) IsCallback() bool {
	return r.CallbackID != ""
}

// Reply is one outgoing message.
type Reply struct {
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup

	// Edit replaces the message a callback came from instead of sending a new one.
	Edit bool

	// Notice is shown as the callback answer toast.
	Notice string
}

// Text builds a plain reply.
func Text(text string) Reply {
	return Reply{Text: text}
}

// WithKeyboard builds a reply with an inline keyboard.
func WithKeyboard(text string, kb tgbotapi.InlineKeyboardMarkup) Reply {
	return Reply{Text: text, Keyboard: &kb}
}

// EditWithKeyboard replaces the callback's message and keyboard.
func EditWithKeyboard(text string, kb tgbotapi.InlineKeyboardMarkup) Reply {
	return Reply{Text: text, Keyboard: &kb, Edit: true}
}
