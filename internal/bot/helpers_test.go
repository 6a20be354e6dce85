package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeAPI records everything sent to Telegram.
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	editErr  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if _, ok := c.(tgbotapi.EditMessageTextConfig); ok && f.editErr != nil {
		return nil, f.editErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// texts returns the text of every sent message.
func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) edits() []tgbotapi.EditMessageTextConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.EditMessageTextConfig
	for _, c := range f.requests {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeAPI) answers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if a, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, a)
		}
	}
	return out
}

type fakeUsers struct {
	mu    sync.Mutex
	added []int64
	err   error
}

func (f *fakeUsers) AddUser(_ context.Context, id int64, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, id)
	return f.err
}

// echoHandler answers /echo with its arguments and "echo:x" callbacks with an edit.
type echoHandler struct {
	name     string
	commands []Command
	panics   bool
	calls    atomic.Int32
}

func newEchoHandler(name string) *echoHandler {
	return &echoHandler{
		name: name,
		commands: []Command{
			{Name: "echo", Args: "<text>", Description: "Echo text"},
			{Name: "secret", Description: "Admins only", Admin: true},
			{Name: "hidden", Description: "Not listed", Hidden: true},
		},
	}
}

func (h *echoHandler) Name() string        { return h.name }
func (h *echoHandler) Commands() []Command { return h.commands }

func (h *echoHandler) HandleCommand(_ context.Context, req *Request) []Reply {
	h.calls.Add(1)
	if h.panics {
		panic("boom")
	}
	return []Reply{Text(req.Command + ":" + req.Args)}
}

func (h *echoHandler) CanHandleCallback(data string) bool {
	return strings.HasPrefix(data, "echo:")
}

func (h *echoHandler) HandleCallback(_ context.Context, req *Request) []Reply {
	_, params := ParseCallback(req.Data)
	if len(params) == 0 || params[0] == "stale" {
		return nil
	}
	r := EditWithKeyboard("edited "+params[0], tgbotapi.NewInlineKeyboardMarkup())
	r.Notice = "done"
	return []Reply{r}
}

func commandMessage(userID int64, chatType, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, FirstName: "Selam", UserName: "selam"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: chatType},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		n := len(text)
		if i := strings.IndexByte(text, ' '); i >= 0 {
			n = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	return msg
}

func commandUpdate(id int, userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, Message: commandMessage(userID, "private", text)}
}

func callbackUpdate(id int, userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: userID, FirstName: "Selam"},
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: userID, Type: "private"}},
		Data:    data,
	}}
}

var errNotModified = errors.New("Bad Request: message is not modified")
