package bot

import (
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

const internalErrorText = "❌ Something went wrong, please try again later."

// ErrorReply maps a façade error to a user-facing reply. usage is appended
// to invalid-input replies so the user sees the expected syntax.
func ErrorReply(err error, usage string) Reply {
	msg := tgutil.Escape(domerrors.GetUserMessage(err))
	switch {
	case domerrors.IsInvalidInput(err):
		text := "⚠️ " + msg
		if usage != "" {
			text += "\n\nUsage: " + tgutil.Escape(usage)
		}
		return Text(text)
	case domerrors.IsNotFound(err):
		return Text("❌ " + msg)
	case domerrors.IsForbidden(err):
		return Text("⛔ " + msg)
	case domerrors.IsConflict(err):
		return Text("ℹ️ " + msg)
	case domerrors.IsUnavailable(err), domerrors.IsRateLimitExceeded(err):
		return Text("⏳ " + msg)
	default:
		return Text(internalErrorText)
	}
}

// UsageReply tells the user how to call a command.
func UsageReply(c Command) Reply {
	text := "⚠️ Usage: " + tgutil.Escape(c.Usage())
	if c.Description != "" {
		text += "\n" + tgutil.Escape(c.Description)
	}
	return Text(text)
}
