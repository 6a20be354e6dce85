package jobs

import (
	"context"
	"strconv"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

// CanHandleCallback reports whether data belongs to the browsing keyboards.
func (h *Handler) CanHandleCallback(data string) bool {
	action, _ := bot.ParseCallback(data)
	switch action {
	case tgutil.CallbackCategories, tgutil.CallbackBrowse, tgutil.CallbackLatest,
		tgutil.CallbackView, tgutil.CallbackSave, tgutil.CallbackUnsave:
		return true
	}
	return false
}

// HandleCallback handles a button press. Returning nil tells the processor the
// button is stale.
func (h *Handler) HandleCallback(ctx context.Context, req *bot.Request) []bot.Reply {
	action, params := bot.ParseCallback(req.Data)
	switch action {
	case tgutil.CallbackCategories:
		return []bot.Reply{h.categoryMenu(ctx, true)}

	case tgutil.CallbackBrowse:
		if len(params) != 2 {
			return nil
		}
		if _, ok := h.catalog.Category(params[0]); !ok {
			return nil
		}
		page, err := strconv.Atoi(params[1])
		if err != nil {
			return nil
		}
		return []bot.Reply{h.listPage(ctx, params[0], page, true)}

	case tgutil.CallbackLatest:
		if len(params) != 1 {
			return nil
		}
		page, err := strconv.Atoi(params[0])
		if err != nil {
			return nil
		}
		return []bot.Reply{h.listPage(ctx, "", page, true)}

	case tgutil.CallbackView:
		jobID, ok := singleID(params)
		if !ok {
			return nil
		}
		return h.viewJob(ctx, req, jobID)

	case tgutil.CallbackSave, tgutil.CallbackUnsave:
		jobID, ok := singleID(params)
		if !ok {
			return nil
		}
		return h.toggleSaved(ctx, req, jobID, action == tgutil.CallbackSave)
	}
	return nil
}

// toggleSaved flips the bookmark and re-renders the card in place.
func (h *Handler) toggleSaved(ctx context.Context, req *bot.Request, jobID int64, save bool) []bot.Reply {
	notice := "⭐ Saved"
	if save {
		if _, err := h.store.SaveJob(ctx, req.UserID, jobID); err != nil {
			return []bot.Reply{{Notice: noticeFor(err)}}
		}
	} else {
		notice = "✖️ Removed from saved"
		if err := h.store.UnsaveJob(ctx, req.UserID, jobID); err != nil && !domerrors.IsNotFound(err) {
			return []bot.Reply{{Notice: noticeFor(err)}}
		}
	}

	// GetJobByID rather than ViewJob: a bookmark toggle is not a view.
	job, err := h.store.GetJobByID(ctx, jobID)
	if err != nil {
		return []bot.Reply{{Notice: noticeFor(err)}}
	}
	applied, err := h.store.HasApplied(ctx, jobID, req.UserID)
	if err != nil {
		return []bot.Reply{{Notice: noticeFor(err)}}
	}
	reply := bot.EditWithKeyboard(h.card(*job, applied), tgutil.JobActionsKeyboard(jobID, save))
	reply.Notice = notice
	return []bot.Reply{reply}
}

func noticeFor(err error) string {
	if domerrors.IsNotFound(err) {
		return "❌ Job not found or has been removed."
	}
	return domerrors.GetUserMessage(err)
}

func singleID(params []string) (int64, bool) {
	if len(params) != 1 {
		return 0, false
	}
	return bot.ParseID(params[0])
}
