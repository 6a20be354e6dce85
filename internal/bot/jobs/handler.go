// Package jobs implements the job seeker commands: browsing, search,
// job details, bookmarks, applications and the user profile.
package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/pagination"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

// Store is the part of the query façade job seekers use.
type Store interface {
	storage.UserRepository
	storage.JobRepository
	storage.ApplicationRepository
	storage.SavedJobRepository
}

// ApplicationRecorder counts submitted applications.
type ApplicationRecorder interface {
	RecordApplication()
}

const (
	moduleName      = "jobs"
	defaultPageSize = 5
)

var (
	cmdJobs    = bot.Command{Name: "jobs", Args: "[category]", Description: "Browse jobs by category"}
	cmdSearch  = bot.Command{Name: "search", Args: "<keyword>", Description: "Search job titles, companies and descriptions"}
	cmdView    = bot.Command{Name: "view", Args: "<jobId>", Description: "Show a job"}
	cmdApply   = bot.Command{Name: "apply", Args: "<jobId> name | email | phone | cover letter", Description: "Apply for a job"}
	cmdSave    = bot.Command{Name: "save", Args: "<jobId>", Description: "Bookmark a job"}
	cmdUnsave  = bot.Command{Name: "unsave", Args: "<jobId>", Description: "Remove a bookmark"}
	cmdSaved   = bot.Command{Name: "saved", Description: "Your bookmarked jobs"}
	cmdMyApps  = bot.Command{Name: "myapps", Description: "Track your applications"}
	cmdProfile = bot.Command{Name: "profile", Args: "[phone | email | skills | years]", Description: "View or update your profile"}
)

// Handler handles job seeker commands and the browsing keyboards.
type Handler struct {
	store    Store
	catalog  config.Catalog
	logger   *logger.Logger
	metrics  ApplicationRecorder
	pageSize int
	now      func() time.Time
}

// NewHandler creates a jobs handler.
func NewHandler(store Store, catalog config.Catalog, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:    store,
		catalog:  catalog,
		logger:   log,
		pageSize: defaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the module name.
func (h *Handler) Name() string { return moduleName }

// Commands lists the job seeker commands.
func (h *Handler) Commands() []bot.Command {
	return []bot.Command{cmdJobs, cmdSearch, cmdView, cmdApply, cmdSave, cmdUnsave, cmdSaved, cmdMyApps, cmdProfile}
}

// HandleCommand dispatches a job seeker command.
func (h *Handler) HandleCommand(ctx context.Context, req *bot.Request) []bot.Reply {
	switch req.Command {
	case cmdJobs.Name:
		return h.handleJobs(ctx, req)
	case cmdSearch.Name:
		return h.handleSearch(ctx, req)
	case cmdView.Name:
		id, ok := bot.ParseID(req.Args)
		if !ok {
			return []bot.Reply{bot.UsageReply(cmdView)}
		}
		return h.viewJob(ctx, req, id)
	case cmdApply.Name:
		return h.handleApply(ctx, req)
	case cmdSave.Name, cmdUnsave.Name:
		return h.handleBookmark(ctx, req)
	case cmdSaved.Name:
		return h.handleSaved(ctx, req)
	case cmdMyApps.Name:
		return h.handleMyApps(ctx, req)
	case cmdProfile.Name:
		return h.handleProfile(ctx, req)
	}
	return nil
}

func (h *Handler) handleJobs(ctx context.Context, req *bot.Request) []bot.Reply {
	if req.Args == "" {
		return []bot.Reply{h.categoryMenu(ctx, false)}
	}
	entry, ok := h.catalog.MatchCategory(req.Args)
	if !ok {
		return []bot.Reply{bot.Text(fmt.Sprintf("⚠️ Unknown category '%s'.\nAvailable: %s",
			tgutil.Escape(req.Args), strings.Join(h.catalog.CategoryKeys(), ", ")))}
	}
	return []bot.Reply{h.listPage(ctx, entry.Key, 1, false)}
}

// categoryMenu renders the category keyboard with live counts.
func (h *Handler) categoryMenu(ctx context.Context, edit bool) bot.Reply {
	counts, err := h.store.CountJobsByCategory(ctx)
	if err != nil {
		h.logger.WithError(err).WarnContext(ctx, "Failed to count jobs by category")
		return bot.ErrorReply(err, "")
	}
	reply := bot.WithKeyboard("📁 <b>Select Job Category:</b>", tgutil.CategoryKeyboard(h.catalog, counts))
	reply.Edit = edit
	return reply
}

// listPage renders one page of active jobs. An empty category lists all.
func (h *Handler) listPage(ctx context.Context, category string, pageNum int, edit bool) bot.Reply {
	total, err := h.store.CountJobs(ctx, category, "")
	if err != nil {
		return bot.ErrorReply(err, "")
	}
	page := pagination.New(total, pageNum, h.pageSize)

	jobs, err := h.store.ListJobs(ctx, storage.JobFilter{Category: category, Limit: page.Size, Offset: page.Offset()})
	if err != nil {
		return bot.ErrorReply(err, "")
	}

	title := "🆕 Latest Jobs"
	pageData := tgutil.LatestData
	if category != "" {
		entry, _ := h.catalog.Category(category)
		title = entry.Display() + " Jobs"
		pageData = func(n int) string { return tgutil.BrowseData(category, n) }
	}

	reply := bot.WithKeyboard(tgutil.FormatJobList(title, jobs, page), tgutil.PageKeyboard(jobs, page, pageData))
	reply.Edit = edit
	return reply
}

func (h *Handler) handleSearch(ctx context.Context, req *bot.Request) []bot.Reply {
	if req.Args == "" {
		return []bot.Reply{bot.UsageReply(cmdSearch)}
	}
	jobs, err := h.store.SearchJobs(ctx, req.Args)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, cmdSearch.Usage())}
	}
	text := tgutil.FormatSearchResults(req.Args, jobs)
	if len(jobs) == 0 {
		return []bot.Reply{bot.WithKeyboard(text, tgutil.MainMenuKeyboard())}
	}
	return []bot.Reply{bot.Text(text)}
}

// viewJob shows a job card, counting the view and logging the interaction.
func (h *Handler) viewJob(ctx context.Context, req *bot.Request, jobID int64) []bot.Reply {
	view, err := h.store.ViewJob(ctx, jobID, req.UserID)
	if err != nil {
		if domerrors.IsNotFound(err) {
			return []bot.Reply{bot.WithKeyboard("❌ Job not found or has been removed.", tgutil.MainMenuKeyboard())}
		}
		return []bot.Reply{bot.ErrorReply(err, cmdView.Usage())}
	}
	return []bot.Reply{bot.WithKeyboard(h.card(view.Job, view.HasApplied), tgutil.JobActionsKeyboard(jobID, view.IsSaved))}
}

func (h *Handler) card(job storage.Job, applied bool) string {
	text := tgutil.FormatJobCard(job, h.catalog, h.now())
	if applied {
		return text + "\n✅ You have applied for this job."
	}
	return text + fmt.Sprintf("\n📝 Apply: /apply %d Full Name | email | phone | cover letter", job.ID)
}

func (h *Handler) handleApply(ctx context.Context, req *bot.Request) []bot.Reply {
	idArg, rest := bot.SplitFirst(req.Args)
	jobID, ok := bot.ParseID(idArg)
	if !ok {
		return []bot.Reply{bot.UsageReply(cmdApply)}
	}
	fields := bot.SplitFields(rest, 4)
	app := storage.NewApplication{
		JobID:       jobID,
		ApplicantID: req.UserID,
		FullName:    fields[0],
		Email:       fields[1],
		Phone:       fields[2],
		CoverLetter: fields[3],
	}
	h.fillFromProfile(ctx, req, &app)

	appID, err := h.store.RecordApplication(ctx, app)
	if err != nil {
		if domerrors.IsConflict(err) {
			return []bot.Reply{bot.Text("ℹ️ You have already applied for this job. Track it with /myapps.")}
		}
		if domerrors.IsNotFound(err) {
			return []bot.Reply{bot.Text("❌ This job is no longer accepting applications.")}
		}
		return []bot.Reply{bot.ErrorReply(err, cmdApply.Usage())}
	}
	if h.metrics != nil {
		h.metrics.RecordApplication()
	}

	h.logger.WithField("job_id", jobID).WithField("application_id", appID).InfoContext(ctx, "Application submitted")
	return []bot.Reply{bot.Text(fmt.Sprintf("✅ <b>Application submitted!</b>\n\n"+
		"Job #%d · application #%d\nThe employer will review it soon. Track it with /myapps.", jobID, appID))}
}

// fillFromProfile completes blank application fields from Telegram and the stored profile.
func (h *Handler) fillFromProfile(ctx context.Context, req *bot.Request, app *storage.NewApplication) {
	if app.FullName != "" && app.Email != "" && app.Phone != "" {
		return
	}
	user, err := h.store.GetUser(ctx, req.UserID)
	if err != nil {
		h.logger.WithError(err).DebugContext(ctx, "No stored profile for application")
		user = &storage.User{FirstName: req.FirstName, LastName: req.LastName}
	}
	if app.FullName == "" {
		app.FullName = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	if app.Email == "" {
		app.Email = user.Email
	}
	if app.Phone == "" {
		app.Phone = user.Phone
	}
}

func (h *Handler) handleBookmark(ctx context.Context, req *bot.Request) []bot.Reply {
	save := req.Command == cmdSave.Name
	cmd := cmdUnsave
	if save {
		cmd = cmdSave
	}
	jobID, ok := bot.ParseID(req.Args)
	if !ok {
		return []bot.Reply{bot.UsageReply(cmd)}
	}

	if save {
		created, err := h.store.SaveJob(ctx, req.UserID, jobID)
		if err != nil {
			return []bot.Reply{bot.ErrorReply(err, cmd.Usage())}
		}
		if !created {
			return []bot.Reply{bot.Text("ℹ️ Job already in your saved list. See /saved.")}
		}
		return []bot.Reply{bot.Text(fmt.Sprintf("⭐ Job #%d saved. See /saved.", jobID))}
	}

	if err := h.store.UnsaveJob(ctx, req.UserID, jobID); err != nil {
		if domerrors.IsNotFound(err) {
			return []bot.Reply{bot.Text("ℹ️ That job is not in your saved list.")}
		}
		return []bot.Reply{bot.ErrorReply(err, cmd.Usage())}
	}
	return []bot.Reply{bot.Text(fmt.Sprintf("✖️ Job #%d removed from your saved list.", jobID))}
}

func (h *Handler) handleSaved(ctx context.Context, req *bot.Request) []bot.Reply {
	saved, err := h.store.ListSavedJobs(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	if len(saved) == 0 {
		return []bot.Reply{bot.Text("⭐ <b>Saved Jobs</b>\n\nNothing saved yet. Tap ⭐ Save on a job to bookmark it.")}
	}
	jobs := make([]storage.Job, len(saved))
	for i, s := range saved {
		jobs[i] = s.Job
	}
	page := pagination.New(len(jobs), 1, len(jobs))
	return []bot.Reply{bot.Text(tgutil.FormatJobList("⭐ Saved Jobs", jobs, page))}
}

func (h *Handler) handleMyApps(ctx context.Context, req *bot.Request) []bot.Reply {
	apps, err := h.store.ListUserApplications(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	return []bot.Reply{bot.Text(tgutil.FormatApplications(apps))}
}

func (h *Handler) handleProfile(ctx context.Context, req *bot.Request) []bot.Reply {
	if req.Args != "" {
		update, err := parseProfileUpdate(req.Args)
		if err != nil {
			return []bot.Reply{bot.ErrorReply(err, cmdProfile.Usage())}
		}
		if err := h.store.UpdateUserProfile(ctx, req.UserID, update); err != nil {
			return []bot.Reply{bot.ErrorReply(err, cmdProfile.Usage())}
		}
	}

	user, err := h.store.GetUser(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	text := tgutil.FormatProfile(*user)
	if req.Args != "" {
		text = "✅ Profile updated.\n\n" + text
	} else {
		text += "\n\nUpdate with /profile phone | email | skills | years (leave a field blank to keep it)"
	}
	return []bot.Reply{bot.Text(text)}
}

// parseProfileUpdate reads "phone | email | skills | years"; blank fields are left unchanged.
func parseProfileUpdate(args string) (storage.ProfileUpdate, error) {
	fields := bot.SplitFields(args, 4)
	var update storage.ProfileUpdate
	if fields[0] != "" {
		update.Phone = &fields[0]
	}
	if fields[1] != "" {
		update.Email = &fields[1]
	}
	if fields[2] != "" {
		update.Skills = &fields[2]
	}
	if fields[3] != "" {
		years, err := strconv.Atoi(fields[3])
		if err != nil {
			return update, domerrors.NewValidationError("experience_years", "years of experience must be a whole number")
		}
		update.ExperienceYears = &years
	}
	return update, nil
}
