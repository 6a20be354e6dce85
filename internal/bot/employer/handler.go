// Package employer implements the employer commands: posting jobs, listing
// them, reviewing applicants and closing listings.
package employer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/ratelimit"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

// Store is the part of the query façade employers use.
type Store interface {
	storage.UserRepository
	storage.JobRepository
	storage.ApplicationRepository
}

// PostRecorder counts posted jobs.
type PostRecorder interface {
	RecordJobPosted(category string)
}

const (
	moduleName = "employer"

	notEmployerText = "⛔ Only registered employers can do this.\nAsk an admin to register your company."
	postingOffText  = "⏸ Job posting is currently disabled."
)

// postFields is the field order of /post.
var postFields = []string{"title", "company", "category", "type", "location", "salary", "description", "requirements", "email", "phone"}

var (
	cmdPost = bot.Command{
		Name:        "post",
		Args:        strings.Join(postFields, " | "),
		Description: "Post a job (company defaults to yours; location, salary, requirements and contacts are optional)",
	}
	cmdMyJobs     = bot.Command{Name: "myjobs", Description: "Your job posts"}
	cmdApplicants = bot.Command{Name: "applicants", Args: "<jobId>", Description: "Applications to one of your jobs"}
	cmdStatus     = bot.Command{Name: "status", Args: "<applicationId> reviewed|accepted|rejected", Description: "Update an application status"}
	cmdClose      = bot.Command{Name: "close", Args: "<jobId>", Description: "Close one of your job posts"}
)

// Handler handles employer commands.
type Handler struct {
	store          Store
	catalog        config.Catalog
	logger         *logger.Logger
	metrics        PostRecorder
	postQuota      *ratelimit.KeyedLimiter[int64]
	postingEnabled bool
}

// NewHandler creates an employer handler. Posting is enabled and unlimited
// unless configured otherwise.
func NewHandler(store Store, catalog config.Catalog, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:          store,
		catalog:        catalog,
		logger:         log,
		postingEnabled: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the module name.
func (h *Handler) Name() string { return moduleName }

// Commands lists the employer commands.
func (h *Handler) Commands() []bot.Command {
	return []bot.Command{cmdPost, cmdMyJobs, cmdApplicants, cmdStatus, cmdClose}
}

// CanHandleCallback is always false; employer flows are command driven.
func (h *Handler) CanHandleCallback(string) bool { return false }

// HandleCallback is never called.
func (h *Handler) HandleCallback(context.Context, *bot.Request) []bot.Reply { return nil }

// HandleCommand checks the employer role, then dispatches.
func (h *Handler) HandleCommand(ctx context.Context, req *bot.Request) []bot.Reply {
	ok, err := h.store.IsEmployer(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	if !ok {
		return []bot.Reply{bot.Text(notEmployerText)}
	}

	switch req.Command {
	case cmdPost.Name:
		return h.handlePost(ctx, req)
	case cmdMyJobs.Name:
		return h.handleMyJobs(ctx, req)
	case cmdApplicants.Name:
		return h.handleApplicants(ctx, req)
	case cmdStatus.Name:
		return h.handleStatus(ctx, req)
	case cmdClose.Name:
		return h.handleClose(ctx, req)
	}
	return nil
}

func (h *Handler) handlePost(ctx context.Context, req *bot.Request) []bot.Reply {
	if !h.postingEnabled {
		return []bot.Reply{bot.Text(postingOffText)}
	}
	if req.Args == "" {
		return []bot.Reply{h.postHelp()}
	}
	// Checked before the insert and consumed after it, so failed posts are free.
	if h.postQuota != nil && h.postQuota.Remaining(req.UserID) == 0 {
		return []bot.Reply{bot.Text("⏳ You have reached your daily posting limit. Try again tomorrow.")}
	}

	job, err := h.parsePost(ctx, req)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, cmdPost.Usage())}
	}

	jobID, err := h.store.AddJob(ctx, job)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, cmdPost.Usage())}
	}
	if h.postQuota != nil {
		h.postQuota.Allow(req.UserID)
	}
	if h.metrics != nil {
		h.metrics.RecordJobPosted(job.Category)
	}

	h.logger.WithField("job_id", jobID).WithField("category", job.Category).InfoContext(ctx, "Job posted")
	return []bot.Reply{bot.Text(fmt.Sprintf("✅ <b>Job posted!</b>\n\n"+
		"#%d %s\nSee it with /view %d. Applications arrive in /applicants %d.",
		jobID, tgutil.Escape(job.Title), jobID, jobID))}
}

// parsePost maps the /post fields onto a NewJob. Category and type accept
// keys or labels.
func (h *Handler) parsePost(ctx context.Context, req *bot.Request) (storage.NewJob, error) {
	f := bot.SplitFields(req.Args, len(postFields))
	job := storage.NewJob{
		Title:        f[0],
		Company:      f[1],
		Location:     f[4],
		Salary:       f[5],
		Description:  f[6],
		Requirements: f[7],
		EmployerID:   req.UserID,
		ContactEmail: f[8],
		ContactPhone: f[9],
	}

	if job.Company == "" {
		user, err := h.store.GetUser(ctx, req.UserID)
		if err != nil {
			return job, err
		}
		job.Company = user.Company
	}

	category, ok := h.catalog.MatchCategory(f[2])
	if !ok {
		return job, domerrors.NewValidationError("category",
			"unknown category, use one of: "+strings.Join(h.catalog.CategoryKeys(), ", "))
	}
	job.Category = category.Key

	jobType, ok := h.catalog.MatchJobType(f[3])
	if !ok {
		return job, domerrors.NewValidationError("job_type",
			"unknown job type, use one of: "+strings.Join(h.catalog.JobTypeKeys(), ", "))
	}
	job.JobType = jobType.Key
	return job, nil
}

func (h *Handler) postHelp() bot.Reply {
	var b strings.Builder
	b.WriteString("📝 <b>Post a Job</b>\n\n")
	fmt.Fprintf(&b, "Send everything in one message, fields separated by %s:\n", tgutil.Escape(bot.FieldSeparator))
	fmt.Fprintf(&b, "<code>%s</code>\n\n", tgutil.Escape(cmdPost.Usage()))
	fmt.Fprintf(&b, "Categories: %s\n", strings.Join(h.catalog.CategoryKeys(), ", "))
	fmt.Fprintf(&b, "Types: %s\n\n", strings.Join(h.catalog.JobTypeKeys(), ", "))
	b.WriteString("Example:\n<code>/post Go Developer | | tech | full_time | Addis Ababa | 30,000 ETB | Build APIs | 3+ years Go | hr@example.com |</code>")
	return bot.Text(b.String())
}

func (h *Handler) handleMyJobs(ctx context.Context, req *bot.Request) []bot.Reply {
	jobs, err := h.store.ListEmployerJobs(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	return []bot.Reply{bot.Text(tgutil.FormatEmployerJobs(jobs))}
}

func (h *Handler) handleApplicants(ctx context.Context, req *bot.Request) []bot.Reply {
	jobID, ok := bot.ParseID(req.Args)
	if !ok {
		return []bot.Reply{bot.UsageReply(cmdApplicants)}
	}
	// Ownership is enforced by ListJobApplications.
	apps, err := h.store.ListJobApplications(ctx, jobID, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(ownerOnly("applicants", err), cmdApplicants.Usage())}
	}
	// GetJobByID only sees active listings; closed ones still have applicants.
	jobs, err := h.store.ListEmployerJobs(ctx, req.UserID)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	i := slices.IndexFunc(jobs, func(j storage.Job) bool { return j.ID == jobID })
	if i < 0 {
		return []bot.Reply{bot.ErrorReply(domerrors.ErrNotFound, "")}
	}
	return []bot.Reply{bot.Text(tgutil.FormatApplicants(jobs[i], apps))}
}

func (h *Handler) handleStatus(ctx context.Context, req *bot.Request) []bot.Reply {
	idArg, statusArg := bot.SplitFirst(req.Args)
	appID, ok := bot.ParseID(idArg)
	if !ok || statusArg == "" {
		return []bot.Reply{bot.UsageReply(cmdStatus)}
	}
	status := storage.ApplicationStatus(strings.ToLower(statusArg))

	if err := h.store.UpdateApplicationStatus(ctx, appID, req.UserID, status); err != nil {
		return []bot.Reply{bot.ErrorReply(ownerOnly("status", err), cmdStatus.Usage())}
	}
	h.logger.WithField("application_id", appID).WithField("status", string(status)).InfoContext(ctx, "Application status updated")
	return []bot.Reply{bot.Text(fmt.Sprintf("%s Application #%d is now <b>%s</b>.", tgutil.StatusEmoji(status), appID, status))}
}

func (h *Handler) handleClose(ctx context.Context, req *bot.Request) []bot.Reply {
	jobID, ok := bot.ParseID(req.Args)
	if !ok {
		return []bot.Reply{bot.UsageReply(cmdClose)}
	}
	if err := h.store.DeactivateJob(ctx, jobID, req.UserID); err != nil {
		return []bot.Reply{bot.ErrorReply(ownerOnly("close", err), cmdClose.Usage())}
	}
	h.logger.WithField("job_id", jobID).InfoContext(ctx, "Job closed")
	return []bot.Reply{bot.Text(fmt.Sprintf("✅ Job #%d closed. It no longer appears in listings.", jobID))}
}

// ownerOnly gives ownership failures a message naming the rule.
func ownerOnly(operation string, err error) error {
	if !domerrors.IsForbidden(err) {
		return err
	}
	return domerrors.NewWrapper(moduleName, operation).Wrap(err, "Only the employer who posted this job can do that.")
}
