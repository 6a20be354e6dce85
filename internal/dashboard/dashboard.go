// Package dashboard serves the read-side JSON API over the job board.
package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/metrics"
	"github.com/zewedjobs/zewed-jobs-go/internal/pagination"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

const (
	defaultPageSize  = 20
	defaultTrendDays = 7
	overviewLimit    = 5
	statsKey         = "dashboard_stats"
)

// Store is the subset of the façade the dashboard reads.
type Store interface {
	storage.JobRepository
	storage.StatsRepository
	ListJobApplications(ctx context.Context, jobID, employerID int64) ([]storage.Application, error)
	RecentApplications(ctx context.Context, limit int) ([]storage.Application, error)
}

// optionsReporter is implemented by *storage.DB; it exposes MaxPageSize.
type optionsReporter interface {
	Options() storage.Options
}

// Handler serves the /api routes.
type Handler struct {
	store         Store
	catalog       config.Catalog
	logger        *logger.Logger
	metrics       *metrics.Metrics
	adminToken    string
	pageSize      int
	overviewLimit int
	queryTimeout  time.Duration

	statsGroup singleflight.Group
}

// NewHandler creates a dashboard handler.
func NewHandler(store Store, catalog config.Catalog, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		store:         store,
		catalog:       catalog,
		logger:        log.WithModule("dashboard"),
		pageSize:      defaultPageSize,
		overviewLimit: overviewLimit,
		queryTimeout:  config.DashboardQuery,
	}
	for _, opt := range opts {
		opt(h)
	}
	// Stay within what the store accepts, or every list call would be rejected.
	if o, ok := store.(optionsReporter); ok {
		if limit := o.Options().MaxPageSize; limit > 0 {
			h.pageSize = min(h.pageSize, limit)
			h.overviewLimit = min(h.overviewLimit, limit)
		}
	}
	return h
}

// Register mounts the API on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/stats", h.getStats)
	api.GET("/stats/daily", h.getDailyStats)
	api.GET("/overview", h.getOverview)
	api.GET("/categories", h.getCategories)
	api.GET("/jobs", h.listJobs)
	api.GET("/jobs/:id", h.getJob)
	api.GET("/jobs/:id/applications", h.requireAdmin(), h.listJobApplications)
	api.GET("/search", h.search)
}

func (h *Handler) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.queryTimeout)
}

// statistics coalesces concurrent callers onto one query.
func (h *Handler) statistics(ctx context.Context) (*storage.Statistics, error) {
	v, err, shared := h.statsGroup.Do(statsKey, func() (any, error) {
		// Detached so one caller's disconnect does not fail the others.
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.queryTimeout)
		defer cancel()
		return h.store.GetStatistics(qctx)
	})
	if shared {
		h.metrics.RecordSingleflightDedup(statsKey)
	}
	if err != nil {
		return nil, err
	}
	return v.(*storage.Statistics), nil
}

func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.statistics(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getDailyStats(c *gin.Context) {
	days := defaultTrendDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(c, domerrors.NewValidationError("days", "days must be a whole number"))
			return
		}
		days = n
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	counts, err := h.store.DailyApplications(ctx, days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "applications": counts})
}

// categorySummary is a catalogue entry with its active job count.
type categorySummary struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Emoji string `json:"emoji,omitempty"`
	Count int64  `json:"count"`
}

func (h *Handler) categorySummaries(counts []storage.CategoryCount) []categorySummary {
	byKey := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKey[c.Category] = c.Count
	}
	out := make([]categorySummary, 0, len(h.catalog.Categories))
	for _, e := range h.catalog.Categories {
		out = append(out, categorySummary{Key: e.Key, Label: e.Label, Emoji: e.Emoji, Count: byKey[e.Key]})
	}
	return out
}

func (h *Handler) getCategories(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	counts, err := h.store.CountJobsByCategory(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": h.categorySummaries(counts),
		"job_types":  h.catalog.JobTypes,
	})
}

func (h *Handler) getOverview(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	var (
		stats      *storage.Statistics
		categories []storage.CategoryCount
		daily      []storage.DailyCount
		recentJobs []storage.Job
		recentApps []storage.Application
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = h.statistics(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = h.store.CountJobsByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		daily, err = h.store.DailyApplications(gctx, defaultTrendDays)
		return err
	})
	g.Go(func() (err error) {
		recentJobs, err = h.store.ListJobs(gctx, storage.JobFilter{Limit: h.overviewLimit})
		return err
	})
	g.Go(func() (err error) {
		recentApps, err = h.store.RecentApplications(gctx, h.overviewLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":               stats,
		"categories":          h.categorySummaries(categories),
		"daily_applications":  daily,
		"recent_jobs":         nonNil(recentJobs),
		"recent_applications": nonNil(recentApps),
	})
}

func (h *Handler) listJobs(c *gin.Context) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(c, domerrors.NewValidationError("page", "page must be a positive whole number"))
			return
		}
		page = n
	}
	category := strings.TrimSpace(c.Query("category"))
	jobType := strings.TrimSpace(c.Query("type"))

	ctx, cancel := h.queryContext(c)
	defer cancel()

	total, err := h.store.CountJobs(ctx, category, jobType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	p := pagination.New(total, page, h.pageSize)

	jobs, err := h.store.ListJobs(ctx, storage.JobFilter{
		Category: category,
		JobType:  jobType,
		Limit:    p.Size,
		Offset:   p.Offset(),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":        nonNil(jobs),
		"page":        p.Number,
		"page_size":   p.Size,
		"total":       p.TotalItems,
		"total_pages": p.TotalPages,
	})
}

func (h *Handler) getJob(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	ctx, cancel := h.queryContext(c)
	defer cancel()

	job, err := h.store.GetJobByID(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// listJobApplications lists applicants on behalf of the job's owner.
func (h *Handler) listJobApplications(c *gin.Context) {
	id, ok := h.jobID(c)
	if !ok {
		return
	}
	ctx, cancel := h.queryContext(c)
	defer cancel()

	job, err := h.store.GetJobByID(ctx, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	apps, err := h.store.ListJobApplications(ctx, id, job.EmployerID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": id, "applications": nonNil(apps)})
}

func (h *Handler) search(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	q := c.Query("q")
	jobs, err := h.store.SearchJobs(ctx, q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": strings.TrimSpace(q), "jobs": nonNil(jobs)})
}

func (h *Handler) jobID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, domerrors.NewValidationError("id", "job id must be a positive number"))
		return 0, false
	}
	return id, true
}

// nonNil keeps empty lists as [] rather than null in responses.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
