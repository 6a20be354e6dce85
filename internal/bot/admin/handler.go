// Package admin implements the operator commands. Every command here is
// admin-only; the registry enforces the gate before the handler runs.
package admin

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

// Store is the part of the query façade operators use.
type Store interface {
	storage.UserRepository
	storage.StatsRepository
	CountJobsByCategory(ctx context.Context) ([]storage.CategoryCount, error)
	RecentApplications(ctx context.Context, limit int) ([]storage.Application, error)
}

const (
	moduleName    = "admin"
	trendDays     = 7
	recentLimit   = 10
	maxCompanyLen = 100
)

var (
	cmdStats    = bot.Command{Name: "stats", Description: "Platform statistics", Admin: true}
	cmdEmployer = bot.Command{Name: "employer", Args: "<userId> <company>", Description: "Register a user as an employer", Admin: true}
	cmdRecent   = bot.Command{Name: "recent", Description: "Latest applications across all jobs", Admin: true}
)

// Handler handles operator commands.
type Handler struct {
	store       Store
	catalog     config.Catalog
	logger      *logger.Logger
	recentLimit int
}

// optionsReporter is implemented by *storage.DB.
type optionsReporter interface {
	Options() storage.Options
}

// NewHandler creates an admin handler. The /recent listing never asks for
// more rows than the store's MaxPageSize.
func NewHandler(store Store, catalog config.Catalog, log *logger.Logger) *Handler {
	h := &Handler{store: store, catalog: catalog, logger: log, recentLimit: recentLimit}
	if o, ok := store.(optionsReporter); ok {
		if limit := o.Options().MaxPageSize; limit > 0 {
			h.recentLimit = min(h.recentLimit, limit)
		}
	}
	return h
}

func (h *Handler) Name() string { return moduleName }

func (h *Handler) Commands() []bot.Command {
	return []bot.Command{cmdStats, cmdEmployer, cmdRecent}
}

func (h *Handler) CanHandleCallback(string) bool { return false }

func (h *Handler) HandleCallback(context.Context, *bot.Request) []bot.Reply { return nil }

func (h *Handler) HandleCommand(ctx context.Context, req *bot.Request) []bot.Reply {
	switch req.Command {
	case cmdStats.Name:
		return h.handleStats(ctx)
	case cmdEmployer.Name:
		return h.handleEmployer(ctx, req)
	case cmdRecent.Name:
		return h.handleRecent(ctx)
	}
	return nil
}

// handleStats loads the three aggregates concurrently.
func (h *Handler) handleStats(ctx context.Context) []bot.Reply {
	var (
		stats  *storage.Statistics
		daily  []storage.DailyCount
		counts []storage.CategoryCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats, err = h.store.GetStatistics(gctx)
		return err
	})
	g.Go(func() (err error) {
		daily, err = h.store.DailyApplications(gctx, trendDays)
		return err
	})
	g.Go(func() (err error) {
		counts, err = h.store.CountJobsByCategory(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.WithError(err).ErrorContext(ctx, "Failed to load statistics")
		return []bot.Reply{bot.ErrorReply(err, "")}
	}

	var b strings.Builder
	b.WriteString(tgutil.FormatStatistics(*stats))

	if len(counts) > 0 {
		b.WriteString("\n\n📁 <b>Active jobs by category</b>\n")
		for _, c := range counts {
			name := c.Category
			if entry, ok := h.catalog.Category(c.Category); ok {
				name = entry.Display()
			}
			fmt.Fprintf(&b, "%s: %d\n", tgutil.Escape(name), c.Count)
		}
	}

	fmt.Fprintf(&b, "\n📈 <b>Applications, last %d days</b>\n", trendDays)
	for _, d := range daily {
		fmt.Fprintf(&b, "%s  %s %d\n", d.Day, bar(d.Count), d.Count)
	}
	return []bot.Reply{bot.Text(strings.TrimRight(b.String(), "\n"))}
}

// bar draws a small block chart, one block per application up to ten.
func bar(n int64) string {
	return strings.Repeat("▇", int(min(n, 10)))
}

func (h *Handler) handleEmployer(ctx context.Context, req *bot.Request) []bot.Reply {
	idArg, company := bot.SplitFirst(req.Args)
	userID, ok := bot.ParseID(idArg)
	if !ok || company == "" {
		return []bot.Reply{bot.UsageReply(cmdEmployer)}
	}
	company = tgutil.TruncateRunes(company, maxCompanyLen)

	if err := h.store.PromoteToEmployer(ctx, userID, company); err != nil {
		return []bot.Reply{bot.ErrorReply(err, cmdEmployer.Usage())}
	}
	h.logger.WithField("target_user_id", userID).WithField("company", company).InfoContext(ctx, "User promoted to employer")
	return []bot.Reply{bot.Text(fmt.Sprintf("✅ User %d is now an employer for <b>%s</b>.\nThey can post jobs with /post.",
		userID, tgutil.Escape(company)))}
}

func (h *Handler) handleRecent(ctx context.Context) []bot.Reply {
	apps, err := h.store.RecentApplications(ctx, h.recentLimit)
	if err != nil {
		return []bot.Reply{bot.ErrorReply(err, "")}
	}
	if len(apps) == 0 {
		return []bot.Reply{bot.Text("📝 No applications yet.")}
	}
	var b strings.Builder
	b.WriteString("📝 <b>Recent Applications</b>\n\n")
	for _, a := range apps {
		fmt.Fprintf(&b, "#%d %s → job #%d %s %s · %s\n",
			a.ID, tgutil.Escape(a.FullName), a.JobID, tgutil.StatusEmoji(a.Status), a.Status, tgutil.FormatDate(a.AppliedAt))
	}
	return []bot.Reply{bot.Text(strings.TrimRight(b.String(), "\n"))}
}
