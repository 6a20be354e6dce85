package admin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

func setupTestHandler(t *testing.T) (*Handler, *storage.DB) {
	t.Helper()
	catalog := config.DefaultCatalog()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	db, err := storage.New(context.Background(), ":memory:", storage.Options{
		Categories: catalog.CategoryKeys(),
		JobTypes:   catalog.JobTypeKeys(),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewHandler(db, catalog, logger.New("error")), db
}

func run(h *Handler, name, args string) string {
	replies := h.HandleCommand(context.Background(), &bot.Request{UserID: 1, ChatID: 1, IsAdmin: true, Command: name, Args: args})
	if len(replies) != 1 {
		return ""
	}
	return replies[0].Text
}

func TestCommandsAreAdminOnly(t *testing.T) {
	h, _ := setupTestHandler(t)
	for _, c := range h.Commands() {
		assert.True(t, c.Admin, c.Name)
	}

	registry := bot.NewRegistry()
	registry.Register(h)
	replies, ok := registry.DispatchCommand(context.Background(), &bot.Request{UserID: 9, Command: "stats"})
	assert.True(t, ok)
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Access denied")
	assert.Empty(t, registry.Commands(false))
	assert.Len(t, registry.Commands(true), 3)
}

func TestStats(t *testing.T) {
	h, db := setupTestHandler(t)
	ctx := context.Background()

	out := run(h, "stats", "")
	assert.Contains(t, out, "Zewed Jobs Statistics")
	assert.Contains(t, out, "last 7 days")
	assert.Contains(t, out, "2026-03-10")

	require.NoError(t, db.AddUser(ctx, 1, "", "Zewed", ""))
	require.NoError(t, db.PromoteToEmployer(ctx, 1, "Zewed Tech Solutions"))
	require.NoError(t, db.AddUser(ctx, 50, "", "Selam", ""))
	jobID, err := db.AddJob(ctx, storage.NewJob{Title: "Go Developer", Company: "Zewed Tech Solutions",
		Category: "tech", JobType: "full_time", Description: "APIs", EmployerID: 1})
	require.NoError(t, err)
	_, err = db.RecordApplication(ctx, storage.NewApplication{JobID: jobID, ApplicantID: 50, FullName: "Selam"})
	require.NoError(t, err)

	out = run(h, "stats", "")
	assert.Contains(t, out, "Employers: 1")
	assert.Contains(t, out, "Active jobs: 1")
	assert.Contains(t, out, "💻 Technology: 1")
	assert.Contains(t, out, "2026-03-10  ▇ 1")
}

func TestEmployer(t *testing.T) {
	h, db := setupTestHandler(t)
	ctx := context.Background()
	require.NoError(t, db.AddUser(ctx, 77, "dawit", "Dawit", ""))

	assert.Contains(t, run(h, "employer", ""), "Usage: /employer")
	assert.Contains(t, run(h, "employer", "77"), "Usage: /employer")
	assert.Contains(t, run(h, "employer", "404 Nobody Inc"), "❌")

	out := run(h, "employer", "77 Creative Ethiopia PLC")
	assert.Contains(t, out, "now an employer for <b>Creative Ethiopia PLC</b>")

	ok, err := db.IsEmployer(ctx, 77)
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := db.GetUser(ctx, 77)
	require.NoError(t, err)
	assert.Equal(t, "Creative Ethiopia PLC", u.Company)

	long := "77 " + strings.Repeat("x", 150)
	assert.Contains(t, run(h, "employer", long), "now an employer")
	u, _ = db.GetUser(ctx, 77)
	assert.Len(t, []rune(u.Company), maxCompanyLen)
}

func TestRecent(t *testing.T) {
	h, db := setupTestHandler(t)
	ctx := context.Background()
	assert.Contains(t, run(h, "recent", ""), "No applications yet")

	require.NoError(t, db.AddUser(ctx, 1, "", "Zewed", ""))
	require.NoError(t, db.PromoteToEmployer(ctx, 1, "Zewed Tech Solutions"))
	require.NoError(t, db.AddUser(ctx, 50, "", "Selam", ""))
	jobID, err := db.AddJob(ctx, storage.NewJob{Title: "Go Developer", Company: "Zewed Tech Solutions",
		Category: "tech", JobType: "full_time", Description: "APIs", EmployerID: 1})
	require.NoError(t, err)
	_, err = db.RecordApplication(ctx, storage.NewApplication{JobID: jobID, ApplicantID: 50, FullName: "Selam <3"})
	require.NoError(t, err)

	out := run(h, "recent", "")
	assert.Contains(t, out, "Recent Applications")
	assert.Contains(t, out, "Selam &lt;3")
	assert.Contains(t, out, "pending")
}

func TestRecent_RespectsStoreLimit(t *testing.T) {
	catalog := config.DefaultCatalog()
	db, err := storage.New(context.Background(), ":memory:", storage.Options{
		MaxPageSize: 3,
		Categories:  catalog.CategoryKeys(),
		JobTypes:    catalog.JobTypeKeys(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := NewHandler(db, catalog, logger.New("error"))
	assert.Equal(t, 3, h.recentLimit)

	ctx := context.Background()
	require.NoError(t, db.AddUser(ctx, 1, "", "Zewed", ""))
	require.NoError(t, db.PromoteToEmployer(ctx, 1, "Zewed Tech Solutions"))
	jobID, err := db.AddJob(ctx, storage.NewJob{Title: "Go Developer", Company: "Zewed Tech Solutions",
		Category: "tech", JobType: "full_time", Description: "APIs", EmployerID: 1})
	require.NoError(t, err)
	for id := int64(50); id < 55; id++ {
		require.NoError(t, db.AddUser(ctx, id, "", "Applicant", ""))
		_, err = db.RecordApplication(ctx, storage.NewApplication{JobID: jobID, ApplicantID: id, FullName: "Applicant"})
		require.NoError(t, err)
	}

	out := run(h, "recent", "")
	require.Contains(t, out, "Recent Applications")
	assert.Equal(t, 3, strings.Count(out, "→ job #"))
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", bar(0))
	assert.Equal(t, "▇▇▇", bar(3))
	assert.Equal(t, strings.Repeat("▇", 10), bar(25))
}
