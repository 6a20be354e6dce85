package jobs

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type countingRecorder struct{ n int }

func (c *countingRecorder) RecordApplication() { c.n++ }

type fixture struct {
	h       *Handler
	db      *storage.DB
	metrics *countingRecorder
	jobs    []int64
}

// setupTestHandler seeds an employer, a job seeker (50) and three tech jobs.
func setupTestHandler(t *testing.T) *fixture {
	t.Helper()
	catalog := config.DefaultCatalog()
	now := func() time.Time { return testNow }
	db, err := storage.New(context.Background(), ":memory:", storage.Options{
		Categories: catalog.CategoryKeys(),
		JobTypes:   catalog.JobTypeKeys(),
		Now:        now,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.AddUser(ctx, 1, "hr", "Zewed", "HR"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if err := db.PromoteToEmployer(ctx, 1, "Zewed Tech Solutions"); err != nil {
		t.Fatalf("PromoteToEmployer failed: %v", err)
	}
	if err := db.AddUser(ctx, 50, "selam", "Selam", "Bekele"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	f := &fixture{db: db, metrics: &countingRecorder{}}
	for _, title := range []string{"Senior Go Developer", "Frontend Developer", "DevOps Engineer"} {
		id, err := db.AddJob(ctx, storage.NewJob{
			Title:        title,
			Company:      "Zewed Tech Solutions",
			Category:     "tech",
			JobType:      "full_time",
			Description:  "Build services for our clients.",
			EmployerID:   1,
			ContactEmail: "hr@zewedtech.et",
		})
		if err != nil {
			t.Fatalf("AddJob failed: %v", err)
		}
		f.jobs = append(f.jobs, id)
	}

	f.h = NewHandler(db, catalog, logger.New("error"),
		WithPageSize(2), WithClock(now), WithMetrics(f.metrics))
	return f
}

func command(name, args string) *bot.Request {
	return &bot.Request{UserID: 50, ChatID: 50, Private: true, FirstName: "Selam", LastName: "Bekele", Command: name, Args: args}
}

func callback(data string) *bot.Request {
	return &bot.Request{UserID: 50, ChatID: 50, MessageID: 7, Private: true, CallbackID: "cb", Data: data}
}

func single(t *testing.T, replies []bot.Reply) bot.Reply {
	t.Helper()
	if len(replies) != 1 {
		t.Fatalf("Expected 1 reply, got %d: %+v", len(replies), replies)
	}
	return replies[0]
}

func hasButton(r bot.Reply, data string) bool {
	if r.Keyboard == nil {
		return false
	}
	for _, row := range r.Keyboard.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func TestCommands(t *testing.T) {
	f := setupTestHandler(t)
	if f.h.Name() != "jobs" {
		t.Errorf("Expected module name jobs, got %q", f.h.Name())
	}
	names := make(map[string]bool)
	for _, c := range f.h.Commands() {
		if c.Admin {
			t.Errorf("Job seeker command %s must not be admin-only", c.Name)
		}
		names[c.Name] = true
	}
	for _, want := range []string{"jobs", "search", "view", "apply", "save", "unsave", "saved", "myapps", "profile"} {
		if !names[want] {
			t.Errorf("Missing command %s", want)
		}
	}
}

func TestHandleJobs(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()

	t.Run("category menu", func(t *testing.T) {
		r := single(t, f.h.HandleCommand(ctx, command("jobs", "")))
		if !strings.Contains(r.Text, "Select Job Category") {
			t.Errorf("Unexpected text: %q", r.Text)
		}
		if !hasButton(r, tgutil.BrowseData("tech", 1)) {
			t.Error("Expected a tech browse button")
		}
		if r.Edit {
			t.Error("A command reply must not edit")
		}
	})

	t.Run("category by label", func(t *testing.T) {
		r := single(t, f.h.HandleCommand(ctx, command("jobs", "Technology")))
		if !strings.Contains(r.Text, "Page 1 of 2") {
			t.Errorf("Expected two pages of tech jobs, got %q", r.Text)
		}
		if !hasButton(r, tgutil.BrowseData("tech", 2)) {
			t.Error("Expected a next page button")
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		r := single(t, f.h.HandleCommand(ctx, command("jobs", "astronaut")))
		if !strings.Contains(r.Text, "Unknown category") || !strings.Contains(r.Text, "tech") {
			t.Errorf("Unexpected text: %q", r.Text)
		}
	})
}

func TestHandleSearch(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()

	r := single(t, f.h.HandleCommand(ctx, command("search", "developer")))
	if !strings.Contains(r.Text, "Found 2 jobs") {
		t.Errorf("Expected two hits, got %q", r.Text)
	}

	r = single(t, f.h.HandleCommand(ctx, command("search", "pilot")))
	if !strings.Contains(r.Text, "No jobs found") || r.Keyboard == nil {
		t.Errorf("Expected empty result with menu, got %+v", r)
	}

	r = single(t, f.h.HandleCommand(ctx, command("search", "")))
	if !strings.Contains(r.Text, "Usage: /search") {
		t.Errorf("Expected usage, got %q", r.Text)
	}
}

func TestViewAndApply(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	jobID := f.jobs[0]

	r := single(t, f.h.HandleCommand(ctx, command("view", fmt.Sprintf("#%d", jobID))))
	if !strings.Contains(r.Text, "Senior Go Developer") || !strings.Contains(r.Text, "/apply") {
		t.Errorf("Unexpected card: %q", r.Text)
	}
	if !hasButton(r, tgutil.SaveData(jobID)) {
		t.Error("Expected a save button")
	}

	args := fmt.Sprintf("%d Selam Bekele | selam@example.com | +251922000000 | Five years of Go.", jobID)
	r = single(t, f.h.HandleCommand(ctx, command("apply", args)))
	if !strings.Contains(r.Text, "Application submitted") {
		t.Fatalf("Expected confirmation, got %q", r.Text)
	}
	if f.metrics.n != 1 {
		t.Errorf("Expected 1 recorded application, got %d", f.metrics.n)
	}

	r = single(t, f.h.HandleCommand(ctx, command("apply", args)))
	if !strings.Contains(r.Text, "already applied") {
		t.Errorf("Expected duplicate notice, got %q", r.Text)
	}
	if f.metrics.n != 1 {
		t.Errorf("Duplicate must not be recorded, got %d", f.metrics.n)
	}

	r = single(t, f.h.HandleCommand(ctx, command("view", fmt.Sprint(jobID))))
	if !strings.Contains(r.Text, "You have applied") {
		t.Errorf("Expected applied marker, got %q", r.Text)
	}

	apps, err := f.db.ListJobApplications(ctx, jobID, 1)
	if err != nil {
		t.Fatalf("ListJobApplications failed: %v", err)
	}
	if len(apps) != 1 || apps[0].Email != "selam@example.com" || apps[0].CoverLetter != "Five years of Go." {
		t.Errorf("Unexpected stored application: %+v", apps)
	}
}

func TestApply_DefaultsFromProfile(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	jobID := f.jobs[1]

	single(t, f.h.HandleCommand(ctx, command("profile", "+251911223344 | selam@example.com | go, sql | 5")))
	r := single(t, f.h.HandleCommand(ctx, command("apply", fmt.Sprint(jobID))))
	if !strings.Contains(r.Text, "Application submitted") {
		t.Fatalf("Expected confirmation, got %q", r.Text)
	}

	apps, _ := f.db.ListJobApplications(ctx, jobID, 1)
	if len(apps) != 1 {
		t.Fatalf("Expected one application, got %d", len(apps))
	}
	a := apps[0]
	if a.FullName != "Selam Bekele" || a.Email != "selam@example.com" || a.Phone != "+251911223344" {
		t.Errorf("Expected profile defaults, got %+v", a)
	}
}

func TestApply_Errors(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args string
		want string
	}{
		{"no id", "", "Usage: /apply"},
		{"bad id", "abc Selam", "Usage: /apply"},
		{"unknown job", "9999 Selam", "no longer accepting"},
		{"bad email", fmt.Sprintf("%d Selam | not-an-email", f.jobs[0]), "⚠️"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := single(t, f.h.HandleCommand(ctx, command("apply", tt.args)))
			if !strings.Contains(r.Text, tt.want) {
				t.Errorf("Expected %q in %q", tt.want, r.Text)
			}
		})
	}
}

func TestBookmarks(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	id := fmt.Sprint(f.jobs[2])

	steps := []struct {
		cmd, args, want string
	}{
		{"saved", "", "Nothing saved yet"},
		{"save", id, "saved"},
		{"save", id, "already in your saved list"},
		{"saved", "", "DevOps Engineer"},
		{"unsave", id, "removed"},
		{"unsave", id, "not in your saved list"},
		{"save", "9999", "❌"},
		{"save", "", "Usage: /save"},
	}
	for _, s := range steps {
		r := single(t, f.h.HandleCommand(ctx, command(s.cmd, s.args)))
		if !strings.Contains(r.Text, s.want) {
			t.Errorf("/%s %s: expected %q in %q", s.cmd, s.args, s.want, r.Text)
		}
	}
}

func TestMyApps(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()

	r := single(t, f.h.HandleCommand(ctx, command("myapps", "")))
	if !strings.Contains(r.Text, "haven't applied") {
		t.Errorf("Expected empty list, got %q", r.Text)
	}

	single(t, f.h.HandleCommand(ctx, command("apply", fmt.Sprint(f.jobs[0]))))
	r = single(t, f.h.HandleCommand(ctx, command("myapps", "")))
	if !strings.Contains(r.Text, "Senior Go Developer") || !strings.Contains(r.Text, "pending") {
		t.Errorf("Expected pending application, got %q", r.Text)
	}
}

func TestProfile(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()

	r := single(t, f.h.HandleCommand(ctx, command("profile", "")))
	if !strings.Contains(r.Text, "Selam Bekele") || !strings.Contains(r.Text, "Update with /profile") {
		t.Errorf("Unexpected profile: %q", r.Text)
	}

	r = single(t, f.h.HandleCommand(ctx, command("profile", " | | golang | 3")))
	if !strings.Contains(r.Text, "Profile updated") || !strings.Contains(r.Text, "golang") {
		t.Errorf("Expected updated profile, got %q", r.Text)
	}

	r = single(t, f.h.HandleCommand(ctx, command("profile", " | | | three")))
	if !strings.Contains(r.Text, "whole number") {
		t.Errorf("Expected validation message, got %q", r.Text)
	}
}

func TestCanHandleCallback(t *testing.T) {
	f := setupTestHandler(t)
	tests := []struct {
		data string
		want bool
	}{
		{tgutil.CallbackCategories, true},
		{tgutil.BrowseData("tech", 1), true},
		{tgutil.LatestData(2), true},
		{tgutil.ViewData(1), true},
		{tgutil.SaveData(1), true},
		{tgutil.UnsaveData(1), true},
		{tgutil.CallbackMenu, false},
		{"status:1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := f.h.CanHandleCallback(tt.data); got != tt.want {
			t.Errorf("CanHandleCallback(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestHandleCallback(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	jobID := f.jobs[0]

	r := single(t, f.h.HandleCallback(ctx, callback(tgutil.CallbackCategories)))
	if !r.Edit || !strings.Contains(r.Text, "Select Job Category") {
		t.Errorf("Expected edited category menu, got %+v", r)
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.BrowseData("tech", 2))))
	if !r.Edit || !strings.Contains(r.Text, "Page 2 of 2") || !hasButton(r, tgutil.BrowseData("tech", 1)) {
		t.Errorf("Expected page 2 with a prev button, got %q", r.Text)
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.LatestData(1))))
	if !strings.Contains(r.Text, "Latest Jobs") || !hasButton(r, tgutil.LatestData(2)) {
		t.Errorf("Expected latest page 1, got %q", r.Text)
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.ViewData(jobID))))
	if r.Edit || !strings.Contains(r.Text, "Senior Go Developer") {
		t.Errorf("Expected a new card message, got %+v", r)
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.SaveData(jobID))))
	if !r.Edit || r.Notice == "" || !hasButton(r, tgutil.UnsaveData(jobID)) {
		t.Errorf("Expected card edited with an unsave button, got %+v", r)
	}
	saved, _ := f.db.ListSavedJobs(ctx, 50)
	if len(saved) != 1 {
		t.Errorf("Expected one saved job, got %d", len(saved))
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.UnsaveData(jobID))))
	if !hasButton(r, tgutil.SaveData(jobID)) {
		t.Error("Expected the save button back")
	}

	r = single(t, f.h.HandleCallback(ctx, callback(tgutil.SaveData(9999))))
	if r.Text != "" || !strings.Contains(r.Notice, "not found") {
		t.Errorf("Expected a notice-only reply, got %+v", r)
	}
}

func TestHandleCallback_SaveKeepsAppliedState(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	jobID := f.jobs[0]

	r := single(t, f.h.HandleCallback(ctx, callback(tgutil.SaveData(jobID))))
	if !strings.Contains(r.Text, fmt.Sprintf("/apply %d", jobID)) {
		t.Errorf("Expected the apply hint before applying, got %q", r.Text)
	}

	if _, err := f.db.RecordApplication(ctx, storage.NewApplication{JobID: jobID, ApplicantID: 50, FullName: "Selam Bekele"}); err != nil {
		t.Fatalf("RecordApplication failed: %v", err)
	}
	for _, data := range []string{tgutil.UnsaveData(jobID), tgutil.SaveData(jobID)} {
		r = single(t, f.h.HandleCallback(ctx, callback(data)))
		if !strings.Contains(r.Text, "You have applied for this job") {
			t.Errorf("%s: expected the applied marker, got %q", data, r.Text)
		}
		if strings.Contains(r.Text, "/apply ") {
			t.Errorf("%s: apply hint shown after applying", data)
		}
	}
}

func TestCard_FitsMessageLimit(t *testing.T) {
	f := setupTestHandler(t)
	job := storage.Job{
		ID:           999999,
		Title:        strings.Repeat("T", 200),
		Company:      strings.Repeat("&", 300),
		Category:     "tech",
		JobType:      "full_time",
		Description:  strings.Repeat("<", 2000),
		Requirements: strings.Repeat("ሀ", 2000),
		CreatedAt:    testNow.Unix(),
	}
	for _, applied := range []bool{false, true} {
		if n := utf8.RuneCountInString(f.h.card(job, applied)); n > tgutil.MaxMessageLength {
			t.Errorf("card(applied=%v) is %d runes, limit %d", applied, n, tgutil.MaxMessageLength)
		}
	}
}

func TestHandleCallback_Stale(t *testing.T) {
	f := setupTestHandler(t)
	ctx := context.Background()
	for _, data := range []string{"browse:tech", "browse:astronaut:1", "browse:tech:x", "latest", "view:abc", "save:1:2"} {
		if replies := f.h.HandleCallback(ctx, callback(data)); replies != nil {
			t.Errorf("HandleCallback(%q) = %+v, want nil", data, replies)
		}
	}
}

func TestParseProfileUpdate(t *testing.T) {
	u, err := parseProfileUpdate("+251911000000 | | rust |")
	if err != nil {
		t.Fatalf("parseProfileUpdate failed: %v", err)
	}
	if u.Phone == nil || *u.Phone != "+251911000000" || u.Email != nil || u.Skills == nil || u.ExperienceYears != nil {
		t.Errorf("Unexpected update: %+v", u)
	}
}
