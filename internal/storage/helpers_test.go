package storage

import (
	"context"
	"sync"
	"testing"
	"time"
)

// testClock is a settable clock for Options.Now.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testOptions(clock *testClock) Options {
	return Options{
		JobTTL:      30 * 24 * time.Hour,
		MaxPageSize: 50,
		SearchLimit: 20,
		Categories:  []string{"tech", "business", "creative", "medical"},
		JobTypes:    []string{"full_time", "part_time", "remote", "contract"},
		Now:         clock.Now,
	}
}

// setupTestDB returns an in-memory database driven by a test clock.
func setupTestDB(t *testing.T) (*DB, *testClock) {
	t.Helper()
	clock := newTestClock()
	db, err := New(context.Background(), memoryPath, testOptions(clock))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, clock
}

func mustAddUser(t *testing.T, db *DB, id int64, firstName string) {
	t.Helper()
	if err := db.AddUser(context.Background(), id, "", firstName, ""); err != nil {
		t.Fatalf("AddUser(%d) failed: %v", id, err)
	}
}

func mustAddEmployer(t *testing.T, db *DB, id int64, company string) {
	t.Helper()
	mustAddUser(t, db, id, company)
	if err := db.PromoteToEmployer(context.Background(), id, company); err != nil {
		t.Fatalf("PromoteToEmployer(%d) failed: %v", id, err)
	}
}

func sampleJob(employerID int64, category, title string) NewJob {
	return NewJob{
		Title:        title,
		Company:      "Zewed Tech Solutions",
		Category:     category,
		JobType:      "full_time",
		Location:     "Addis Ababa",
		Salary:       "25,000 - 35,000 ETB",
		Description:  "Build and maintain services for our clients.",
		Requirements: "3+ years of experience",
		EmployerID:   employerID,
		ContactEmail: "hr@zewedtech.et",
		ContactPhone: "+251911000000",
	}
}

func mustAddJob(t *testing.T, db *DB, job NewJob) int64 {
	t.Helper()
	id, err := db.AddJob(context.Background(), job)
	if err != nil {
		t.Fatalf("AddJob(%q) failed: %v", job.Title, err)
	}
	return id
}
