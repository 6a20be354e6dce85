package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

// TestNew_FileSystemDatabase tests database creation with file system persistence
func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath, Options{})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created: %s", dbPath)
	}

	if err := db.AddUser(ctx, 1001, "abebe", "Abebe", "Kebede"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	// WAL mode leaves a -wal file next to the database after a write
	if _, err := os.Stat(dbPath + "-wal"); os.IsNotExist(err) {
		t.Errorf("WAL file not created after write: %s", dbPath+"-wal")
	}

	// Reads go through the reader pool and must see the writer's commit
	u, err := db.GetUser(ctx, 1001)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.FirstName != "Abebe" {
		t.Errorf("Expected first name Abebe, got %q", u.FirstName)
	}
}

// TestNew_NestedDirectory tests database creation with nested directory path
func TestNew_NestedDirectory(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "sub1", "sub2", "test.db")

	db, err := New(context.Background(), dbPath, Options{})
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created in nested directory: %s", dbPath)
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := New(ctx, dbPath, Options{})
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.AddUser(ctx, 7, "", "Sara", ""); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	_ = db.Close()

	// Schema creation is idempotent and must not wipe existing rows
	db, err = New(ctx, dbPath, Options{})
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.GetUser(ctx, 7); err != nil {
		t.Errorf("GetUser after reopen failed: %v", err)
	}
}

func TestPingAndReady(t *testing.T) {
	t.Parallel()
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if err := db.Ready(ctx); err != nil {
		t.Errorf("Ready failed: %v", err)
	}
}

func TestPing_AfterClose(t *testing.T) {
	t.Parallel()
	db, err := NewTestDB()
	if err != nil {
		t.Fatalf("NewTestDB failed: %v", err)
	}
	_ = db.Close()

	err = db.Ping(context.Background())
	if !domerrors.IsUnavailable(err) {
		t.Errorf("Expected ErrUnavailable after close, got %v", err)
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	writer := dsn("/data/zewed_jobs.db", true)
	if !strings.HasPrefix(writer, "/data/zewed_jobs.db?") {
		t.Errorf("writer DSN should start with the path: %s", writer)
	}
	if !strings.Contains(writer, "_txlock=immediate") {
		t.Errorf("writer DSN should take the write lock at BEGIN: %s", writer)
	}
	if !strings.Contains(writer, "journal_mode") {
		t.Errorf("file DSN should enable WAL: %s", writer)
	}

	reader := dsn("/data/zewed_jobs.db", false)
	if strings.Contains(reader, "_txlock") {
		t.Errorf("reader DSN should not set _txlock: %s", reader)
	}

	if mem := dsn(memoryPath, true); strings.Contains(mem, "journal_mode") {
		t.Errorf("in-memory DSN should not request WAL: %s", mem)
	}
}

type recordedOp struct {
	op   string
	kind string
}

type fakeRecorder struct {
	ops []recordedOp
}

func (r *fakeRecorder) RecordDBOperation(op, kind string, _ float64) {
	r.ops = append(r.ops, recordedOp{op, kind})
}

func TestObserve_RecordsKind(t *testing.T) {
	t.Parallel()
	db, _ := setupTestDB(t)
	rec := &fakeRecorder{}
	db.SetMetrics(rec)
	ctx := context.Background()

	mustAddUser(t, db, 1, "Abebe")
	if _, err := db.GetUser(ctx, 404); !domerrors.IsNotFound(err) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	want := []recordedOp{{"add_user", "none"}, {"get_user", "not_found"}}
	if len(rec.ops) != len(want) {
		t.Fatalf("Expected %d recorded ops, got %v", len(want), rec.ops)
	}
	for i := range want {
		if rec.ops[i] != want[i] {
			t.Errorf("op %d: expected %v, got %v", i, want[i], rec.ops[i])
		}
	}
}

func TestCreateSnapshot(t *testing.T) {
	t.Parallel()
	db, _ := setupTestDB(t)
	ctx := context.Background()
	mustAddEmployer(t, db, 1, "Zewed Tech Solutions")
	jobID := mustAddJob(t, db, sampleJob(1, "tech", "Developer"))

	dst := filepath.Join(t.TempDir(), "snapshot.db")
	if err := db.CreateSnapshot(ctx, dst); err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}
	if err := db.CreateSnapshot(ctx, dst); err == nil {
		t.Error("Expected an error when the destination exists")
	}

	copyDB, err := New(ctx, dst, testOptions(newTestClock()))
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer func() { _ = copyDB.Close() }()

	job, err := copyDB.GetJobByID(ctx, jobID)
	if err != nil {
		t.Fatalf("GetJobByID on snapshot failed: %v", err)
	}
	if job.Title != "Developer" {
		t.Errorf("Expected snapshot to hold the job, got %+v", job)
	}
}
