package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

const (
	memoryPath = ":memory:"

	// slowQueryThreshold triggers a warning log for slow operations.
	slowQueryThreshold = 100 * time.Millisecond

	defaultJobTTL      = 30 * 24 * time.Hour
	defaultMaxPageSize = 50
	defaultSearchLimit = 20
)

// MetricsRecorder receives one observation per data-access call.
// kind is "none" on success, otherwise the error class.
type MetricsRecorder interface {
	RecordDBOperation(operation, kind string, duration float64)
}

// Options tunes the query façade.
type Options struct {
	// JobTTL is added to the creation time when a job has no explicit expiry.
	JobTTL time.Duration
	// MaxPageSize caps the limit accepted by ListJobs.
	MaxPageSize int
	// SearchLimit caps SearchJobs results.
	SearchLimit int
	// Categories and JobTypes are the accepted enumeration keys. Empty means unrestricted.
	Categories []string
	JobTypes   []string
	// Now overrides the clock (tests).
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.JobTTL <= 0 {
		o.JobTTL = defaultJobTTL
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = defaultMaxPageSize
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = defaultSearchLimit
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// DB is the query façade over the SQLite store.
// Writes go through a single writer connection, which serializes them;
// reads use a separate pool. For :memory: both share one connection.
type DB struct {
	writer *sql.DB
	reader *sql.DB
	path   string
	opts   Options

	categories map[string]bool
	jobTypes   map[string]bool

	metrics MetricsRecorder
}

// New opens the database at dbPath, applies connection pragmas and creates the schema.
func New(ctx context.Context, dbPath string, opts Options) (*DB, error) {
	if dbPath != memoryPath {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	writer, err := openConn(ctx, dbPath, true)
	if err != nil {
		return nil, err
	}

	reader := writer
	if dbPath != memoryPath {
		reader, err = openConn(ctx, dbPath, false)
		if err != nil {
			_ = writer.Close()
			return nil, err
		}
	}

	db := &DB{
		writer:     writer,
		reader:     reader,
		path:       dbPath,
		opts:       opts.withDefaults(),
		categories: toSet(opts.Categories),
		jobTypes:   toSet(opts.JobTypes),
	}

	if err := InitSchema(ctx, writer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// dsn builds a modernc DSN with per-connection pragmas.
// The writer takes the write lock at BEGIN so transactions never upgrade mid-way.
func dsn(dbPath string, write bool) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", (5 * time.Second).Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "synchronous(NORMAL)")
	if dbPath != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
	}
	if write {
		q.Set("_txlock", "immediate")
	}
	return dbPath + "?" + q.Encode()
}

func openConn(ctx context.Context, dbPath string, write bool) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath, write))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if write || dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		// A private in-memory database lives only as long as its connection.
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(8)
		conn.SetMaxIdleConns(4)
		conn.SetConnMaxLifetime(time.Hour)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func toSet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// Close closes both connections.
func (db *DB) Close() error {
	var err error
	if db.reader != nil && db.reader != db.writer {
		err = db.reader.Close()
	}
	if db.writer != nil {
		if werr := db.writer.Close(); werr != nil {
			err = werr
		}
	}
	return err
}

// Ping checks both connections.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return classify(err)
	}
	if err := db.reader.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// Ready reports whether the schema is usable, not just the connection.
func (db *DB) Ready(ctx context.Context) error {
	var n int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'jobs'`).Scan(&n); err != nil {
		return classify(err)
	}
	if n != 1 {
		return fmt.Errorf("jobs table missing")
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Reader returns the read pool.
func (db *DB) Reader() *sql.DB {
	return db.reader
}

// CreateSnapshot writes a consistent copy of the database to dstPath with
// VACUUM INTO. dstPath must not exist. Runs on the writer, so it waits for
// in-flight writes instead of copying a torn state.
func (db *DB) CreateSnapshot(ctx context.Context, dstPath string) error {
	start := time.Now()
	if _, err := os.Stat(dstPath); err == nil {
		return fmt.Errorf("snapshot destination %s already exists", dstPath)
	}
	if _, err := db.writer.ExecContext(ctx, `VACUUM INTO ?`, dstPath); err != nil {
		return db.observe(ctx, "create_snapshot", start, fmt.Errorf("vacuum into: %w", err))
	}
	return db.observe(ctx, "create_snapshot", start, nil)
}

// SetMetrics sets the metrics recorder.
func (db *DB) SetMetrics(recorder MetricsRecorder) {
	db.metrics = recorder
}

// Options returns the effective options.
func (db *DB) Options() Options {
	return db.opts
}

func (db *DB) now() time.Time {
	return db.opts.Now()
}

// observe classifies err, records metrics and warns on slow calls.
// It returns the classified error so callers can `return db.observe(...)`.
func (db *DB) observe(ctx context.Context, op string, start time.Time, err error) error {
	err = classify(err)
	duration := time.Since(start)
	if db.metrics != nil {
		db.metrics.RecordDBOperation(op, domerrors.Kind(err), duration.Seconds())
	}
	if duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", op,
			"duration_ms", duration.Milliseconds())
	}
	return err
}

// withTx runs fn in a writer transaction. fn's error rolls back.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewTestDB creates an in-memory database with default options for testing.
func NewTestDB() (*DB, error) {
	return New(context.Background(), memoryPath, Options{})
}
