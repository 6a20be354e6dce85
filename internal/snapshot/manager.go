// Package snapshot backs the SQLite database up to object storage as a
// zstd-compressed file and restores it on a fresh host.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zewedjobs/zewed-jobs-go/internal/objstore"
)

const contentType = "application/zstd"

// ObjectStore is the subset of *objstore.Client used for snapshots.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Source produces a consistent database copy. *storage.DB implements it.
type Source interface {
	CreateSnapshot(ctx context.Context, dstPath string) error
}

// Recorder counts snapshot outcomes.
type Recorder interface {
	RecordSnapshot(action, status string)
}

// Config holds snapshot settings.
type Config struct {
	Key     string // object key, e.g. "snapshots/zewed.db.zst"
	TempDir string // scratch space; defaults to os.TempDir()
	Metrics Recorder
}

// Manager uploads and restores snapshots.
type Manager struct {
	store   ObjectStore
	key     string
	tempDir string
	metrics Recorder
}

// New creates a snapshot manager.
func New(store ObjectStore, cfg Config) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Manager{
		store:   store,
		key:     cfg.Key,
		tempDir: cfg.TempDir,
		metrics: cfg.Metrics,
	}
}

func (m *Manager) record(action string, err error) {
	if m.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.metrics.RecordSnapshot(action, status)
}

// Backup snapshots src, compresses it and uploads it. Returns the object ETag.
func (m *Manager) Backup(ctx context.Context, src Source) (etag string, err error) {
	defer func() { m.record("upload", err) }()
	start := time.Now()

	snapshotPath := filepath.Join(m.tempDir, "snapshot-"+uuid.NewString()+".db")
	if err := src.CreateSnapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(snapshotPath)

	compressedPath := snapshotPath + ".zst"
	if err := compressFile(snapshotPath, compressedPath); err != nil {
		return "", err
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close()

	etag, err = m.store.Upload(ctx, m.key, f, contentType)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot uploaded",
		"key", m.key,
		"etag", etag,
		"duration_ms", time.Since(start).Milliseconds())
	return etag, nil
}

// RestoreIfMissing downloads the latest snapshot to dbPath when no database
// exists there yet. It reports whether a snapshot was restored; a bucket
// without a snapshot is not an error.
func (m *Manager) RestoreIfMissing(ctx context.Context, dbPath string) (restored bool, err error) {
	if _, err := os.Stat(dbPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat database: %w", err)
	}

	body, etag, err := m.store.Download(ctx, m.key)
	if errors.Is(err, objstore.ErrNotFound) {
		slog.InfoContext(ctx, "No snapshot to restore", "key", m.key)
		return false, nil
	}
	defer func() { m.record("restore", err) }()
	if err != nil {
		return false, fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return false, fmt.Errorf("create database directory: %w", err)
	}

	// Decompress beside the target and rename so a failed restore never
	// leaves a partial database behind.
	tmpPath := dbPath + ".restore-" + uuid.NewString()
	if err := decompressStream(body, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return false, err
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("install snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot restored", "key", m.key, "etag", etag, "path", dbPath)
	return true, nil
}
