package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zewedjobs/zewed-jobs-go/internal/objstore"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return fmt.Sprintf("etag-%d", len(data)), nil
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", objstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), fmt.Sprintf("etag-%d", len(data)), nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordSnapshot(action, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[action+"/"+status]++
}

func seededDB(t *testing.T) (*storage.DB, int64) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.New(ctx, filepath.Join(t.TempDir(), "live.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AddUser(ctx, 1, "hr", "Zewed", "HR"))
	require.NoError(t, db.PromoteToEmployer(ctx, 1, "Zewed Tech Solutions"))
	id, err := db.AddJob(ctx, storage.NewJob{
		Title:       "Senior Software Developer",
		Company:     "Zewed Tech Solutions",
		Category:    "tech",
		JobType:     "full_time",
		Description: "Build services for our clients.",
		EmployerID:  1,
	})
	require.NoError(t, err)
	return db, id
}

func TestBackupAndRestore(t *testing.T) {
	db, jobID := seededDB(t)
	store := newMemStore()
	rec := &countingRecorder{}
	m := New(store, Config{Key: "snapshots/zewed.db.zst", TempDir: t.TempDir(), Metrics: rec})
	ctx := context.Background()

	etag, err := m.Backup(ctx, db)
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
	require.Contains(t, store.objects, "snapshots/zewed.db.zst")

	target := filepath.Join(t.TempDir(), "data", "zewed.db")
	restored, err := m.RestoreIfMissing(ctx, target)
	require.NoError(t, err)
	assert.True(t, restored)

	copyDB, err := storage.New(ctx, target, storage.Options{})
	require.NoError(t, err)
	defer func() { _ = copyDB.Close() }()
	job, err := copyDB.GetJobByID(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "Senior Software Developer", job.Title)

	assert.Equal(t, 1, rec.counts["upload/success"])
	assert.Equal(t, 1, rec.counts["restore/success"])

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(target), "*.restore-*"))
	assert.Empty(t, leftovers)
}

func TestRestoreIfMissing_ExistingDatabase(t *testing.T) {
	store := newMemStore()
	store.objects["k"] = []byte("not used")
	m := New(store, Config{Key: "k"})

	path := filepath.Join(t.TempDir(), "zewed.db")
	require.NoError(t, os.WriteFile(path, []byte("live"), 0o644))

	restored, err := m.RestoreIfMissing(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, restored)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "live", string(data))
}

func TestRestoreIfMissing_NoSnapshot(t *testing.T) {
	rec := &countingRecorder{}
	m := New(newMemStore(), Config{Key: "k", Metrics: rec})

	restored, err := m.RestoreIfMissing(context.Background(), filepath.Join(t.TempDir(), "zewed.db"))
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Empty(t, rec.counts)
}

func TestRestoreIfMissing_Corrupt(t *testing.T) {
	store := newMemStore()
	store.objects["k"] = []byte("definitely not zstd")
	m := New(store, Config{Key: "k"})

	path := filepath.Join(t.TempDir(), "zewed.db")
	_, err := m.RestoreIfMissing(context.Background(), path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no partial database left behind")
}

func TestBackup_UploadFailure(t *testing.T) {
	db, _ := seededDB(t)
	store := newMemStore()
	store.err = errors.New("bucket unreachable")
	rec := &countingRecorder{}
	tmp := t.TempDir()
	m := New(store, Config{Key: "k", TempDir: tmp, Metrics: rec})

	_, err := m.Backup(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, 1, rec.counts["upload/error"])

	files, _ := os.ReadDir(tmp)
	assert.Empty(t, files, "temporary files are removed")
}

func TestCompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	data := bytes.Repeat([]byte("Zewed Jobs snapshot "), 2000)
	require.NoError(t, os.WriteFile(src, data, 0o644))

	require.NoError(t, compressFile(src, src+".zst"))
	info, err := os.Stat(src + ".zst")
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(data)))

	f, err := os.Open(src + ".zst")
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, decompressStream(f, src+".out"))

	out, err := os.ReadFile(src + ".out")
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
