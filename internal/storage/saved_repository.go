package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

// SaveJob bookmarks an active job. It reports whether a new bookmark was
// created; saving the same job twice, even concurrently, leaves one row.
func (db *DB) SaveJob(ctx context.Context, userID, jobID int64) (bool, error) {
	start := time.Now()
	var created bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		now := db.now().Unix()
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM jobs WHERE id = ? AND `+activeClause("")+`)`,
			jobID, now).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check job %d: %w", jobID, err)
		}
		if !exists {
			return fmt.Errorf("job %d: %w", jobID, domerrors.ErrNotFound)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO saved_jobs (user_id, job_id, saved_at) VALUES (?, ?, ?)
			ON CONFLICT(user_id, job_id) DO NOTHING`,
			userID, jobID, now)
		if err != nil {
			return fmt.Errorf("save job %d for %d: %w", jobID, userID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("save job: rows affected: %w", err)
		}
		if created = n == 1; !created {
			return nil
		}
		return logInteraction(ctx, tx, userID, jobID, InteractionSave, now)
	})
	if err != nil {
		return false, db.observe(ctx, "save_job", start, err)
	}
	return created, db.observe(ctx, "save_job", start, nil)
}

// UnsaveJob removes a bookmark. ErrNotFound if there was none.
func (db *DB) UnsaveJob(ctx context.Context, userID, jobID int64) error {
	start := time.Now()
	res, err := db.writer.ExecContext(ctx,
		`DELETE FROM saved_jobs WHERE user_id = ? AND job_id = ?`, userID, jobID)
	if err != nil {
		return db.observe(ctx, "unsave_job", start, fmt.Errorf("unsave job %d for %d: %w", jobID, userID, err))
	}
	return db.observe(ctx, "unsave_job", start, requireAffected(res, "saved job %d for user %d", jobID, userID))
}

// ListSavedJobs returns the user's bookmarks that are still active, most recently saved first.
func (db *DB) ListSavedJobs(ctx context.Context, userID int64) ([]SavedJob, error) {
	start := time.Now()
	query := `SELECT ` + jobColumns("j") + `, s.saved_at
		FROM saved_jobs s JOIN jobs j ON j.id = s.job_id
		WHERE s.user_id = ? AND ` + activeClause("j") + `
		ORDER BY s.saved_at DESC, s.id DESC`
	rows, err := db.reader.QueryContext(ctx, query, userID, db.now().Unix())
	if err != nil {
		return nil, db.observe(ctx, "list_saved_jobs", start, fmt.Errorf("list saved jobs of %d: %w", userID, err))
	}
	defer func() { _ = rows.Close() }()

	saved := make([]SavedJob, 0)
	for rows.Next() {
		var savedAt int64
		j, err := scanJob(rows, &savedAt)
		if err != nil {
			return nil, db.observe(ctx, "list_saved_jobs", start, fmt.Errorf("scan saved job: %w", err))
		}
		saved = append(saved, SavedJob{Job: *j, SavedAt: savedAt})
	}
	return saved, db.observe(ctx, "list_saved_jobs", start, rows.Err())
}
