package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

const applicationColumns = `a.id, a.job_id, a.applicant_id, a.full_name, a.email, a.phone,
	a.resume_file_id, a.cover_letter, a.status, a.applied_at, a.updated_at, j.title, j.company`

func scanApplications(rows *sql.Rows) ([]Application, error) {
	apps := make([]Application, 0)
	for rows.Next() {
		var a Application
		var status string
		if err := rows.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.FullName, &a.Email, &a.Phone,
			&a.ResumeFileID, &a.CoverLetter, &status, &a.AppliedAt, &a.UpdatedAt,
			&a.JobTitle, &a.JobCompany); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		a.Status = ApplicationStatus(status)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, nil
}

// RecordApplication stores an application for an active job and bumps the
// job's application counter in the same transaction. A second application by
// the same user for the same job is ErrConflict.
func (db *DB) RecordApplication(ctx context.Context, app NewApplication) (int64, error) {
	app.FullName = strings.TrimSpace(app.FullName)
	app.Email = strings.TrimSpace(app.Email)
	app.Phone = strings.TrimSpace(app.Phone)
	switch {
	case app.JobID <= 0:
		return 0, domerrors.NewValidationError("job_id", "must be positive")
	case app.ApplicantID <= 0:
		return 0, domerrors.NewValidationError("applicant_id", "must be positive")
	case app.FullName == "":
		return 0, domerrors.NewValidationError("full_name", "full name is required")
	case app.Email != "" && !strings.Contains(app.Email, "@"):
		return 0, domerrors.NewValidationError("email", "email address looks invalid")
	}

	start := time.Now()
	var id int64
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		now := db.now().Unix()
		var exists bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM jobs WHERE id = ? AND `+activeClause("")+`)`,
			app.JobID, now).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check job %d: %w", app.JobID, err)
		}
		if !exists {
			return fmt.Errorf("job %d: %w", app.JobID, domerrors.ErrNotFound)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO applications (job_id, applicant_id, full_name, email, phone,
				resume_file_id, cover_letter, status, applied_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			app.JobID, app.ApplicantID, app.FullName, app.Email, app.Phone,
			strings.TrimSpace(app.ResumeFileID), strings.TrimSpace(app.CoverLetter),
			string(StatusPending), now, now)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert application: last insert id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET applications = applications + 1 WHERE id = ?`, app.JobID); err != nil {
			return fmt.Errorf("increment applications for job %d: %w", app.JobID, err)
		}
		return logInteraction(ctx, tx, app.ApplicantID, app.JobID, InteractionApply, now)
	})
	if err != nil {
		err = db.observe(ctx, "record_application", start, err)
		if !domerrors.IsConflict(err) && !domerrors.IsNotFound(err) {
			slog.ErrorContext(ctx, "failed to record application",
				"job_id", app.JobID,
				"applicant_id", app.ApplicantID,
				"error", err)
		}
		return 0, err
	}
	return id, db.observe(ctx, "record_application", start, nil)
}

// ListUserApplications returns the user's applications, newest first.
func (db *DB) ListUserApplications(ctx context.Context, userID int64) ([]Application, error) {
	start := time.Now()
	query := `SELECT ` + applicationColumns + `
		FROM applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.applicant_id = ?
		ORDER BY a.applied_at DESC, a.id DESC`
	rows, err := db.reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, db.observe(ctx, "list_user_applications", start, fmt.Errorf("list applications of %d: %w", userID, err))
	}
	defer func() { _ = rows.Close() }()

	apps, err := scanApplications(rows)
	return apps, db.observe(ctx, "list_user_applications", start, err)
}

// HasApplied reports whether userID has applied to jobID.
func (db *DB) HasApplied(ctx context.Context, jobID, userID int64) (bool, error) {
	start := time.Now()
	var applied bool
	err := db.reader.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE job_id = ? AND applicant_id = ?)`,
		jobID, userID).Scan(&applied)
	if err != nil {
		err = fmt.Errorf("check application of %d to job %d: %w", userID, jobID, err)
	}
	return applied, db.observe(ctx, "has_applied", start, err)
}

// ListJobApplications returns the applications to a job owned by employerID.
func (db *DB) ListJobApplications(ctx context.Context, jobID, employerID int64) ([]Application, error) {
	start := time.Now()
	if err := checkJobOwner(ctx, db.reader, jobID, employerID); err != nil {
		return nil, db.observe(ctx, "list_job_applications", start, err)
	}

	query := `SELECT ` + applicationColumns + `
		FROM applications a JOIN jobs j ON j.id = a.job_id
		WHERE a.job_id = ?
		ORDER BY a.applied_at DESC, a.id DESC`
	rows, err := db.reader.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, db.observe(ctx, "list_job_applications", start, fmt.Errorf("list applications for job %d: %w", jobID, err))
	}
	defer func() { _ = rows.Close() }()

	apps, err := scanApplications(rows)
	return apps, db.observe(ctx, "list_job_applications", start, err)
}

// UpdateApplicationStatus moves an application to status on behalf of the
// employer who owns the job. Accepted and rejected are final.
func (db *DB) UpdateApplicationStatus(ctx context.Context, appID, employerID int64, status ApplicationStatus) error {
	if !status.Valid() {
		return domerrors.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		var owner int64
		err := tx.QueryRowContext(ctx, `
			SELECT a.status, j.employer_id
			FROM applications a JOIN jobs j ON j.id = a.job_id
			WHERE a.id = ?`, appID).Scan(&current, &owner)
		if err != nil {
			return fmt.Errorf("application %d: %w", appID, err)
		}
		if owner != employerID {
			return fmt.Errorf("application %d: %w", appID, domerrors.ErrForbidden)
		}
		if !ApplicationStatus(current).CanTransitionTo(status) {
			return domerrors.NewValidationError("status",
				fmt.Sprintf("cannot change status from %s to %s", current, status))
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE applications SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), db.now().Unix(), appID)
		if err != nil {
			return fmt.Errorf("update application %d: %w", appID, err)
		}
		return nil
	})
	return db.observe(ctx, "update_application_status", start, err)
}

// RecentApplications returns the latest applications across all jobs.
func (db *DB) RecentApplications(ctx context.Context, limit int) ([]Application, error) {
	if limit <= 0 || limit > db.opts.MaxPageSize {
		return nil, domerrors.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", db.opts.MaxPageSize))
	}

	start := time.Now()
	query := `SELECT ` + applicationColumns + `
		FROM applications a JOIN jobs j ON j.id = a.job_id
		ORDER BY a.applied_at DESC, a.id DESC
		LIMIT ?`
	rows, err := db.reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, db.observe(ctx, "recent_applications", start, fmt.Errorf("recent applications: %w", err))
	}
	defer func() { _ = rows.Close() }()

	apps, err := scanApplications(rows)
	return apps, db.observe(ctx, "recent_applications", start, err)
}
