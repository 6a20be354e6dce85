package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all tables and indexes. Every statement is IF NOT EXISTS,
// so it runs on every start. Connection pragmas are set in db.go.
func InitSchema(ctx context.Context, db *sql.DB) error {
	steps := []func(context.Context, *sql.DB) error{
		createUsersTable,
		createJobsTable,
		createApplicationsTable,
		createSavedJobsTable,
		createUserInteractionsTable,
	}
	for _, step := range steps {
		if err := step(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func createUsersTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'job_seeker' CHECK(role IN ('job_seeker', 'employer')),
		company TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		experience_years INTEGER NOT NULL DEFAULT 0 CHECK(experience_years >= 0),
		created_at INTEGER NOT NULL,
		last_active INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createJobsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		category TEXT NOT NULL,
		job_type TEXT NOT NULL,
		location TEXT NOT NULL DEFAULT 'Remote',
		salary TEXT NOT NULL DEFAULT 'Negotiable',
		description TEXT NOT NULL,
		requirements TEXT NOT NULL DEFAULT '',
		employer_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		expires_at INTEGER,
		views INTEGER NOT NULL DEFAULT 0,
		applications INTEGER NOT NULL DEFAULT 0,
		search_text TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_active_recent ON jobs(is_active, created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_jobs_category ON jobs(category, is_active, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_jobs_employer ON jobs(employer_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_expires_at ON jobs(expires_at) WHERE is_active = 1;
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	return nil
}

func createApplicationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS applications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		applicant_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		resume_file_id TEXT NOT NULL DEFAULT '',
		cover_letter TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'reviewed', 'accepted', 'rejected')),
		applied_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(job_id, applicant_id)
	);
	CREATE INDEX IF NOT EXISTS idx_applications_applicant ON applications(applicant_id, applied_at DESC);
	CREATE INDEX IF NOT EXISTS idx_applications_applied_at ON applications(applied_at DESC);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create applications table: %w", err)
	}
	return nil
}

func createSavedJobsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS saved_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		saved_at INTEGER NOT NULL,
		UNIQUE(user_id, job_id)
	);
	CREATE INDEX IF NOT EXISTS idx_saved_jobs_job ON saved_jobs(job_id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create saved_jobs table: %w", err)
	}
	return nil
}

func createUserInteractionsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS user_interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
		job_id INTEGER NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
		interaction_type TEXT NOT NULL CHECK(interaction_type IN ('view', 'save', 'apply')),
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_user_interactions_user ON user_interactions(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_user_interactions_job ON user_interactions(job_id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create user_interactions table: %w", err)
	}
	return nil
}
