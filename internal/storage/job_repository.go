package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

const (
	defaultLocation = "Remote"
	defaultSalary   = "Negotiable"

	maxTitleLength        = 200
	maxDescriptionLength  = 4000
	maxRequirementsLength = 2000
)

var jobFields = []string{
	"id", "title", "company", "category", "job_type", "location", "salary", "description",
	"requirements", "employer_id", "contact_email", "contact_phone", "is_active", "created_at",
	"expires_at", "views", "applications",
}

// jobColumns returns the job select list, optionally qualified with a table alias.
func jobColumns(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, len(jobFields))
	for i, f := range jobFields {
		if f == "expires_at" {
			cols[i] = "COALESCE(" + prefix + f + ", 0)"
			continue
		}
		cols[i] = prefix + f
	}
	return strings.Join(cols, ", ")
}

// activeClause matches listings that are active and not past their expiry,
// so results stay correct between expiry sweeps.
func activeClause(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return prefix + "is_active = 1 AND (" + prefix + "expires_at IS NULL OR " + prefix + "expires_at > ?)"
}

func scanJob(row interface{ Scan(...any) error }, extra ...any) (*Job, error) {
	var j Job
	dest := []any{&j.ID, &j.Title, &j.Company, &j.Category, &j.JobType, &j.Location, &j.Salary,
		&j.Description, &j.Requirements, &j.EmployerID, &j.ContactEmail, &j.ContactPhone,
		&j.IsActive, &j.CreatedAt, &j.ExpiresAt, &j.Views, &j.Applications}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &j, nil
}

func scanJobs(rows *sql.Rows) ([]Job, error) {
	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// validateNewJob trims surrounding whitespace from every text field in place
// before checking it, so stored listings never carry padding.
func (db *DB) validateNewJob(job *NewJob) error {
	job.Title = strings.TrimSpace(job.Title)
	job.Company = strings.TrimSpace(job.Company)
	job.Category = strings.TrimSpace(job.Category)
	job.JobType = strings.TrimSpace(job.JobType)
	job.Description = strings.TrimSpace(job.Description)
	job.Location = strings.TrimSpace(job.Location)
	job.Salary = strings.TrimSpace(job.Salary)
	job.Requirements = strings.TrimSpace(job.Requirements)
	job.ContactEmail = strings.TrimSpace(job.ContactEmail)
	job.ContactPhone = strings.TrimSpace(job.ContactPhone)

	var errs []error
	if job.Title == "" {
		errs = append(errs, domerrors.NewValidationError("title", "title is required"))
	} else if utf8.RuneCountInString(job.Title) > maxTitleLength {
		errs = append(errs, domerrors.NewValidationError("title", fmt.Sprintf("title must be at most %d characters", maxTitleLength)))
	}
	if job.Company == "" {
		errs = append(errs, domerrors.NewValidationError("company", "company is required"))
	}
	if job.Description == "" {
		errs = append(errs, domerrors.NewValidationError("description", "description is required"))
	} else if utf8.RuneCountInString(job.Description) > maxDescriptionLength {
		errs = append(errs, domerrors.NewValidationError("description", fmt.Sprintf("description must be at most %d characters", maxDescriptionLength)))
	}
	if utf8.RuneCountInString(job.Requirements) > maxRequirementsLength {
		errs = append(errs, domerrors.NewValidationError("requirements", fmt.Sprintf("requirements must be at most %d characters", maxRequirementsLength)))
	}
	if job.Category == "" || (db.categories != nil && !db.categories[job.Category]) {
		errs = append(errs, domerrors.NewValidationError("category", fmt.Sprintf("unknown category %q", job.Category)))
	}
	if job.JobType == "" || (db.jobTypes != nil && !db.jobTypes[job.JobType]) {
		errs = append(errs, domerrors.NewValidationError("job_type", fmt.Sprintf("unknown job type %q", job.JobType)))
	}
	if job.EmployerID <= 0 {
		errs = append(errs, domerrors.NewValidationError("employer_id", "must be positive"))
	}
	return errors.Join(errs...)
}

// AddJob validates and inserts a listing, returning its id.
// Location and salary default to placeholders; expiry defaults to now + JobTTL.
func (db *DB) AddJob(ctx context.Context, job NewJob) (int64, error) {
	if err := db.validateNewJob(&job); err != nil {
		return 0, err
	}
	if job.Location == "" {
		job.Location = defaultLocation
	}
	if job.Salary == "" {
		job.Salary = defaultSalary
	}

	now := db.now()
	expiresAt := job.ExpiresAt
	if expiresAt == 0 {
		expiresAt = now.Add(db.opts.JobTTL).Unix()
	} else if expiresAt <= now.Unix() {
		return 0, domerrors.NewValidationError("expires_at", "expiry must be in the future")
	}

	query := `
		INSERT INTO jobs (title, company, category, job_type, location, salary, description,
			requirements, employer_id, contact_email, contact_phone, created_at, expires_at, search_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	res, err := db.writer.ExecContext(ctx, query,
		job.Title, job.Company, job.Category, job.JobType, job.Location, job.Salary, job.Description,
		job.Requirements, job.EmployerID, job.ContactEmail,
		job.ContactPhone, now.Unix(), expiresAt,
		buildSearchText(job.Title, job.Company, job.Description))
	if err != nil {
		slog.ErrorContext(ctx, "failed to add job",
			"employer_id", job.EmployerID,
			"error", err)
		return 0, db.observe(ctx, "add_job", start, fmt.Errorf("add job: %w", err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, db.observe(ctx, "add_job", start, fmt.Errorf("add job: last insert id: %w", err))
	}
	return id, db.observe(ctx, "add_job", start, nil)
}

func (db *DB) filterClause(category, jobType string) (string, []any) {
	where := activeClause("")
	args := []any{db.now().Unix()}
	if category != "" {
		where += " AND category = ?"
		args = append(args, category)
	}
	if jobType != "" {
		where += " AND job_type = ?"
		args = append(args, jobType)
	}
	return where, args
}

// ListJobs returns active jobs newest first. The id tiebreak makes the order
// total, so walking offsets in steps of Limit visits every job exactly once.
func (db *DB) ListJobs(ctx context.Context, filter JobFilter) ([]Job, error) {
	switch {
	case filter.Limit < 0:
		return nil, domerrors.NewValidationError("limit", "must not be negative")
	case filter.Offset < 0:
		return nil, domerrors.NewValidationError("offset", "must not be negative")
	case filter.Limit > db.opts.MaxPageSize:
		return nil, domerrors.NewValidationError("limit", fmt.Sprintf("must be at most %d", db.opts.MaxPageSize))
	case filter.Limit == 0:
		return []Job{}, nil
	}

	start := time.Now()
	where, args := db.filterClause(filter.Category, filter.JobType)
	query := `SELECT ` + jobColumns("") + ` FROM jobs WHERE ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list jobs",
			"category", filter.Category,
			"job_type", filter.JobType,
			"error", err)
		return nil, db.observe(ctx, "list_jobs", start, fmt.Errorf("list jobs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	jobs, err := scanJobs(rows)
	return jobs, db.observe(ctx, "list_jobs", start, err)
}

// CountJobs counts active jobs matching the optional filters.
func (db *DB) CountJobs(ctx context.Context, category, jobType string) (int, error) {
	start := time.Now()
	where, args := db.filterClause(category, jobType)
	var n int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs WHERE `+where, args...).Scan(&n); err != nil {
		return 0, db.observe(ctx, "count_jobs", start, fmt.Errorf("count jobs: %w", err))
	}
	return n, db.observe(ctx, "count_jobs", start, nil)
}

// GetJobByID returns an active job or ErrNotFound.
func (db *DB) GetJobByID(ctx context.Context, id int64) (*Job, error) {
	start := time.Now()
	query := `SELECT ` + jobColumns("") + ` FROM jobs WHERE id = ? AND ` + activeClause("")
	job, err := scanJob(db.reader.QueryRowContext(ctx, query, id, db.now().Unix()))
	if err != nil {
		return nil, db.observe(ctx, "get_job", start, fmt.Errorf("get job %d: %w", id, err))
	}
	return job, db.observe(ctx, "get_job", start, nil)
}

// SearchJobs matches keyword as a case-insensitive substring of title,
// company or description. Newest first, capped at SearchLimit.
func (db *DB) SearchJobs(ctx context.Context, keyword string) ([]Job, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, domerrors.NewValidationError("keyword", "search keyword is required")
	}
	if utf8.RuneCountInString(keyword) > maxSearchTermLength {
		return nil, domerrors.NewValidationError("keyword", "search keyword is too long")
	}

	start := time.Now()
	pattern := "%" + sanitizeSearchTerm(foldText(keyword)) + "%"
	query := `SELECT ` + jobColumns("") + ` FROM jobs
		WHERE ` + activeClause("") + ` AND search_text LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := db.reader.QueryContext(ctx, query, db.now().Unix(), pattern, db.opts.SearchLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to search jobs",
			"keyword", keyword,
			"error", err)
		return nil, db.observe(ctx, "search_jobs", start, fmt.Errorf("search jobs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	jobs, err := scanJobs(rows)
	return jobs, db.observe(ctx, "search_jobs", start, err)
}

// ListEmployerJobs returns every job the employer posted, including inactive ones.
func (db *DB) ListEmployerJobs(ctx context.Context, employerID int64) ([]Job, error) {
	start := time.Now()
	query := `SELECT ` + jobColumns("") + ` FROM jobs WHERE employer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.reader.QueryContext(ctx, query, employerID)
	if err != nil {
		return nil, db.observe(ctx, "list_employer_jobs", start, fmt.Errorf("list employer jobs: %w", err))
	}
	defer func() { _ = rows.Close() }()

	jobs, err := scanJobs(rows)
	return jobs, db.observe(ctx, "list_employer_jobs", start, err)
}

// DeactivateJob soft-deletes a job on behalf of its employer.
// ErrForbidden if the job belongs to someone else; ErrNotFound if it does not exist.
func (db *DB) DeactivateJob(ctx context.Context, jobID, employerID int64) error {
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkJobOwner(ctx, tx, jobID, employerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET is_active = 0 WHERE id = ?`, jobID); err != nil {
			return fmt.Errorf("deactivate job %d: %w", jobID, err)
		}
		return nil
	})
	return db.observe(ctx, "deactivate_job", start, err)
}

// checkJobOwner returns ErrNotFound or ErrForbidden unless employerID owns jobID.
func checkJobOwner(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, jobID, employerID int64) error {
	var owner int64
	err := q.QueryRowContext(ctx, `SELECT employer_id FROM jobs WHERE id = ?`, jobID).Scan(&owner)
	if err != nil {
		return fmt.Errorf("job %d: %w", jobID, err)
	}
	if owner != employerID {
		return fmt.Errorf("job %d is not owned by %d: %w", jobID, employerID, domerrors.ErrForbidden)
	}
	return nil
}

// ExpireJobs deactivates active jobs whose expiry is at or before now.
func (db *DB) ExpireJobs(ctx context.Context, now time.Time) (int64, error) {
	start := time.Now()
	res, err := db.writer.ExecContext(ctx,
		`UPDATE jobs SET is_active = 0 WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`,
		now.Unix())
	if err != nil {
		return 0, db.observe(ctx, "expire_jobs", start, fmt.Errorf("expire jobs: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, db.observe(ctx, "expire_jobs", start, fmt.Errorf("expire jobs: rows affected: %w", err))
	}
	return n, db.observe(ctx, "expire_jobs", start, nil)
}

// IncrementJobViews bumps the view counter of an active job.
// Views are not deduplicated per user.
func (db *DB) IncrementJobViews(ctx context.Context, jobID int64) error {
	start := time.Now()
	res, err := db.writer.ExecContext(ctx,
		`UPDATE jobs SET views = views + 1 WHERE id = ? AND `+activeClause(""),
		jobID, db.now().Unix())
	if err != nil {
		return db.observe(ctx, "increment_views", start, fmt.Errorf("increment views %d: %w", jobID, err))
	}
	return db.observe(ctx, "increment_views", start, requireAffected(res, "job %d", jobID))
}

// ViewJob fetches an active job for userID in one transaction: the view
// counter is incremented, a view interaction is logged for known users, and
// the viewer's applied/saved flags are filled in.
func (db *DB) ViewJob(ctx context.Context, jobID, userID int64) (*JobView, error) {
	start := time.Now()
	var view *JobView
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		now := db.now().Unix()
		query := `SELECT ` + jobColumns("") + ` FROM jobs WHERE id = ? AND ` + activeClause("")
		job, err := scanJob(tx.QueryRowContext(ctx, query, jobID, now))
		if err != nil {
			return fmt.Errorf("view job %d: %w", jobID, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET views = views + 1 WHERE id = ?`, jobID); err != nil {
			return fmt.Errorf("view job %d: increment: %w", jobID, err)
		}
		job.Views++

		view = &JobView{Job: *job}
		if userID <= 0 {
			return nil
		}
		if err := logInteraction(ctx, tx, userID, jobID, InteractionView, now); err != nil {
			return err
		}
		err = tx.QueryRowContext(ctx, `
			SELECT
				EXISTS(SELECT 1 FROM applications WHERE job_id = ? AND applicant_id = ?),
				EXISTS(SELECT 1 FROM saved_jobs WHERE job_id = ? AND user_id = ?)`,
			jobID, userID, jobID, userID).Scan(&view.HasApplied, &view.IsSaved)
		if err != nil {
			return fmt.Errorf("view job %d: flags: %w", jobID, err)
		}
		return nil
	})
	if err != nil {
		return nil, db.observe(ctx, "view_job", start, err)
	}
	return view, db.observe(ctx, "view_job", start, nil)
}

// logInteraction records an interaction for users that exist; unknown users are skipped.
func logInteraction(ctx context.Context, tx *sql.Tx, userID, jobID int64, kind InteractionType, now int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_interactions (user_id, job_id, interaction_type, created_at)
		SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE user_id = ?)`,
		userID, jobID, string(kind), now, userID)
	if err != nil {
		return fmt.Errorf("log %s interaction: %w", kind, err)
	}
	return nil
}

// CountJobsByCategory returns active job counts per category, largest first.
func (db *DB) CountJobsByCategory(ctx context.Context) ([]CategoryCount, error) {
	start := time.Now()
	query := `SELECT category, COUNT(*) FROM jobs WHERE ` + activeClause("") + `
		GROUP BY category ORDER BY COUNT(*) DESC, category ASC`
	rows, err := db.reader.QueryContext(ctx, query, db.now().Unix())
	if err != nil {
		return nil, db.observe(ctx, "count_by_category", start, fmt.Errorf("count jobs by category: %w", err))
	}
	defer func() { _ = rows.Close() }()

	counts := make([]CategoryCount, 0)
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, db.observe(ctx, "count_by_category", start, fmt.Errorf("scan category count: %w", err))
		}
		counts = append(counts, c)
	}
	return counts, db.observe(ctx, "count_by_category", start, rows.Err())
}
