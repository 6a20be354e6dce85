package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

const userColumns = `user_id, username, first_name, last_name, role, company, phone, email, skills,
	experience_years, created_at, last_active`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &role, &u.Company,
		&u.Phone, &u.Email, &u.Skills, &u.ExperienceYears, &u.CreatedAt, &u.LastActive); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

// AddUser registers a user on first contact. An existing user keeps role,
// company and profile; only the Telegram name fields and last_active change.
func (db *DB) AddUser(ctx context.Context, id int64, username, firstName, lastName string) error {
	if id <= 0 {
		return domerrors.NewValidationError("user_id", "must be positive")
	}
	query := `
		INSERT INTO users (user_id, username, first_name, last_name, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			last_active = excluded.last_active
	`
	start := time.Now()
	now := db.now().Unix()
	_, err := db.writer.ExecContext(ctx, query, id, username, firstName, lastName, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to add user",
			"user_id", id,
			"error", err)
		return db.observe(ctx, "add_user", start, fmt.Errorf("add user %d: %w", id, err))
	}
	return db.observe(ctx, "add_user", start, nil)
}

// GetUser returns the user or ErrNotFound.
func (db *DB) GetUser(ctx context.Context, id int64) (*User, error) {
	start := time.Now()
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	u, err := scanUser(db.reader.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.ErrorContext(ctx, "failed to query user",
				"user_id", id,
				"error", err)
		}
		return nil, db.observe(ctx, "get_user", start, fmt.Errorf("get user %d: %w", id, err))
	}
	return u, db.observe(ctx, "get_user", start, nil)
}

// UpdateUserProfile applies the non-nil fields of update.
func (db *DB) UpdateUserProfile(ctx context.Context, id int64, update ProfileUpdate) error {
	var sets []string
	var args []any
	if update.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, strings.TrimSpace(*update.Phone))
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if email != "" && !strings.Contains(email, "@") {
			return domerrors.NewValidationError("email", "email address looks invalid")
		}
		sets = append(sets, "email = ?")
		args = append(args, email)
	}
	if update.Skills != nil {
		sets = append(sets, "skills = ?")
		args = append(args, strings.TrimSpace(*update.Skills))
	}
	if update.ExperienceYears != nil {
		if *update.ExperienceYears < 0 || *update.ExperienceYears > 80 {
			return domerrors.NewValidationError("experience_years", "must be between 0 and 80")
		}
		sets = append(sets, "experience_years = ?")
		args = append(args, *update.ExperienceYears)
	}
	if len(sets) == 0 {
		return domerrors.NewValidationError("profile", "nothing to update")
	}

	start := time.Now()
	sets = append(sets, "last_active = ?")
	args = append(args, db.now().Unix(), id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id = ?`
	res, err := db.writer.ExecContext(ctx, query, args...)
	if err != nil {
		return db.observe(ctx, "update_profile", start, fmt.Errorf("update profile %d: %w", id, err))
	}
	return db.observe(ctx, "update_profile", start, requireAffected(res, "user %d", id))
}

// PromoteToEmployer marks the user as an employer of company.
func (db *DB) PromoteToEmployer(ctx context.Context, id int64, company string) error {
	company = strings.TrimSpace(company)
	if company == "" {
		return domerrors.NewValidationError("company", "company name is required")
	}
	start := time.Now()
	res, err := db.writer.ExecContext(ctx,
		`UPDATE users SET role = ?, company = ? WHERE user_id = ?`,
		string(RoleEmployer), company, id)
	if err != nil {
		return db.observe(ctx, "promote_employer", start, fmt.Errorf("promote user %d: %w", id, err))
	}
	return db.observe(ctx, "promote_employer", start, requireAffected(res, "user %d", id))
}

// IsEmployer reports whether the user exists and has the employer role.
func (db *DB) IsEmployer(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	var n int
	err := db.reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE user_id = ? AND role = ?`, id, string(RoleEmployer)).Scan(&n)
	if err != nil {
		return false, db.observe(ctx, "is_employer", start, fmt.Errorf("check employer %d: %w", id, err))
	}
	return n > 0, db.observe(ctx, "is_employer", start, nil)
}

// requireAffected turns a zero-row update into ErrNotFound.
func requireAffected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domerrors.ErrNotFound)
	}
	return nil
}
