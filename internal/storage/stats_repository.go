package storage

import (
	"context"
	"fmt"
	"time"

	domerrors "github.com/zewedjobs/zewed-jobs-go/internal/errors"
)

const maxDailyWindow = 90

// GetStatistics returns the headline counts in a single statement, so the
// numbers come from one consistent snapshot.
func (db *DB) GetStatistics(ctx context.Context) (*Statistics, error) {
	start := time.Now()
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM jobs WHERE ` + activeClause("") + `),
			(SELECT COUNT(*) FROM applications),
			(SELECT COUNT(*) FROM users WHERE role = ?)
	`
	var s Statistics
	err := db.reader.QueryRowContext(ctx, query, db.now().Unix(), string(RoleEmployer)).
		Scan(&s.TotalUsers, &s.ActiveJobs, &s.TotalApplications, &s.Employers)
	if err != nil {
		return nil, db.observe(ctx, "get_statistics", start, fmt.Errorf("get statistics: %w", err))
	}
	return &s, db.observe(ctx, "get_statistics", start, nil)
}

// DailyApplications returns application counts for each of the last days
// UTC days, oldest first, including days with no applications.
func (db *DB) DailyApplications(ctx context.Context, days int) ([]DailyCount, error) {
	if days <= 0 || days > maxDailyWindow {
		return nil, domerrors.NewValidationError("days", fmt.Sprintf("must be between 1 and %d", maxDailyWindow))
	}

	start := time.Now()
	now := db.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(days - 1))

	rows, err := db.reader.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', applied_at, 'unixepoch') AS day, COUNT(*)
		FROM applications
		WHERE applied_at >= ?
		GROUP BY day`, first.Unix())
	if err != nil {
		return nil, db.observe(ctx, "daily_applications", start, fmt.Errorf("daily applications: %w", err))
	}
	defer func() { _ = rows.Close() }()

	byDay := make(map[string]int64, days)
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, db.observe(ctx, "daily_applications", start, fmt.Errorf("scan daily count: %w", err))
		}
		byDay[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, db.observe(ctx, "daily_applications", start, fmt.Errorf("iterate daily counts: %w", err))
	}

	counts := make([]DailyCount, 0, days)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		counts = append(counts, DailyCount{Day: key, Count: byDay[key]})
	}
	return counts, db.observe(ctx, "daily_applications", start, nil)
}
