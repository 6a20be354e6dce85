// Package storage is the data-access layer: schema management and the query
// façade over SQLite. These interfaces let the bot and dashboard depend on
// the operations they use instead of the concrete *DB.
package storage

import (
	"context"
	"time"
)

// UserRepository defines user operations.
type UserRepository interface {
	AddUser(ctx context.Context, id int64, username, firstName, lastName string) error
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateUserProfile(ctx context.Context, id int64, update ProfileUpdate) error
	PromoteToEmployer(ctx context.Context, id int64, company string) error
	IsEmployer(ctx context.Context, id int64) (bool, error)
}

// JobRepository defines job listing operations.
type JobRepository interface {
	AddJob(ctx context.Context, job NewJob) (int64, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)
	CountJobs(ctx context.Context, category, jobType string) (int, error)
	GetJobByID(ctx context.Context, id int64) (*Job, error)
	SearchJobs(ctx context.Context, keyword string) ([]Job, error)
	ListEmployerJobs(ctx context.Context, employerID int64) ([]Job, error)
	DeactivateJob(ctx context.Context, jobID, employerID int64) error
	ExpireJobs(ctx context.Context, now time.Time) (int64, error)
	IncrementJobViews(ctx context.Context, jobID int64) error
	ViewJob(ctx context.Context, jobID, userID int64) (*JobView, error)
	CountJobsByCategory(ctx context.Context) ([]CategoryCount, error)
}

// ApplicationRepository defines application operations.
type ApplicationRepository interface {
	RecordApplication(ctx context.Context, app NewApplication) (int64, error)
	ListUserApplications(ctx context.Context, userID int64) ([]Application, error)
	HasApplied(ctx context.Context, jobID, userID int64) (bool, error)
	ListJobApplications(ctx context.Context, jobID, employerID int64) ([]Application, error)
	UpdateApplicationStatus(ctx context.Context, appID, employerID int64, status ApplicationStatus) error
	RecentApplications(ctx context.Context, limit int) ([]Application, error)
}

// SavedJobRepository defines bookmark operations.
type SavedJobRepository interface {
	SaveJob(ctx context.Context, userID, jobID int64) (bool, error)
	UnsaveJob(ctx context.Context, userID, jobID int64) error
	ListSavedJobs(ctx context.Context, userID int64) ([]SavedJob, error)
}

// StatsRepository defines aggregate read operations.
type StatsRepository interface {
	GetStatistics(ctx context.Context) (*Statistics, error)
	DailyApplications(ctx context.Context, days int) ([]DailyCount, error)
}

// HealthChecker is implemented by stores that can report liveness and readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Ready(ctx context.Context) error
}

// Store is everything the bot and dashboard need.
type Store interface {
	UserRepository
	JobRepository
	ApplicationRepository
	SavedJobRepository
	StatsRepository
	HealthChecker
}

// Compile-time interface satisfaction checks.
var (
	_ UserRepository        = (*DB)(nil)
	_ JobRepository         = (*DB)(nil)
	_ ApplicationRepository = (*DB)(nil)
	_ SavedJobRepository    = (*DB)(nil)
	_ StatsRepository       = (*DB)(nil)
	_ Store                 = (*DB)(nil)
)
