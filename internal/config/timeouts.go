package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead covers dashboard requests and Telegram webhook deliveries (small JSON bodies).
	HTTPRead = 10 * time.Second

	// HTTPWrite must exceed the longest dashboard handler.
	HTTPWrite = 30 * time.Second

	HTTPIdle = 120 * time.Second

	// DashboardQuery bounds a single dashboard handler's database work.
	DashboardQuery = 5 * time.Second

	ReadinessCheck = 3 * time.Second
)

// Bot timeouts
const (
	// UpdateProcessing bounds handling of one Telegram update, including the reply.
	UpdateProcessing = 30 * time.Second

	// LongPollTimeout is the getUpdates timeout in seconds. It stays below
	// GracefulShutdown so a pending poll returns before shutdown gives up.
	LongPollTimeout = 25
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	DefaultExpirySweepInterval = time.Hour

	// ExpirySweepInitialDelay lets the server settle before the first sweep.
	ExpirySweepInitialDelay = 30 * time.Second

	DefaultBackupInterval = 6 * time.Hour

	// SnapshotTransfer bounds one snapshot upload or restore.
	SnapshotTransfer = 5 * time.Minute

	// MetricsUpdateInterval is how often gauge metrics (active jobs) are refreshed.
	MetricsUpdateInterval = 5 * time.Minute

	RateLimiterCleanupInterval = 5 * time.Minute
)

// GracefulShutdown allows in-flight requests and updates to finish.
const GracefulShutdown = 30 * time.Second
