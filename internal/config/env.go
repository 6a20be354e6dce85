package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Telegram (required in server mode)
	EnvBotToken      = "ZEWED_BOT_TOKEN"
	EnvAdminIDs      = "ZEWED_ADMIN_IDS"
	EnvWebhookURL    = "ZEWED_WEBHOOK_URL"
	EnvWebhookSecret = "ZEWED_WEBHOOK_SECRET"

	// Server
	EnvPort            = "ZEWED_PORT"
	EnvLogLevel        = "ZEWED_LOG_LEVEL"
	EnvShutdownTimeout = "ZEWED_SHUTDOWN_TIMEOUT"
	EnvServerName      = "ZEWED_SERVER_NAME"

	// Data
	EnvDataDir             = "ZEWED_DATA_DIR"
	EnvCatalogFile         = "ZEWED_CATALOG_FILE"
	EnvJobTTL              = "ZEWED_JOB_TTL"
	EnvExpirySweepInterval = "ZEWED_EXPIRY_SWEEP_INTERVAL"
	EnvPageSize            = "ZEWED_PAGE_SIZE"
	EnvMaxPageSize         = "ZEWED_MAX_PAGE_SIZE"
	EnvSearchLimit         = "ZEWED_SEARCH_LIMIT"

	// Bot runtime
	EnvUpdateTimeout        = "ZEWED_UPDATE_TIMEOUT"
	EnvUserRateBurst        = "ZEWED_USER_RATE_BURST"
	EnvUserRateRefill       = "ZEWED_USER_RATE_REFILL"
	EnvMaxConcurrentUpdates = "ZEWED_MAX_CONCURRENT_UPDATES"
	EnvSendRatePerSec       = "ZEWED_SEND_RATE_PER_SEC"
	EnvDailyPostLimit       = "ZEWED_DAILY_POST_LIMIT"

	// Feature flags
	EnvEnableJobPosting         = "ZEWED_ENABLE_JOB_POSTING"
	EnvEnableResumeUpload       = "ZEWED_ENABLE_RESUME_UPLOAD"
	EnvEnableEmailNotifications = "ZEWED_ENABLE_EMAIL_NOTIFICATIONS"

	// Dashboard
	EnvDashboardAdminToken = "ZEWED_DASHBOARD_ADMIN_TOKEN"

	// Metrics auth
	EnvMetricsUsername = "ZEWED_METRICS_USERNAME"
	EnvMetricsPassword = "ZEWED_METRICS_PASSWORD"

	// Sentry
	EnvSentryDSN              = "ZEWED_SENTRY_DSN"
	EnvSentryEnvironment      = "ZEWED_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "ZEWED_SENTRY_RELEASE"
	EnvSentrySampleRate       = "ZEWED_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "ZEWED_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken    = "ZEWED_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "ZEWED_BETTERSTACK_ENDPOINT"

	// Snapshot backup (S3 compatible)
	EnvBackupEnabled         = "ZEWED_BACKUP_ENABLED"
	EnvBackupEndpoint        = "ZEWED_BACKUP_ENDPOINT"
	EnvBackupRegion          = "ZEWED_BACKUP_REGION"
	EnvBackupAccessKeyID     = "ZEWED_BACKUP_ACCESS_KEY_ID"
	EnvBackupSecretAccessKey = "ZEWED_BACKUP_SECRET_ACCESS_KEY"
	EnvBackupBucket          = "ZEWED_BACKUP_BUCKET"
	EnvBackupKey             = "ZEWED_BACKUP_KEY"
	EnvBackupInterval        = "ZEWED_BACKUP_INTERVAL"
)
