// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zewedjobs/zewed-jobs-go/internal/bot"
	"github.com/zewedjobs/zewed-jobs-go/internal/bot/admin"
	"github.com/zewedjobs/zewed-jobs-go/internal/bot/employer"
	"github.com/zewedjobs/zewed-jobs-go/internal/bot/jobs"
	"github.com/zewedjobs/zewed-jobs-go/internal/buildinfo"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/dashboard"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/metrics"
	"github.com/zewedjobs/zewed-jobs-go/internal/objstore"
	"github.com/zewedjobs/zewed-jobs-go/internal/ratelimit"
	"github.com/zewedjobs/zewed-jobs-go/internal/sentry"
	"github.com/zewedjobs/zewed-jobs-go/internal/snapshot"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
	"github.com/zewedjobs/zewed-jobs-go/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *storage.DB
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	api       *tgbotapi.BotAPI
	processor *bot.Processor
	snapshots *snapshot.Manager // nil when backups are disabled

	dashboardHandler *dashboard.Handler
	webhookHandler   *webhook.Handler // nil in long-polling mode

	userLimiter *ratelimit.KeyedLimiter[int64]
	postQuota   *ratelimit.KeyedLimiter[int64]

	server *http.Server
	wg     sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:               cfg.LogLevel,
		Writer:              os.Stdout,
		BetterStackToken:    cfg.BetterStack.Token,
		BetterStackEndpoint: cfg.BetterStack.Endpoint,
	})
	log = log.WithField("service", cfg.ServerName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Storage logs through slog.*Context, which picks up user/chat/request ids.
	slog.SetDefault(log.Logger)

	log.Info("Initializing application...")
	if cfg.BetterStack.Token != "" {
		log.WithField("endpoint", cfg.BetterStack.Endpoint).Info("Better Stack logging enabled")
	}

	release := cfg.Sentry.Release
	if release == "" {
		release = buildinfo.Get().Version
	}
	if err := sentry.Initialize(sentry.Config{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		Release:          release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.Sentry.Environment).Info("Sentry error reporting enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	snapshots, err := setupSnapshots(ctx, cfg, m, log)
	if err != nil {
		return nil, err
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), storage.Options{
		JobTTL:      cfg.JobTTL,
		MaxPageSize: cfg.MaxPageSize,
		SearchLimit: cfg.SearchLimit,
		Categories:  cfg.Catalog.CategoryKeys(),
		JobTypes:    cfg.Catalog.JobTypeKeys(),
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	db.SetMetrics(m)
	log.WithField("path", cfg.SQLitePath()).WithField("job_ttl", cfg.JobTTL).Info("Database connected")

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.WithField("bot", api.Self.UserName).Info("Telegram bot authorized")

	userLimiter := ratelimit.NewKeyedLimiter[int64](ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.Bot.UserRateLimitBurst,
		RefillRate:    cfg.Bot.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
	var postQuota *ratelimit.KeyedLimiter[int64]
	if cfg.Bot.DailyPostLimit > 0 {
		postQuota = ratelimit.NewKeyedLimiter[int64](ratelimit.KeyedConfig{
			Name:          "post",
			WindowLimit:   cfg.Bot.DailyPostLimit,
			Window:        24 * time.Hour,
			CleanupPeriod: config.RateLimiterCleanupInterval,
			Metrics:       m,
		})
	}

	botRegistry := bot.NewRegistry()
	botRegistry.Use(bot.LoggingMiddleware(log), bot.RecoveryMiddleware(log))
	botRegistry.Register(jobs.NewHandler(db, cfg.Catalog, log,
		jobs.WithPageSize(cfg.PageSize),
		jobs.WithMetrics(m)))
	botRegistry.Register(employer.NewHandler(db, cfg.Catalog, log,
		employer.WithPosting(cfg.Features.JobPosting),
		employer.WithPostQuota(postQuota),
		employer.WithMetrics(m)))
	botRegistry.Register(admin.NewHandler(db, cfg.Catalog, log))

	sender := bot.NewSender(api, cfg.Bot.SendRatePerSec, m)
	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry:    botRegistry,
		Users:       db,
		Sender:      sender,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
		AdminIDs:    cfg.AdminIDs,
		BotConfig:   cfg.Bot,
	})
	if err := sender.SetCommands(menuCommands(botRegistry)); err != nil {
		log.WithError(err).Warn("Failed to publish the command menu")
	}

	app := &Application{
		cfg:         cfg,
		logger:      log,
		db:          db,
		metrics:     m,
		registry:    registry,
		api:         api,
		processor:   processor,
		snapshots:   snapshots,
		userLimiter: userLimiter,
		postQuota:   postQuota,
		dashboardHandler: dashboard.NewHandler(db, cfg.Catalog, log,
			dashboard.WithMetrics(m),
			dashboard.WithAdminToken(cfg.DashboardAdminToken)),
	}
	if cfg.WebhookURL != "" {
		app.webhookHandler = webhook.NewHandler(processor, log, webhook.WithSecret(cfg.WebhookSecret))
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.HTTPRead,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// setupSnapshots connects the backup bucket and restores the database on a
// fresh host. Returns nil when backups are disabled.
func setupSnapshots(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) (*snapshot.Manager, error) {
	if !cfg.Backup.Enabled {
		return nil, nil
	}
	store, err := objstore.New(ctx, objstore.Config{
		Endpoint:    cfg.Backup.Endpoint,
		Region:      cfg.Backup.Region,
		AccessKeyID: cfg.Backup.AccessKeyID,
		SecretKey:   cfg.Backup.SecretAccessKey,
		Bucket:      cfg.Backup.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("backup store: %w", err)
	}
	snapshots := snapshot.New(store, snapshot.Config{
		Key:     cfg.Backup.Key,
		TempDir: cfg.DataDir,
		Metrics: m,
	})

	restoreCtx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
	defer cancel()
	restored, err := snapshots.RestoreIfMissing(restoreCtx, cfg.SQLitePath())
	if err != nil {
		// Starting empty would let the next backup overwrite the good snapshot.
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	if restored {
		log.WithField("key", cfg.Backup.Key).Info("Database restored from snapshot")
	}
	return snapshots, nil
}

// menuCommands is the Telegram command menu: the built-ins plus every
// public module command.
func menuCommands(r *bot.Registry) []bot.Command {
	return append([]bot.Command{
		{Name: "start", Description: "Main menu"},
		{Name: "help", Description: "List commands"},
		{Name: "about", Description: "About Zewed Jobs"},
	}, r.Commands(false)...)
}

// newRouter builds the HTTP routes: probes, metrics, the Telegram webhook
// (webhook mode only) and the dashboard API.
func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentry.Middleware())
	router.Use(dashboard.RequestID())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))
	router.Use(dashboard.Metrics(a.metrics))

	router.GET("/", a.index)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	if a.webhookHandler != nil {
		router.POST("/telegram/webhook", a.webhookHandler.Handle)
	}
	a.dashboardHandler.Register(router)

	return router
}

func (a *Application) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": a.cfg.ServerName,
		"build":   buildinfo.Get(),
	})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) updateMode() string {
	if a.cfg.WebhookURL != "" {
		return "webhook"
	}
	return "polling"
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}
	if err := a.db.Ready(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: schema missing")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "schema missing",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"updates":  a.updateMode(),
		"features": gin.H{
			"job_posting":         a.cfg.Features.JobPosting,
			"resume_upload":       a.cfg.Features.ResumeUpload,
			"email_notifications": a.cfg.Features.EmailNotifications,
			"backups":             a.snapshots != nil,
		},
	})
}

// Run starts the HTTP server, update intake and background jobs, then
// blocks until SIGINT/SIGTERM.
//
// Shutdown order:
//  1. Cancel context: polling and background jobs stop
//  2. Wait for them, so nothing touches the database afterwards
//  3. Stop HTTP, drain in-flight updates, take a final snapshot, close the database
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	a.startHTTPServer()

	var runErr error
	if err := a.startUpdates(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to start receiving updates")
		runErr = err
	} else {
		sig := a.waitForShutdownSignal()
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return errors.Join(runErr, a.shutdown())
}

// startUpdates registers the webhook, or clears it and starts long polling.
func (a *Application) startUpdates(ctx context.Context) error {
	if a.cfg.WebhookURL != "" {
		if err := bot.RegisterWebhook(a.api, a.cfg.WebhookURL, a.cfg.WebhookSecret); err != nil {
			return err
		}
		a.logger.WithField("url", a.cfg.WebhookURL).Info("Webhook registered")
		return nil
	}

	// getUpdates is refused while a webhook is set.
	if err := bot.DeleteWebhook(a.api); err != nil {
		return err
	}
	a.wg.Go(func() {
		if err := a.processor.Poll(ctx, a.api, config.LongPollTimeout); err != nil {
			a.logger.WithError(err).Error("Long polling stopped")
		}
	})
	return nil
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.expirySweeper(ctx)
	})
	a.wg.Go(func() {
		a.updateGaugeMetrics(ctx)
	})
	if a.snapshots != nil {
		a.wg.Go(func() {
			a.backupLoop(ctx)
		})
	}
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown closes resources. Call it only after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for in-flight updates to complete...")
	if err := a.processor.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Update processing shutdown timeout")
	}

	if a.snapshots != nil {
		a.runBackup(shutdownCtx)
	}

	a.logger.Info("Closing resources...")
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}
	a.userLimiter.Stop()
	if a.postQuota != nil {
		a.postQuota.Stop()
	}

	sentry.Flush(2 * time.Second)

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}
