package app

import (
	"context"
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
)

// expirySweeper deactivates jobs past their expiry, exits on context cancellation.
func (a *Application) expirySweeper(ctx context.Context) {
	a.logger.Debug("Expiry sweeper started")
	defer a.logger.Debug("Expiry sweeper stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.ExpirySweepInitialDelay):
		a.runExpirySweep(ctx)
	}

	ticker := time.NewTicker(a.cfg.ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Expiry sweeper received shutdown signal")
			return
		case <-ticker.C:
			a.runExpirySweep(ctx)
		}
	}
}

func (a *Application) runExpirySweep(ctx context.Context) {
	start := time.Now()
	n, err := a.db.ExpireJobs(ctx, time.Now())
	if err != nil {
		a.logger.WithError(err).Error("Expiry sweep failed")
		return
	}

	a.metrics.RecordExpiredJobs(n)
	a.metrics.RecordJob("expiry_sweep", time.Since(start).Seconds())
	if n > 0 {
		a.logger.WithField("expired", n).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("Expired jobs deactivated")
	}
}

// updateGaugeMetrics periodically refreshes gauge metrics.
func (a *Application) updateGaugeMetrics(ctx context.Context) {
	a.logger.Debug("Gauge metrics job started")
	defer a.logger.Debug("Gauge metrics job stopped")

	a.recordGaugeMetrics(ctx)

	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Gauge metrics received shutdown signal")
			return
		case <-ticker.C:
			a.recordGaugeMetrics(ctx)
		}
	}
}

func (a *Application) recordGaugeMetrics(ctx context.Context) {
	if a.metrics == nil {
		return
	}
	active, err := a.db.CountJobs(ctx, "", "")
	if err != nil {
		a.logger.WithError(err).Warn("Failed to count active jobs")
		return
	}
	a.metrics.SetActiveJobs(active)
}

// backupLoop uploads a snapshot every Backup.Interval.
func (a *Application) backupLoop(ctx context.Context) {
	a.logger.Debug("Backup job started")
	defer a.logger.Debug("Backup job stopped")

	ticker := time.NewTicker(a.cfg.Backup.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Backup job received shutdown signal")
			return
		case <-ticker.C:
			a.runBackup(ctx)
		}
	}
}

func (a *Application) runBackup(ctx context.Context) {
	start := time.Now()
	backupCtx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
	defer cancel()

	if _, err := a.snapshots.Backup(backupCtx, a.db); err != nil {
		a.logger.WithError(err).Error("Snapshot backup failed")
		return
	}
	a.metrics.RecordJob("snapshot_backup", time.Since(start).Seconds())
}
