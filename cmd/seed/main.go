// Command seed loads the sample job catalogue into the Zewed Jobs database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/logger"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

var (
	employerFlag = flag.Int64("employer", 0, "Telegram user id that owns the sample jobs (0 = first admin id)")
	forceFlag    = flag.Bool("force", false, "Insert even when the database already has active jobs")
	fileFlag     = flag.String("file", "", "YAML file with jobs to load instead of the built-in samples")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.SeedMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).WithModule("seed")

	employerID := *employerFlag
	if employerID == 0 && len(cfg.AdminIDs) > 0 {
		employerID = cfg.AdminIDs[0]
	}
	if employerID <= 0 {
		_, _ = fmt.Fprintf(os.Stderr, "No employer id: pass -employer or set %s\n", config.EnvAdminIDs)
		os.Exit(2)
	}

	raw := sampleJobsYAML
	if *fileFlag != "" {
		if raw, err = os.ReadFile(*fileFlag); err != nil {
			log.WithError(err).Error("Failed to read jobs file")
			os.Exit(1)
		}
	}
	jobs, err := parseSampleJobs(raw)
	if err != nil {
		log.WithError(err).Error("Invalid jobs file")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := storage.New(ctx, cfg.SQLitePath(), storage.Options{
		JobTTL:      cfg.JobTTL,
		MaxPageSize: cfg.MaxPageSize,
		SearchLimit: cfg.SearchLimit,
		Categories:  cfg.Catalog.CategoryKeys(),
		JobTypes:    cfg.Catalog.JobTypeKeys(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}

	n, err := seed(ctx, db, employerID, jobs, *forceFlag)
	if closeErr := db.Close(); closeErr != nil {
		log.WithError(closeErr).Warn("Failed to close database")
	}
	if err != nil {
		log.WithError(err).WithField("inserted", n).Error("Seeding failed")
		os.Exit(1)
	}
	if n == 0 {
		log.Info("Database already has active jobs, nothing to do")
		return
	}
	log.WithField("inserted", n).WithField("path", cfg.SQLitePath()).Info("Sample jobs loaded")
}
