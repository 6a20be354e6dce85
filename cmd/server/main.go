// Package main is the Zewed Jobs server: the Telegram bot, the dashboard API
// and the background jobs in one process.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zewedjobs/zewed-jobs-go/internal/app"
	"github.com/zewedjobs/zewed-jobs-go/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	application, err := app.Initialize(context.Background(), cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Server stopped with error: %v\n", err)
		os.Exit(1)
	}
}
