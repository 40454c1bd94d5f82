// Package main implements the entry point for the postboard API server,
// which serves users, posts and categories over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/corvid-labs/postboard/internal/config"
	"github.com/corvid-labs/postboard/internal/platform/logger"
	"github.com/corvid-labs/postboard/internal/platform/postgres"
	"github.com/corvid-labs/postboard/internal/redact"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command ("+strings.Join(postgres.MigrationCommands, ", ")+") and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd); err != nil {
		slog.Error("server exited with error", redact.ErrorAttr(err))
		stop()
		os.Exit(1)
	}
}

// run loads configuration, connects to the database and then either runs a
// migration command or serves HTTP until ctx is canceled.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupAppDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDatabase(db, log)
		return postgres.Migrate(ctx, db, migrateCmd, log)
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		closeDatabase(db, log)
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadAppConfig loads the application configuration from environment
// variables or a config file.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)
	slog.Debug("database configuration", "url", redact.DatabaseURL(cfg.Database.URL))

	return cfg, nil
}
