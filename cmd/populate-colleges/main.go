// Command populate-colleges loads the name,country,domain CSV into the remote
// colleges table, replacing its contents unless LOAD_PURGE=false.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/colleges/internal/config"
	"github.com/JonMunkholm/colleges/internal/loader"
	"github.com/JonMunkholm/colleges/internal/logging"
	"github.com/JonMunkholm/colleges/internal/table"
)

const envFile = "../.env.local"

func main() {
	// Variables already set in the process win over the file.
	if err := godotenv.Load(envFile); err != nil {
		slog.Info("no env file found, using environment variables", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.Table.Validate(); err != nil {
		slog.Error("missing table connection settings", "error", err)
		os.Exit(1)
	}
	slog.Debug("configuration loaded", "config", cfg.String())

	f, err := os.Open(cfg.Paths.LoadCSV)
	if err != nil {
		slog.Error("failed to open csv", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := table.Open(ctx, cfg.Table)
	if err != nil {
		slog.Error("failed to connect to table", "backend", cfg.Table.Backend, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	slog.Info("populating table",
		"table", cfg.Table.Name,
		"backend", cfg.Table.Backend,
		"input", cfg.Paths.LoadCSV,
		"purge", cfg.Load.Purge,
		"batch_size", cfg.Load.BatchSize,
	)

	l := loader.New(client, loader.Options{
		Purge:         cfg.Load.Purge,
		BatchSize:     cfg.Load.BatchSize,
		ProgressEvery: cfg.Load.ProgressEvery,
		Logger:        logging.WithFields("component", "loader", "table", cfg.Table.Name),
	})

	res, err := l.Load(ctx, f)
	switch {
	case errors.Is(err, context.Canceled):
		slog.Warn("interrupted, partial load", "inserted", res.Inserted, "errors", res.Errors)
		return
	case err != nil:
		slog.Error("failed to read csv", "error", err)
		os.Exit(1)
	}

	summary := []any{
		"inserted", res.Inserted,
		"errors", res.Errors,
		"skipped", res.Skipped,
		"duration", res.Duration,
	}
	if res.Total != nil {
		summary = append(summary, "table_total", *res.Total)
	}
	slog.Info("done", summary...)
}
