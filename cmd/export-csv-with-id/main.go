// Command export-csv-with-id writes the enriched colleges dataset as an
// id,name,country,domain CSV. Every run draws new random ids.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/colleges/internal/college"
	"github.com/JonMunkholm/colleges/internal/config"
	"github.com/JonMunkholm/colleges/internal/csvio"
	"github.com/JonMunkholm/colleges/internal/logging"
)

const envFile = "../.env.local"

func main() {
	if err := godotenv.Load(envFile); err != nil {
		slog.Info("no env file found, using environment variables", "path", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	records, err := college.ReadFile(cfg.Paths.EnrichedJSON)
	if err != nil {
		slog.Error("failed to read enriched colleges", "error", err)
		os.Exit(1)
	}

	n, err := csvio.Export(records, cfg.Paths.CSVWithID, true)
	if err != nil {
		slog.Error("failed to write csv", "error", err)
		os.Exit(1)
	}
	slog.Info("exported colleges", "rows", n, "output", cfg.Paths.CSVWithID)
}
