// Command extract-domains adds a domain field to every record of the world
// universities dataset, taken from the record's first web page.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/colleges/internal/college"
	"github.com/JonMunkholm/colleges/internal/config"
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

	records, err := college.EnrichFile(cfg.Paths.SourceJSON, cfg.Paths.EnrichedJSON)
	if err != nil {
		slog.Error("failed to extract domains", "error", err)
		os.Exit(1)
	}

	withDomain := 0
	for _, r := range records {
		if r.Domain != nil {
			withDomain++
		}
	}
	slog.Info("extracted domains",
		"records", len(records),
		"with_domain", withDomain,
		"output", cfg.Paths.EnrichedJSON,
	)
}
