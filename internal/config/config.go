// Package config provides centralized configuration for the colleges ETL
// entry points. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import "time"

// Table backends understood by the table package.
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Paths   PathsConfig
	Table   TableConfig
	Load    LoadConfig
	Logging LoggingConfig
}

// PathsConfig holds the input and output locations of each pipeline step.
type PathsConfig struct {
	// SourceJSON is the raw university dataset read by extract-domains
	SourceJSON string `env:"COLLEGES_SOURCE_JSON" default:"world_universities_and_domains.json"`

	// EnrichedJSON is written by extract-domains and read by both exporters
	EnrichedJSON string `env:"COLLEGES_ENRICHED_JSON" default:"colleges_with_domain.json"`

	// CSV is the name,country,domain export
	CSV string `env:"COLLEGES_CSV" default:"colleges_name_country_domain.csv"`

	// CSVWithID is the id,name,country,domain export
	CSVWithID string `env:"COLLEGES_CSV_WITH_ID" default:"colleges_id_name_country_domain.csv"`

	// LoadCSV is the table read by populate-colleges
	LoadCSV string `env:"COLLEGES_LOAD_CSV" default:"../colleges_name_country_domain.csv"`
}

// TableConfig holds the connection settings for the remote colleges table.
type TableConfig struct {
	// Backend selects the table client: rest or postgres (default: rest)
	Backend string `env:"TABLE_BACKEND" default:"rest"`

	// URL is the hosted database base endpoint (required for rest)
	URL string `env:"NEXT_PUBLIC_SUPABASE_URL" envAlt:"SUPABASE_URL"`

	// Key is the service credential sent with every request (required for rest)
	Key string `env:"SUPABASE_SERVICE_ROLE_KEY" envAlt:"SUPABASE_KEY"`

	// DatabaseURL is the PostgreSQL connection string (required for postgres)
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Name is the target table, optionally schema qualified (default: colleges)
	Name string `env:"TABLE_NAME" default:"colleges"`

	// Timeout bounds each HTTP request (default: 30s)
	Timeout time.Duration `env:"TABLE_TIMEOUT" default:"30s"`

	// MaxConns is the pgx pool size (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// LoadConfig holds table loader behaviour.
type LoadConfig struct {
	// Purge deletes existing rows before inserting (default: true)
	Purge bool `env:"LOAD_PURGE" default:"true"`

	// BatchSize is the number of rows per insert request; 1 is row-by-row (default: 1)
	BatchSize int `env:"LOAD_BATCH_SIZE" default:"1"`

	// ProgressEvery logs progress after this many inserts (default: 100)
	ProgressEvery int `env:"LOAD_PROGRESS_EVERY" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
