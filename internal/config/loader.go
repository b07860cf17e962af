package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ErrMissingConnection is returned by TableConfig.Validate when the
// credentials for the selected backend are not set.
var ErrMissingConnection = errors.New("missing table connection settings")

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates everything except the
// table connection, which only the loader needs (see TableConfig.Validate).
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}
		envAlt := field.Tag.Get("envAlt")

		value := strings.TrimSpace(os.Getenv(envName))
		if value == "" && envAlt != "" {
			value = strings.TrimSpace(os.Getenv(envAlt))
		}

		if value == "" {
			if field.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %w", err)
		}
		field.SetInt(i)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Paths
	for _, p := range []struct{ env, value string }{
		{"COLLEGES_SOURCE_JSON", c.Paths.SourceJSON},
		{"COLLEGES_ENRICHED_JSON", c.Paths.EnrichedJSON},
		{"COLLEGES_CSV", c.Paths.CSV},
		{"COLLEGES_CSV_WITH_ID", c.Paths.CSVWithID},
		{"COLLEGES_LOAD_CSV", c.Paths.LoadCSV},
	} {
		if p.value == "" {
			errs = append(errs, p.env+" must not be empty")
		}
	}

	// Table
	switch c.Table.Backend {
	case BackendREST, BackendPostgres:
	default:
		errs = append(errs, fmt.Sprintf("TABLE_BACKEND (%q) must be one of: rest, postgres", c.Table.Backend))
	}
	if c.Table.Name == "" {
		errs = append(errs, "TABLE_NAME must not be empty")
	}
	if c.Table.Timeout <= 0 {
		errs = append(errs, "TABLE_TIMEOUT must be positive")
	}
	if c.Table.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}

	// Load
	if c.Load.BatchSize <= 0 {
		errs = append(errs, "LOAD_BATCH_SIZE must be positive")
	}
	if c.Load.ProgressEvery <= 0 {
		errs = append(errs, "LOAD_PROGRESS_EVERY must be positive")
	}

	// Logging
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Validate checks that the connection settings for the selected backend are
// present. The returned error wraps ErrMissingConnection and names every
// missing or malformed variable.
func (c *TableConfig) Validate() error {
	var missing []string

	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		if c.URL == "" {
			missing = append(missing, "NEXT_PUBLIC_SUPABASE_URL")
		} else if u, err := url.Parse(c.URL); err != nil || u.Scheme == "" || u.Host == "" {
			missing = append(missing, fmt.Sprintf("NEXT_PUBLIC_SUPABASE_URL (%q) is not an absolute URL", c.URL))
		}
		if c.Key == "" {
			missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConnection, strings.Join(missing, ", "))
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// The credential and database URL are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Paths: {Source: %q, Enriched: %q, CSV: %q, CSVWithID: %q, LoadCSV: %q}, ",
		c.Paths.SourceJSON, c.Paths.EnrichedJSON, c.Paths.CSV, c.Paths.CSVWithID, c.Paths.LoadCSV)
	fmt.Fprintf(&b, "Table: {Backend: %q, URL: %q, Key: %s, DatabaseURL: %s, Name: %q}, ",
		c.Table.Backend, c.Table.URL, mask(c.Table.Key), mask(c.Table.DatabaseURL), c.Table.Name)
	fmt.Fprintf(&b, "Load: {Purge: %v, BatchSize: %d, ProgressEvery: %d}, ",
		c.Load.Purge, c.Load.BatchSize, c.Load.ProgressEvery)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
