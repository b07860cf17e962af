// Package table is the client for the remote colleges table.
//
// The Client interface exposes the three operations the loader needs:
// delete by filter, insert, and select with an optional row count. Two
// backends implement it:
//
//   - REST: the hosted database's PostgREST endpoint (<url>/rest/v1/<table>),
//     authenticated with the service credential.
//   - Postgres: a direct pgx connection pool to the same database.
//
// Every call returns (Response, error); callers decide whether an error is
// fatal. Classify maps errors to stable codes for logs.
package table

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colleges/internal/config"
)

// Row is one record of the colleges table.
type Row struct {
	ID      uuid.UUID `json:"id" db:"id"`
	Name    string    `json:"name" db:"name"`
	Country string    `json:"country" db:"country"`
	Domain  *string   `json:"domain" db:"domain"`
}

// Response is the acknowledgment of a table call. Data holds the rows the
// server returned; Count is set only when a count was requested and known.
type Response struct {
	Data  []Row
	Count *int64
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
)

// Filter restricts a delete to rows where Column Op Value holds.
type Filter struct {
	Column string
	Op     Op
	Value  string
}

// CountMode selects whether Select also counts matching rows.
type CountMode int

const (
	CountNone CountMode = iota
	CountExact
)

// NilUUID is the all-zero identifier. No real row carries it, so
// "id neq NilUUID" matches every row.
const NilUUID = "00000000-0000-0000-0000-000000000000"

// AllRows is the filter used to purge the whole table.
var AllRows = Filter{Column: "id", Op: OpNeq, Value: NilUUID}

// Client is the table capability used by the loader.
type Client interface {
	// Delete removes rows matching f and returns the deleted rows.
	Delete(ctx context.Context, f Filter) (Response, error)

	// Insert adds rows and returns the rows the table stored.
	Insert(ctx context.Context, rows ...Row) (Response, error)

	// Select reads columns (comma separated) and, with CountExact, the
	// total number of rows.
	Select(ctx context.Context, columns string, count CountMode) (Response, error)

	// Close releases connections held by the client.
	Close()
}

// Open connects to the table described by cfg. cfg must already have passed
// TableConfig.Validate.
func Open(ctx context.Context, cfg config.TableConfig) (Client, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg)
	case config.BackendREST, "":
		return NewREST(cfg), nil
	default:
		return nil, fmt.Errorf("unknown table backend %q", cfg.Backend)
	}
}
