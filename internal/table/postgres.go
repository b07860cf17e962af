package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/colleges/internal/config"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const rowColumns = "id, name, country, domain"

// Postgres runs table operations over a direct database connection.
type Postgres struct {
	db    DBTX
	pool  *pgxpool.Pool
	table string // sanitized identifier
}

// OpenPostgres connects a pool to cfg.DatabaseURL and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg config.TableConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c := NewPostgres(pool, cfg.Name)
	c.pool = pool
	return c, nil
}

// NewPostgres wraps an existing connection or transaction. The caller keeps
// ownership of db; Close is a no-op.
func NewPostgres(db DBTX, name string) *Postgres {
	return &Postgres{db: db, table: identifier(name)}
}

// identifier quotes a possibly schema-qualified table name.
func identifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

// Delete implements Client. The column is compared as text so the filter
// value needs no type of its own.
func (c *Postgres) Delete(ctx context.Context, f Filter) (Response, error) {
	var op string
	switch f.Op {
	case OpEq:
		op = "="
	case OpNeq:
		op = "<>"
	default:
		return Response{}, fmt.Errorf("delete from %s: unsupported operator %q", c.table, f.Op)
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s::text %s $1 RETURNING %s",
		c.table, pgx.Identifier{f.Column}.Sanitize(), op, rowColumns)

	data, err := c.queryRows(ctx, sql, f.Value)
	if err != nil {
		return Response{}, fmt.Errorf("delete from %s: %w", c.table, err)
	}
	return Response{Data: data}, nil
}

// Insert implements Client. All rows go out in one multi-row INSERT.
func (c *Postgres) Insert(ctx context.Context, rows ...Row) (Response, error) {
	if len(rows) == 0 {
		return Response{}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", c.table, rowColumns)
	args := make([]any, 0, len(rows)*4)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, r.ID, r.Name, r.Country, r.Domain)
	}
	b.WriteString(" RETURNING " + rowColumns)

	data, err := c.queryRows(ctx, b.String(), args...)
	if err != nil {
		return Response{}, fmt.Errorf("insert into %s: %w", c.table, err)
	}
	return Response{Data: data}, nil
}

// Select implements Client. With CountExact only the count is queried.
func (c *Postgres) Select(ctx context.Context, columns string, count CountMode) (Response, error) {
	if count == CountExact {
		var n int64
		if err := c.db.QueryRow(ctx, "SELECT count(*) FROM "+c.table).Scan(&n); err != nil {
			return Response{}, fmt.Errorf("count %s: %w", c.table, err)
		}
		return Response{Count: &n}, nil
	}

	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = pgx.Identifier{strings.TrimSpace(col)}.Sanitize()
	}

	rows, err := c.db.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), c.table))
	if err != nil {
		return Response{}, fmt.Errorf("select from %s: %w", c.table, err)
	}
	data, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[Row])
	if err != nil {
		return Response{}, fmt.Errorf("select from %s: %w", c.table, err)
	}
	return Response{Data: data}, nil
}

// Close implements Client.
func (c *Postgres) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

func (c *Postgres) queryRows(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Row])
}
