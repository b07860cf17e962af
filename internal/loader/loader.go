// Package loader populates the colleges table from a name,country,domain CSV.
//
// A run optionally purges the table, inserts every usable row under a fresh
// identifier, and finally asks the table for its row count. Nothing is
// retried: a failed purge, a failed insert or a failed count is logged and
// counted, and the run carries on.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colleges/internal/csvio"
	"github.com/JonMunkholm/colleges/internal/table"
)

// Phase indicates the current stage of a load.
type Phase string

const (
	PhasePurging   Phase = "purging"
	PhaseInserting Phase = "inserting"
	PhaseDone      Phase = "done"
	PhaseCancelled Phase = "cancelled"
)

// Progress is the running state of a load.
type Progress struct {
	Phase    Phase
	Row      int // last CSV row read; the header is row 1
	Inserted int
	Errors   int
	Skipped  int
}

// ProgressCallback is called on phase changes and every ProgressEvery inserts.
type ProgressCallback func(Progress)

// FailedRow describes a row that was not inserted because of an error.
type FailedRow struct {
	LineNumber int
	Code       string
	Reason     string
	Data       []string
}

// Result is the outcome of a load.
type Result struct {
	Purged   int   // rows removed by the purge
	PurgeErr error // non-nil when the purge was attempted and failed

	Inserted int
	Errors   int
	Skipped  int // rows with an empty name or country

	Total     *int64 // row count reported after the load, if known
	VerifyErr error

	FailedRows []FailedRow
	Duration   time.Duration
}

// Options controls a load.
type Options struct {
	Purge         bool
	BatchSize     int // rows per insert call; values below 1 mean 1
	ProgressEvery int // log progress every N inserts; 0 disables
	NewID         func() uuid.UUID
	OnProgress    ProgressCallback
	Logger        *slog.Logger
}

// Loader inserts CSV rows into a table.Client.
type Loader struct {
	client table.Client
	opts   Options
	log    *slog.Logger
}

// New returns a Loader writing to client.
func New(client table.Client, opts Options) *Loader {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Loader{client: client, opts: opts, log: log}
}

// pendingRow is a parsed row waiting to be sent.
type pendingRow struct {
	line int
	data []string
	row  table.Row
}

// Load reads the CSV from r and inserts its rows. A malformed row is a row
// error. The returned error is non-nil when the input cannot be read or ctx
// is cancelled; the partial result is returned with it.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Result, error) {
	start := time.Now()
	result := &Result{}
	defer func() { result.Duration = time.Since(start) }()

	cr := csvio.NewReader(r)
	header, err := cr.Read()
	empty := errors.Is(err, io.EOF)
	if err != nil && !empty {
		return result, fmt.Errorf("read csv header: %w", err)
	}
	idx := csvio.MakeHeaderIndex(header)
	if !empty && (!idx.Has(csvio.ColName) || !idx.Has(csvio.ColCountry)) {
		l.log.Warn("csv header has no name or country column, every row will fail", "header", strings.Join(header, ","))
	}

	if l.opts.Purge {
		l.purge(ctx, result)
	}

	l.notify(Progress{Phase: PhaseInserting})

	line := 1
	pending := make([]pendingRow, 0, l.opts.BatchSize)
	for !empty {
		if err := ctx.Err(); err != nil {
			return l.cancel(result, line, err)
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return l.abort(ctx, result, pending, line, err)
			}
			l.fail(result, pendingRow{line: line, data: rec}, table.Classify(err).Code, err.Error())
			continue
		}

		p, ok := l.parse(result, idx, line, rec)
		if !ok {
			continue
		}
		pending = append(pending, p)
		if len(pending) >= l.opts.BatchSize {
			l.flush(ctx, result, pending)
			pending = pending[:0]
		}
	}

	if len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return l.cancel(result, line, err)
		}
		l.flush(ctx, result, pending)
	}

	l.log.Info("load complete",
		"inserted", result.Inserted,
		"errors", result.Errors,
		"skipped", result.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	l.notify(Progress{Phase: PhaseDone, Row: line, Inserted: result.Inserted, Errors: result.Errors, Skipped: result.Skipped})

	l.verify(ctx, result)
	return result, nil
}

func (l *Loader) purge(ctx context.Context, result *Result) {
	l.notify(Progress{Phase: PhasePurging})
	l.log.Info("clearing existing rows")

	resp, err := l.client.Delete(ctx, table.AllRows)
	if err != nil {
		result.PurgeErr = err
		l.log.Warn("could not clear existing rows",
			"code", table.Classify(err).Code,
			"error", err,
		)
		return
	}
	result.Purged = len(resp.Data)
	l.log.Info("cleared existing rows", "count", result.Purged)
}

// parse turns a CSV record into a table row. ok is false when the row was
// skipped or recorded as failed.
func (l *Loader) parse(result *Result, idx csvio.HeaderIndex, line int, rec []string) (pendingRow, bool) {
	p := pendingRow{line: line, data: rec}

	name, hasName := idx.Cell(rec, csvio.ColName)
	country, hasCountry := idx.Cell(rec, csvio.ColCountry)
	if !hasName || !hasCountry {
		l.fail(result, p, "VAL001", "row has no name or country cell")
		return p, false
	}

	name = strings.TrimSpace(name)
	country = strings.TrimSpace(country)
	if name == "" || country == "" {
		result.Skipped++
		l.log.Debug("skipping row without name or country", "row", line)
		return p, false
	}

	var domain *string
	if d, ok := idx.Cell(rec, csvio.ColDomain); ok {
		if d = strings.TrimSpace(d); d != "" {
			domain = &d
		}
	}

	// Any id column in the input is ignored.
	p.row = table.Row{
		ID:      l.opts.NewID(),
		Name:    name,
		Country: country,
		Domain:  domain,
	}
	return p, true
}

// flush inserts a group of rows. Rows missing from the acknowledgment are
// counted as errors.
func (l *Loader) flush(ctx context.Context, result *Result, batch []pendingRow) {
	rows := make([]table.Row, len(batch))
	for i, p := range batch {
		rows[i] = p.row
	}

	resp, err := l.client.Insert(ctx, rows...)
	if err != nil {
		code := table.Classify(err).Code
		for _, p := range batch {
			l.fail(result, p, code, err.Error())
		}
		return
	}

	before := result.Inserted
	if len(batch) == 1 {
		// A single row counts as stored on any non-empty acknowledgment.
		if len(resp.Data) == 0 {
			l.fail(result, batch[0], "ERR000", "insert returned no data")
		} else {
			result.Inserted++
		}
	} else {
		acked := make(map[uuid.UUID]bool, len(resp.Data))
		for _, r := range resp.Data {
			acked[r.ID] = true
		}
		for _, p := range batch {
			if !acked[p.row.ID] {
				l.fail(result, p, "ERR000", "insert returned no data")
				continue
			}
			result.Inserted++
		}
	}

	if every := l.opts.ProgressEvery; every > 0 && result.Inserted/every > before/every {
		last := batch[len(batch)-1].line
		l.log.Info("inserted colleges", "count", result.Inserted, "row", last)
		l.notify(Progress{
			Phase:    PhaseInserting,
			Row:      last,
			Inserted: result.Inserted,
			Errors:   result.Errors,
			Skipped:  result.Skipped,
		})
	}
}

func (l *Loader) fail(result *Result, p pendingRow, code, reason string) {
	result.Errors++
	result.FailedRows = append(result.FailedRows, FailedRow{
		LineNumber: p.line,
		Code:       code,
		Reason:     reason,
		Data:       p.data,
	})
	l.log.Warn("row failed",
		"row", p.line,
		"code", code,
		"error", reason,
		"data", strings.Join(p.data, ","),
	)
}

// verify asks the table for its row count. Failure is logged only.
func (l *Loader) verify(ctx context.Context, result *Result) {
	resp, err := l.client.Select(ctx, "id", table.CountExact)
	if err != nil {
		result.VerifyErr = err
		l.log.Warn("could not verify row count",
			"code", table.Classify(err).Code,
			"error", err,
		)
		return
	}
	result.Total = resp.Count
	if resp.Count != nil {
		l.log.Info("table row count", "total", *resp.Count)
	}
}

// abort stops a load on an unreadable input. Rows already parsed are still
// sent; nothing is verified.
func (l *Loader) abort(ctx context.Context, result *Result, pending []pendingRow, line int, err error) (*Result, error) {
	if len(pending) > 0 && ctx.Err() == nil {
		l.flush(ctx, result, pending)
	}
	l.log.Error("stopped reading csv",
		"row", line,
		"inserted", result.Inserted,
		"errors", result.Errors,
		"skipped", result.Skipped,
		"error", err,
	)
	return result, fmt.Errorf("read csv row %d: %w", line, err)
}

func (l *Loader) cancel(result *Result, line int, err error) (*Result, error) {
	l.log.Warn("load interrupted",
		"row", line,
		"inserted", result.Inserted,
		"errors", result.Errors,
		"skipped", result.Skipped,
	)
	l.notify(Progress{Phase: PhaseCancelled, Row: line, Inserted: result.Inserted, Errors: result.Errors, Skipped: result.Skipped})
	return result, err
}

func (l *Loader) notify(p Progress) {
	if l.opts.OnProgress != nil {
		l.opts.OnProgress(p)
	}
}
