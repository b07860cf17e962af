// Package csvio projects college records into CSV tables and reads such
// tables back for loading.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/JonMunkholm/colleges/internal/college"
)

// Column names of the exported tables.
const (
	ColID      = "id"
	ColName    = "name"
	ColCountry = "country"
	ColDomain  = "domain"
)

// IDFunc mints the identifier placed in the id column.
type IDFunc func() uuid.UUID

// Header returns the fixed header row for the chosen projection.
func Header(includeID bool) []string {
	if includeID {
		return []string{ColID, ColName, ColCountry, ColDomain}
	}
	return []string{ColName, ColCountry, ColDomain}
}

// Project builds the header row plus one row per record. Absent domains
// become empty cells. When includeID is set, newID is called once per row;
// a nil newID uses uuid.New.
func Project(records []college.Record, includeID bool, newID IDFunc) [][]string {
	if includeID && newID == nil {
		newID = uuid.New
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, Header(includeID))
	for _, rec := range records {
		row := []string{rec.Name, rec.Country, rec.DomainText()}
		if includeID {
			row = append([]string{newID().String()}, row...)
		}
		rows = append(rows, row)
	}
	return rows
}

// Write emits rows as comma-separated CSV with standard quoting.
func Write(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Export projects records and writes them to path. It returns the number of
// data rows written.
func Export(records []college.Record, path string, includeID bool) (int, error) {
	rows := Project(records, includeID, uuid.New)
	if err := WriteFile(path, rows); err != nil {
		return 0, err
	}
	return len(rows) - 1, nil
}
