package csvio

import (
	"encoding/csv"
	"io"
	"strings"
)

// NewReader returns a csv.Reader over r that tolerates a BOM, invalid UTF-8,
// bare quotes inside unquoted fields and rows with any number of fields.
func NewReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(NewSanitizingReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// HeaderIndex maps cleaned column names to their position in a row.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Call it once per file and reuse it for every row. The first occurrence of
// a duplicated column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := CleanHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanHeader normalizes a header cell: spreadsheet formula wrappers
// (="name") and surrounding quotes or whitespace are removed and the result
// is lowercased.
func CleanHeader(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "=")
	h = strings.Trim(h, `"`)
	return strings.ToLower(strings.TrimSpace(h))
}

// Has reports whether the header contains column name.
func (idx HeaderIndex) Has(name string) bool {
	_, ok := idx[CleanHeader(name)]
	return ok
}

// Cell returns the value of column name in row. ok is false when the column
// is not in the header or the row is too short to contain it.
func (idx HeaderIndex) Cell(row []string, name string) (string, bool) {
	pos, ok := idx[CleanHeader(name)]
	if !ok || pos >= len(row) {
		return "", false
	}
	return row[pos], true
}
