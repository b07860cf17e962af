package college

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// Encode writes records as a two-space indented JSON array. Non-ASCII text
// and HTML characters are written as-is.
func Encode(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// ReadFile reads the records stored at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteFile writes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, records); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// EnrichFile reads src, derives every record's domain and writes the result
// to dst. It returns the records written.
func EnrichFile(src, dst string) ([]Record, error) {
	records, err := ReadFile(src)
	if err != nil {
		return nil, err
	}

	enriched := Enrich(records)
	if err := WriteFile(dst, enriched); err != nil {
		return nil, err
	}
	return enriched, nil
}
