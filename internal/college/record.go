// Package college models university records from the world universities
// dataset and derives the short domain token stored alongside each one.
//
// Records keep every field of the source object in its original order so a
// round trip through ReadFile and WriteFile only adds the domain field.
package college

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one university entry. Name, Country and WebPages are decoded
// views of the source fields; the source bytes are what gets written back.
// Domain is nil when no domain could be derived and encodes as null.
type Record struct {
	Name     string
	Country  string
	WebPages []string
	Domain   *string

	keys   []string
	fields map[string]json.RawMessage
}

// UnmarshalJSON decodes a JSON object while remembering key order and the raw
// value of every field.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("college record: expected object, got %v", tok)
	}

	*r = Record{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("college record: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("college record: field %q: %w", key, err)
		}
		if _, dup := r.fields[key]; !dup {
			r.keys = append(r.keys, key)
		}
		r.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	return r.decodeKnown()
}

func (r *Record) decodeKnown() error {
	r.Name = textValue(r.fields["name"])
	r.Country = textValue(r.fields["country"])

	if raw, ok := r.fields["web_pages"]; ok {
		if err := json.Unmarshal(raw, &r.WebPages); err != nil {
			return fmt.Errorf("college record %q: web_pages: %w", r.Name, err)
		}
	}

	if raw, ok := r.fields["domain"]; ok {
		var d *string
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("college record %q: domain: %w", r.Name, err)
		}
		r.Domain = d
	}
	return nil
}

// textValue renders a raw JSON value as cell text: strings unquoted, null
// and missing as empty, anything else as its JSON literal.
func textValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// MarshalJSON writes the source fields in their original order with domain
// replaced in place, or appended when the source had none.
func (r Record) MarshalJSON() ([]byte, error) {
	keys, fields := r.keys, r.fields
	if fields == nil {
		var err error
		keys, fields, err = r.syntheticFields()
		if err != nil {
			return nil, err
		}
	}

	domain, err := marshalRaw(r.Domain)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	wroteDomain := false
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		value := fields[key]
		if key == "domain" {
			value = domain
			wroteDomain = true
		}
		if err := writeField(&buf, key, value); err != nil {
			return nil, err
		}
	}
	if !wroteDomain {
		if len(keys) > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(&buf, "domain", domain); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// syntheticFields builds the field set for a record constructed in code
// rather than decoded from JSON.
func (r Record) syntheticFields() ([]string, map[string]json.RawMessage, error) {
	keys := []string{"name", "country"}
	values := []any{r.Name, r.Country}
	if r.WebPages != nil {
		keys = append(keys, "web_pages")
		values = append(values, r.WebPages)
	}

	fields := make(map[string]json.RawMessage, len(keys))
	for i, key := range keys {
		raw, err := marshalRaw(values[i])
		if err != nil {
			return nil, nil, err
		}
		fields[key] = raw
	}
	return keys, fields, nil
}

func writeField(buf *bytes.Buffer, key string, value json.RawMessage) error {
	k, err := marshalRaw(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	buf.Write(value)
	return nil
}

// marshalRaw encodes v without HTML escaping so record text survives
// unchanged.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DomainText returns the domain or an empty string when absent.
func (r Record) DomainText() string {
	if r.Domain == nil {
		return ""
	}
	return *r.Domain
}
