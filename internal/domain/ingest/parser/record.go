// Package parser turns uploaded CSV and Excel files into ordered raw records.
// It uses gocsv's lazy reader for CSV and excelize for XLSX workbooks.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CellKind distinguishes the three shapes a raw cell can take.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell is a single raw value: empty, text, or a number.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// Number returns a numeric cell.
func Number(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// Empty returns an empty cell.
func Empty() Cell {
	return Cell{}
}

// IsEmpty reports whether the cell holds no value or only whitespace.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellEmpty:
		return true
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	default:
		return false
	}
}

// String renders the cell as it would appear in the source file.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes empty cells as null, text as a string and numbers as numbers.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers and booleans. A number that
// does not fit a float64 decodes as an empty cell.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = Empty()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Text(s)
	case bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")):
		*c = Text(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			*c = Empty()
			return nil
		}
		*c = Number(f)
	}
	return nil
}

// Record is an ordered mapping from column header to cell. Key order is the
// source header order and survives a JSON round trip.
type Record struct {
	keys  []string
	cells map[string]Cell
}

// NewRecord creates a record with room for n columns.
func NewRecord(n int) Record {
	return Record{
		keys:  make([]string, 0, n),
		cells: make(map[string]Cell, n),
	}
}

// RecordOf builds a record from alternating key/value pairs. Values may be
// string, float64, int or nil. Intended for tests and fixtures.
func RecordOf(pairs ...any) Record {
	r := NewRecord(len(pairs) / 2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case string:
			r.Set(key, Text(v))
		case float64:
			r.Set(key, Number(v))
		case int:
			r.Set(key, Number(float64(v)))
		case Cell:
			r.Set(key, v)
		default:
			r.Set(key, Empty())
		}
	}
	return r
}

// Set assigns a cell. New keys are appended; existing keys keep their position.
func (r *Record) Set(key string, c Cell) {
	if r.cells == nil {
		r.cells = make(map[string]Cell)
	}
	if _, ok := r.cells[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.cells[key] = c
}

// Get returns the cell for key and whether the key exists.
func (r Record) Get(key string) (Cell, bool) {
	c, ok := r.cells[key]
	return c, ok
}

// Cell returns the cell for key, or an empty cell when key is absent or blank.
func (r Record) Cell(key string) Cell {
	if key == "" {
		return Empty()
	}
	return r.cells[key]
}

// String returns the trimmed text of the cell for key.
func (r Record) String(key string) string {
	return strings.TrimSpace(r.Cell(key).String())
}

// Keys returns the headers in source order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r Record) Len() int {
	return len(r.keys)
}

// MarshalJSON writes the record as a JSON object preserving key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.cells[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var errNotObject = errors.New("record must be a JSON object")

// UnmarshalJSON reads a JSON object keeping the key order of the input.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	*r = NewRecord(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errNotObject
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		var c Cell
		if err := c.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		r.Set(key, c)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Headers returns the key set of the first record, or nil for an empty batch.
func Headers(rows []Record) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Keys()
}

// FromTable converts a header row and data rows into records. Short rows are
// padded with empty cells, extra cells are dropped and fully blank rows are
// skipped. With dynamic typing, plain numeric text becomes a number cell.
func FromTable(header []string, rows [][]string, dynamic bool) []Record {
	keys := uniqueHeaders(header)
	out := make([]Record, 0, len(rows))

	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		rec := NewRecord(len(keys))
		for i, key := range keys {
			if i >= len(row) {
				rec.Set(key, Empty())
				continue
			}
			rec.Set(key, typedCell(row[i], dynamic))
		}
		out = append(out, rec)
	}
	return out
}

func typedCell(raw string, dynamic bool) Cell {
	if raw == "" {
		return Empty()
	}
	if dynamic {
		if f, ok := plainNumber(raw); ok {
			return Number(f)
		}
	}
	return Text(raw)
}

// plainNumber accepts unformatted decimal numbers only. Values with
// separators, symbols or leading zeros stay text.
func plainNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" || t != s {
		return 0, false
	}
	digits := strings.TrimPrefix(t, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return 0, false
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '.' {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func uniqueHeaders(header []string) []string {
	keys := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n, ok := seen[h]; ok {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n+1)
		} else {
			seen[h] = 1
		}
		keys[i] = h
	}
	return keys
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
