// Package tabular decodes published spreadsheet CSV into header-keyed records
// and encodes rows back into CSV for pasting into a sheet.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const bom = "\ufeff"

// Record is one data row keyed by header name.
type Record map[string]string

// First returns the first non-empty value among the given column aliases.
func (r Record) First(columns ...string) string {
	for _, c := range columns {
		if v := r[c]; v != "" {
			return v
		}
	}
	return ""
}

// Decode parses CSV with a header row. Blank lines are skipped and do not count
// as records; short rows leave the missing columns empty.
func Decode(data []byte) ([]Record, error) {
	rows, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, bom))
	}

	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, name := range header {
			if name == "" || i >= len(row) {
				continue
			}
			if _, dup := rec[name]; dup {
				continue
			}
			rec[name] = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeRaw parses CSV without header semantics.
func DecodeRaw(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: decode: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Encode writes header followed by rows as CRLF-terminated CSV.
func Encode(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("tabular: encode header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("tabular: encode rows: %w", err)
	}
	return buf.Bytes(), nil
}
