package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// record is one CSV row keyed by its lower-cased header.
type record map[string]string

// readRecords reads a CSV file with a header line.
func readRecords(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var out []record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := make(record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = strings.TrimSpace(row[i])
			}
		}
		out = append(out, rec)
	}
}

func (r record) str(key string) string {
	return r[key]
}

// required returns the value of key or an error naming the column.
func (r record) required(key string) (string, error) {
	v := r[key]
	if v == "" {
		return "", fmt.Errorf("column %q is empty", key)
	}
	return v, nil
}

func (r record) int64(key string) (int64, error) {
	v, err := r.required(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", key, err)
	}
	return n, nil
}

// optionalInt64 returns nil for an empty cell.
func (r record) optionalInt64(key string) (*int64, error) {
	if r[key] == "" {
		return nil, nil
	}
	n, err := r.int64(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// time parses a timestamp cell; an empty cell yields the zero time.
func (r record) time(key string) (time.Time, error) {
	v := r[key]
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %q: unrecognised time %q", key, v)
}
