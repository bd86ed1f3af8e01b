package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// normalizeCol folds a header cell to snake case so "Survey No" and
// "survey_no" address the same column.
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(s)
	return s
}

// mapColumns builds a normalized column name → index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		name := normalizeCol(col)
		if _, dup := m[name]; dup || name == "" {
			continue
		}
		m[name] = i
	}
	return m
}

// columns resolves header names for one row.
type columns map[string]int

// get returns the first present value among the named columns.
func (c columns) get(record []string, names ...string) string {
	for _, name := range names {
		idx, ok := c[name]
		if !ok || idx >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[idx]); v != "" {
			return v
		}
	}
	return ""
}

// optional is get with blank mapped to nil.
func (c columns) optional(record []string, names ...string) *string {
	v := c.get(record, names...)
	if v == "" {
		return nil
	}
	return &v
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c columns) missing(required ...string) []string {
	var out []string
	for _, name := range required {
		if !c.has(name) {
			out = append(out, name)
		}
	}
	return out
}

// parseDate tries each layout in order. Blank input yields nil.
func parseDate(s string, layouts []string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, eris.Errorf("unrecognised date %q", s)
}

// parseFloat parses an optional decimal. Blank input yields nil.
func parseFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, eris.Errorf("invalid number %q", s)
	}
	return &v, nil
}

// parseBool accepts the spellings seen in registry exports. Blank is false.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "n", "no", "false", "0", "f":
		return false, nil
	case "y", "yes", "true", "1", "t":
		return true, nil
	default:
		return false, eris.Errorf("invalid flag %q", s)
	}
}
