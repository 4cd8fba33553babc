package loader

import (
	"errors"
	"sort"
	"strings"

	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// PROFILER — What does each source column look like?
// ============================================================================
// Profile inspects a raw table before it is normalized, so an operator can
// see why a sheet fails to load or which cells will be coerced.
//
// Per column:
//   1. Sample filled values → detect a kind (date, amount, tristate, ...)
//   2. Count blanks and distinct values
//   3. For mapped columns, count values that type cleanly under the
//      field's declared kind
// ============================================================================

// Detected kinds. A column is given a kind when at least detectThreshold of
// its filled cells parse as that kind.
const (
	DetectedEmpty    = "empty"
	DetectedTriState = "tristate"
	DetectedDate     = "date"
	DetectedAmount   = "amount"
	DetectedCategory = "category"
	DetectedText     = "text"

	detectThreshold = 0.8
	maxSamples      = 5
)

// ColumnProfile describes one source column.
type ColumnProfile struct {
	Header   string       `json:"header"`
	Index    int          `json:"index"`
	Field    schema.Field `json:"field,omitempty"` // "" when no field claimed the column
	Expected string       `json:"expected,omitempty"`
	Detected string       `json:"detected"`

	Filled     int      `json:"filled"`
	Blank      int      `json:"blank"`
	Distinct   int      `json:"distinct"`
	Conforming int      `json:"conforming"` // filled cells valid for Expected; 0 when unmapped
	Samples    []string `json:"samples,omitempty"`
}

// Mismatched reports how many filled cells will be coerced on load.
func (p ColumnProfile) Mismatched() int {
	if p.Field == "" {
		return 0
	}
	return p.Filled - p.Conforming
}

// Profile resolves the headers and profiles every column. A missing required
// column is returned alongside the profiles, not instead of them.
func Profile(raw RawTable, opts ...Option) ([]ColumnProfile, schema.Mapping, error) {
	cfg := applyOptions(opts)

	mapping, err := cfg.schema.Resolve(raw.Headers)
	var mce *schema.MissingColumnError
	if err != nil && !errors.As(err, &mce) {
		return nil, mapping, err
	}

	owner := make(map[int]schema.FieldDef, len(mapping.Columns))
	for _, def := range cfg.schema.Fields {
		if idx, ok := mapping.Columns[def.Field]; ok {
			owner[idx] = def
		}
	}

	profiles := make([]ColumnProfile, len(raw.Headers))
	for i, h := range raw.Headers {
		def, mapped := owner[i]
		p := profileColumn(h, i, raw.Rows, cfg.dateLayouts)
		if mapped {
			p.Field = def.Field
			p.Expected = def.Kind.String()
			p.Conforming = conforming(raw.Rows, i, def.Kind, cfg.dateLayouts)
		}
		profiles[i] = p
	}
	return profiles, mapping, err
}

func profileColumn(header string, index int, rows [][]string, layouts []string) ColumnProfile {
	p := ColumnProfile{Header: header, Index: index}

	values := make([]string, 0, len(rows))
	unique := make(map[string]bool)
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		v := cell(row, index)
		if v == "" {
			p.Blank++
			continue
		}
		values = append(values, v)
		unique[v] = true
	}

	p.Filled = len(values)
	p.Distinct = len(unique)
	p.Detected = detectKind(values, len(unique), layouts)
	p.Samples = collectSamples(unique, maxSamples)
	return p
}

// detectKind checks the narrowest kinds first: tri-state answers are also
// valid categories, and day numbers would pass as amounts.
func detectKind(values []string, distinct int, layouts []string) string {
	if len(values) == 0 {
		return DetectedEmpty
	}

	var tri, dates, amounts int
	for _, v := range values {
		if v == "yes" || v == "no" {
			tri++
		}
		if _, ok := ParseDate(v, layouts); ok {
			dates++
		}
		if _, ok := ParseAmount(v); ok {
			amounts++
		}
	}

	enough := func(n int) bool { return float64(n) >= float64(len(values))*detectThreshold }
	switch {
	case enough(tri):
		return DetectedTriState
	case enough(dates):
		return DetectedDate
	case enough(amounts):
		return DetectedAmount
	case distinct*2 <= len(values):
		return DetectedCategory
	default:
		return DetectedText
	}
}

// conforming counts the filled cells the normalizer will type without
// coercion.
func conforming(rows [][]string, index int, kind schema.Kind, layouts []string) int {
	n := 0
	for _, row := range rows {
		v := cell(row, index)
		if v == "" {
			continue
		}
		switch kind {
		case schema.KindDate:
			if _, ok := ParseDate(v, layouts); ok {
				n++
			}
		case schema.KindAmount:
			if a, ok := ParseAmount(v); ok && a >= 0 {
				n++
			}
		case schema.KindTriState:
			if v == "yes" || v == "no" {
				n++
			}
		default:
			n++
		}
	}
	return n
}

// cell returns the trimmed, lowercased value at index, or "" for short rows.
func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(row[index]))
}

// collectSamples picks up to limit values in sorted order for stable output.
func collectSamples(unique map[string]bool, limit int) []string {
	samples := make([]string, 0, len(unique))
	for v := range unique {
		samples = append(samples, v)
	}
	sort.Strings(samples)
	if len(samples) > limit {
		samples = samples[:limit]
	}
	return samples
}
