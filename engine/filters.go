package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// FILTERS — Criteria-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL criteria per record in one loop.
// Returns a SubView (index list into parent) without copying records.
// ============================================================================

// ApplyFilters returns a view of records matching every restricting criterion.
// Categorical criteria are set membership (case-insensitive); the date range
// is inclusive on both ends and drops records with no camp date.
// Empty criteria = no restriction (returns the original view).
func ApplyFilters(view RecordView, c Criteria) RecordView {
	if c.IsEmpty() {
		return view
	}

	type dimFilter struct {
		field schema.Field
		set   map[string]bool
	}
	var dims []dimFilter
	for _, f := range []struct {
		field schema.Field
		sel   Selection
	}{
		{schema.FieldDistrict, c.District},
		{schema.FieldAreaOfficer, c.AreaOfficer},
		{schema.FieldStatus, c.Status},
	} {
		if f.sel.Restricted {
			dims = append(dims, dimFilter{field: f.field, set: toLowerSet(f.sel.Values)})
		}
	}

	var from, to time.Time
	if c.Dates != nil {
		from = truncateDay(c.Dates.From)
		to = truncateDay(c.Dates.To)
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		rec := view.At(i)
		pass := true
		for _, d := range dims {
			if !d.set[rec.Dimension(d.field)] {
				pass = false
				break
			}
		}
		if pass && c.Dates != nil {
			pass = inRange(rec.CampDate, from, to)
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// FilterOptions lists the distinct, sorted values available for each selector.
type FilterOptions struct {
	Districts    []string `json:"districts"`
	AreaOfficers []string `json:"area_officers"`
	Statuses     []string `json:"statuses"`
	EarliestDate string   `json:"earliest_date,omitempty"`
	LatestDate   string   `json:"latest_date,omitempty"`
}

// Options collects selector values from a view. Blank values are skipped.
func Options(view RecordView) FilterOptions {
	opts := FilterOptions{
		Districts:    UniqueValues(view, schema.FieldDistrict),
		AreaOfficers: UniqueValues(view, schema.FieldAreaOfficer),
		Statuses:     UniqueValues(view, schema.FieldStatus),
	}
	sort.Strings(opts.Districts)
	sort.Strings(opts.AreaOfficers)
	sort.Strings(opts.Statuses)

	var earliest, latest time.Time
	for i := 0; i < view.Len(); i++ {
		d := view.At(i).CampDate
		if d == nil {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = *d
		}
		if latest.IsZero() || d.After(latest) {
			latest = *d
		}
	}
	if !earliest.IsZero() {
		opts.EarliestDate = earliest.Format(DateLayout)
		opts.LatestDate = latest.Format(DateLayout)
	}
	return opts
}

// DateLayout is the canonical date format for export and query parameters.
const DateLayout = "2006-01-02"

func inRange(d *time.Time, from, to time.Time) bool {
	if d == nil {
		return false
	}
	day := truncateDay(*d)
	return !day.Before(from) && !day.After(to)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// toLowerSet converts a string slice to a trimmed, lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
