package engine

import (
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — One filter-and-aggregate pass
// ============================================================================
// Entry point: Build(view, criteria, opts...)
//
// Pipeline:
//   1. Apply criteria → SubView
//   2. Headline summary + metric cards
//   3. Group breakdowns (skipping fields the source does not have)
//   4. Chart configs
//   5. (Optional) row-level table
//
// Pure and synchronous: the canonical view is never modified, and an empty
// filter result is a valid report full of zeros.
// ============================================================================

// Build runs the full pipeline for one set of criteria.
func Build(view RecordView, criteria Criteria, opts ...Option) (*Report, error) {
	cfg := applyOptions(opts)

	filtered := ApplyFilters(view, criteria)
	cfg.Logger.Debug("filters applied",
		zap.Int("rows", view.Len()),
		zap.Int("filtered", filtered.Len()),
	)

	report := &Report{
		Criteria: criteria,
		Summary:  ComputeSummary(filtered),
		Filtered: filtered,
	}
	report.Cards = BuildMetricCards(report.Summary, cfg.Currency)

	for _, key := range cfg.GroupKeys {
		if cfg.Available != nil && !cfg.Available(key) {
			report.Notes = append(report.Notes, fmt.Sprintf("%s breakdown skipped: column not present in source", key))
			continue
		}
		b, err := ComputeGroupBreakdown(filtered, key, WithSort(cfg.Sort))
		if err != nil {
			return nil, fmt.Errorf("breakdown by %s: %w", key, err)
		}
		report.Breakdowns = append(report.Breakdowns, b)
	}

	report.Charts = BuildCharts(report.Summary, report.Breakdowns)

	if cfg.IncludeTable {
		report.Table = BuildTable(filtered, cfg.Currency)
	}

	if filtered.Len() == 0 {
		report.Notes = append(report.Notes, "No records match the selected filters.")
	}

	cfg.Logger.Debug("report built",
		zap.Int("people", report.Summary.TotalPeople),
		zap.Int("breakdowns", len(report.Breakdowns)),
		zap.Int("charts", len(report.Charts)),
	)
	return report, nil
}

// WithdrawalSplit returns the withdrawn and not-withdrawn people counts.
func WithdrawalSplit(s Summary) (withdrawn, notWithdrawn int) {
	return s.WithdrawnPeople, s.NotWithdrawnPeople
}

// Breakdown returns the report's breakdown for a key, if computed.
func (r *Report) Breakdown(key GroupKey) (Breakdown, bool) {
	for _, b := range r.Breakdowns {
		if b.Key == key {
			return b, true
		}
	}
	return Breakdown{}, false
}
