package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// AGGREGATORS — Summary, Grouping, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView, a zero-copy window on the table.
// Person counts deduplicate by beneficiary id; money sums never do.
// Every ratio is guarded: zero people → 0%.
// ============================================================================

var (
	// ErrUnknownGroupKey is returned for a breakdown key outside GroupKeys.
	ErrUnknownGroupKey = errors.New("unknown group key")
	// ErrUnknownSort is returned by ParseSortMode for unrecognized modes.
	ErrUnknownSort = errors.New("unknown sort mode")
)

// ComputeSummary computes the headline metrics of a (filtered) view.
// An empty view yields a zero Summary.
func ComputeSummary(view RecordView) Summary {
	people := newPersonSet()
	withdrawn := newPersonSet()
	eligible := newPersonSet()

	var s Summary
	s.Rows = view.Len()
	for i := 0; i < view.Len(); i++ {
		rec := view.At(i)
		people.add(rec.BeneficiaryID)
		s.TotalWithdrawnAmount += rec.AmountWithdrawn
		if rec.Withdrew() {
			withdrawn.add(rec.BeneficiaryID)
		}
		if rec.IncentiveEligible() {
			eligible.add(rec.BeneficiaryID)
			s.IncentiveDueAmount += rec.IncentiveAmount
		}
	}

	s.TotalPeople = people.len()
	s.WithdrawnPeople = withdrawn.len()
	s.NotWithdrawnPeople = s.TotalPeople - s.WithdrawnPeople
	s.IncentiveEligiblePeople = eligible.len()
	s.WithdrawalRate = Percent(s.WithdrawnPeople, s.TotalPeople)
	return s
}

// ComputeGroupBreakdown groups a view by key and counts distinct people per group.
// Groups appear in encounter order unless WithSort is given.
// Blank categorical values are left out; tri-state keys report yes/no/unknown.
func ComputeGroupBreakdown(view RecordView, key GroupKey, opts ...Option) (Breakdown, error) {
	if !validGroupKey(key) {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownGroupKey, key)
	}
	cfg := applyOptions(opts)

	groups := groupBy(view, schema.Field(key))
	for i := range groups {
		aggregateGroup(&groups[i], key)
	}
	if err := SortGroups(groups, cfg.Sort); err != nil {
		return Breakdown{}, err
	}

	return Breakdown{Key: key, Groups: groups}, nil
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBy(view RecordView, field schema.Field) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		label := view.At(i).Dimension(field)
		if label == "" {
			continue
		}
		if _, exists := grouped[label]; !exists {
			order = append(order, label)
		}
		grouped[label] = append(grouped[label], i)
	}

	groups := make([]Group, 0, len(order))
	for _, label := range order {
		groups = append(groups, Group{
			Label: label,
			View:  newSubView(view, grouped[label]),
		})
	}
	return groups
}

func aggregateGroup(g *Group, key GroupKey) {
	g.Rows = g.View.Len()
	people := newPersonSet()
	for i := 0; i < g.View.Len(); i++ {
		people.add(g.View.At(i).BeneficiaryID)
	}
	g.People = people.len()

	if key != GroupByAreaOfficer {
		return
	}

	withdrawn := newPersonSet()
	stats := &OfficerStats{}
	for i := 0; i < g.View.Len(); i++ {
		rec := g.View.At(i)
		if rec.Withdrew() {
			withdrawn.add(rec.BeneficiaryID)
		}
		stats.WithdrawnAmount += rec.AmountWithdrawn
		if rec.BenchmarkAmount > stats.BenchmarkAmount {
			stats.BenchmarkAmount = rec.BenchmarkAmount
		}
	}
	stats.WithdrawnPeople = withdrawn.len()
	stats.WithdrawalRate = Percent(stats.WithdrawnPeople, g.People)
	g.Officer = stats
}

func validGroupKey(key GroupKey) bool {
	for _, k := range GroupKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ============================================================================
// PERSON SET — distinct beneficiary ids
// ============================================================================

// personSet counts distinct non-blank beneficiary ids.
// Rows with a blank id still contribute to sums but never count as a person.
type personSet map[string]struct{}

func newPersonSet() personSet { return make(personSet) }

func (p personSet) add(id string) {
	if id == "" {
		return
	}
	p[id] = struct{}{}
}

func (p personSet) len() int { return len(p) }

// DistinctPeople returns the distinct beneficiary ids in a view, sorted.
func DistinctPeople(view RecordView) []string {
	set := newPersonSet()
	for i := 0; i < view.Len(); i++ {
		set.add(view.At(i).BeneficiaryID)
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SumMeasure sums an amount field across a view.
func SumMeasure(view RecordView, field schema.Field) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.At(i).Measure(field)
	}
	return total
}

// Percent returns part/whole × 100, or 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// ============================================================================
// SORTING
// ============================================================================

// SortMode orders breakdown groups.
type SortMode string

const (
	SortNone      SortMode = ""
	SortCountDesc SortMode = "count_desc"
	SortCountAsc  SortMode = "count_asc"
	SortLabelAsc  SortMode = "label_asc"
	SortLabelDesc SortMode = "label_desc"
)

// ParseSortMode validates a sort mode name. "" and "none" keep encounter order.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortNone, "none":
		return SortNone, nil
	case SortCountDesc:
		return SortCountDesc, nil
	case SortCountAsc:
		return SortCountAsc, nil
	case SortLabelAsc:
		return SortLabelAsc, nil
	case SortLabelDesc:
		return SortLabelDesc, nil
	}
	return SortNone, fmt.Errorf("%w: %q", ErrUnknownSort, s)
}

// SortGroups sorts groups in place. Sorting is stable, so ties keep encounter order.
func SortGroups(groups []Group, mode SortMode) error {
	switch mode {
	case SortNone:
		// preserve grouping order
	case SortCountDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].People > groups[j].People })
	case SortCountAsc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].People < groups[j].People })
	case SortLabelAsc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Label < groups[j].Label })
	case SortLabelDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Label > groups[j].Label })
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSort, mode)
	}
	return nil
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatCurrency formats an amount with a currency prefix and comma separators.
// Whole amounts drop the decimals: "Rs. 1,234", "Rs. 1,234.50".
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	amount = RoundTo2(amount)

	intPart := int64(amount)
	decPart := int64(math.Round((amount - float64(intPart)) * 100))

	result := FormatInt(int(intPart))
	if decPart > 0 {
		result = fmt.Sprintf("%s.%02d", result, decPart)
	}
	if currency != "" {
		result = currency + " " + result
	}
	if negative {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-blank values of a field in encounter order.
func UniqueValues(view RecordView, field schema.Field) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)
	for i := 0; i < view.Len(); i++ {
		val := view.At(i).Dimension(field)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForKey returns a display label for a breakdown key.
func LabelForKey(key GroupKey) string {
	if def, ok := schema.Default().Lookup(schema.Field(key)); ok {
		return def.DisplayName
	}
	return string(key)
}
