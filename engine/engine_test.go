package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/plwdash/schema"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// campRecords is a small two-district table.
//
//	1001 jacobabad / ali    withdrew 500 eligible
//	1002 jacobabad / ali    no withdrawal, eligible but unable
//	1002 jacobabad / ali    withdrew 300 (repeat visit)
//	1003 kashmore  / sana   withdrew 700, no date
//	1004 kashmore  / sana   nothing, blank status
//	""   kashmore  / sana   withdrew 100, blank id
func campRecords() []Record {
	return []Record{
		{
			BeneficiaryID: "1001", District: "jacobabad", AreaOfficer: "ali", CampDate: day(2024, 3, 1),
			Status: "pwd", Contacted: Yes, VisitedSite: Yes, EligibleForIncentive: Yes, UnableToWithdraw: No,
			AmountWithdrawn: 500, IncentiveAmount: 1000, BenchmarkAmount: 1200,
		},
		{
			BeneficiaryID: "1002", District: "jacobabad", AreaOfficer: "ali", CampDate: day(2024, 3, 5),
			Status: "nwd", Contacted: Yes, VisitedSite: No, EligibleForIncentive: Yes, UnableToWithdraw: Yes,
			IncentiveAmount: 1000, BenchmarkAmount: 900, NonWithdrawalReason: "biometric failure",
		},
		{
			BeneficiaryID: "1002", District: "jacobabad", AreaOfficer: "ali", CampDate: day(2024, 3, 10),
			Status: "nwd", Contacted: Yes, VisitedSite: Yes, EligibleForIncentive: No, UnableToWithdraw: No,
			AmountWithdrawn: 300, IncentiveAmount: 500,
		},
		{
			BeneficiaryID: "1003", District: "kashmore", AreaOfficer: "sana",
			Status: "pwd", Contacted: No, VisitedSite: Yes, EligibleForIncentive: Yes,
			AmountWithdrawn: 700, IncentiveAmount: 800, BenchmarkAmount: 2000,
		},
		{
			BeneficiaryID: "1004", District: "kashmore", AreaOfficer: "sana", CampDate: day(2024, 4, 2),
			Contacted: Unknown, NonWithdrawalReason: "not contacted",
		},
		{
			District: "kashmore", AreaOfficer: "sana", CampDate: day(2024, 4, 2),
			Status: "pwd", AmountWithdrawn: 100,
		},
	}
}

func campView() RecordView { return NewSliceView(campRecords()) }

// ============================================================================
// TRI-STATE
// ============================================================================

func TestParseTriState(t *testing.T) {
	assert.Equal(t, Yes, ParseTriState("yes"))
	assert.Equal(t, No, ParseTriState("no"))
	for _, s := range []string{"", "y", "n", "Yes", "true", "1", "maybe"} {
		assert.Equal(t, Unknown, ParseTriState(s), "input %q", s)
	}
}

func TestTriStateText(t *testing.T) {
	var ts TriState
	require.NoError(t, ts.UnmarshalText([]byte(" YES ")))
	assert.Equal(t, Yes, ts)

	b, err := No.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "no", string(b))

	assert.Equal(t, "", Unknown.Cell())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestIncentiveEligibleOverride(t *testing.T) {
	tests := []struct {
		eligible, unable TriState
		want             bool
	}{
		{Yes, No, true},
		{Yes, Unknown, true},
		{Yes, Yes, false},
		{No, No, false},
		{Unknown, No, false},
		{No, Yes, false},
	}
	for _, tt := range tests {
		r := Record{EligibleForIncentive: tt.eligible, UnableToWithdraw: tt.unable}
		assert.Equal(t, tt.want, r.IncentiveEligible(), "eligible=%s unable=%s", tt.eligible, tt.unable)
	}
}

// ============================================================================
// SUMMARY
// ============================================================================

func TestComputeSummary(t *testing.T) {
	s := ComputeSummary(campView())

	want := Summary{
		Rows:                    6,
		TotalPeople:             4, // blank id is not a person
		WithdrawnPeople:         3, // 1001, 1002, 1003
		NotWithdrawnPeople:      1,
		TotalWithdrawnAmount:    1600,
		IncentiveEligiblePeople: 2,    // 1001, 1003 (1002's eligible row is overridden)
		IncentiveDueAmount:      1800, // 1000 + 800
		WithdrawalRate:          75,
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeSummaryTwoBeneficiaries(t *testing.T) {
	view := NewSliceView([]Record{
		{BeneficiaryID: "a", AmountWithdrawn: 500, EligibleForIncentive: Yes, UnableToWithdraw: No, IncentiveAmount: 250},
		{BeneficiaryID: "b", AmountWithdrawn: 0, EligibleForIncentive: Yes, UnableToWithdraw: Yes, IncentiveAmount: 400},
		{BeneficiaryID: "b", AmountWithdrawn: 300, EligibleForIncentive: No, UnableToWithdraw: No, IncentiveAmount: 600},
	})
	s := ComputeSummary(view)

	assert.Equal(t, 2, s.TotalPeople)
	assert.Equal(t, 2, s.WithdrawnPeople)
	assert.Equal(t, 0, s.NotWithdrawnPeople)
	assert.Equal(t, 800.0, s.TotalWithdrawnAmount)
	assert.Equal(t, 1, s.IncentiveEligiblePeople)
	assert.Equal(t, 250.0, s.IncentiveDueAmount)
}

func TestComputeSummaryEmpty(t *testing.T) {
	s := ComputeSummary(NewSliceView(nil))
	assert.Equal(t, Summary{}, s)
}

func TestSummaryPartition(t *testing.T) {
	views := []RecordView{
		campView(),
		ApplyFilters(campView(), Criteria{District: OneOf("kashmore")}),
		ApplyFilters(campView(), Criteria{Status: OneOf("nwd")}),
		NewSliceView(nil),
	}
	for _, v := range views {
		s := ComputeSummary(v)
		assert.Equal(t, s.TotalPeople, s.WithdrawnPeople+s.NotWithdrawnPeople)
		assert.LessOrEqual(t, s.IncentiveEligiblePeople, s.TotalPeople)
	}
}

// ============================================================================
// FILTERS
// ============================================================================

func TestApplyFiltersAllIsIdentity(t *testing.T) {
	view := campView()
	got := ApplyFilters(view, Criteria{})
	assert.Same(t, view, got)

	got = ApplyFilters(view, Criteria{District: AnyValue(), Status: AnyValue()})
	assert.Equal(t, view.Len(), got.Len())
}

func TestApplyFiltersCategorical(t *testing.T) {
	got := ApplyFilters(campView(), Criteria{
		District:    OneOf("Jacobabad"), // case-insensitive
		AreaOfficer: OneOf("ali", "sana"),
		Status:      OneOf("nwd"),
	})
	require.Equal(t, 2, got.Len())
	for _, r := range Records(got) {
		assert.Equal(t, "1002", r.BeneficiaryID)
	}
}

func TestApplyFiltersEmptySelectionMatchesNothing(t *testing.T) {
	got := ApplyFilters(campView(), Criteria{District: OneOf()})
	assert.Equal(t, 0, got.Len())
}

func TestApplyFiltersAbsentDistrict(t *testing.T) {
	got := ApplyFilters(campView(), Criteria{District: OneOf("larkana")})
	assert.Equal(t, 0, got.Len())
	assert.Equal(t, Summary{}, ComputeSummary(got))

	report, err := Build(campView(), Criteria{District: OneOf("larkana")})
	require.NoError(t, err)
	assert.Equal(t, Summary{}, report.Summary)
	assert.Contains(t, report.Notes, "No records match the selected filters.")
}

func TestApplyFiltersDateRange(t *testing.T) {
	// Inclusive both ends, times ignored.
	c := Criteria{Dates: &DateRange{
		From: time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC),
		To:   time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
	}}
	got := ApplyFilters(campView(), c)

	var ids []string
	for _, r := range Records(got) {
		ids = append(ids, r.BeneficiaryID)
	}
	// 1003 has no camp date and is excluded.
	assert.Equal(t, []string{"1002", "1002", "1004", ""}, ids)
}

func TestApplyFiltersReversedRangeIsEmpty(t *testing.T) {
	c := Criteria{Dates: &DateRange{From: *day(2024, 4, 30), To: *day(2024, 3, 1)}}
	assert.Equal(t, 0, ApplyFilters(campView(), c).Len())
}

func TestApplyFiltersIdempotent(t *testing.T) {
	c := Criteria{
		District: OneOf("jacobabad", "kashmore"),
		Status:   OneOf("pwd"),
		Dates:    &DateRange{From: *day(2024, 1, 1), To: *day(2024, 12, 31)},
	}
	once := ApplyFilters(campView(), c)
	twice := ApplyFilters(once, c)
	if diff := cmp.Diff(Records(once), Records(twice)); diff != "" {
		t.Errorf("filter is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestOptions(t *testing.T) {
	opts := Options(campView())
	want := FilterOptions{
		Districts:    []string{"jacobabad", "kashmore"},
		AreaOfficers: []string{"ali", "sana"},
		Statuses:     []string{"nwd", "pwd"},
		EarliestDate: "2024-03-01",
		LatestDate:   "2024-04-02",
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// BREAKDOWNS
// ============================================================================

func TestBreakdownByStatusSkipsBlank(t *testing.T) {
	b, err := ComputeGroupBreakdown(campView(), GroupByStatus)
	require.NoError(t, err)

	got := map[string]int{}
	var order []string
	for _, g := range b.Groups {
		got[g.Label] = g.People
		order = append(order, g.Label)
	}
	assert.Equal(t, []string{"pwd", "nwd"}, order) // encounter order
	assert.Equal(t, map[string]int{"pwd": 2, "nwd": 1}, got)
}

func TestBreakdownTriStateReportsUnknown(t *testing.T) {
	b, err := ComputeGroupBreakdown(campView(), GroupByContacted, WithSort(SortLabelAsc))
	require.NoError(t, err)

	var labels []string
	for _, g := range b.Groups {
		labels = append(labels, g.Label)
	}
	assert.Equal(t, []string{"no", "unknown", "yes"}, labels)
}

func TestBreakdownOfficerStats(t *testing.T) {
	b, err := ComputeGroupBreakdown(campView(), GroupByAreaOfficer)
	require.NoError(t, err)
	require.Len(t, b.Groups, 2)

	ali := b.Groups[0]
	assert.Equal(t, "ali", ali.Label)
	assert.Equal(t, 2, ali.People)
	assert.Equal(t, 3, ali.Rows)
	require.NotNil(t, ali.Officer)
	assert.Equal(t, OfficerStats{
		WithdrawnPeople: 2,
		WithdrawalRate:  100,
		BenchmarkAmount: 1200,
		WithdrawnAmount: 800,
	}, *ali.Officer)

	sana := b.Groups[1]
	assert.Equal(t, 2, sana.People)
	assert.Equal(t, 3, sana.Rows)
	assert.Equal(t, 50.0, sana.Officer.WithdrawalRate)
	assert.Equal(t, 800.0, sana.Officer.WithdrawnAmount)
}

func TestBreakdownSorting(t *testing.T) {
	view := NewSliceView([]Record{
		{BeneficiaryID: "1", Status: "b"},
		{BeneficiaryID: "2", Status: "a"},
		{BeneficiaryID: "3", Status: "a"},
		{BeneficiaryID: "4", Status: "c"},
	})
	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortNone, []string{"b", "a", "c"}},
		{SortCountDesc, []string{"a", "b", "c"}},
		{SortCountAsc, []string{"b", "c", "a"}}, // stable: b before c
		{SortLabelAsc, []string{"a", "b", "c"}},
		{SortLabelDesc, []string{"c", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			b, err := ComputeGroupBreakdown(view, GroupByStatus, WithSort(tt.mode))
			require.NoError(t, err)
			var labels []string
			for _, g := range b.Groups {
				labels = append(labels, g.Label)
			}
			assert.Equal(t, tt.want, labels)
		})
	}
}

func TestBreakdownErrors(t *testing.T) {
	_, err := ComputeGroupBreakdown(campView(), GroupKey("district_name"))
	assert.True(t, errors.Is(err, ErrUnknownGroupKey))

	_, err = ComputeGroupBreakdown(campView(), GroupByStatus, WithSort("sideways"))
	assert.True(t, errors.Is(err, ErrUnknownSort))

	_, err = ParseSortMode("sideways")
	assert.True(t, errors.Is(err, ErrUnknownSort))

	m, err := ParseSortMode(" Count_Desc ")
	require.NoError(t, err)
	assert.Equal(t, SortCountDesc, m)
}

func TestBreakdownGroupViewsAreSubsets(t *testing.T) {
	filtered := ApplyFilters(campView(), Criteria{District: OneOf("jacobabad")})
	b, err := ComputeGroupBreakdown(filtered, GroupByStatus)
	require.NoError(t, err)
	for _, g := range b.Groups {
		for _, r := range Records(g.View) {
			assert.Equal(t, "jacobabad", r.District)
			assert.Equal(t, g.Label, r.Status)
		}
	}
}

// ============================================================================
// BUILD
// ============================================================================

func TestBuildFullPass(t *testing.T) {
	report, err := Build(campView(), Criteria{}, WithTable(true), WithSort(SortCountDesc))
	require.NoError(t, err)

	assert.Len(t, report.Cards, 6)
	assert.Equal(t, CardTotalPeople, report.Cards[0].Key)
	assert.Equal(t, "4", report.Cards[0].Value)
	assert.Equal(t, "Rs. 1,600", report.Cards[3].Value)

	assert.Len(t, report.Breakdowns, len(GroupKeys))
	status, ok := report.Breakdown(GroupByStatus)
	require.True(t, ok)
	assert.Equal(t, "pwd", status.Groups[0].Label)

	require.NotNil(t, report.Table)
	assert.Len(t, report.Table.Rows, 6)
	assert.Equal(t, "Total (6 records)", report.Table.Summary.Label)

	var keys []string
	for _, c := range report.Charts {
		keys = append(keys, c.Key)
	}
	assert.Equal(t, []string{
		ChartWithdrawal, ChartOfficerRate, ChartBenchmark, ChartStatus,
		ChartNonWithdrawal, ChartContacted, ChartVisitedSite,
	}, keys)
	assert.Empty(t, report.Notes)
}

func TestBuildSkipsUnavailableKeys(t *testing.T) {
	report, err := Build(campView(), Criteria{},
		WithGroupKeys(GroupByStatus, GroupByNonWithdrawalReason),
		WithAvailability(func(k GroupKey) bool { return k != GroupByNonWithdrawalReason }),
	)
	require.NoError(t, err)

	require.Len(t, report.Breakdowns, 1)
	assert.Equal(t, GroupByStatus, report.Breakdowns[0].Key)
	require.Len(t, report.Notes, 1)
	assert.Contains(t, report.Notes[0], "non_withdrawal_reason")
	assert.Nil(t, report.Table)
}

func TestBuildEmptyView(t *testing.T) {
	report, err := Build(NewSliceView(nil), Criteria{}, WithTable(true))
	require.NoError(t, err)

	for _, c := range report.Cards {
		assert.Zero(t, c.RawValue, c.Key)
	}
	require.Len(t, report.Charts, 1)
	assert.Equal(t, ChartWithdrawal, report.Charts[0].Key)
	assert.Empty(t, report.Table.Rows)
}

func TestWithdrawalSplit(t *testing.T) {
	s := ComputeSummary(campView())
	w, n := WithdrawalSplit(s)
	assert.Equal(t, 3, w)
	assert.Equal(t, 1, n)

	pie := BuildWithdrawalChart(s)
	require.Len(t, pie.Series, 1)
	assert.Equal(t, []ChartPoint{
		{Label: "Withdrawn", Value: 3},
		{Label: "Not Withdrawn", Value: 1},
	}, pie.Series[0].Data)
}

// ============================================================================
// CHARTS + TABLE
// ============================================================================

func TestYesNoPieOrder(t *testing.T) {
	b, err := ComputeGroupBreakdown(campView(), GroupByVisitedSite)
	require.NoError(t, err)
	charts := BuildCharts(Summary{}, []Breakdown{b})
	require.Len(t, charts, 2)

	pie := charts[1]
	assert.Equal(t, ChartVisitedSite, pie.Key)
	want := []ChartPoint{
		{Label: "yes", Value: 3},
		{Label: "no", Value: 1},
		{Label: "unknown", Value: 1},
	}
	if diff := cmp.Diff(want, pie.Series[0].Data); diff != "" {
		t.Errorf("pie points mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, pie.Colors, 3)
}

func TestCellValues(t *testing.T) {
	r := campRecords()[1]
	r.AmountWithdrawn = 1250.5
	got := CellValues(r)
	want := []string{
		"1002", "jacobabad", "ali", "2024-03-05", "nwd",
		"yes", "no", "yes", "yes",
		"1250.5", "1000", "900", "biometric failure",
	}
	assert.Equal(t, want, got)
	assert.Len(t, got, len(schema.Default().Fields))

	blank := CellValues(Record{})
	assert.Equal(t, "", blank[3])
	assert.Equal(t, "", blank[5])
	assert.Equal(t, "0", blank[9])
}

// ============================================================================
// FORMATTING
// ============================================================================

func TestFormatters(t *testing.T) {
	assert.Equal(t, "Rs. 1,234", FormatCurrency(1234, "Rs."))
	assert.Equal(t, "Rs. 1,234.50", FormatCurrency(1234.5, "Rs."))
	assert.Equal(t, "-Rs. 12", FormatCurrency(-12, "Rs."))
	assert.Equal(t, "0", FormatCurrency(0, ""))
	assert.Equal(t, "1,234,567", FormatInt(1234567))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "-1,000", FormatInt(-1000))
	assert.Equal(t, "66.7%", FormatPercent(Percent(2, 3)))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 1.24, RoundTo2(1.236))
}

func TestDistinctPeopleAndUniqueValues(t *testing.T) {
	assert.Equal(t, []string{"1001", "1002", "1003", "1004"}, DistinctPeople(campView()))
	assert.Equal(t, []string{"biometric failure", "not contacted"},
		UniqueValues(campView(), schema.FieldNonWithdrawalReason))
	assert.NotNil(t, UniqueValues(NewSliceView(nil), schema.FieldDistrict))
	assert.Equal(t, 3300.0, SumMeasure(campView(), schema.FieldIncentiveAmount))
	assert.Zero(t, SumMeasure(campView(), schema.FieldDistrict))
}
