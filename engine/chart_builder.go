package engine

// ============================================================================
// CHART BUILDER — Produces ChartConfigs from Summary + Breakdowns
// ============================================================================
// One config per dashboard visual. Rendering (PNG, web) lives elsewhere;
// this only decides series, labels and colors.
// ============================================================================

// Yes/no pies use a fixed pair so "yes" is always the same color.
var yesNoColors = []string{"#006400", "#8B0000", "#808080"} // yes, no, unknown

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Chart keys.
const (
	ChartContacted     = "contacted"
	ChartVisitedSite   = "visited_site"
	ChartWithdrawal    = "withdrawal"
	ChartStatus        = "status"
	ChartOfficerRate   = "officer_withdrawal_rate"
	ChartBenchmark     = "officer_benchmark"
	ChartNonWithdrawal = "non_withdrawal_reason"
)

// BuildCharts produces every chart the breakdowns allow.
// Breakdowns not present in the slice are skipped.
func BuildCharts(summary Summary, breakdowns []Breakdown) []ChartConfig {
	charts := make([]ChartConfig, 0, 7)
	charts = append(charts, BuildWithdrawalChart(summary))

	for _, b := range breakdowns {
		switch b.Key {
		case GroupByContacted:
			if c := buildYesNoPie(ChartContacted, "Contact with PLW", b); c != nil {
				charts = append(charts, *c)
			}
		case GroupByVisitedSite:
			if c := buildYesNoPie(ChartVisitedSite, "Visited Camp", b); c != nil {
				charts = append(charts, *c)
			}
		case GroupByStatus:
			if c := buildCountBar(ChartStatus, "PLW Status", b); c != nil {
				charts = append(charts, *c)
			}
		case GroupByNonWithdrawalReason:
			if c := buildCountBar(ChartNonWithdrawal, "Reason for Non-Withdrawal", b); c != nil {
				charts = append(charts, *c)
			}
		case GroupByAreaOfficer:
			if c := buildOfficerRateChart(b); c != nil {
				charts = append(charts, *c)
			}
			if c := buildBenchmarkChart(b); c != nil {
				charts = append(charts, *c)
			}
		}
	}
	return charts
}

// BuildWithdrawalChart is the withdrawn vs not-withdrawn pie.
func BuildWithdrawalChart(s Summary) ChartConfig {
	withdrawn, notWithdrawn := WithdrawalSplit(s)
	return ChartConfig{
		Key:       ChartWithdrawal,
		ChartType: "pie",
		Title:     "Withdrawal",
		Series: []ChartSeries{{
			Name: "PLWs",
			Data: []ChartPoint{
				{Label: "Withdrawn", Value: float64(withdrawn)},
				{Label: "Not Withdrawn", Value: float64(notWithdrawn)},
			},
		}},
		Colors:     []string{yesNoColors[0], yesNoColors[1]},
		ShowLegend: true,
	}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildYesNoPie(key, title string, b Breakdown) *ChartConfig {
	if len(b.Groups) == 0 {
		return nil
	}
	byLabel := make(map[string]float64, len(b.Groups))
	for _, g := range b.Groups {
		byLabel[g.Label] = float64(g.People)
	}

	// Fixed yes, no order; unknown only when present.
	points := []ChartPoint{
		{Label: Yes.String(), Value: byLabel[Yes.String()]},
		{Label: No.String(), Value: byLabel[No.String()]},
	}
	colors := []string{yesNoColors[0], yesNoColors[1]}
	if v, ok := byLabel[Unknown.String()]; ok {
		points = append(points, ChartPoint{Label: Unknown.String(), Value: v})
		colors = append(colors, yesNoColors[2])
	}

	return &ChartConfig{
		Key:        key,
		ChartType:  "pie",
		Title:      title,
		Series:     []ChartSeries{{Name: "PLWs", Data: points}},
		Colors:     colors,
		ShowLegend: true,
	}
}

func buildCountBar(key, title string, b Breakdown) *ChartConfig {
	if len(b.Groups) == 0 {
		return nil
	}
	points := make([]ChartPoint, 0, len(b.Groups))
	for _, g := range b.Groups {
		points = append(points, ChartPoint{Label: g.Label, Value: float64(g.People)})
	}
	return &ChartConfig{
		Key:       key,
		ChartType: "bar_horizontal",
		Title:     title,
		XAxis:     "PLWs",
		YAxis:     LabelForKey(b.Key),
		Series:    []ChartSeries{{Name: "PLWs", Data: points}},
		Colors:    assignColors(1),
		ShowGrid:  true,
	}
}

func buildOfficerRateChart(b Breakdown) *ChartConfig {
	if len(b.Groups) == 0 {
		return nil
	}
	points := make([]ChartPoint, 0, len(b.Groups))
	for _, g := range b.Groups {
		var rate float64
		if g.Officer != nil {
			rate = g.Officer.WithdrawalRate
		}
		points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(rate)})
	}
	return &ChartConfig{
		Key:       ChartOfficerRate,
		ChartType: "bar",
		Title:     "ADFO-wise Withdrawal %",
		XAxis:     "ADFO Name",
		YAxis:     "Withdrawal %",
		Series:    []ChartSeries{{Name: "Withdrawal %", Data: points}},
		Colors:    assignColors(1),
		ShowGrid:  true,
	}
}

func buildBenchmarkChart(b Breakdown) *ChartConfig {
	if len(b.Groups) == 0 {
		return nil
	}
	bench := make([]ChartPoint, 0, len(b.Groups))
	actual := make([]ChartPoint, 0, len(b.Groups))
	for _, g := range b.Groups {
		var s OfficerStats
		if g.Officer != nil {
			s = *g.Officer
		}
		bench = append(bench, ChartPoint{Label: g.Label, Value: RoundTo2(s.BenchmarkAmount)})
		actual = append(actual, ChartPoint{Label: g.Label, Value: RoundTo2(s.WithdrawnAmount)})
	}
	return &ChartConfig{
		Key:       ChartBenchmark,
		ChartType: "grouped_bar",
		Title:     "ADFO: Benchmark vs Withdrawn (Rs.)",
		XAxis:     "ADFO Name",
		YAxis:     "Rs.",
		Series: []ChartSeries{
			{Name: "Benchmark", Data: bench, Color: yesNoColors[0]},
			{Name: "Withdrawn", Data: actual, Color: yesNoColors[1]},
		},
		Colors:     []string{yesNoColors[0], yesNoColors[1]},
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
