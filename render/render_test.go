package render

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
)

func sampleView() engine.RecordView {
	return engine.NewSliceView([]engine.Record{
		{BeneficiaryID: "1", AreaOfficer: "ali", Status: "pwd", Contacted: engine.Yes, AmountWithdrawn: 1500, BenchmarkAmount: 2000, EligibleForIncentive: engine.Yes},
		{BeneficiaryID: "2", AreaOfficer: "ali", Status: "nwd", Contacted: engine.No, BenchmarkAmount: 2000},
		{BeneficiaryID: "3", AreaOfficer: "sana", Status: "pwd", Contacted: engine.Yes, AmountWithdrawn: 700},
	})
}

func TestSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, WithColor(false))
	require.NoError(t, r.Summary(engine.ComputeSummary(sampleView())))

	out := buf.String()
	assert.Contains(t, out, "## Summary")
	assert.Contains(t, out, "Total PLWs (CNIC)")
	assert.Contains(t, out, "Rs. 2,200")
	assert.Contains(t, out, "66.7%")
	assert.NotContains(t, out, "\x1b[", "no ANSI codes when color is off")
}

func TestBreakdownTableOfficerColumns(t *testing.T) {
	b, err := engine.ComputeGroupBreakdown(sampleView(), engine.GroupByAreaOfficer)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, WithColor(false)).Breakdown(b))

	out := buf.String()
	assert.Contains(t, out, "Withdrawal %")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "Rs. 2,000")
	assert.Contains(t, out, "|---")
}

func TestBreakdownEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf).Breakdown(engine.Breakdown{Key: engine.GroupByStatus}))
	assert.Contains(t, buf.String(), "_No data_")
}

func TestRecordsTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, WithColor(false))
	require.NoError(t, r.Records(engine.BuildTable(sampleView(), "Rs.")))

	out := buf.String()
	assert.Contains(t, out, "PLW CNIC No")
	assert.Contains(t, out, "Total (3 records)")
	assert.Contains(t, out, "1500")

	buf.Reset()
	require.NoError(t, r.Records(engine.BuildTable(engine.NewSliceView(nil), "Rs.")))
	assert.Contains(t, buf.String(), "_No records_")
}

func TestReportIncludesNotes(t *testing.T) {
	rep, err := engine.Build(sampleView(), engine.Criteria{District: engine.OneOf("nowhere")})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, WithColor(false)).Report(rep))
	assert.Contains(t, buf.String(), "note: No records match")
}

func TestColumnsTable(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, WithColor(false))
	require.NoError(t, r.Columns([]loader.ColumnProfile{
		{Header: "District", Field: "district", Expected: "category", Detected: loader.DetectedCategory, Filled: 4, Conforming: 4, Distinct: 2, Samples: []string{"jacobabad", "kashmore"}},
		{Header: "Remarks", Detected: loader.DetectedText, Filled: 2, Distinct: 2},
	}))

	out := buf.String()
	assert.Contains(t, out, "## Columns")
	assert.Contains(t, out, "jacobabad, kashmore")
	assert.Contains(t, out, "(unmapped)")
}

func TestChartPNG(t *testing.T) {
	s := engine.ComputeSummary(sampleView())
	var breakdowns []engine.Breakdown
	for _, k := range engine.GroupKeys {
		b, err := engine.ComputeGroupBreakdown(sampleView(), k)
		require.NoError(t, err)
		breakdowns = append(breakdowns, b)
	}

	for _, c := range engine.BuildCharts(s, breakdowns) {
		t.Run(c.Key, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, ChartPNG(&buf, c))
			_, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(ChartFilename(c), ".png"))
		})
	}
}

func TestChartPNGErrors(t *testing.T) {
	empty := engine.BuildWithdrawalChart(engine.Summary{})
	err := ChartPNG(&bytes.Buffer{}, empty)
	assert.True(t, errors.Is(err, ErrNoChartData))

	odd := engine.ChartConfig{Key: "x", ChartType: "radar", Series: []engine.ChartSeries{{Data: []engine.ChartPoint{{Label: "a", Value: 1}}}}}
	assert.ErrorContains(t, ChartPNG(&bytes.Buffer{}, odd), "unsupported chart type")
}
