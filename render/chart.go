package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/plwdash/engine"
)

// ============================================================================
// CHART PNG — ChartConfig → image
// ============================================================================
// Pies and bars only. Horizontal and grouped bars are drawn as plain bars;
// grouped series are interleaved per label.
// ============================================================================

// ErrNoChartData is returned for a chart whose values are all zero.
var ErrNoChartData = errors.New("chart has no data")

type pngChart interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

const (
	chartWidth  = 1024
	chartHeight = 512
)

// ChartPNG renders a chart config as a PNG.
func ChartPNG(w io.Writer, c engine.ChartConfig) error {
	if !hasData(c) {
		return fmt.Errorf("%s: %w", c.Key, ErrNoChartData)
	}

	var r pngChart
	switch c.ChartType {
	case "pie":
		r = pieChart(c)
	case "bar", "bar_horizontal", "grouped_bar":
		r = barChart(c)
	default:
		return fmt.Errorf("%s: unsupported chart type %q", c.Key, c.ChartType)
	}

	if err := r.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", c.Key, err)
	}
	return nil
}

// ChartFilename is the file name used when a chart is written to disk.
func ChartFilename(c engine.ChartConfig) string {
	return strings.ReplaceAll(c.Key, " ", "_") + ".png"
}

func pieChart(c engine.ChartConfig) *chart.PieChart {
	var values []chart.Value
	if len(c.Series) > 0 {
		for i, p := range c.Series[0].Data {
			if p.Value <= 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: fmt.Sprintf("%s (%s)", p.Label, engine.FormatInt(int(p.Value))),
				Value: p.Value,
				Style: fill(pick(c.Colors, i)),
			})
		}
	}
	return &chart.PieChart{
		Title:  c.Title,
		Width:  chartHeight,
		Height: chartHeight,
		Values: values,
	}
}

func barChart(c engine.ChartConfig) *chart.BarChart {
	var bars []chart.Value
	if len(c.Series) == 1 {
		for _, p := range c.Series[0].Data {
			bars = append(bars, chart.Value{
				Label: p.Label,
				Value: p.Value,
				Style: fill(pick(c.Colors, 0)),
			})
		}
	} else {
		// Interleave: label1/s1, label1/s2, label2/s1, ...
		for i, n := 0, longestSeries(c.Series); i < n; i++ {
			for si, s := range c.Series {
				if i >= len(s.Data) {
					continue
				}
				col := s.Color
				if col == "" {
					col = pick(c.Colors, si)
				}
				bars = append(bars, chart.Value{
					Label: s.Data[i].Label + " " + strings.ToLower(s.Name),
					Value: s.Data[i].Value,
					Style: fill(col),
				})
			}
		}
	}
	return &chart.BarChart{
		Title:    c.Title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Name:  c.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue(bars) * 1.1},
		},
		Bars: bars,
	}
}

func hasData(c engine.ChartConfig) bool {
	for _, s := range c.Series {
		for _, p := range s.Data {
			if p.Value > 0 {
				return true
			}
		}
	}
	return false
}

func longestSeries(series []engine.ChartSeries) int {
	n := 0
	for _, s := range series {
		if len(s.Data) > n {
			n = len(s.Data)
		}
	}
	return n
}

func maxValue(values []chart.Value) float64 {
	m := 0.0
	for _, v := range values {
		if v.Value > m {
			m = v.Value
		}
	}
	return m
}

func pick(colors []string, i int) string {
	if len(colors) == 0 {
		return ""
	}
	return colors[i%len(colors)]
}

func fill(hex string) chart.Style {
	if hex == "" {
		return chart.Style{}
	}
	c := drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
	return chart.Style{FillColor: c, StrokeColor: c}
}
