// Package render draws engine results for terminals and image files.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
)

// ============================================================================
// TABLE RENDERER — Markdown tables for the terminal
// ============================================================================

// Renderer writes engine output as markdown tables.
type Renderer struct {
	w        io.Writer
	useColor bool
	currency string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor turns ANSI coloring of counts on or off. Default on.
func WithColor(on bool) Option {
	return func(r *Renderer) { r.useColor = on }
}

// WithCurrency sets the prefix for amounts. Default "Rs.".
func WithCurrency(prefix string) Option {
	return func(r *Renderer) { r.currency = prefix }
}

// New creates a Renderer writing to w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w, useColor: true, currency: "Rs."}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary writes the headline metric cards.
func (r *Renderer) Summary(s engine.Summary) error {
	cards := engine.BuildMetricCards(s, r.currency)
	rows := make([][]string, 0, len(cards)+1)
	for _, c := range cards {
		rows = append(rows, []string{c.Label, r.colorize(c.Value, color.FgGreen)})
	}
	rows = append(rows, []string{"Withdrawal Rate", r.colorize(engine.FormatPercent(s.WithdrawalRate), color.FgCyan)})
	return r.table("Summary", []string{"Metric", "Value"}, []tw.Align{tw.AlignLeft, tw.AlignRight}, rows, nil)
}

// Breakdown writes one row per group. Area-officer breakdowns get the
// officer columns as well.
func (r *Renderer) Breakdown(b engine.Breakdown) error {
	title := engine.LabelForKey(b.Key)
	if len(b.Groups) == 0 {
		_, err := fmt.Fprintf(r.w, "## %s\n\n_No data_\n\n", title)
		return err
	}

	headers := []string{title, "PLWs", "Rows"}
	aligns := []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignRight}
	officer := b.Key == engine.GroupByAreaOfficer
	if officer {
		headers = append(headers, "Withdrawn PLWs", "Withdrawal %", "Benchmark", "Withdrawn")
		aligns = append(aligns, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight)
	}

	rows := make([][]string, 0, len(b.Groups))
	for _, g := range b.Groups {
		row := []string{g.Label, r.colorize(engine.FormatInt(g.People), color.FgGreen), engine.FormatInt(g.Rows)}
		if officer {
			var s engine.OfficerStats
			if g.Officer != nil {
				s = *g.Officer
			}
			row = append(row,
				engine.FormatInt(s.WithdrawnPeople),
				r.colorize(engine.FormatPercent(s.WithdrawalRate), rateColor(s.WithdrawalRate)),
				engine.FormatCurrency(s.BenchmarkAmount, r.currency),
				engine.FormatCurrency(s.WithdrawnAmount, r.currency),
			)
		}
		rows = append(rows, row)
	}
	return r.table(title, headers, aligns, rows, nil)
}

// Records writes the row-level table with its totals line.
func (r *Renderer) Records(t *engine.TableData) error {
	if t == nil || len(t.Rows) == 0 {
		_, err := fmt.Fprint(r.w, "_No records_\n\n")
		return err
	}

	headers := make([]string, len(t.Columns))
	aligns := make([]tw.Align, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Label
		aligns[i] = alignFor(c.Align)
	}

	var footer []string
	if t.Summary != nil {
		footer = make([]string, len(t.Columns))
		footer[0] = t.Summary.Label
		for i, c := range t.Columns {
			if v, ok := t.Summary.Values[c.Key]; ok && i > 0 {
				footer[i] = v
			}
		}
	}
	return r.table(t.Title, headers, aligns, t.Rows, footer)
}

// Report writes cards, every breakdown and any notes.
func (r *Renderer) Report(rep *engine.Report) error {
	if err := r.Summary(rep.Summary); err != nil {
		return err
	}
	for _, b := range rep.Breakdowns {
		if err := r.Breakdown(b); err != nil {
			return err
		}
	}
	if rep.Table != nil {
		if err := r.Records(rep.Table); err != nil {
			return err
		}
	}
	for _, n := range rep.Notes {
		if _, err := fmt.Fprintf(r.w, "%s\n", r.colorize("note: "+n, color.FgYellow)); err != nil {
			return err
		}
	}
	return nil
}

// Columns writes a sheet profile, one row per source column. Columns with
// cells that will be coerced on load are highlighted.
func (r *Renderer) Columns(profiles []loader.ColumnProfile) error {
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		field := string(p.Field)
		if field == "" {
			field = r.colorize("(unmapped)", color.Faint)
		}
		mismatched := engine.FormatInt(p.Mismatched())
		if p.Mismatched() > 0 {
			mismatched = r.colorize(mismatched, color.FgRed)
		}
		rows = append(rows, []string{
			p.Header,
			field,
			p.Expected,
			p.Detected,
			engine.FormatInt(p.Filled),
			engine.FormatInt(p.Blank),
			engine.FormatInt(p.Distinct),
			mismatched,
			strings.Join(p.Samples, ", "),
		})
	}
	return r.table("Columns",
		[]string{"Header", "Field", "Expected", "Detected", "Filled", "Blank", "Distinct", "Coerced", "Samples"},
		[]tw.Align{tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft},
		rows, nil)
}

func (r *Renderer) table(title string, headers []string, aligns []tw.Align, rows [][]string, footer []string) error {
	if _, err := fmt.Fprintf(r.w, "## %s\n\n", title); err != nil {
		return err
	}

	table := tablewriter.NewTable(r.w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(aligns),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("append row: %w", err)
		}
	}
	if footer != nil {
		table.Footer(footer)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render %s: %w", strings.ToLower(title), err)
	}
	_, err := fmt.Fprintln(r.w)
	return err
}

func (r *Renderer) colorize(text string, attrs ...color.Attribute) string {
	if !r.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// rateColor grades a withdrawal percentage.
func rateColor(rate float64) color.Attribute {
	switch {
	case rate >= 75:
		return color.FgGreen
	case rate >= 40:
		return color.FgYellow
	default:
		return color.FgRed
	}
}

func alignFor(s string) tw.Align {
	switch s {
	case "right":
		return tw.AlignRight
	case "center":
		return tw.AlignCenter
	default:
		return tw.AlignLeft
	}
}
