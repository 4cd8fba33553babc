package loader

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// NORMALIZER — RawTable → canonical []engine.Record
// ============================================================================
// Every text cell is trimmed and lowercased before it is typed. Cell-level
// problems never fail a load: bad dates become nil, bad or negative amounts
// become 0, and each coercion is counted in Stats. The only fatal error is a
// missing required column.
// ============================================================================

// DefaultDateLayouts are tried in order. Slashed and dashed numeric dates are
// day-first, the way the field sheets are filled in; a slashed date that is
// only valid month-first ("03/25/2024") falls through to the month-first
// layouts. Month names match in any case.
var DefaultDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2 January 2006",
	"Jan 2, 2006",
}

// currencyMarkers are stripped from amount cells (already lowercased).
var currencyMarkers = []string{"rs.", "rs", "pkr", "₨", ",", " "}

// Dataset is a normalized table plus what is known about its source.
// It is never modified after Normalize returns.
type Dataset struct {
	Records  []engine.Record
	Mapping  schema.Mapping
	Stats    Stats
	Source   string
	LoadedAt time.Time
}

// View exposes the records as an engine.RecordView.
func (d *Dataset) View() engine.RecordView {
	return engine.NewSliceView(d.Records)
}

// Has reports whether the source sheet carried a column for f.
func (d *Dataset) Has(f schema.Field) bool {
	return d.Mapping.Has(f)
}

// Available reports whether a breakdown key has a source column.
// It is meant for engine.WithAvailability.
func (d *Dataset) Available(key engine.GroupKey) bool {
	return d.Has(schema.Field(key))
}

// Normalize types a raw table against the schema.
// On a missing required column it returns a *schema.MissingColumnError.
func Normalize(raw RawTable, opts ...Option) (*Dataset, error) {
	cfg := applyOptions(opts)
	log := cfg.logger

	mapping, err := cfg.schema.Resolve(raw.Headers)
	if err != nil {
		log.Error("required columns missing", zap.Error(err))
		return nil, err
	}
	for _, def := range cfg.schema.Fields {
		if !def.Required && !mapping.Has(def.Field) {
			log.Warn("optional column absent", zap.String("field", string(def.Field)))
		}
	}

	n := &normalizer{mapping: mapping, layouts: cfg.dateLayouts}
	n.stats.MalformedRows = raw.Skipped
	records := make([]engine.Record, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		if blankRow(row) {
			n.stats.BlankRows++
			continue
		}
		records = append(records, n.record(row))
	}
	n.stats.Rows = len(records)

	ds := &Dataset{
		Records:  records,
		Mapping:  mapping,
		Stats:    n.stats,
		LoadedAt: cfg.now(),
	}

	fields := []zap.Field{
		zap.Int("rows", ds.Stats.Rows),
		zap.Int("people", len(engine.DistinctPeople(ds.View()))),
	}
	if c := ds.Stats.Coerced(); c > 0 {
		log.Warn("cells coerced during normalization", append(fields, ds.Stats.zapFields()...)...)
	} else {
		log.Info("table normalized", fields...)
	}
	return ds, nil
}

type normalizer struct {
	mapping schema.Mapping
	layouts []string
	stats   Stats
	short   bool
}

func (n *normalizer) record(row []string) engine.Record {
	n.short = false
	rec := engine.Record{
		BeneficiaryID:       n.text(row, schema.FieldBeneficiaryID),
		District:            n.text(row, schema.FieldDistrict),
		AreaOfficer:         n.text(row, schema.FieldAreaOfficer),
		Status:              n.text(row, schema.FieldStatus),
		NonWithdrawalReason: n.text(row, schema.FieldNonWithdrawalReason),

		Contacted:            engine.ParseTriState(n.text(row, schema.FieldContacted)),
		VisitedSite:          engine.ParseTriState(n.text(row, schema.FieldVisitedSite)),
		EligibleForIncentive: engine.ParseTriState(n.text(row, schema.FieldEligibleForIncentive)),
		UnableToWithdraw:     engine.ParseTriState(n.text(row, schema.FieldUnableToWithdraw)),

		AmountWithdrawn: n.amount(row, schema.FieldAmountWithdrawn),
		IncentiveAmount: n.amount(row, schema.FieldIncentiveAmount),
		BenchmarkAmount: n.amount(row, schema.FieldBenchmarkAmount),
	}
	rec.CampDate = n.date(row)

	if rec.BeneficiaryID == "" {
		n.stats.BlankIDs++
	}
	if n.short {
		n.stats.ShortRows++
	}
	return rec
}

// text returns the trimmed, lowercased cell for f, or "" when the column is
// absent or the row is too short.
func (n *normalizer) text(row []string, f schema.Field) string {
	idx := n.mapping.Index(f)
	if idx < 0 {
		return ""
	}
	if idx >= len(row) {
		n.short = true
		return ""
	}
	return strings.ToLower(strings.TrimSpace(row[idx]))
}

func (n *normalizer) date(row []string) *time.Time {
	cell := n.text(row, schema.FieldCampDate)
	if cell == "" {
		return nil
	}
	if t, ok := ParseDate(cell, n.layouts); ok {
		return &t
	}
	n.stats.BadDates++
	return nil
}

func (n *normalizer) amount(row []string, f schema.Field) float64 {
	cell := n.text(row, f)
	v, ok := ParseAmount(cell)
	if !ok {
		n.stats.addBadAmount(f)
		return 0
	}
	if v < 0 {
		n.stats.addNegativeAmount(f)
		return 0
	}
	return v
}

// ParseDate tries each layout in order and returns the UTC calendar date.
// The cell is uppercased first so the literal T and Z of RFC 3339 and the
// PM marker match cells the normalizer has lowercased.
func ParseDate(cell string, layouts []string) (time.Time, bool) {
	cell = strings.ToUpper(strings.TrimSpace(cell))
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cell); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseAmount parses a money cell such as "Rs. 1,250.50" or "PKR 3000".
// A blank cell is a valid zero. The sign is kept; callers decide what a
// negative means.
func ParseAmount(cell string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(cell))
	for _, m := range currencyMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	if s == "" {
		return 0, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return d.Round(2).InexactFloat64(), true
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
