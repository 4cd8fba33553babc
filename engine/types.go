package engine

import (
	"strings"
	"time"

	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// PLWDASH ENGINE TYPES — Canonical camp record + report shapes
// ============================================================================
// Record is the normalized, typed row the loader produces.
// Everything downstream (filters, summary, breakdowns, builders) reads
// Records through a RecordView and never mutates them.
// ============================================================================

// ============================================================================
// TRI-STATE — yes / no / unknown answers
// ============================================================================

// TriState is a yes/no sheet answer that may be missing or malformed.
type TriState int

const (
	Unknown TriState = iota
	Yes
	No
)

// ParseTriState accepts only the literal lowercase "yes" and "no".
// Anything else, including "Yes", "y" and "", is Unknown.
// The loader lowercases and trims cells before calling this.
func ParseTriState(s string) TriState {
	switch s {
	case "yes":
		return Yes
	case "no":
		return No
	default:
		return Unknown
	}
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Cell renders the value as it is written to CSV: unknown becomes blank.
func (t TriState) Cell() string {
	if t == Unknown {
		return ""
	}
	return t.String()
}

func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TriState) UnmarshalText(b []byte) error {
	*t = ParseTriState(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// ============================================================================
// RECORD — One beneficiary visit at one camp
// ============================================================================

// Record is one normalized row. Text fields are already lowercased and trimmed.
type Record struct {
	BeneficiaryID        string     `json:"beneficiary_id"`
	District             string     `json:"district"`
	AreaOfficer          string     `json:"area_officer"`
	CampDate             *time.Time `json:"camp_date"`
	Status               string     `json:"status"`
	Contacted            TriState   `json:"contacted"`
	VisitedSite          TriState   `json:"visited_site"`
	EligibleForIncentive TriState   `json:"eligible_for_incentive"`
	UnableToWithdraw     TriState   `json:"unable_to_withdraw"`
	AmountWithdrawn      float64    `json:"amount_withdrawn"`
	IncentiveAmount      float64    `json:"incentive_amount"`
	BenchmarkAmount      float64    `json:"benchmark_amount"`
	NonWithdrawalReason  string     `json:"non_withdrawal_reason"`
}

// IncentiveEligible applies the eligibility rule: the record must be marked
// eligible, and an unable-to-withdraw "yes" always overrides that mark.
func (r Record) IncentiveEligible() bool {
	return r.EligibleForIncentive == Yes && r.UnableToWithdraw != Yes
}

// Withdrew reports whether any money was withdrawn on this visit.
func (r Record) Withdrew() bool {
	return r.AmountWithdrawn > 0
}

// Dimension returns the string value of a categorical or tri-state field.
// Amount and date fields return "".
func (r Record) Dimension(f schema.Field) string {
	switch f {
	case schema.FieldBeneficiaryID:
		return r.BeneficiaryID
	case schema.FieldDistrict:
		return r.District
	case schema.FieldAreaOfficer:
		return r.AreaOfficer
	case schema.FieldStatus:
		return r.Status
	case schema.FieldContacted:
		return r.Contacted.String()
	case schema.FieldVisitedSite:
		return r.VisitedSite.String()
	case schema.FieldEligibleForIncentive:
		return r.EligibleForIncentive.String()
	case schema.FieldUnableToWithdraw:
		return r.UnableToWithdraw.String()
	case schema.FieldNonWithdrawalReason:
		return r.NonWithdrawalReason
	}
	return ""
}

// Measure returns the numeric value of an amount field, else 0.
func (r Record) Measure(f schema.Field) float64 {
	switch f {
	case schema.FieldAmountWithdrawn:
		return r.AmountWithdrawn
	case schema.FieldIncentiveAmount:
		return r.IncentiveAmount
	case schema.FieldBenchmarkAmount:
		return r.BenchmarkAmount
	}
	return 0
}

// ============================================================================
// CRITERIA — User-selected filters
// ============================================================================

// Selection is the accepted set of values for one categorical field.
// The zero value accepts every value ("all").
type Selection struct {
	Values     []string `json:"values,omitempty"`
	Restricted bool     `json:"restricted"`
}

// AnyValue accepts every value.
func AnyValue() Selection { return Selection{} }

// OneOf accepts only the listed values. OneOf() with no values accepts nothing.
func OneOf(values ...string) Selection {
	return Selection{Values: values, Restricted: true}
}

// IsAll reports whether the selection places no restriction.
func (s Selection) IsAll() bool { return !s.Restricted }

// DateRange is an inclusive [From, To] range at day granularity.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Criteria is the full filter configuration.
// A record is kept iff it matches every restricting criterion.
type Criteria struct {
	District    Selection  `json:"district"`
	AreaOfficer Selection  `json:"area_officer"`
	Status      Selection  `json:"status"`
	Dates       *DateRange `json:"date_range,omitempty"`
}

// IsEmpty returns true if no criterion restricts.
func (c Criteria) IsEmpty() bool {
	return c.District.IsAll() && c.AreaOfficer.IsAll() && c.Status.IsAll() && c.Dates == nil
}

// ============================================================================
// SUMMARY — Headline metrics
// ============================================================================

// Summary holds the headline metrics of a filtered table.
// People counts are distinct beneficiary ids; amounts are per-row sums.
type Summary struct {
	Rows                    int     `json:"rows"`
	TotalPeople             int     `json:"total_people"`
	WithdrawnPeople         int     `json:"withdrawn_people"`
	NotWithdrawnPeople      int     `json:"not_withdrawn_people"`
	TotalWithdrawnAmount    float64 `json:"total_withdrawn_amount"`
	IncentiveEligiblePeople int     `json:"incentive_eligible_people"`
	IncentiveDueAmount      float64 `json:"incentive_due_amount"`
	WithdrawalRate          float64 `json:"withdrawal_rate"` // withdrawn / total × 100, 0 when empty
}

// ============================================================================
// GROUP — Breakdown row
// ============================================================================

// GroupKey names a field a breakdown can group by.
type GroupKey string

const (
	GroupByAreaOfficer         GroupKey = GroupKey(schema.FieldAreaOfficer)
	GroupByStatus              GroupKey = GroupKey(schema.FieldStatus)
	GroupByNonWithdrawalReason GroupKey = GroupKey(schema.FieldNonWithdrawalReason)
	GroupByContacted           GroupKey = GroupKey(schema.FieldContacted)
	GroupByVisitedSite         GroupKey = GroupKey(schema.FieldVisitedSite)
)

// GroupKeys lists every supported breakdown key.
var GroupKeys = []GroupKey{
	GroupByAreaOfficer,
	GroupByStatus,
	GroupByNonWithdrawalReason,
	GroupByContacted,
	GroupByVisitedSite,
}

// Group is one row of a breakdown.
type Group struct {
	Label   string        `json:"label"`
	People  int           `json:"people"` // distinct beneficiary ids
	Rows    int           `json:"rows"`
	Officer *OfficerStats `json:"officer,omitempty"`
	View    RecordView    `json:"-"` // records in this group (zero-copy)
}

// OfficerStats are the extra figures reported per area officer.
type OfficerStats struct {
	WithdrawnPeople int     `json:"withdrawn_people"`
	WithdrawalRate  float64 `json:"withdrawal_rate"`
	BenchmarkAmount float64 `json:"benchmark_amount"` // max over the officer's rows
	WithdrawnAmount float64 `json:"withdrawn_amount"` // sum over the officer's rows
}

// Breakdown is a grouped view of a filtered table.
type Breakdown struct {
	Key    GroupKey `json:"key"`
	Groups []Group  `json:"groups"`
}

// ============================================================================
// RESULT TYPES — Render-ready output
// ============================================================================

// Report is the full output of one filter-and-aggregate pass.
type Report struct {
	Criteria   Criteria      `json:"criteria"`
	Summary    Summary       `json:"summary"`
	Cards      []MetricCard  `json:"cards"`
	Breakdowns []Breakdown   `json:"breakdowns"`
	Charts     []ChartConfig `json:"charts"`
	Table      *TableData    `json:"table,omitempty"`
	Notes      []string      `json:"notes,omitempty"`

	Filtered RecordView `json:"-"`
}

// MetricCard is one headline number ready for display.
type MetricCard struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	RawValue float64 `json:"rawValue"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	Key        string        `json:"key"`
	ChartType  string        `json:"chartType"` // "pie", "bar", "bar_horizontal", "grouped_bar"
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Totals    `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency", "date"
	Align string `json:"align"` // "left", "center", "right"
}

// Totals provides totals for a table.
type Totals struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
