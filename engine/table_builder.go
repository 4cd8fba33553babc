package engine

import (
	"strconv"

	"github.com/spektr-org/plwdash/schema"
)

// ============================================================================
// TABLE BUILDER — Row-per-record table of the filtered view
// ============================================================================
// Column order is the canonical schema order. The same cell rendering feeds
// the CSV export, so what the table shows is what the download contains.
// ============================================================================

// BuildTable produces a TableData with one row per record in the view.
func BuildTable(view RecordView, currency string) *TableData {
	sch := schema.Default()
	columns := make([]Column, 0, len(sch.Fields))
	for _, def := range sch.Fields {
		columns = append(columns, columnFor(def))
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		rows = append(rows, CellValues(view.At(i)))
	}

	s := ComputeSummary(view)
	return &TableData{
		Title:   "Detailed Table View",
		Columns: columns,
		Rows:    rows,
		Summary: &Totals{
			Label: "Total (" + FormatInt(view.Len()) + " records)",
			Values: map[string]string{
				string(schema.FieldBeneficiaryID):   FormatInt(s.TotalPeople) + " PLWs",
				string(schema.FieldAmountWithdrawn): FormatCurrency(s.TotalWithdrawnAmount, currency),
				string(schema.FieldIncentiveAmount): FormatCurrency(SumMeasure(view, schema.FieldIncentiveAmount), currency),
			},
		},
	}
}

// CellValues renders a record in canonical column order.
// Dates are YYYY-MM-DD (blank when null), amounts carry no trailing zeros,
// tri-state unknown is blank.
func CellValues(r Record) []string {
	date := ""
	if r.CampDate != nil {
		date = r.CampDate.Format(DateLayout)
	}
	return []string{
		r.BeneficiaryID,
		r.District,
		r.AreaOfficer,
		date,
		r.Status,
		r.Contacted.Cell(),
		r.VisitedSite.Cell(),
		r.EligibleForIncentive.Cell(),
		r.UnableToWithdraw.Cell(),
		formatAmount(r.AmountWithdrawn),
		formatAmount(r.IncentiveAmount),
		formatAmount(r.BenchmarkAmount),
		r.NonWithdrawalReason,
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func columnFor(def schema.FieldDef) Column {
	col := Column{Key: string(def.Field), Label: def.DisplayName, Type: "text", Align: "left"}
	switch def.Kind {
	case schema.KindAmount:
		col.Type = "currency"
		col.Align = "right"
	case schema.KindDate:
		col.Type = "date"
	case schema.KindTriState:
		col.Align = "center"
	}
	return col
}
