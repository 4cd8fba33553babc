package schema

import (
	"fmt"
)

// ============================================================================
// SCHEMA — Canonical shape of a PLW camp dataset
// ============================================================================
// One canonical field catalogue and a declarative alias table.
// Every source sheet spells its headers differently; aliases are resolved
// once at load time and never consulted again.
// ============================================================================

// Field is a canonical column name.
type Field string

const (
	FieldBeneficiaryID        Field = "beneficiary_id"
	FieldDistrict             Field = "district"
	FieldAreaOfficer          Field = "area_officer"
	FieldCampDate             Field = "camp_date"
	FieldStatus               Field = "status"
	FieldContacted            Field = "contacted"
	FieldVisitedSite          Field = "visited_site"
	FieldEligibleForIncentive Field = "eligible_for_incentive"
	FieldUnableToWithdraw     Field = "unable_to_withdraw"
	FieldAmountWithdrawn      Field = "amount_withdrawn"
	FieldIncentiveAmount      Field = "incentive_amount"
	FieldBenchmarkAmount      Field = "benchmark_amount"
	FieldNonWithdrawalReason  Field = "non_withdrawal_reason"
)

// Kind tells the normalizer how to coerce a cell.
type Kind int

const (
	KindText Kind = iota
	KindCategory
	KindDate
	KindAmount
	KindTriState
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCategory:
		return "category"
	case KindDate:
		return "date"
	case KindAmount:
		return "amount"
	case KindTriState:
		return "tristate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FieldDef describes one canonical field.
type FieldDef struct {
	Field       Field    `json:"field" yaml:"field"`
	DisplayName string   `json:"displayName" yaml:"display_name"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Required    bool     `json:"required" yaml:"required"`
	Aliases     []string `json:"aliases" yaml:"aliases"` // raw header spellings, in priority order
}

// Schema is an ordered field catalogue.
// Resolution walks fields in order, so a field listed earlier wins a header
// that two fields could both claim ("Amount (Rs.)" is the withdrawn amount in
// one sheet and the incentive amount in another).
type Schema struct {
	Fields []FieldDef `json:"fields" yaml:"fields"`
}

// Default returns the canonical PLW schema with every alias seen in the field sheets.
func Default() *Schema {
	return &Schema{Fields: []FieldDef{
		{
			Field: FieldBeneficiaryID, DisplayName: "PLW CNIC No", Kind: KindText, Required: true,
			Aliases: []string{"PLW CNIC No", "PLW CNIC", "CNIC No", "CNIC", "CNIC Number", "Beneficiary ID"},
		},
		{
			Field: FieldDistrict, DisplayName: "District", Kind: KindCategory, Required: true,
			Aliases: []string{"District", "District Name"},
		},
		{
			Field: FieldAreaOfficer, DisplayName: "ADFO Name", Kind: KindCategory, Required: true,
			Aliases: []string{"ADFO Name", "ADFO", "Area Officer", "Area Field Officer"},
		},
		{
			Field: FieldCampDate, DisplayName: "Date of Camp", Kind: KindDate,
			Aliases: []string{"Date of Camp", "Camp Date", "Date"},
		},
		{
			Field: FieldStatus, DisplayName: "Status of PLW (NWD or PWD)", Kind: KindCategory, Required: true,
			Aliases: []string{"Status of PLW (NWD or PWD)", "Status of PLW", "PLW Status", "Status"},
		},
		{
			Field: FieldContacted, DisplayName: "Contact with PLW (Y/N)", Kind: KindTriState,
			Aliases: []string{"Contact with PLW (Y/N)", "Contact with PLW", "Contacted"},
		},
		{
			Field: FieldVisitedSite, DisplayName: "PLW visited the Campsite", Kind: KindTriState,
			Aliases: []string{"PLW visited the Campsite", "PLW visited Campsite", "Visited Campsite", "Visited Camp"},
		},
		{
			Field: FieldEligibleForIncentive, DisplayName: "Eligible for Incentive", Kind: KindTriState, Required: true,
			Aliases: []string{"Eligible for Incentive", "Incentive Eligible"},
		},
		{
			Field: FieldUnableToWithdraw, DisplayName: "PLW unable to withdraw", Kind: KindTriState,
			Aliases: []string{"PLW unable to withdraw", "Unable to withdraw"},
		},
		{
			Field: FieldAmountWithdrawn, DisplayName: "Amount withdrawn from Camp (Rs.)", Kind: KindAmount, Required: true,
			Aliases: []string{"Amount withdrawn from Camp (Rs.)", "Amount withdrawn from Camp", "Amount Withdrawn", "Amount (Rs.)"},
		},
		{
			Field: FieldIncentiveAmount, DisplayName: "Incentive (Rs.)", Kind: KindAmount, Required: true,
			Aliases: []string{"Incentive Amount", "Incentive Amount (Rs.)", "Incentive (Rs.)", "Incentive", "Amount (Rs.)"},
		},
		{
			Field: FieldBenchmarkAmount, DisplayName: "Withdrawal / Camp (Rs.)", Kind: KindAmount,
			Aliases: []string{"Withdrawal / Camp (Rs.)", "Withdrawal per Camp (Rs.)", "Benchmark", "Benchmark Amount"},
		},
		{
			Field: FieldNonWithdrawalReason, DisplayName: "Reason for Non Withdrawal", Kind: KindText,
			Aliases: []string{"Reason for Non Withdrawal", "Reason for Non-Withdrawal", "Non Withdrawal Reason", "Reason"},
		},
	}}
}

// Lookup returns the definition for a field.
func (s *Schema) Lookup(f Field) (FieldDef, bool) {
	for _, d := range s.Fields {
		if d.Field == f {
			return d, true
		}
	}
	return FieldDef{}, false
}

// Keys returns all canonical field names in schema order.
func (s *Schema) Keys() []Field {
	keys := make([]Field, len(s.Fields))
	for i, d := range s.Fields {
		keys[i] = d.Field
	}
	return keys
}

// KeyStrings returns Keys as plain strings (CSV export header).
func (s *Schema) KeyStrings() []string {
	keys := make([]string, len(s.Fields))
	for i, d := range s.Fields {
		keys[i] = string(d.Field)
	}
	return keys
}

// WithAliases returns a copy of the schema with extra aliases appended to the
// named fields. Extra aliases rank after the built-in ones.
func (s *Schema) WithAliases(extra map[Field][]string) (*Schema, error) {
	out := s.clone()
	for f, aliases := range extra {
		idx := out.index(f)
		if idx < 0 {
			return nil, fmt.Errorf("alias for unknown field %q", f)
		}
		out.Fields[idx].Aliases = append(out.Fields[idx].Aliases, aliases...)
	}
	return out, nil
}

// WithRequired returns a copy of the schema where exactly the given fields are required.
func (s *Schema) WithRequired(fields []Field) (*Schema, error) {
	out := s.clone()
	want := make(map[Field]bool, len(fields))
	for _, f := range fields {
		if out.index(f) < 0 {
			return nil, fmt.Errorf("unknown required field %q", f)
		}
		want[f] = true
	}
	for i := range out.Fields {
		out.Fields[i].Required = want[out.Fields[i].Field]
	}
	return out, nil
}

func (s *Schema) index(f Field) int {
	for i, d := range s.Fields {
		if d.Field == f {
			return i
		}
	}
	return -1
}

func (s *Schema) clone() *Schema {
	out := &Schema{Fields: make([]FieldDef, len(s.Fields))}
	for i, d := range s.Fields {
		d.Aliases = append([]string(nil), d.Aliases...)
		out.Fields[i] = d
	}
	return out
}
