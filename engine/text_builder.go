package engine

// ============================================================================
// METRIC CARDS — Headline numbers for the dashboard header
// ============================================================================

// Card keys.
const (
	CardTotalPeople     = "total_people"
	CardWithdrawnPeople = "withdrawn_people"
	CardIncentivePeople = "incentive_eligible_people"
	CardWithdrawnAmount = "total_withdrawn_amount"
	CardIncentiveDue    = "incentive_due_amount"
	CardNotWithdrawn    = "not_withdrawn_people"
)

// BuildMetricCards renders the six headline metrics in dashboard order.
func BuildMetricCards(s Summary, currency string) []MetricCard {
	return []MetricCard{
		countCard(CardTotalPeople, "Total PLWs (CNIC)", s.TotalPeople),
		countCard(CardWithdrawnPeople, "Withdrawn PLWs", s.WithdrawnPeople),
		countCard(CardIncentivePeople, "Incentive Eligible (CNIC)", s.IncentiveEligiblePeople),
		amountCard(CardWithdrawnAmount, "Total Withdrawn (Rs.)", s.TotalWithdrawnAmount, currency),
		amountCard(CardIncentiveDue, "Incentive Due (Rs.)", s.IncentiveDueAmount, currency),
		countCard(CardNotWithdrawn, "Not Withdrawn PLWs", s.NotWithdrawnPeople),
	}
}

func countCard(key, label string, n int) MetricCard {
	return MetricCard{Key: key, Label: label, Value: FormatInt(n), RawValue: float64(n)}
}

func amountCard(key, label string, v float64, currency string) MetricCard {
	return MetricCard{Key: key, Label: label, Value: FormatCurrency(v, currency), RawValue: v}
}
