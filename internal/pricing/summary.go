package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gp3sift/internal/pricing/models"
)

var hundred = decimal.NewFromInt(100)

// FleetSummary totals the records whose current and projected costs are both known
type FleetSummary struct {
	CurrentTotal   decimal.Decimal
	ProjectedTotal decimal.Decimal
	Savings        decimal.Decimal
	// PercentChange is |100 × projected / current − 100| truncated toward
	// zero. It is nil when nothing was included or the current total is zero.
	PercentChange *int64
	Included      int
	Excluded      int
}

// Summarize aggregates records. Records that are not io1 or that carry a
// not-applicable cost are excluded from both totals.
func Summarize(records []models.InstanceRecord) FleetSummary {
	summary := FleetSummary{
		CurrentTotal:   decimal.Zero,
		ProjectedTotal: decimal.Zero,
	}

	for _, record := range records {
		if !record.Config.IsIO1() || !record.Costs.Current.Determined() || !record.Costs.Projected.Determined() {
			summary.Excluded++
			continue
		}
		summary.CurrentTotal = summary.CurrentTotal.Add(record.Costs.Current.Value)
		summary.ProjectedTotal = summary.ProjectedTotal.Add(record.Costs.Projected.Value)
		summary.Included++
	}

	summary.Savings = summary.CurrentTotal.Sub(summary.ProjectedTotal)

	summary.PercentChange = percentChange(summary.CurrentTotal, summary.ProjectedTotal, summary.Included)

	return summary
}

// Merge combines the summaries of separate batches
func (s FleetSummary) Merge(other FleetSummary) FleetSummary {
	merged := FleetSummary{
		CurrentTotal:   s.CurrentTotal.Add(other.CurrentTotal),
		ProjectedTotal: s.ProjectedTotal.Add(other.ProjectedTotal),
		Included:       s.Included + other.Included,
		Excluded:       s.Excluded + other.Excluded,
	}
	merged.Savings = merged.CurrentTotal.Sub(merged.ProjectedTotal)
	merged.PercentChange = percentChange(merged.CurrentTotal, merged.ProjectedTotal, merged.Included)
	return merged
}

func percentChange(current, projected decimal.Decimal, included int) *int64 {
	if included == 0 || current.IsZero() {
		return nil
	}
	pct := projected.Mul(hundred).Div(current).Sub(hundred).Abs().IntPart()
	return &pct
}

// Percent renders the percent change, or "undefined"
func (s FleetSummary) Percent() string {
	if s.PercentChange == nil {
		return "undefined"
	}
	return fmt.Sprintf("%d%%", *s.PercentChange)
}

// Direction describes whether the migration lowers or raises the bill
func (s FleetSummary) Direction() string {
	switch {
	case s.PercentChange == nil:
		return "n/a"
	case s.Savings.IsNegative():
		return "increase"
	default:
		return "reduction"
	}
}
