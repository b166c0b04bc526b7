package billing

import (
	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// applyCustomerCharge spreads a flat charge evenly across intervals. Daily
// charges allocate the full amount within each calendar date; monthly charges
// allocate it within each billing-period label, so the per-interval shares
// sum to the full amount per window regardless of the period's month span.
func applyCustomerCharge(ds usage.Dataset, c tariff.CustomerCharge) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(ds.Intervals))

	switch c.Period {
	case tariff.PeriodDaily:
		counts := make(map[dates.Date]int64)
		for _, iv := range ds.Intervals {
			counts[iv.LocalDate()]++
		}
		for i, iv := range ds.Intervals {
			out[i] = c.Amount.Div(decimal.NewFromInt(counts[iv.LocalDate()]))
		}

	case tariff.PeriodMonthly:
		counts := make(map[string]int64)
		for _, iv := range ds.Intervals {
			if iv.BillingPeriod == "" {
				return nil, preconditionErrorf(
					"customer charge %q needs a billing-period label on interval starting %s; run the calculator's period labeling first",
					c.Name, iv.Start)
			}
			counts[iv.BillingPeriod]++
		}
		for i, iv := range ds.Intervals {
			out[i] = c.Amount.Div(decimal.NewFromInt(counts[iv.BillingPeriod]))
		}

	default:
		return nil, &tariff.ConfigurationError{
			Reason: "customer charge " + c.Name + ": unknown period type " + string(c.Period),
		}
	}

	return out, nil
}
