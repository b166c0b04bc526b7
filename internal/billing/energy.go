package billing

import (
	"github.com/shopspring/decimal"

	"utility-cost/internal/applicability"
	"utility-cost/internal/usage"
	"utility-cost/pkg/tariff"
)

// applyEnergyCharge prices each interval's energy at the charge's rate
// wherever the charge applies. Pure per-interval: no cross-interval state.
func applyEnergyCharge(ds usage.Dataset, c tariff.EnergyCharge) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(ds.Intervals))
	for i, iv := range ds.Intervals {
		if applicability.Applies(iv, c.Rules) {
			out[i] = c.RatePerKWH.Mul(iv.Energy.Decimal)
		} else {
			out[i] = decimal.Zero
		}
	}
	return out, nil
}
