package billing

import (
	"github.com/shopspring/decimal"

	"utility-cost/internal/applicability"
	"utility-cost/internal/usage"
	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// peakGroupKey identifies one demand grouping window: a calendar date for
// daily peaks, a billing-period label for monthly peaks.
type peakGroupKey struct {
	date   dates.Date
	period string
}

// applyDemandCharge finds the peak applicable demand in each grouping window
// and allocates rate*peak across the intervals achieving it. Ties split the
// charge evenly; windows whose masked peak is zero cost nothing.
//
// For monthly charges with date-bounded rules, each window's cost is scaled
// by the most permissive coverage fraction across those rules (applicable
// days over total days, bounds re-anchored to the window's year).
func applyDemandCharge(ds usage.Dataset, c tariff.DemandCharge) ([]decimal.Decimal, error) {
	if c.Peak != tariff.PeakDaily && c.Peak != tariff.PeakMonthly {
		return nil, &tariff.ConfigurationError{
			Reason: "demand charge " + c.Name + ": unknown peak type " + string(c.Peak),
		}
	}

	// Mask out intervals where the charge does not apply, then group.
	masked := make([]decimal.Decimal, len(ds.Intervals))
	groups := make(map[peakGroupKey][]int)
	for i, iv := range ds.Intervals {
		if applicability.Applies(iv, c.Rules) {
			masked[i] = iv.Demand.Decimal
		} else {
			masked[i] = decimal.Zero
		}

		var key peakGroupKey
		switch c.Peak {
		case tariff.PeakDaily:
			key = peakGroupKey{date: iv.LocalDate()}
		case tariff.PeakMonthly:
			if iv.BillingPeriod == "" {
				return nil, preconditionErrorf(
					"demand charge %q needs a billing-period label on interval starting %s; run the calculator's period labeling first",
					c.Name, iv.Start)
			}
			key = peakGroupKey{period: iv.BillingPeriod}
		}
		groups[key] = append(groups[key], i)
	}

	out := make([]decimal.Decimal, len(ds.Intervals))
	for i := range out {
		out[i] = decimal.Zero
	}

	hasDateBoundedRule := false
	for _, rule := range c.Rules {
		if rule.DateBounded() {
			hasDateBoundedRule = true
			break
		}
	}

	for _, indices := range groups {
		peak := decimal.Zero
		for _, i := range indices {
			if masked[i].GreaterThan(peak) {
				peak = masked[i]
			}
		}
		if peak.IsZero() {
			continue
		}

		numPeaks := int64(0)
		for _, i := range indices {
			if masked[i].Equal(peak) {
				numPeaks++
			}
		}
		if numPeaks == 0 {
			// Unreachable given peak > 0, kept as a divide-by-zero guard.
			continue
		}

		share := c.RatePerKW.Mul(peak).Div(decimal.NewFromInt(numPeaks))

		scale := decimal.NewFromInt(1)
		if c.Peak == tariff.PeakMonthly && hasDateBoundedRule {
			periodStart, periodEnd := groupDateRange(ds, indices)
			scale = applicability.MaxDateCoverage(c.Rules, periodStart, periodEnd)
		}

		for _, i := range indices {
			if masked[i].Equal(peak) {
				out[i] = share.Mul(scale)
			}
		}
	}

	return out, nil
}

// groupDateRange returns the min and max local dates covered by the group.
func groupDateRange(ds usage.Dataset, indices []int) (dates.Date, dates.Date) {
	start := ds.Intervals[indices[0]].LocalDate()
	end := start
	for _, i := range indices[1:] {
		d := ds.Intervals[i].LocalDate()
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	return start, end
}
