package billing

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// chargeKind tags a charge's aggregation behavior.
type chargeKind int

const (
	kindEnergy chargeKind = iota
	kindDemand
	kindCustomer
)

// chargeRef carries one charge's identity plus its applier, so the
// calculator can treat all charge variants uniformly.
type chargeRef struct {
	kind     chargeKind
	id       tariff.ChargeID
	name     string
	customer tariff.CustomerCharge // populated for kindCustomer only
	apply    func(usage.Dataset) ([]decimal.Decimal, error)
}

func chargeRefs(t tariff.Tariff) []chargeRef {
	refs := make([]chargeRef, 0, t.ChargeCount())
	for _, c := range t.EnergyCharges {
		c := c
		refs = append(refs, chargeRef{
			kind: kindEnergy,
			id:   c.ID,
			name: c.Name,
			apply: func(ds usage.Dataset) ([]decimal.Decimal, error) {
				return applyEnergyCharge(ds, c)
			},
		})
	}
	for _, c := range t.DemandCharges {
		c := c
		refs = append(refs, chargeRef{
			kind: kindDemand,
			id:   c.ID,
			name: c.Name,
			apply: func(ds usage.Dataset) ([]decimal.Decimal, error) {
				return applyDemandCharge(ds, c)
			},
		})
	}
	for _, c := range t.CustomerCharges {
		c := c
		refs = append(refs, chargeRef{
			kind:     kindCustomer,
			id:       c.ID,
			name:     c.Name,
			customer: c,
			apply: func(ds usage.Dataset) ([]decimal.Decimal, error) {
				return applyCustomerCharge(ds, c)
			},
		})
	}
	return refs
}

// ApplyCharges runs every charge in the tariff over the dataset and returns
// the resulting ledger: one decimal cost column per charge, keyed by the
// charge's stable identity.
//
// Charges are independent, so each applier runs in its own goroutine over
// the shared read-only dataset, writing only its own column. Results are
// identical regardless of scheduling.
func ApplyCharges(ds usage.Dataset, t tariff.Tariff) (*Ledger, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	refs := chargeRefs(t)
	columns := make([][]decimal.Decimal, len(refs))
	errs := make([]error, len(refs))

	var wg sync.WaitGroup
	for idx, ref := range refs {
		wg.Add(1)
		go func(idx int, ref chargeRef) {
			defer wg.Done()
			columns[idx], errs[idx] = ref.apply(ds)
		}(idx, ref)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ledger := newLedger(ds)
	for idx, ref := range refs {
		ledger.setColumn(ref.id, columns[idx])
	}
	return ledger, nil
}

// CalculateBills applies the tariff to the dataset and aggregates the ledger
// into one result per billing period.
//
// When periods is nil, one period per calendar month spanned by the data is
// derived. An explicit empty slice yields an empty result list. Intervals
// outside every requested period take no part in the calculation.
func CalculateBills(ds usage.Dataset, t tariff.Tariff, periods []BillingPeriod) ([]BillingPeriodResult, *Ledger, error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}

	if periods == nil {
		periods = deriveCalendarMonths(ds)
	}

	labeled := labelBillingPeriods(ds, periods)
	ledger, err := ApplyCharges(labeled, t)
	if err != nil {
		return nil, nil, err
	}

	results := make([]BillingPeriodResult, 0, len(periods))
	for _, period := range periods {
		results = append(results, buildPeriodResult(ledger, t, period))
	}
	return results, ledger, nil
}

// deriveCalendarMonths returns one full-calendar-month period per month
// present in the data, in chronological order.
func deriveCalendarMonths(ds usage.Dataset) []BillingPeriod {
	seen := make(map[string]dates.Date)
	var keys []string
	for _, iv := range ds.Intervals {
		d := iv.LocalDate()
		key := d.MonthKey()
		if _, ok := seen[key]; !ok {
			seen[key] = d
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	periods := make([]BillingPeriod, 0, len(keys))
	for _, key := range keys {
		d := seen[key]
		periods = append(periods, BillingPeriod{Start: d.MonthStart(), End: d.MonthEnd()})
	}
	return periods
}

// labelBillingPeriods clones the dataset, keeps only intervals falling in
// some period, and stamps each with its period's label. The first matching
// period wins should periods overlap.
func labelBillingPeriods(ds usage.Dataset, periods []BillingPeriod) usage.Dataset {
	out := usage.Dataset{Location: ds.Location}
	for _, iv := range ds.Intervals {
		d := iv.LocalDate()
		for _, p := range periods {
			if p.Contains(d) {
				iv.BillingPeriod = p.Label()
				out.Intervals = append(out.Intervals, iv)
				break
			}
		}
	}
	return out
}

// buildPeriodResult aggregates the ledger over one billing period.
//
// The period's intervals are sliced by calendar month. Slice line items are
// plain column sums. Across slices:
//   - energy aggregates as a simple sum,
//   - demand weights each slice's sum by its share of the period's days,
//   - monthly customer charges contribute the full amount times each slice's
//     day weight (totalling exactly one full amount per period),
//   - daily customer charges are amount times the period's day count,
//     bypassing slice weighting.
func buildPeriodResult(ledger *Ledger, t tariff.Tariff, period BillingPeriod) BillingPeriodResult {
	refs := chargeRefs(t)

	var indices []int
	for i, iv := range ledger.Dataset.Intervals {
		if period.Contains(iv.LocalDate()) {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return BillingPeriodResult{Period: period, Total: decimal.Zero}
	}

	// Slice the period by calendar month, clipping each slice to the
	// period's bounds.
	sliceIndices := make(map[string][]int)
	var monthKeys []string
	for _, i := range indices {
		key := ledger.Dataset.Intervals[i].LocalDate().MonthKey()
		if _, ok := sliceIndices[key]; !ok {
			monthKeys = append(monthKeys, key)
		}
		sliceIndices[key] = append(sliceIndices[key], i)
	}
	sort.Strings(monthKeys)

	totalDays := decimal.NewFromInt(int64(period.Days()))

	type monthSlice struct {
		result MonthlyBillResult
		weight decimal.Decimal
		sums   map[tariff.ChargeID]decimal.Decimal
	}

	slices := make([]monthSlice, 0, len(monthKeys))
	for _, key := range monthKeys {
		idx := sliceIndices[key]
		anyDate := ledger.Dataset.Intervals[idx[0]].LocalDate()
		monthStart := dates.MaxDate(anyDate.MonthStart(), period.Start)
		monthEnd := dates.MinDate(anyDate.MonthEnd(), period.End)

		sliceDays := decimal.NewFromInt(int64(dates.DaysBetween(monthStart, monthEnd) + 1))
		weight := sliceDays.Div(totalDays)

		res := MonthlyBillResult{MonthStart: monthStart, MonthEnd: monthEnd}
		sums := make(map[tariff.ChargeID]decimal.Decimal, len(refs))
		for _, ref := range refs {
			amount := ledger.sumColumn(ref.id, idx)
			sums[ref.id] = amount
			item := BillLineItem{ChargeID: ref.id, Description: ref.name, Amount: amount}
			switch ref.kind {
			case kindEnergy:
				res.EnergyLineItems = append(res.EnergyLineItems, item)
			case kindDemand:
				res.DemandLineItems = append(res.DemandLineItems, item)
			case kindCustomer:
				res.CustomerLineItems = append(res.CustomerLineItems, item)
			}
		}
		res.Total = sumLineItems(res.EnergyLineItems, res.DemandLineItems, res.CustomerLineItems)
		slices = append(slices, monthSlice{result: res, weight: weight, sums: sums})
	}

	result := BillingPeriodResult{Period: period}
	for _, s := range slices {
		result.MonthlyBreakdowns = append(result.MonthlyBreakdowns, s.result)
	}

	for _, ref := range refs {
		item := BillLineItem{ChargeID: ref.id, Description: ref.name}
		switch ref.kind {
		case kindEnergy:
			for _, s := range slices {
				item.Amount = item.Amount.Add(s.sums[ref.id])
			}
			result.EnergyLineItems = append(result.EnergyLineItems, item)

		case kindDemand:
			for _, s := range slices {
				item.Amount = item.Amount.Add(s.sums[ref.id].Mul(s.weight))
			}
			result.DemandLineItems = append(result.DemandLineItems, item)

		case kindCustomer:
			if ref.customer.Period == tariff.PeriodDaily {
				item.Amount = ref.customer.Amount.Mul(totalDays)
			} else {
				for _, s := range slices {
					item.Amount = item.Amount.Add(ref.customer.Amount.Mul(s.weight))
				}
			}
			result.CustomerLineItems = append(result.CustomerLineItems, item)
		}
	}

	result.Total = sumLineItems(result.EnergyLineItems, result.DemandLineItems, result.CustomerLineItems)
	return result
}
