package billing

import (
	"github.com/shopspring/decimal"

	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// BillingPeriod is a date range billed once, inclusive of both ends. It need
// not align with calendar months.
type BillingPeriod struct {
	Start dates.Date
	End   dates.Date
}

// Label returns the period's billing-period label, used to tag intervals for
// monthly grouping.
func (p BillingPeriod) Label() string {
	return p.Start.String() + " -- " + p.End.String()
}

// Days returns the period length in days, counting both ends.
func (p BillingPeriod) Days() int {
	return dates.DaysBetween(p.Start, p.End) + 1
}

// Contains reports whether the date falls inside the period.
func (p BillingPeriod) Contains(d dates.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// BillLineItem is one billed amount for one charge, suitable for display and
// reconciliation.
type BillLineItem struct {
	ChargeID    tariff.ChargeID
	Description string
	Amount      decimal.Decimal
}

// MonthlyBillResult is the breakdown for one calendar-month slice of a
// billing period. Line items are plain sums of the slice's ledger columns;
// any cross-month weighting happens at the period level.
type MonthlyBillResult struct {
	MonthStart dates.Date
	MonthEnd   dates.Date

	EnergyLineItems   []BillLineItem
	DemandLineItems   []BillLineItem
	CustomerLineItems []BillLineItem

	Total decimal.Decimal
}

// BillingPeriodResult is one billing period's aggregated bill: its line
// items, the constituent calendar-month breakdowns, and the period total.
type BillingPeriodResult struct {
	Period BillingPeriod

	MonthlyBreakdowns []MonthlyBillResult

	EnergyLineItems   []BillLineItem
	DemandLineItems   []BillLineItem
	CustomerLineItems []BillLineItem

	Total decimal.Decimal
}

func sumLineItems(groups ...[]BillLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, items := range groups {
		for _, item := range items {
			total = total.Add(item.Amount)
		}
	}
	return total
}
