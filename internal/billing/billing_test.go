package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
	"utility-cost/pkg/tariff"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func makeInterval(start time.Time, width time.Duration, energy, demand string) usage.Interval {
	wd := start.Weekday()
	weekend := wd == time.Saturday || wd == time.Sunday
	return usage.Interval{
		Start:   start,
		End:     start.Add(width),
		Energy:  decimal.NewNullDecimal(dec(energy)),
		Demand:  decimal.NewNullDecimal(dec(demand)),
		Weekday: !weekend,
		Weekend: weekend,
	}
}

// hourlyDataset builds count contiguous hourly intervals with constant
// energy and demand.
func hourlyDataset(loc *time.Location, start time.Time, count int, energy, demand string) usage.Dataset {
	ds := usage.Dataset{Location: loc}
	for i := 0; i < count; i++ {
		ds.Intervals = append(ds.Intervals,
			makeInterval(start.Add(time.Duration(i)*time.Hour), time.Hour, energy, demand))
	}
	return ds
}

// noonDataset builds one hourly interval at local noon per day, for tests
// that span many days without needing a full grid.
func noonDataset(loc *time.Location, first time.Time, days int, energy, demand string) usage.Dataset {
	ds := usage.Dataset{Location: loc}
	for i := 0; i < days; i++ {
		start := first.AddDate(0, 0, i)
		ds.Intervals = append(ds.Intervals, makeInterval(start, time.Hour, energy, demand))
	}
	return ds
}

// stampPeriod labels every interval with the period containing it, the way
// the calculator does before applying monthly-grouped charges.
func stampPeriod(ds usage.Dataset, periods ...BillingPeriod) usage.Dataset {
	return labelBillingPeriods(ds, periods)
}

func energyCharge(name, rate string, rules ...tariff.ApplicabilityRule) tariff.EnergyCharge {
	return tariff.EnergyCharge{
		ID:         tariff.NewChargeID("EnergyCharge", name),
		Name:       name,
		RatePerKWH: dec(rate),
		Rules:      rules,
	}
}

func demandCharge(name, rate string, peak tariff.PeakType, rules ...tariff.ApplicabilityRule) tariff.DemandCharge {
	return tariff.DemandCharge{
		ID:        tariff.NewChargeID("DemandCharge", name),
		Name:      name,
		RatePerKW: dec(rate),
		Peak:      peak,
		Rules:     rules,
	}
}

func customerCharge(name, amount string, period tariff.PeriodType) tariff.CustomerCharge {
	return tariff.CustomerCharge{
		ID:     tariff.NewChargeID("CustomerCharge", name),
		Name:   name,
		Amount: dec(amount),
		Period: period,
	}
}
