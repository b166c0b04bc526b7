// Package applicability decides whether usage intervals fall inside a
// charge's rule windows, and how much of a billing period a date-bounded
// rule covers.
package applicability

import (
	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// Matches reports whether a single rule applies to the interval. The three
// dimensions AND together, each defaulting open when unset:
//
//   - day type: the interval's flag must intersect the rule's day set. An
//     empty day set matches nothing.
//   - time of day: local wall-clock start, inclusive of the rule's start and
//     exclusive of its end. Wall clock, not elapsed UTC, so DST days behave.
//   - date range: month/day comparison with both bounds inclusive and no
//     year-wraparound.
func Matches(iv usage.Interval, rule tariff.ApplicabilityRule) bool {
	dayOK := (rule.DayTypes.Weekday && iv.Weekday) ||
		(rule.DayTypes.Weekend && iv.Weekend) ||
		(rule.DayTypes.Holiday && iv.Holiday)
	if !dayOK {
		return false
	}

	tod := dates.ClockTimeOf(iv.Start).MinuteOfDay()
	if rule.StartTime != nil && tod < rule.StartTime.MinuteOfDay() {
		return false
	}
	if rule.EndTime != nil && tod >= rule.EndTime.MinuteOfDay() {
		return false
	}

	if rule.DateBounded() {
		md := iv.LocalDate().MonthDay()
		if rule.StartDate != nil && md.Compare(*rule.StartDate) < 0 {
			return false
		}
		if rule.EndDate != nil && md.Compare(*rule.EndDate) > 0 {
			return false
		}
	}

	return true
}

// Applies combines rules with OR semantics: true if any rule matches. An
// empty rule list means the charge applies everywhere, which is distinct
// from a single rule with an empty day set (which never matches anything).
func Applies(iv usage.Interval, rules []tariff.ApplicabilityRule) bool {
	if len(rules) == 0 {
		return true
	}
	for _, rule := range rules {
		if Matches(iv, rule) {
			return true
		}
	}
	return false
}

// CoverageFraction returns the fraction of [periodStart, periodEnd] (both
// inclusive) covered by the rule's seasonal date window, re-anchored to the
// period's year. A rule without date bounds covers the whole period.
func CoverageFraction(rule tariff.ApplicabilityRule, periodStart, periodEnd dates.Date) decimal.Decimal {
	if !rule.DateBounded() {
		return decimal.NewFromInt(1)
	}

	totalDays := dates.DaysBetween(periodStart, periodEnd) + 1

	appStart := periodStart
	if rule.StartDate != nil {
		appStart = rule.StartDate.OnYear(periodStart.Year)
	}
	appEnd := periodEnd
	if rule.EndDate != nil {
		appEnd = rule.EndDate.OnYear(periodStart.Year)
	}

	effStart := dates.MaxDate(periodStart, appStart)
	effEnd := dates.MinDate(periodEnd, appEnd)
	if effStart.After(effEnd) {
		return decimal.Zero
	}

	applicableDays := dates.DaysBetween(effStart, effEnd) + 1
	return decimal.NewFromInt(int64(applicableDays)).Div(decimal.NewFromInt(int64(totalDays)))
}

// MaxDateCoverage returns the most permissive coverage fraction across the
// date-bounded rules (OR semantics: the widest window wins). Rules without
// date bounds are ignored; if none carry date bounds, no scaling applies and
// the result is 1.
func MaxDateCoverage(rules []tariff.ApplicabilityRule, periodStart, periodEnd dates.Date) decimal.Decimal {
	one := decimal.NewFromInt(1)
	var best decimal.Decimal
	bounded := false
	for _, rule := range rules {
		if !rule.DateBounded() {
			continue
		}
		f := CoverageFraction(rule, periodStart, periodEnd)
		if !bounded || f.GreaterThan(best) {
			best = f
		}
		bounded = true
	}
	if !bounded {
		return one
	}
	return best
}
