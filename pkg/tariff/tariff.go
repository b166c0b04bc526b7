// Package tariff defines the immutable charge definitions the billing engine
// consumes. The persistence/admin layer owns CRUD and referential integrity;
// this package only carries fully materialized values and validates their
// internal consistency.
package tariff

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"utility-cost/pkg/dates"
)

// ConfigurationError reports an invalid charge or rule definition. It is
// fatal and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "tariff configuration error: " + e.Reason
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// DayTypeSet is the set of day categories a rule applies to. The zero value
// matches no days at all, which is a deliberate state distinct from "no
// constraint"; use AllDayTypes for rules without a day restriction.
type DayTypeSet struct {
	Weekday bool
	Weekend bool
	Holiday bool
}

// AllDayTypes returns the set covering every day category.
func AllDayTypes() DayTypeSet {
	return DayTypeSet{Weekday: true, Weekend: true, Holiday: true}
}

// Empty reports whether the set matches no day category.
func (s DayTypeSet) Empty() bool {
	return !s.Weekday && !s.Weekend && !s.Holiday
}

// PeakType is the window over which a demand charge's peak is identified.
type PeakType string

const (
	PeakDaily   PeakType = "daily"
	PeakMonthly PeakType = "monthly"
)

// PeriodType is the recurrence of a flat customer charge.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodMonthly PeriodType = "monthly"
)

// ApplicabilityRule restricts when a charge's rate applies. Each dimension
// defaults open when unset:
//   - StartTime/EndTime: local wall-clock window, start inclusive, end exclusive
//   - StartDate/EndDate: seasonal month/day window, both inclusive, no
//     year-wraparound
//   - DayTypes: day categories; the zero set matches nothing
//
// Multiple rules on one charge combine with OR semantics.
type ApplicabilityRule struct {
	StartTime *dates.ClockTime
	EndTime   *dates.ClockTime
	StartDate *dates.MonthDay
	EndDate   *dates.MonthDay
	DayTypes  DayTypeSet
}

// NewRule returns a rule with no constraints: it matches every interval.
func NewRule() ApplicabilityRule {
	return ApplicabilityRule{DayTypes: AllDayTypes()}
}

// DateBounded reports whether the rule carries a seasonal date constraint.
func (r ApplicabilityRule) DateBounded() bool {
	return r.StartDate != nil || r.EndDate != nil
}

// Validate checks the rule's internal consistency.
func (r ApplicabilityRule) Validate() error {
	if r.StartTime != nil && r.EndTime != nil {
		if r.StartTime.MinuteOfDay() >= r.EndTime.MinuteOfDay() {
			return configErrorf("rule start time %s must be strictly earlier than end time %s",
				r.StartTime, r.EndTime)
		}
	}
	if r.StartDate != nil && r.EndDate != nil {
		if r.StartDate.Compare(*r.EndDate) > 0 {
			return configErrorf("rule start date %s must not be after end date %s",
				r.StartDate, r.EndDate)
		}
	}
	return nil
}

// ChargeID is a stable charge identity. The same source record always
// re-derives the same ID, so ledger columns keep their lineage across runs.
type ChargeID uuid.UUID

// chargeNamespace seeds the deterministic SHA1-based IDs.
var chargeNamespace = uuid.MustParse("a1b2c3d4-e5f6-7890-abcd-ef1234567890")

// NewChargeID derives a deterministic identity from a charge kind and a
// source reference such as a database primary key.
func NewChargeID(kind, sourceRef string) ChargeID {
	return ChargeID(uuid.NewSHA1(chargeNamespace, []byte(kind+":"+sourceRef)))
}

func (id ChargeID) String() string {
	return uuid.UUID(id).String()
}

// EnergyCharge is a time-of-use rate in $/kWh.
type EnergyCharge struct {
	ID         ChargeID
	Name       string
	RatePerKWH decimal.Decimal
	Rules      []ApplicabilityRule
}

// DemandCharge is a peak-draw rate in $/kW, assessed daily or monthly.
type DemandCharge struct {
	ID        ChargeID
	Name      string
	RatePerKW decimal.Decimal
	Peak      PeakType
	Rules     []ApplicabilityRule
}

// CustomerCharge is a flat recurring amount, per day or per month.
type CustomerCharge struct {
	ID     ChargeID
	Name   string
	Amount decimal.Decimal
	Period PeriodType
}

// Tariff is a collection of charges. Insertion order carries no meaning.
type Tariff struct {
	Name            string
	EnergyCharges   []EnergyCharge
	DemandCharges   []DemandCharge
	CustomerCharges []CustomerCharge
}

// Validate checks every charge and rule in the tariff.
func (t Tariff) Validate() error {
	for _, c := range t.EnergyCharges {
		for _, r := range c.Rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("energy charge %q: %w", c.Name, err)
			}
		}
	}
	for _, c := range t.DemandCharges {
		if c.Peak != PeakDaily && c.Peak != PeakMonthly {
			return configErrorf("demand charge %q: unknown peak type %q", c.Name, c.Peak)
		}
		for _, r := range c.Rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("demand charge %q: %w", c.Name, err)
			}
		}
	}
	for _, c := range t.CustomerCharges {
		if c.Period != PeriodDaily && c.Period != PeriodMonthly {
			return configErrorf("customer charge %q: unknown period type %q", c.Name, c.Period)
		}
	}
	return nil
}

// ChargeCount returns the total number of charges in the tariff.
func (t Tariff) ChargeCount() int {
	return len(t.EnergyCharges) + len(t.DemandCharges) + len(t.CustomerCharges)
}
