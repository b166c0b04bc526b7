// Package usage holds interval usage data and the validation, repair, and
// gap-analysis layer that makes billing calculation safe to run on it.
package usage

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"utility-cost/pkg/dates"
)

// Interval is one usage interval: [Start, End) with measured energy and
// demand. Energy (kWh) is extensive over the interval; Demand (kW) is an
// interval-average. Day-type flags arrive pre-resolved from the holiday
// calendar outside this package. BillingPeriod is assigned during bill
// calculation and is empty on raw input.
type Interval struct {
	Start         time.Time
	End           time.Time
	Energy        decimal.NullDecimal
	Demand        decimal.NullDecimal
	Weekday       bool
	Weekend       bool
	Holiday       bool
	BillingPeriod string
}

// LocalDate returns the civil date of the interval's start in the dataset's
// local zone.
func (iv Interval) LocalDate() dates.Date {
	return dates.DateOf(iv.Start)
}

// Width returns the interval's duration in absolute (UTC) terms.
func (iv Interval) Width() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Dataset is an ordered set of usage intervals sharing one local time zone.
// Validated datasets have a uniform grain, strictly increasing unique starts,
// and no missing values.
type Dataset struct {
	Location  *time.Location
	Intervals []Interval
}

// Clone returns a deep copy of the dataset's interval slice. The engine
// treats input datasets as immutable; anything that needs to reorder or
// relabel works on a clone.
func (d Dataset) Clone() Dataset {
	out := Dataset{Location: d.Location}
	out.Intervals = make([]Interval, len(d.Intervals))
	copy(out.Intervals, d.Intervals)
	return out
}

// Grain returns the width of the first interval. Only meaningful after
// validation, which guarantees the width is uniform.
func (d Dataset) Grain() time.Duration {
	if len(d.Intervals) == 0 {
		return 0
	}
	return d.Intervals[0].Width()
}

// DataQualityError reports a structural problem in interval data. It is
// fatal for the calculation but recoverable by the caller after fixing the
// input; the message carries the offending timestamps or expected-vs-actual
// context needed to do that.
type DataQualityError struct {
	Reason string
}

func (e *DataQualityError) Error() string {
	return "usage data quality error: " + e.Reason
}

func qualityErrorf(format string, args ...any) error {
	return &DataQualityError{Reason: fmt.Sprintf(format, args...)}
}

// DecimalFromFloat converts a raw float measurement to an exact decimal via
// a string intermediate, so binary-float artifacts never reach the ledger.
// NaN and infinities are rejected.
func DecimalFromFloat(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, qualityErrorf("non-finite measurement value %v", v)
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
	if err != nil {
		return decimal.Decimal{}, qualityErrorf("measurement value %v: %v", v, err)
	}
	return d, nil
}
