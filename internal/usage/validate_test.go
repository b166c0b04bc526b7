package usage

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourly builds a contiguous hourly dataset with constant values, starting at
// the given instant.
func hourly(loc *time.Location, start time.Time, count int, energy, demand float64) Dataset {
	e, _ := DecimalFromFloat(energy)
	d, _ := DecimalFromFloat(demand)
	intervals := make([]Interval, count)
	for i := range intervals {
		s := start.Add(time.Duration(i) * time.Hour)
		wd := s.In(loc).Weekday()
		weekend := wd == time.Saturday || wd == time.Sunday
		intervals[i] = Interval{
			Start:   s.In(loc),
			End:     s.Add(time.Hour).In(loc),
			Energy:  decimal.NewNullDecimal(e),
			Demand:  decimal.NewNullDecimal(d),
			Weekday: !weekend,
			Weekend: weekend,
		}
	}
	return Dataset{Location: loc, Intervals: intervals}
}

func TestValidateCleanDataset(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 24, 10.5, 42)
	require.NoError(t, Validate(d))
}

func TestValidateIsReadOnly(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 4, 1, 1)
	// Shuffle so the internal sort would be visible if it leaked out.
	d.Intervals[0], d.Intervals[3] = d.Intervals[3], d.Intervals[0]
	first := d.Intervals[0].Start

	require.NoError(t, Validate(d))
	assert.True(t, d.Intervals[0].Start.Equal(first), "Validate must not reorder the input")

	// Idempotent: a clean dataset stays clean.
	require.NoError(t, Validate(d))
}

func TestValidateFailures(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Dataset)
		wantMsg string
	}{
		{
			name:    "no time zone",
			mutate:  func(d *Dataset) { d.Location = nil },
			wantMsg: "no time zone",
		},
		{
			name:    "empty dataset",
			mutate:  func(d *Dataset) { d.Intervals = nil },
			wantMsg: "empty",
		},
		{
			name:    "zero start timestamp",
			mutate:  func(d *Dataset) { d.Intervals[2].Start = time.Time{} },
			wantMsg: "missing a start or end",
		},
		{
			name:    "end not after start",
			mutate:  func(d *Dataset) { d.Intervals[2].End = d.Intervals[2].Start },
			wantMsg: "not after start",
		},
		{
			name:    "missing energy value",
			mutate:  func(d *Dataset) { d.Intervals[2].Energy = decimal.NullDecimal{} },
			wantMsg: "missing energy or demand",
		},
		{
			name:    "missing demand value",
			mutate:  func(d *Dataset) { d.Intervals[2].Demand = decimal.NullDecimal{} },
			wantMsg: "missing energy or demand",
		},
		{
			name: "holiday and weekday both set",
			mutate: func(d *Dataset) {
				d.Intervals[2].Holiday = true
			},
			wantMsg: "holiday flag",
		},
		{
			name: "neither weekday nor weekend",
			mutate: func(d *Dataset) {
				d.Intervals[2].Weekday = false
				d.Intervals[2].Weekend = false
			},
			wantMsg: "exactly one of weekday/weekend",
		},
		{
			name: "duplicate starts",
			mutate: func(d *Dataset) {
				d.Intervals[3] = d.Intervals[2]
			},
			wantMsg: "duplicate interval starts",
		},
		{
			name: "mixed widths",
			mutate: func(d *Dataset) {
				d.Intervals[2].End = d.Intervals[2].Start.Add(30 * time.Minute)
			},
			wantMsg: "inconsistent interval width",
		},
		{
			name: "gap in the grid",
			mutate: func(d *Dataset) {
				d.Intervals = append(d.Intervals[:2], d.Intervals[3:]...)
			},
			wantMsg: "missing or irregular",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := hourly(time.UTC, start, 6, 1, 1)
			tc.mutate(&d)
			err := Validate(d)
			require.Error(t, err)
			var qe *DataQualityError
			assert.ErrorAs(t, err, &qe)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestValidateAcceptsDSTDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10 has 23 wall-clock hours; on the UTC axis the intervals
	// remain perfectly uniform and contiguous.
	start := time.Date(2024, time.March, 10, 0, 0, 0, 0, ny)
	d := hourly(ny, start, 23, 1, 1)
	assert.NoError(t, Validate(d))
}

func TestDecimalFromFloat(t *testing.T) {
	got, err := DecimalFromFloat(10.5)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("10.5")))

	// The shortest round-trip representation, not the binary expansion.
	got, err = DecimalFromFloat(0.1)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("0.1")))

	_, err = DecimalFromFloat(math.NaN())
	assert.Error(t, err)
	_, err = DecimalFromFloat(math.Inf(1))
	assert.Error(t, err)
}
