package usage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestRepairRejectsUnknownStrategy(t *testing.T) {
	_, err := Repair(Dataset{Location: time.UTC}, Strategy("interpolate"))
	require.Error(t, err)
	var qe *DataQualityError
	assert.ErrorAs(t, err, &qe)
}

func TestRepairEmptyDataset(t *testing.T) {
	got, err := Repair(Dataset{Location: time.UTC}, StrategyExtrapolateLast)
	require.NoError(t, err)
	assert.Empty(t, got.Intervals)
	assert.Equal(t, time.UTC, got.Location)
}

func TestRepairCleanDatasetIsUnchanged(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 6, 2, 4)

	got, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 6)
	for i, iv := range got.Intervals {
		assert.True(t, iv.Start.Equal(d.Intervals[i].Start))
		assert.True(t, iv.Energy.Decimal.Equal(d.Intervals[i].Energy.Decimal))
		assert.True(t, iv.Demand.Decimal.Equal(d.Intervals[i].Demand.Decimal))
	}
	assert.NoError(t, Validate(got))
}

func TestRepairSplitsToFinestGrain(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := Dataset{
		Location: time.UTC,
		Intervals: []Interval{
			{Start: start, End: start.Add(30 * time.Minute), Energy: nd("6"), Demand: nd("12"), Weekday: true},
			{Start: start.Add(30 * time.Minute), End: start.Add(45 * time.Minute), Energy: nd("1"), Demand: nd("4"), Weekday: true},
			{Start: start.Add(45 * time.Minute), End: start.Add(time.Hour), Energy: nd("1"), Demand: nd("4"), Weekday: true},
		},
	}

	got, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 4)

	// The 30-minute interval became two 15-minute rows: energy divided
	// evenly, demand carried through unchanged.
	for i := 0; i < 2; i++ {
		iv := got.Intervals[i]
		assert.Equal(t, 15*time.Minute, iv.Width())
		assert.True(t, iv.Energy.Decimal.Equal(decimal.NewFromInt(3)), "energy[%d] = %s", i, iv.Energy.Decimal)
		assert.True(t, iv.Demand.Decimal.Equal(decimal.NewFromInt(12)), "demand[%d] = %s", i, iv.Demand.Decimal)
	}
	assert.True(t, got.Intervals[1].Start.Equal(start.Add(15*time.Minute)))
	assert.NoError(t, Validate(got))
}

func TestRepairForwardFillsGaps(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 6, 2, 4)
	// Knock out hours 2 and 3.
	d.Intervals = append(d.Intervals[:2], d.Intervals[4:]...)
	d.Intervals[1].Energy = nd("9")
	d.Intervals[1].Demand = nd("7")

	got, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 6)

	for _, i := range []int{2, 3} {
		iv := got.Intervals[i]
		assert.True(t, iv.Start.Equal(start.Add(time.Duration(i)*time.Hour)))
		assert.True(t, iv.Energy.Decimal.Equal(decimal.NewFromInt(9)), "filled energy[%d] = %s", i, iv.Energy.Decimal)
		assert.True(t, iv.Demand.Decimal.Equal(decimal.NewFromInt(7)), "filled demand[%d] = %s", i, iv.Demand.Decimal)
	}
	assert.NoError(t, Validate(got))
}

func TestRepairForwardFillsMissingValuesOnObservedRows(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 4, 2, 4)
	d.Intervals[2].Energy = decimal.NullDecimal{}
	d.Intervals[2].Demand = decimal.NullDecimal{}

	got, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 4)
	assert.True(t, got.Intervals[2].Energy.Valid)
	assert.True(t, got.Intervals[2].Energy.Decimal.Equal(decimal.NewFromInt(2)))
	assert.True(t, got.Intervals[2].Demand.Decimal.Equal(decimal.NewFromInt(4)))
}

func TestRepairDuplicatesKeepLast(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 3, 2, 4)
	dupe := d.Intervals[1]
	dupe.Energy = nd("99")
	d.Intervals = append(d.Intervals, dupe) // later occurrence wins

	got, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	require.Len(t, got.Intervals, 3)
	assert.True(t, got.Intervals[1].Energy.Decimal.Equal(decimal.NewFromInt(99)))
}

func TestRepairRejectsOverlaps(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := Dataset{
		Location: time.UTC,
		Intervals: []Interval{
			{Start: start, End: start.Add(time.Hour), Energy: nd("1"), Demand: nd("1"), Weekday: true},
			{Start: start.Add(30 * time.Minute), End: start.Add(90 * time.Minute), Energy: nd("1"), Demand: nd("1"), Weekday: true},
		},
	}
	_, err := Repair(d, StrategyExtrapolateLast)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps")
}

func TestRepairRejectsNonMultipleWidth(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := Dataset{
		Location: time.UTC,
		Intervals: []Interval{
			{Start: start, End: start.Add(40 * time.Minute), Energy: nd("1"), Demand: nd("1"), Weekday: true},
			{Start: start.Add(40 * time.Minute), End: start.Add(55 * time.Minute), Energy: nd("1"), Demand: nd("1"), Weekday: true},
		},
	}
	_, err := Repair(d, StrategyExtrapolateLast)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple")
}

func TestRepairSingleRowWithMissingValues(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := Dataset{
		Location: time.UTC,
		Intervals: []Interval{
			{Start: start, End: start.Add(time.Hour), Energy: decimal.NullDecimal{}, Demand: nd("1"), Weekday: true},
		},
	}
	_, err := Repair(d, StrategyExtrapolateLast)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single-interval")
}

func TestRepairDoesNotMutateInput(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 4, 2, 4)
	d.Intervals = append(d.Intervals[:2], d.Intervals[3:]...)
	before := len(d.Intervals)

	_, err := Repair(d, StrategyExtrapolateLast)
	require.NoError(t, err)
	assert.Len(t, d.Intervals, before)
}
