package usage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy selects how Repair fills still-missing values after regridding.
type Strategy string

// StrategyExtrapolateLast forward-fills each missing interval from the last
// observed one. It is the only defined strategy.
const StrategyExtrapolateLast Strategy = "extrapolate_last"

// Repair normalizes a dataset onto a complete, gapless grid:
//
//  1. the target grain is inferred as the minimum observed start-to-start
//     delta (in UTC),
//  2. wider intervals are split into sub-intervals at that grain, dividing
//     energy proportionally and copying demand unchanged,
//  3. the result is reindexed onto a full grid from first start to last end,
//  4. missing rows are filled per the strategy.
//
// Duplicate starts keep the last occurrence. Overlapping source intervals are
// ambiguous and rejected rather than auto-resolved. The input dataset is
// never modified; a new dataset is returned.
func Repair(d Dataset, strategy Strategy) (Dataset, error) {
	if strategy != StrategyExtrapolateLast {
		return Dataset{}, qualityErrorf("unsupported repair strategy %q", strategy)
	}
	if d.Location == nil {
		return Dataset{}, qualityErrorf("dataset has no time zone; interval timestamps must be timezone-aware")
	}
	if len(d.Intervals) == 0 {
		return Dataset{Location: d.Location}, nil
	}
	for i, iv := range d.Intervals {
		if iv.Start.IsZero() || iv.End.IsZero() {
			return Dataset{}, qualityErrorf("interval %d is missing a start or end timestamp", i)
		}
		if !iv.End.After(iv.Start) {
			return Dataset{}, qualityErrorf("interval starting %s: end %s is not after start", iv.Start, iv.End)
		}
	}

	rows := d.Clone().Intervals
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Start.UnixNano() < rows[j].Start.UnixNano()
	})

	// Drop duplicate starts, keeping the last occurrence.
	deduped := rows[:0:len(rows)]
	for i, iv := range rows {
		if i+1 < len(rows) && rows[i+1].Start.UnixNano() == iv.Start.UnixNano() {
			continue
		}
		deduped = append(deduped, iv)
	}
	rows = deduped

	if len(rows) == 1 {
		only := rows[0]
		if !only.Energy.Valid || !only.Demand.Valid {
			return Dataset{}, qualityErrorf("cannot fill missing values in a single-interval dataset")
		}
		return Dataset{Location: d.Location, Intervals: rows}, nil
	}

	grain := time.Duration(rows[1].Start.UnixNano() - rows[0].Start.UnixNano())
	for i := 2; i < len(rows); i++ {
		delta := time.Duration(rows[i].Start.UnixNano() - rows[i-1].Start.UnixNano())
		if delta < grain {
			grain = delta
		}
	}
	if grain <= 0 {
		return Dataset{}, qualityErrorf("could not infer a positive interval grain")
	}

	for _, iv := range rows {
		if iv.Width()%grain != 0 {
			return Dataset{}, qualityErrorf("interval starting %s has width %s that is not a multiple of the inferred grain %s",
				iv.Start, iv.Width(), grain)
		}
	}
	for i := 0; i+1 < len(rows); i++ {
		if rows[i+1].Start.UnixNano() < rows[i].End.UnixNano() {
			return Dataset{}, qualityErrorf("interval %s -- %s overlaps the next interval starting %s",
				rows[i].Start, rows[i].End, rows[i+1].Start)
		}
	}

	// Split wider intervals down to the grain. Energy is extensive and is
	// apportioned evenly across sub-intervals; demand is an interval average
	// and is copied as-is.
	split := make([]Interval, 0, len(rows))
	for _, iv := range rows {
		n := int64(iv.Width() / grain)
		if n == 1 {
			split = append(split, iv)
			continue
		}
		energy := iv.Energy
		if energy.Valid {
			energy = decimal.NewNullDecimal(energy.Decimal.Div(decimal.NewFromInt(n)))
		}
		for k := int64(0); k < n; k++ {
			sub := iv
			sub.Start = iv.Start.Add(time.Duration(k) * grain).In(d.Location)
			sub.End = sub.Start.Add(grain).In(d.Location)
			sub.Energy = energy
			split = append(split, sub)
		}
	}

	// Reindex onto the complete grid and forward-fill missing rows. The
	// first grid slot always holds a real row, so the fill source is never
	// absent.
	byInstant := make(map[int64]Interval, len(split))
	for _, iv := range split {
		byInstant[iv.Start.UnixNano()] = iv
	}
	gridStart := split[0].Start
	gridEnd := split[len(split)-1].End

	var out []Interval
	var last Interval
	for t := gridStart; t.Before(gridEnd); t = t.Add(grain) {
		iv, ok := byInstant[t.UnixNano()]
		if !ok {
			iv = last
			iv.Start = t.In(d.Location)
			iv.End = t.Add(grain).In(d.Location)
		} else {
			iv.Start = iv.Start.In(d.Location)
			iv.End = iv.End.In(d.Location)
			// Forward-fill also covers values missing on observed rows.
			if !iv.Energy.Valid {
				iv.Energy = last.Energy
			}
			if !iv.Demand.Valid {
				iv.Demand = last.Demand
			}
		}
		out = append(out, iv)
		last = iv
	}

	return Dataset{Location: d.Location, Intervals: out}, nil
}
