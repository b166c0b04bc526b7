package usage

import (
	"sort"
	"time"
)

// GapReport summarizes data completeness at a given grain. It is a read-only
// diagnostic: repair decisions can consult it, calculation never requires it.
type GapReport struct {
	TotalMissing        int
	LongestGapIntervals int
	LongestGapDuration  time.Duration
	MissingByMonth      map[string]int
}

// AnalyzeGaps reports missing intervals between the dataset's first and last
// observed starts, assuming the given expected grain. The dataset is not
// modified.
func AnalyzeGaps(d Dataset, expectedGrain time.Duration) GapReport {
	report := GapReport{MissingByMonth: map[string]int{}}
	if len(d.Intervals) == 0 || expectedGrain <= 0 {
		return report
	}

	starts := make([]time.Time, len(d.Intervals))
	for i, iv := range d.Intervals {
		starts[i] = iv.Start
	}
	sort.Slice(starts, func(i, j int) bool {
		return starts[i].UnixNano() < starts[j].UnixNano()
	})

	span := starts[len(starts)-1].Sub(starts[0])
	expectedCount := int(span/expectedGrain) + 1
	missing := expectedCount - len(starts)
	if missing <= 0 {
		return report
	}
	report.TotalMissing = missing

	var longest time.Duration
	for i := 1; i < len(starts); i++ {
		delta := starts[i].Sub(starts[i-1])
		if delta > expectedGrain && delta > longest {
			longest = delta
		}
	}
	if longest > 0 {
		report.LongestGapIntervals = int(longest/expectedGrain) - 1
		report.LongestGapDuration = longest - expectedGrain
	}

	present := make(map[int64]struct{}, len(starts))
	for _, s := range starts {
		present[s.UnixNano()] = struct{}{}
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	for t := starts[0]; !t.After(starts[len(starts)-1]); t = t.Add(expectedGrain) {
		if _, ok := present[t.UnixNano()]; !ok {
			report.MissingByMonth[t.In(loc).Format("2006-01")]++
		}
	}

	return report
}
