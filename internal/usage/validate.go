package usage

import (
	"sort"
	"strings"
	"time"
)

// Validate checks that the dataset is structurally sound for billing:
// timezone present, all fields populated, end after start everywhere, unique
// starts in UTC, one uniform interval width, and a gapless contiguous grid.
// It never mutates its input and returns a DataQualityError describing the
// first problem found.
func Validate(d Dataset) error {
	if d.Location == nil {
		return qualityErrorf("dataset has no time zone; interval timestamps must be timezone-aware")
	}
	if len(d.Intervals) == 0 {
		return qualityErrorf("dataset is empty")
	}

	for i, iv := range d.Intervals {
		if iv.Start.IsZero() || iv.End.IsZero() {
			return qualityErrorf("interval %d is missing a start or end timestamp", i)
		}
		if !iv.End.After(iv.Start) {
			return qualityErrorf("interval starting %s: end %s is not after start",
				iv.Start, iv.End)
		}
		if !iv.Energy.Valid || !iv.Demand.Valid {
			return qualityErrorf("interval starting %s has missing energy or demand values", iv.Start)
		}
		if iv.Holiday {
			if iv.Weekday {
				return qualityErrorf("interval starting %s: holiday flag must override the weekday flag", iv.Start)
			}
		} else if iv.Weekday == iv.Weekend {
			return qualityErrorf("interval starting %s: exactly one of weekday/weekend must be set", iv.Start)
		}
	}

	// All ordering and width checks run on UTC instants so DST transitions
	// cannot masquerade as gaps or overlaps.
	sorted := make([]Interval, len(d.Intervals))
	copy(sorted, d.Intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.UnixNano() < sorted[j].Start.UnixNano()
	})

	var dupes []string
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start.UnixNano() == sorted[i-1].Start.UnixNano() {
			dupes = append(dupes, sorted[i].Start.String())
			if len(dupes) == 5 {
				break
			}
		}
	}
	if len(dupes) > 0 {
		return qualityErrorf("duplicate interval starts at the same UTC instant (showing up to 5): %s",
			strings.Join(dupes, ", "))
	}

	minWidth, maxWidth := sorted[0].Width(), sorted[0].Width()
	for _, iv := range sorted[1:] {
		w := iv.Width()
		if w < minWidth {
			minWidth = w
		}
		if w > maxWidth {
			maxWidth = w
		}
	}
	if minWidth != maxWidth {
		return qualityErrorf("inconsistent interval width in UTC: min=%s max=%s", minWidth, maxWidth)
	}

	expected := maxWidth
	for i := 1; i < len(sorted); i++ {
		delta := time.Duration(sorted[i].Start.UnixNano() - sorted[i-1].Start.UnixNano())
		if delta != expected {
			return qualityErrorf("missing or irregular intervals (checked in UTC): expected start-to-start delta %s, got %s between %s and %s",
				expected, delta, sorted[i-1].Start, sorted[i].Start)
		}
	}

	return nil
}
