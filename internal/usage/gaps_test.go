package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeGapsCompleteDataset(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 24, 1, 1)

	report := AnalyzeGaps(d, time.Hour)
	assert.Zero(t, report.TotalMissing)
	assert.Zero(t, report.LongestGapIntervals)
	assert.Empty(t, report.MissingByMonth)
}

func TestAnalyzeGapsEmptyDataset(t *testing.T) {
	report := AnalyzeGaps(Dataset{Location: time.UTC}, time.Hour)
	assert.Zero(t, report.TotalMissing)
}

func TestAnalyzeGapsCountsAndLongestRun(t *testing.T) {
	start := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	d := hourly(time.UTC, start, 12, 1, 1)
	// Remove hour 3 and hours 6-8: four missing, longest run of three.
	keep := d.Intervals[:0]
	for i, iv := range d.Intervals {
		switch i {
		case 3, 6, 7, 8:
			continue
		default:
			keep = append(keep, iv)
		}
	}
	d.Intervals = keep

	report := AnalyzeGaps(d, time.Hour)
	assert.Equal(t, 4, report.TotalMissing)
	assert.Equal(t, 3, report.LongestGapIntervals)
	assert.Equal(t, 3*time.Hour, report.LongestGapDuration)
	assert.Equal(t, map[string]int{"2024-01": 4}, report.MissingByMonth)
}

func TestAnalyzeGapsGroupsByLocalMonth(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Straddle the Jan/Feb boundary in New York: last hour of January and
	// first hours of February, with one interval missing on each side.
	start := time.Date(2024, time.January, 31, 22, 0, 0, 0, ny)
	d := hourly(ny, start, 6, 1, 1)
	d.Intervals = append(d.Intervals[:1], d.Intervals[2:]...) // drop 23:00 Jan 31
	d.Intervals = append(d.Intervals[:3], d.Intervals[4:]...) // drop 02:00 Feb 1

	report := AnalyzeGaps(d, time.Hour)
	assert.Equal(t, 2, report.TotalMissing)
	assert.Equal(t, map[string]int{"2024-01": 1, "2024-02": 1}, report.MissingByMonth)
}
