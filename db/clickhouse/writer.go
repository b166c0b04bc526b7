package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"utility-cost/internal/usage"
)

// WriteResult summarizes one repaired-dataset write.
type WriteResult struct {
	RunID    uuid.UUID
	RowCount int
	Duration time.Duration
}

const writeBatchSize = 1000

// WriteRepaired persists a repaired dataset to the meter_intervals_repaired
// table, tagged with a fresh run id so successive repairs of the same meter
// stay distinguishable. Rows are inserted in batches; timestamps are stored
// in UTC.
func (s *UsageStore) WriteRepaired(ctx context.Context, meterID string, ds usage.Dataset) (*WriteResult, error) {
	start := time.Now()
	result := &WriteResult{RunID: uuid.New()}

	for offset := 0; offset < len(ds.Intervals); offset += writeBatchSize {
		end := offset + writeBatchSize
		if end > len(ds.Intervals) {
			end = len(ds.Intervals)
		}

		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO meter_intervals_repaired (
				run_id, meter_id, interval_start, interval_end, kwh, kw,
				is_weekday, is_weekend, is_holiday, written_at
			)
		`)
		if err != nil {
			return result, fmt.Errorf("failed to prepare batch: %w", err)
		}

		for _, iv := range ds.Intervals[offset:end] {
			if err := batch.Append(repairedRow(result.RunID, meterID, iv, time.Now().UTC())...); err != nil {
				return result, fmt.Errorf("failed to append interval starting %s: %w", iv.Start, err)
			}
		}
		if err := batch.Send(); err != nil {
			return result, fmt.Errorf("failed to send batch at offset %d: %w", offset, err)
		}
		result.RowCount = end
	}

	result.Duration = time.Since(start)
	return result, nil
}

// repairedRow flattens one interval into the meter_intervals_repaired column
// order. Energy and demand stay decimal end to end; the Decimal columns
// round-trip them exactly.
func repairedRow(runID uuid.UUID, meterID string, iv usage.Interval, writtenAt time.Time) []any {
	return []any{
		runID, meterID,
		iv.Start.UTC(), iv.End.UTC(),
		iv.Energy.Decimal, iv.Demand.Decimal,
		boolFlag(iv.Weekday), boolFlag(iv.Weekend), boolFlag(iv.Holiday),
		writtenAt,
	}
}

func boolFlag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
