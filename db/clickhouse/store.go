// Package clickhouse reads interval usage rows from the external time-series
// store. It is a read-only boundary adapter: the engine never writes usage
// data, and all measurements convert to exact decimals on the way in.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns default development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     9000,
		Database: "utilitycost",
		Username: "default",
		Password: "",
		Debug:    false,
	}
}

// UsageStore fetches meter interval data from ClickHouse.
type UsageStore struct {
	conn clickhouse.Conn
	cfg  *Config
}

// NewUsageStore connects to ClickHouse with the given configuration. A nil
// cfg uses DefaultConfig.
func NewUsageStore(cfg *Config) (*UsageStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &UsageStore{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (s *UsageStore) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close closes the database connection.
func (s *UsageStore) Close() error {
	return s.conn.Close()
}

// FetchIntervals reads the meter's interval rows in [from, to), ordered by
// start. Timestamps come back in the supplied location, which becomes the
// dataset's local zone; day-type flags arrive pre-resolved from the holiday
// calendar owned by the surrounding application.
func (s *UsageStore) FetchIntervals(ctx context.Context, meterID string, from, to time.Time, loc *time.Location) (usage.Dataset, error) {
	query := `
		SELECT interval_start, interval_end, kwh, kw,
		       is_weekday, is_weekend, is_holiday
		FROM meter_intervals
		WHERE meter_id = ? AND interval_start >= ? AND interval_start < ?
		ORDER BY interval_start
	`
	rows, err := s.conn.Query(ctx, query, meterID, from.UTC(), to.UTC())
	if err != nil {
		return usage.Dataset{}, fmt.Errorf("failed to query intervals for meter %s: %w", meterID, err)
	}
	defer rows.Close()

	ds := usage.Dataset{Location: loc}
	for rows.Next() {
		var (
			start, end time.Time
			kwh, kw    float64
			weekday    uint8
			weekend    uint8
			holiday    uint8
		)
		if err := rows.Scan(&start, &end, &kwh, &kw, &weekday, &weekend, &holiday); err != nil {
			return usage.Dataset{}, fmt.Errorf("failed to scan interval row: %w", err)
		}

		energy, err := usage.DecimalFromFloat(kwh)
		if err != nil {
			return usage.Dataset{}, fmt.Errorf("kwh at %s: %w", start, err)
		}
		demand, err := usage.DecimalFromFloat(kw)
		if err != nil {
			return usage.Dataset{}, fmt.Errorf("kw at %s: %w", start, err)
		}

		ds.Intervals = append(ds.Intervals, usage.Interval{
			Start:   start.In(loc),
			End:     end.In(loc),
			Energy:  decimal.NewNullDecimal(energy),
			Demand:  decimal.NewNullDecimal(demand),
			Weekday: weekday != 0,
			Weekend: weekend != 0,
			Holiday: holiday != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return usage.Dataset{}, fmt.Errorf("failed reading interval rows: %w", err)
	}

	return ds, nil
}
