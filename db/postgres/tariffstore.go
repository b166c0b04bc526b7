// Package postgres loads fully materialized tariffs from the admin
// database. The admin layer owns CRUD and referential integrity; this
// adapter only reads, and re-derives the same deterministic charge identity
// for the same source row on every load.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"utility-cost/pkg/dates"
	"utility-cost/pkg/tariff"
)

// TariffStore reads tariff definitions from Postgres.
type TariffStore struct {
	db *sql.DB
}

// NewTariffStore opens a connection using a lib/pq DSN.
func NewTariffStore(dsn string) (*TariffStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return &TariffStore{db: db}, nil
}

// Ping checks database connectivity.
func (s *TariffStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *TariffStore) Close() error {
	return s.db.Close()
}

// LoadTariff materializes one tariff with all its charges and rules. Rates
// are read as text so they reach decimal form without float precision loss.
func (s *TariffStore) LoadTariff(ctx context.Context, tariffID int64) (tariff.Tariff, error) {
	var t tariff.Tariff
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM tariffs WHERE id = $1`, tariffID,
	).Scan(&t.Name)
	if err == sql.ErrNoRows {
		return tariff.Tariff{}, fmt.Errorf("tariff %d not found", tariffID)
	}
	if err != nil {
		return tariff.Tariff{}, fmt.Errorf("failed to load tariff %d: %w", tariffID, err)
	}

	if t.EnergyCharges, err = s.loadEnergyCharges(ctx, tariffID); err != nil {
		return tariff.Tariff{}, err
	}
	if t.DemandCharges, err = s.loadDemandCharges(ctx, tariffID); err != nil {
		return tariff.Tariff{}, err
	}
	if t.CustomerCharges, err = s.loadCustomerCharges(ctx, tariffID); err != nil {
		return tariff.Tariff{}, err
	}

	if err := t.Validate(); err != nil {
		return tariff.Tariff{}, err
	}
	return t, nil
}

func (s *TariffStore) loadEnergyCharges(ctx context.Context, tariffID int64) ([]tariff.EnergyCharge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, rate_usd_per_kwh::text
		FROM energy_charges
		WHERE tariff_id = $1
		ORDER BY id`, tariffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load energy charges: %w", err)
	}
	defer rows.Close()

	var charges []tariff.EnergyCharge
	for rows.Next() {
		var (
			pk   int64
			name string
			rate string
		)
		if err := rows.Scan(&pk, &name, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan energy charge: %w", err)
		}
		rateDec, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("energy charge %q rate: %w", name, err)
		}
		rules, err := s.loadRules(ctx, "energy_charge", pk)
		if err != nil {
			return nil, err
		}
		charges = append(charges, tariff.EnergyCharge{
			ID:         tariff.NewChargeID("EnergyCharge", strconv.FormatInt(pk, 10)),
			Name:       name,
			RatePerKWH: rateDec,
			Rules:      rules,
		})
	}
	return charges, rows.Err()
}

func (s *TariffStore) loadDemandCharges(ctx context.Context, tariffID int64) ([]tariff.DemandCharge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, rate_usd_per_kw::text, peak_type
		FROM demand_charges
		WHERE tariff_id = $1
		ORDER BY id`, tariffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load demand charges: %w", err)
	}
	defer rows.Close()

	var charges []tariff.DemandCharge
	for rows.Next() {
		var (
			pk       int64
			name     string
			rate     string
			peakType string
		)
		if err := rows.Scan(&pk, &name, &rate, &peakType); err != nil {
			return nil, fmt.Errorf("failed to scan demand charge: %w", err)
		}
		rateDec, err := decimal.NewFromString(rate)
		if err != nil {
			return nil, fmt.Errorf("demand charge %q rate: %w", name, err)
		}
		rules, err := s.loadRules(ctx, "demand_charge", pk)
		if err != nil {
			return nil, err
		}
		charges = append(charges, tariff.DemandCharge{
			ID:        tariff.NewChargeID("DemandCharge", strconv.FormatInt(pk, 10)),
			Name:      name,
			RatePerKW: rateDec,
			Peak:      tariff.PeakType(peakType),
			Rules:     rules,
		})
	}
	return charges, rows.Err()
}

func (s *TariffStore) loadCustomerCharges(ctx context.Context, tariffID int64) ([]tariff.CustomerCharge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount_usd::text, charge_type
		FROM customer_charges
		WHERE tariff_id = $1
		ORDER BY id`, tariffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer charges: %w", err)
	}
	defer rows.Close()

	var charges []tariff.CustomerCharge
	for rows.Next() {
		var (
			pk         int64
			name       string
			amount     string
			chargeType string
		)
		if err := rows.Scan(&pk, &name, &amount, &chargeType); err != nil {
			return nil, fmt.Errorf("failed to scan customer charge: %w", err)
		}
		amountDec, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("customer charge %q amount: %w", name, err)
		}
		charges = append(charges, tariff.CustomerCharge{
			ID:     tariff.NewChargeID("CustomerCharge", strconv.FormatInt(pk, 10)),
			Name:   name,
			Amount: amountDec,
			Period: tariff.PeriodType(chargeType),
		})
	}
	return charges, rows.Err()
}

// loadRules reads the applicability rules attached to one charge. Times are
// stored as HH:MM and seasonal bounds as MM-DD text, matching the engine's
// unambiguous serialization contract.
func (s *TariffStore) loadRules(ctx context.Context, chargeKind string, chargePK int64) ([]tariff.ApplicabilityRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT period_start_local, period_end_local, start_date, end_date,
		       applies_weekdays, applies_weekends, applies_holidays
		FROM applicability_rules
		WHERE charge_kind = $1 AND charge_id = $2
		ORDER BY id`, chargeKind, chargePK)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for %s %d: %w", chargeKind, chargePK, err)
	}
	defer rows.Close()

	var rules []tariff.ApplicabilityRule
	for rows.Next() {
		var (
			startLocal, endLocal sql.NullString
			startDate, endDate   sql.NullString
			weekdays, weekends   bool
			holidays             bool
		)
		if err := rows.Scan(&startLocal, &endLocal, &startDate, &endDate,
			&weekdays, &weekends, &holidays); err != nil {
			return nil, fmt.Errorf("failed to scan rule for %s %d: %w", chargeKind, chargePK, err)
		}

		rule := tariff.ApplicabilityRule{
			DayTypes: tariff.DayTypeSet{Weekday: weekdays, Weekend: weekends, Holiday: holidays},
		}
		if startLocal.Valid {
			ct, err := dates.ParseClockTime(startLocal.String)
			if err != nil {
				return nil, err
			}
			rule.StartTime = &ct
		}
		if endLocal.Valid {
			ct, err := dates.ParseClockTime(endLocal.String)
			if err != nil {
				return nil, err
			}
			rule.EndTime = &ct
		}
		if startDate.Valid {
			md, err := dates.ParseMonthDay(startDate.String)
			if err != nil {
				return nil, err
			}
			rule.StartDate = &md
		}
		if endDate.Valid {
			md, err := dates.ParseMonthDay(endDate.String)
			if err != nil {
				return nil, err
			}
			rule.EndDate = &md
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
