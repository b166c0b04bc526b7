// utilitycost - utility bill calculation from interval usage data
//
// Usage:
//   utilitycost usage validate --meter M-1001 --from 2024-01-01 --to 2024-02-01
//   utilitycost usage repair   --meter M-1001 --from 2024-01-01 --to 2024-02-01
//   utilitycost usage gaps     --meter M-1001 --from 2024-01-01 --to 2024-02-01 --grain 15m
//   utilitycost bill calculate --tariff-id 7 --meter M-1001 --from 2024-01-01 --to 2024-03-01
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"utility-cost/db/clickhouse"
	"utility-cost/db/postgres"
	"utility-cost/internal/billing"
	"utility-cost/internal/usage"
	"utility-cost/pkg/dates"
	apperrors "utility-cost/pkg/errors"
	"utility-cost/pkg/platform"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "utilitycost",
		Usage:   "Compute and validate utility bills from interval usage data",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to YAML config file",
				EnvVars: []string{"UTILITYCOST_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"UTILITYCOST_LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			usageCommand(),
			billCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		class := apperrors.Classify(err)
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", class.Code, err)
		if class.Recoverable {
			fmt.Fprintln(os.Stderr, "This is an input problem; fix the tariff or usage data and retry.")
		}
		os.Exit(class.ExitCode)
	}
}

func meterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "meter",
			Aliases:  []string{"m"},
			Usage:    "Meter identifier in the usage store",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "from",
			Usage:    "Start date YYYY-MM-DD (inclusive)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "End date YYYY-MM-DD (exclusive)",
			Required: true,
		},
	}
}

func usageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Inspect and repair interval usage data",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Check interval data against the billing-grade invariants",
				Flags:  meterFlags(),
				Action: runValidate,
			},
			{
				Name:  "repair",
				Usage: "Regrid interval data and fill gaps by forward-fill",
				Flags: append(meterFlags(), &cli.BoolFlag{
					Name:  "write",
					Usage: "Persist the repaired intervals back to the usage store",
				}),
				Action: runRepair,
			},
			{
				Name:  "gaps",
				Usage: "Report data completeness at an expected grain",
				Flags: append(meterFlags(), &cli.DurationFlag{
					Name:  "grain",
					Value: 15 * time.Minute,
					Usage: "Expected interval grain",
				}),
				Action: runGaps,
			},
		},
	}
}

func billCommand() *cli.Command {
	return &cli.Command{
		Name:  "bill",
		Usage: "Calculate bills against a tariff",
		Subcommands: []*cli.Command{
			{
				Name:  "calculate",
				Usage: "Apply a tariff to interval usage and aggregate billing periods",
				Flags: append(meterFlags(),
					&cli.Int64Flag{
						Name:     "tariff-id",
						Usage:    "Tariff identifier in the tariff store",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "period",
						Usage: "Billing period as start:end (YYYY-MM-DD, both inclusive); repeatable. Default: calendar months in the data",
					},
					&cli.BoolFlag{
						Name:  "repair",
						Usage: "Repair the dataset before validation",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "table",
						Usage:   "Output format (table, json)",
					},
				),
				Action: runCalculate,
			},
		},
	}
}

func newUsageStore(cfg *platform.Config) (*clickhouse.UsageStore, error) {
	return clickhouse.NewUsageStore(&clickhouse.Config{
		Host:     cfg.ClickHouse.Host,
		Port:     cfg.ClickHouse.Port,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
		Debug:    cfg.ClickHouse.Debug,
	})
}

// setup loads config, initializes logging, and fetches the requested window
// of interval data.
func setup(c *cli.Context) (*platform.Config, usage.Dataset, error) {
	cfg, err := platform.LoadConfig(c.String("config"))
	if err != nil {
		return nil, usage.Dataset{}, err
	}
	logger := platform.InitLogger(platform.ParseLevel(c.String("log-level")))

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, usage.Dataset{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	fromDate, err := dates.ParseDate(c.String("from"))
	if err != nil {
		return nil, usage.Dataset{}, err
	}
	toDate, err := dates.ParseDate(c.String("to"))
	if err != nil {
		return nil, usage.Dataset{}, err
	}

	store, err := newUsageStore(cfg)
	if err != nil {
		return nil, usage.Dataset{}, err
	}
	defer store.Close()

	meter := c.String("meter")
	ds, err := store.FetchIntervals(context.Background(), meter,
		fromDate.Time(loc), toDate.Time(loc), loc)
	if err != nil {
		return nil, usage.Dataset{}, err
	}
	logger.Info("fetched interval data",
		"meter", meter, "intervals", len(ds.Intervals),
		"from", fromDate.String(), "to", toDate.String())
	return cfg, ds, nil
}

func runValidate(c *cli.Context) error {
	_, ds, err := setup(c)
	if err != nil {
		return err
	}
	if err := usage.Validate(ds); err != nil {
		return err
	}
	fmt.Printf("OK: %d intervals at %s grain\n", len(ds.Intervals), ds.Grain())
	return nil
}

func runRepair(c *cli.Context) error {
	cfg, ds, err := setup(c)
	if err != nil {
		return err
	}
	repaired, err := usage.Repair(ds, usage.StrategyExtrapolateLast)
	if err != nil {
		return err
	}
	fmt.Printf("repaired: %d intervals in, %d intervals out at %s grain\n",
		len(ds.Intervals), len(repaired.Intervals), repaired.Grain())
	if err := usage.Validate(repaired); err != nil {
		return err
	}

	if c.Bool("write") {
		store, err := newUsageStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		res, err := store.WriteRepaired(context.Background(), c.String("meter"), repaired)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d repaired intervals (run %s) in %s\n",
			res.RowCount, res.RunID, res.Duration)
	}
	return nil
}

func runGaps(c *cli.Context) error {
	_, ds, err := setup(c)
	if err != nil {
		return err
	}
	report := usage.AnalyzeGaps(ds, c.Duration("grain"))
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCalculate(c *cli.Context) error {
	cfg, ds, err := setup(c)
	if err != nil {
		return err
	}

	if c.Bool("repair") {
		if ds, err = usage.Repair(ds, usage.StrategyExtrapolateLast); err != nil {
			return err
		}
	}
	if err := usage.Validate(ds); err != nil {
		return err
	}

	tariffStore, err := postgres.NewTariffStore(cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer tariffStore.Close()

	t, err := tariffStore.LoadTariff(context.Background(), c.Int64("tariff-id"))
	if err != nil {
		return err
	}

	periods, err := parsePeriods(c.StringSlice("period"))
	if err != nil {
		return err
	}

	results, _, err := billing.CalculateBills(ds, t, periods)
	if err != nil {
		return err
	}

	switch c.String("format") {
	case "json":
		return renderJSON(results)
	case "table":
		renderTable(results)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", c.String("format"))
	}
}

// parsePeriods converts repeatable start:end flags. A nil return lets the
// calculator derive calendar months.
func parsePeriods(specs []string) ([]billing.BillingPeriod, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	periods := make([]billing.BillingPeriod, 0, len(specs))
	for _, s := range specs {
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid period %q (want start:end)", s)
		}
		start, err := dates.ParseDate(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := dates.ParseDate(parts[1])
		if err != nil {
			return nil, err
		}
		if end.Before(start) {
			return nil, fmt.Errorf("invalid period %q: end before start", s)
		}
		periods = append(periods, billing.BillingPeriod{Start: start, End: end})
	}
	return periods, nil
}

type lineItemOut struct {
	ChargeID    string `json:"charge_id"`
	Description string `json:"description"`
	Amount      string `json:"amount_usd"`
}

type periodOut struct {
	PeriodStart string        `json:"period_start"`
	PeriodEnd   string        `json:"period_end"`
	Energy      []lineItemOut `json:"energy_line_items"`
	Demand      []lineItemOut `json:"demand_line_items"`
	Customer    []lineItemOut `json:"customer_line_items"`
	Total       string        `json:"total_usd"`
}

func toLineItemsOut(items []billing.BillLineItem) []lineItemOut {
	out := make([]lineItemOut, 0, len(items))
	for _, item := range items {
		out = append(out, lineItemOut{
			ChargeID:    item.ChargeID.String(),
			Description: item.Description,
			Amount:      item.Amount.StringFixed(2),
		})
	}
	return out
}

func renderJSON(results []billing.BillingPeriodResult) error {
	out := make([]periodOut, 0, len(results))
	for _, r := range results {
		out = append(out, periodOut{
			PeriodStart: r.Period.Start.String(),
			PeriodEnd:   r.Period.End.String(),
			Energy:      toLineItemsOut(r.EnergyLineItems),
			Demand:      toLineItemsOut(r.DemandLineItems),
			Customer:    toLineItemsOut(r.CustomerLineItems),
			Total:       r.Total.StringFixed(2),
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderTable(results []billing.BillingPeriodResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(w, "Billing period %s -- %s\n", r.Period.Start, r.Period.End)
		for _, item := range r.EnergyLineItems {
			fmt.Fprintf(w, "  energy\t%s\t$%s\n", item.Description, item.Amount.StringFixed(2))
		}
		for _, item := range r.DemandLineItems {
			fmt.Fprintf(w, "  demand\t%s\t$%s\n", item.Description, item.Amount.StringFixed(2))
		}
		for _, item := range r.CustomerLineItems {
			fmt.Fprintf(w, "  customer\t%s\t$%s\n", item.Description, item.Amount.StringFixed(2))
		}
		fmt.Fprintf(w, "  total\t\t$%s\n", r.Total.StringFixed(2))
	}
	w.Flush()
}
