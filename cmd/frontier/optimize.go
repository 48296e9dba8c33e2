package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/modules/marketdata"
	"github.com/aristath/frontier/internal/modules/optimization"
)

type searchOptions struct {
	csvPath     string
	symbols     string
	dataPoints  int
	trials      int
	rfr         float64
	periods     int
	seed        uint64
	workers     int
	shrinkage   bool
	forwardFill bool
	fillStep    time.Duration
}

func (o *searchOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.csvPath, "csv", "", "price file with date,asset,close rows (required)")
	f.StringVar(&o.symbols, "symbols", "", "comma separated assets to use (default: every asset in the file)")
	f.IntVar(&o.dataPoints, "data-points", 0, "most recent prices used per asset (0 = all)")
	f.IntVar(&o.trials, "trials", optimization.DefaultTrials, "number of random portfolios")
	f.Float64Var(&o.rfr, "rfr", optimization.DefaultRiskFreeRate, "annual risk-free rate")
	f.IntVar(&o.periods, "periods", optimization.DefaultPeriodsPerYear, "price periods per year")
	f.Uint64Var(&o.seed, "seed", 0, "random seed for a reproducible search (default: random)")
	f.IntVar(&o.workers, "workers", 0, "parallel workers (0 = one per CPU)")
	f.BoolVar(&o.shrinkage, "shrinkage", false, "shrink the covariance toward a constant-correlation target")
	f.BoolVar(&o.forwardFill, "forward-fill", false, "carry the last close over missing dates instead of dropping them")
	f.DurationVar(&o.fillStep, "fill-step", 0, "fill each asset to one close per step before aligning, e.g. 24h (0 = off)")
	_ = cmd.MarkFlagRequired("csv")
}

// search loads the CSV, aligns it and runs one frontier search.
func (o *searchOptions) search(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*optimization.Run, optimization.TimeSeriesData, error) {
	if o.trials <= 0 {
		return nil, optimization.TimeSeriesData{}, fmt.Errorf("%w: --trials must be greater than 0", optimization.ErrInvalidConfig)
	}
	if o.dataPoints < 0 {
		return nil, optimization.TimeSeriesData{}, fmt.Errorf("%w: --data-points must not be negative", optimization.ErrInvalidConfig)
	}

	series, err := readCSV(o.csvPath)
	if err != nil {
		return nil, optimization.TimeSeriesData{}, err
	}

	assets := marketdata.ParseSymbols(o.symbols)
	if len(assets) == 0 {
		for asset := range series {
			assets = append(assets, asset)
		}
		sort.Strings(assets)
	}

	data, err := marketdata.Align(series, assets, marketdata.AlignOptions{
		ForwardFill: o.forwardFill,
		FillStep:    o.fillStep,
	})
	if err != nil {
		return nil, optimization.TimeSeriesData{}, err
	}

	search := optimization.DefaultSearchConfig()
	search.Workers = o.workers
	service := optimization.NewService(nil, nil, optimization.ServiceConfig{Search: search}, log)

	req := optimization.OptimizeRequest{
		Assets:         assets,
		Prices:         &data,
		DataPoints:     o.dataPoints,
		Trials:         o.trials,
		RiskFreeRate:   &o.rfr,
		PeriodsPerYear: o.periods,
		Shrinkage:      &o.shrinkage,
	}
	if cmd.Flags().Changed("seed") {
		seed := o.seed
		req.Seed = &seed
	}

	run, err := service.Optimize(ctx, req)
	if err != nil {
		return nil, optimization.TimeSeriesData{}, err
	}
	return run, data, nil
}

func newOptimizeCmd(logFor func(*cobra.Command) zerolog.Logger) *cobra.Command {
	opts := &searchOptions{}
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search the efficient frontier for the assets in a price file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run, _, err := opts.search(cmd.Context(), cmd, logFor(cmd))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), run)
			}
			return printRun(cmd.OutOrStdout(), run)
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full run as JSON")
	return cmd
}

func readCSV(path string) (map[string]marketdata.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()
	return marketdata.LoadCSV(f)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
