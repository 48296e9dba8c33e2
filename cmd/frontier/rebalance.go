package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/rebalancing"
)

// holdingsFile is the YAML layout read by the rebalance command:
//
//	min_trade_usd: 10
//	holdings:
//	  BTC: {quantity: 0.5, price_usd: 60000}
//	  ETH: {quantity: 4}   # price taken from the last close in the CSV
type holdingsFile struct {
	MinTradeUSD float64              `yaml:"min_trade_usd"`
	Holdings    rebalancing.Holdings `yaml:"holdings"`
}

func loadHoldings(path string) (*holdingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read holdings: %w", err)
	}
	var hf holdingsFile
	if err := yaml.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("parse holdings: %w", err)
	}
	if len(hf.Holdings) == 0 {
		return nil, fmt.Errorf("parse holdings: no holdings in %s", path)
	}
	if hf.MinTradeUSD < 0 {
		return nil, fmt.Errorf("parse holdings: min_trade_usd must not be negative")
	}
	return &hf, nil
}

// fillPrices sets missing prices from the last aligned close of each asset.
func fillPrices(holdings rebalancing.Holdings, data optimization.TimeSeriesData) rebalancing.Holdings {
	out := make(rebalancing.Holdings, len(holdings))
	for asset, h := range holdings {
		if h.PriceUSD == 0 {
			if closes := data.Data[asset]; len(closes) > 0 {
				h.PriceUSD = closes[len(closes)-1]
			}
		}
		out[asset] = h
	}
	return out
}

func newRebalanceCmd(logFor func(*cobra.Command) zerolog.Logger) *cobra.Command {
	opts := &searchOptions{}
	var holdingsPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rebalance",
		Short: "Plan trades that move holdings to the max Sharpe and min volatility portfolios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hf, err := loadHoldings(holdingsPath)
			if err != nil {
				return err
			}

			run, data, err := opts.search(cmd.Context(), cmd, logFor(cmd))
			if err != nil {
				return err
			}

			holdings := fillPrices(hf.Holdings, data)
			plans, err := rebalancing.NewRebalancer().PlanForFrontier(holdings, run.Result)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]interface{}{
					"result": run.Result,
					"plans":  plans,
				})
			}
			if err := printRun(out, run); err != nil {
				return err
			}
			for _, name := range []string{rebalancing.PlanMaxSharpe, rebalancing.PlanMinVolatility} {
				fmt.Fprintln(out)
				if err := printPlan(out, name, plans[name], hf.MinTradeUSD); err != nil {
					return err
				}
			}
			return nil
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&holdingsPath, "holdings", "", "YAML file with current holdings (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print result and plans as JSON")
	_ = cmd.MarkFlagRequired("holdings")
	return cmd
}
