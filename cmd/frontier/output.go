package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/rebalancing"
)

func printRun(w io.Writer, run *optimization.Run) error {
	res := run.Result
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Trials:\t%d (degenerate %d)\n", res.TrialsRun, res.DegenerateTrials)
	fmt.Fprintf(tw, "Observations:\t%d returns\n", run.Observations)
	if res.Truncated {
		fmt.Fprintln(tw, "Truncated:\tyes")
	}
	fmt.Fprintln(tw)

	printSample(tw, "Max Sharpe", res.Assets, res.MaxSharpe)
	fmt.Fprintln(tw)
	printSample(tw, "Min Volatility", res.Assets, res.MinVolatility)

	if len(run.HighCorrelations) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Highly correlated pairs:")
		for _, p := range run.HighCorrelations {
			fmt.Fprintf(tw, "  %s / %s\t%.3f\n", p.Asset1, p.Asset2, p.Correlation)
		}
	}
	return tw.Flush()
}

func printSample(w io.Writer, title string, assets []string, s optimization.PortfolioSample) {
	fmt.Fprintf(w, "%s (trial %d)\n", title, s.Trial)
	fmt.Fprintf(w, "  Return\t%.2f%%\n", s.AnnualizedReturn*100)
	fmt.Fprintf(w, "  Volatility\t%.2f%%\n", s.AnnualizedVolatility*100)
	fmt.Fprintf(w, "  Sharpe\t%.3f\n", s.SharpeRatio)
	for _, asset := range assets {
		fmt.Fprintf(w, "  %s\t%.2f%%\n", asset, s.Weights[asset]*100)
	}
}

func printPlan(w io.Writer, title string, plan *rebalancing.RebalancePlan, minTradeUSD float64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s (portfolio value $%.2f)\n", title, plan.TotalValueUSD)

	assets := make([]string, 0, len(plan.TargetWeights))
	for asset := range plan.TargetWeights {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	fmt.Fprintln(tw, "  Asset\tCurrent\tTarget")
	for _, asset := range assets {
		fmt.Fprintf(tw, "  %s\t%.2f%%\t%.2f%%\n", asset, plan.CurrentWeights[asset]*100, plan.TargetWeights[asset]*100)
	}

	trades := plan.Trades(minTradeUSD)
	if len(trades) == 0 {
		fmt.Fprintln(tw, "  No trades needed")
		return tw.Flush()
	}
	fmt.Fprintln(tw, "  Side\tAsset\tQuantity\tValue")
	for _, t := range trades {
		fmt.Fprintf(tw, "  %s\t%s\t%.6f\t$%.2f\n", t.Side, t.Asset, t.Quantity, t.ValueUSD)
	}
	return tw.Flush()
}
