package di

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/marketdata"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/rebalancing"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:          t.TempDir(),
		Trials:           500,
		RiskFreeRate:     0.04,
		PeriodsPerYear:   365,
		Lookback:         365,
		RunRetentionDays: 30,
	}
}

func TestWire(t *testing.T) {
	container, err := Wire(testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.RunsDB)
	assert.NotNil(t, container.PriceRepo)
	assert.NotNil(t, container.RunRepo)
	assert.NotNil(t, container.OptimizationService)
	assert.NotNil(t, container.RebalancingService)
	assert.NotNil(t, container.MarketDataHandler)
	assert.NotNil(t, container.OptimizationHandler)
	assert.NotNil(t, container.RebalancingHandler)
	assert.NotNil(t, container.Scheduler)

	require.NotNil(t, container.Jobs)
	assert.Nil(t, container.Jobs.RefreshFrontier, "no watchlist configured")
	assert.NotNil(t, container.Jobs.PruneRuns)
	assert.NotNil(t, container.Jobs.WALCheckpoint)
	assert.Len(t, container.Databases(), 2)
}

func TestWire_RefreshJobUsesStoredHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSchedule = "0 6 * * *"
	cfg.Watchlist = []string{"AAA", "BBB"}
	seed := uint64(7)
	cfg.Seed = &seed

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })
	require.NotNil(t, container.Jobs.RefreshFrontier)

	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := map[string][]float64{
		"AAA": {100, 102, 101, 105, 107, 106},
		"BBB": {50, 49, 51, 50, 52, 55},
	}
	for asset, prices := range closes {
		series := make(marketdata.PriceSeries, 0, len(prices))
		for i, p := range prices {
			series = append(series, marketdata.PricePoint{Time: start.AddDate(0, 0, i), Close: p})
		}
		_, err := container.PriceRepo.Upsert(ctx, asset, series)
		require.NoError(t, err)
	}

	require.NoError(t, container.Jobs.RefreshFrontier.Run())

	runs, err := container.RunRepo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"AAA", "BBB"}, runs[0].Assets)
	assert.Equal(t, 500, runs[0].TrialsRun)

	holdings := rebalancing.Holdings{
		"AAA": {Quantity: 10, PriceUSD: 106},
		"BBB": {Quantity: 20, PriceUSD: 55},
	}
	plans, err := container.RebalancingService.PlanRun(ctx, holdings, runs[0].ID)
	require.NoError(t, err)
	assert.Contains(t, plans, rebalancing.PlanMaxSharpe)
	assert.Contains(t, plans, rebalancing.PlanMinVolatility)
	assert.InDelta(t, holdings.TotalValueUSD(), plans[rebalancing.PlanMaxSharpe].TotalValueUSD, 1e-9)

	_, err = container.RebalancingService.PlanRun(ctx, holdings, "missing")
	assert.ErrorIs(t, err, optimization.ErrRunNotFound)
}

func TestWire_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.RefreshSchedule = "every now and then"
	cfg.Watchlist = []string{"AAA"}

	_, err := Wire(cfg, zerolog.Nop())
	assert.Error(t, err)
}
