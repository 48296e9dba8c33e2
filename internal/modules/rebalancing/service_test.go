package rebalancing

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/modules/optimization"
)

type stubRuns map[string]*optimization.Run

func (s stubRuns) GetRun(_ context.Context, id string) (*optimization.Run, error) {
	run, ok := s[id]
	if !ok {
		return nil, optimization.ErrRunNotFound
	}
	return run, nil
}

func TestService_PlanRun(t *testing.T) {
	runs := stubRuns{
		"run-1": {
			ID: "run-1",
			Result: &optimization.FrontierResult{
				MaxSharpe:     optimization.PortfolioSample{Weights: map[string]float64{"BTC": 0.6, "ETH": 0.4}},
				MinVolatility: optimization.PortfolioSample{Weights: map[string]float64{"BTC": 0.3, "ETH": 0.7}},
			},
		},
	}
	svc := NewService(runs, zerolog.Nop())
	holdings := Holdings{"BTC": {Quantity: 1, PriceUSD: 100}, "ETH": {Quantity: 1, PriceUSD: 100}}

	plans, err := svc.PlanRun(context.Background(), holdings, "run-1")
	require.NoError(t, err)
	assert.InDelta(t, 20, plans[PlanMaxSharpe].USDDelta["BTC"], 1e-9)
	// total 200: (0.3 - 0.5) * 200
	assert.InDelta(t, -40, plans[PlanMinVolatility].USDDelta["BTC"], 1e-9)
	assert.InDelta(t, 40, plans[PlanMinVolatility].USDDelta["ETH"], 1e-9)

	_, err = svc.PlanRun(context.Background(), holdings, "missing")
	assert.ErrorIs(t, err, optimization.ErrRunNotFound)
}

func TestService_PlanRunWithoutStore(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())
	_, err := svc.PlanRun(context.Background(), Holdings{}, "x")
	assert.ErrorIs(t, err, optimization.ErrRunNotFound)
}

func TestService_PlanTarget(t *testing.T) {
	svc := NewService(nil, zerolog.Nop())
	plan, err := svc.PlanTarget(Holdings{"BTC": {Quantity: 2, PriceUSD: 50}}, map[string]float64{"BTC": 1})
	require.NoError(t, err)
	assert.InDelta(t, 0, plan.QuantityDelta["BTC"], 1e-12)
	assert.Equal(t, 100.0, plan.TotalValueUSD)
}
