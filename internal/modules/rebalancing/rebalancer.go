package rebalancing

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// Plan names used by PlanForFrontier.
const (
	PlanMaxSharpe     = "maxSharpe"
	PlanMinVolatility = "minVolatility"
)

// Rebalancer turns a holdings snapshot and a target allocation into trades.
// It is stateless; one snapshot may be planned against any number of targets.
type Rebalancer struct{}

// NewRebalancer creates a rebalancer.
func NewRebalancer() *Rebalancer {
	return &Rebalancer{}
}

// Plan computes the quantity change per asset that turns holdings into target.
//
//	currentWeight = quantity * price / totalValue
//	usdDelta      = (targetWeight - currentWeight) * totalValue
//	quantityDelta = usdDelta / price
//
// Held assets missing from target are sold out (target weight 0).
func (r *Rebalancer) Plan(holdings Holdings, target map[string]float64) (*RebalancePlan, error) {
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	for asset, h := range holdings {
		if h.Quantity < 0 || math.IsNaN(h.Quantity) || math.IsInf(h.Quantity, 0) {
			return nil, fmt.Errorf("%w: %s has quantity %v", ErrInvalidHolding, asset, h.Quantity)
		}
		if h.Quantity > 0 && !validPrice(h.PriceUSD) {
			return nil, fmt.Errorf("%w: %s is held but has price %v", ErrMissingPrice, asset, h.PriceUSD)
		}
	}
	for asset := range target {
		h, ok := holdings[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no holding entry", ErrMissingPrice, asset)
		}
		if !validPrice(h.PriceUSD) {
			return nil, fmt.Errorf("%w: %s has price %v", ErrMissingPrice, asset, h.PriceUSD)
		}
	}

	total := holdings.TotalValueUSD()
	if total == 0 {
		return nil, ErrDivision
	}

	plan := &RebalancePlan{
		TotalValueUSD:  total,
		QuantityDelta:  make(map[string]float64),
		USDDelta:       make(map[string]float64),
		CurrentWeights: make(map[string]float64),
		TargetWeights:  make(map[string]float64),
	}

	assets := make(map[string]struct{}, len(target)+len(holdings))
	for asset := range target {
		assets[asset] = struct{}{}
	}
	for asset, h := range holdings {
		if h.Quantity > 0 {
			assets[asset] = struct{}{}
		}
	}

	for asset := range assets {
		h := holdings[asset]
		current := h.ValueUSD() / total
		usdDelta := (target[asset] - current) * total

		plan.CurrentWeights[asset] = current
		plan.TargetWeights[asset] = target[asset]
		plan.USDDelta[asset] = usdDelta
		plan.QuantityDelta[asset] = usdDelta / h.PriceUSD
	}

	return plan, nil
}

// PlanAll plans every named target against the same snapshot.
func (r *Rebalancer) PlanAll(holdings Holdings, targets map[string]map[string]float64) (map[string]*RebalancePlan, error) {
	plans := make(map[string]*RebalancePlan, len(targets))
	for name, target := range targets {
		plan, err := r.Plan(holdings, target)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", name, err)
		}
		plans[name] = plan
	}
	return plans, nil
}

// PlanForFrontier plans both portfolios selected by a frontier search.
func (r *Rebalancer) PlanForFrontier(holdings Holdings, result *optimization.FrontierResult) (map[string]*RebalancePlan, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no frontier result", ErrInvalidTarget)
	}
	return r.PlanAll(holdings, map[string]map[string]float64{
		PlanMaxSharpe:     result.MaxSharpe.Weights,
		PlanMinVolatility: result.MinVolatility.Weights,
	})
}

// Apply returns the holdings after executing every quantity delta at the snapshot prices.
func (p *RebalancePlan) Apply(holdings Holdings) Holdings {
	out := make(Holdings, len(holdings))
	for asset, h := range holdings {
		out[asset] = h
	}
	for asset, delta := range p.QuantityDelta {
		h := out[asset]
		h.Quantity += delta
		// round-off can leave a sold-out position at -1e-17
		if h.Quantity < 0 && h.Quantity > -1e-9 {
			h.Quantity = 0
		}
		out[asset] = h
	}
	return out
}

// Trades lists the orders in the plan, sells first, largest first.
// Trades worth less than minValueUSD are dropped.
func (p *RebalancePlan) Trades(minValueUSD float64) []Trade {
	trades := make([]Trade, 0, len(p.QuantityDelta))
	for asset, qty := range p.QuantityDelta {
		value := math.Abs(p.USDDelta[asset])
		if qty == 0 || value < minValueUSD {
			continue
		}
		side := SideBuy
		if qty < 0 {
			side = SideSell
		}
		trades = append(trades, Trade{
			Asset:    asset,
			Side:     side,
			Quantity: math.Abs(qty),
			ValueUSD: value,
		})
	}

	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Side != trades[j].Side {
			return trades[i].Side == SideSell
		}
		if trades[i].ValueUSD != trades[j].ValueUSD {
			return trades[i].ValueUSD > trades[j].ValueUSD
		}
		return trades[i].Asset < trades[j].Asset
	})
	return trades
}

func validateTarget(target map[string]float64) error {
	if len(target) == 0 {
		return fmt.Errorf("%w: target is empty", ErrInvalidTarget)
	}
	var sum float64
	for asset, w := range target {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: %s has weight %v", ErrInvalidTarget, asset, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > TargetWeightTolerance {
		return fmt.Errorf("%w: weights sum to %.9f", ErrInvalidTarget, sum)
	}
	return nil
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
