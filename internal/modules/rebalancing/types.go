// Package rebalancing computes the trades that move a holding to a target allocation.
package rebalancing

// TargetWeightTolerance is how far a target's weights may sum from 1.
// Looser than the sampler's tolerance since targets often come from JSON or YAML.
const TargetWeightTolerance = 1e-6

// Holding is the quantity held of one asset and its current USD price.
type Holding struct {
	Quantity float64 `json:"quantity" yaml:"quantity"`
	PriceUSD float64 `json:"priceUsd" yaml:"price_usd"`
}

// ValueUSD returns quantity * price. An empty position is worth 0 whatever its price.
func (h Holding) ValueUSD() float64 {
	if h.Quantity == 0 {
		return 0
	}
	return h.Quantity * h.PriceUSD
}

// Holdings maps asset identifiers to holdings.
type Holdings map[string]Holding

// TotalValueUSD sums the value of every holding.
func (h Holdings) TotalValueUSD() float64 {
	var total float64
	for _, holding := range h {
		total += holding.ValueUSD()
	}
	return total
}

// Weights returns each asset's share of the total value, or nil when the total is zero.
func (h Holdings) Weights() map[string]float64 {
	total := h.TotalValueUSD()
	if total == 0 {
		return nil
	}
	weights := make(map[string]float64, len(h))
	for asset, holding := range h {
		weights[asset] = holding.ValueUSD() / total
	}
	return weights
}

// RebalancePlan is the set of quantity changes that moves a holding to a target.
// Positive deltas are buys, negative deltas are sells.
type RebalancePlan struct {
	TotalValueUSD  float64            `json:"totalValueUSD"`
	QuantityDelta  map[string]float64 `json:"quantityDelta"`
	USDDelta       map[string]float64 `json:"usdDelta"`
	CurrentWeights map[string]float64 `json:"currentWeights"`
	TargetWeights  map[string]float64 `json:"targetWeights"`
}

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade is one order derived from a plan.
type Trade struct {
	Asset    string  `json:"asset"`
	Side     Side    `json:"side"`
	Quantity float64 `json:"quantity"`
	ValueUSD float64 `json:"valueUsd"`
}
