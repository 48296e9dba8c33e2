// Package optimization estimates return moments from price history and searches
// the long-only simplex for max-Sharpe and min-volatility portfolios.
package optimization

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// WeightTolerance is the allowed deviation of sum(weights) from 1.
const WeightTolerance = 1e-9

// Default search parameters (mirror the values the UI pre-fills).
const (
	DefaultTrials         = 50000
	DefaultRiskFreeRate   = 0.04
	DefaultPeriodsPerYear = 365
)

// TimeSeriesData holds prices aligned on a common set of timestamps.
// Data[asset][i] is the close of asset at Dates[i].
type TimeSeriesData struct {
	Dates []time.Time
	Data  map[string][]float64
}

// Moments is the mean log return vector and sample covariance matrix of a
// return matrix. Indexed by Assets; immutable once built.
type Moments struct {
	Assets       []string
	Mean         []float64
	Covariance   *mat.SymDense
	Observations int // number of return observations (rows of the return matrix)
}

// NumAssets returns the number of assets the moments describe.
func (m *Moments) NumAssets() int {
	return len(m.Assets)
}

// WeightVector is a long-only allocation in Moments.Assets order.
type WeightVector []float64

// Sum returns the total of all weights.
func (w WeightVector) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// Validate checks the simplex invariant: no negative entries and sum == 1 within tol.
func (w WeightVector) Validate(tol float64) error {
	if len(w) == 0 {
		return fmt.Errorf("empty weight vector")
	}
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %d is %v: must be a finite non-negative number", i, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > tol {
		return fmt.Errorf("weights sum to %.12f, expected 1", sum)
	}
	return nil
}

// Allocation maps the weights onto asset identifiers.
func (w WeightVector) Allocation(assets []string) map[string]float64 {
	out := make(map[string]float64, len(assets))
	for i, asset := range assets {
		if i < len(w) {
			out[asset] = w[i]
		}
	}
	return out
}

// Performance is the annualized outcome of one weight vector.
type Performance struct {
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
}

// PortfolioSample is one evaluated trial.
type PortfolioSample struct {
	Trial                int                `json:"trial" msgpack:"trial"`
	Weights              map[string]float64 `json:"weights" msgpack:"weights"`
	AnnualizedReturn     float64            `json:"annualizedReturn" msgpack:"annualized_return"`
	AnnualizedVolatility float64            `json:"annualizedVolatility" msgpack:"annualized_volatility"`
	SharpeRatio          float64            `json:"sharpeRatio" msgpack:"sharpe_ratio"`
}

// FrontierResult holds the two portfolios selected out of all trials.
type FrontierResult struct {
	Assets           []string        `json:"assets" msgpack:"assets"`
	MaxSharpe        PortfolioSample `json:"maxSharpe" msgpack:"max_sharpe"`
	MinVolatility    PortfolioSample `json:"minVolatility" msgpack:"min_volatility"`
	TrialsRun        int             `json:"trialsRun" msgpack:"trials_run"`
	DegenerateTrials int             `json:"degenerateTrials" msgpack:"degenerate_trials"`
	Truncated        bool            `json:"truncated" msgpack:"truncated"` // search was cancelled before all trials ran
}

// SearchConfig holds the validated search parameters.
type SearchConfig struct {
	Trials         int
	RiskFreeRate   float64
	PeriodsPerYear int
	Seed           *uint64 // nil = seed from the runtime's entropy source
	Workers        int     // <= 0 means one worker per CPU
}

// DefaultSearchConfig returns the defaults used by the UI.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Trials:         DefaultTrials,
		RiskFreeRate:   DefaultRiskFreeRate,
		PeriodsPerYear: DefaultPeriodsPerYear,
	}
}

// Validate rejects out-of-range parameters with ErrInvalidConfig.
func (c SearchConfig) Validate() error {
	if c.Trials <= 0 {
		return fmt.Errorf("%w: trial count must be positive, got %d", ErrInvalidConfig, c.Trials)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidConfig, c.PeriodsPerYear)
	}
	if math.IsNaN(c.RiskFreeRate) || math.IsInf(c.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk-free rate must be finite", ErrInvalidConfig)
	}
	return nil
}

// Tail returns the last n rows of every series. n <= 0 or n >= len keeps everything.
func (d TimeSeriesData) Tail(n int) TimeSeriesData {
	out := TimeSeriesData{Dates: d.Dates, Data: make(map[string][]float64, len(d.Data))}
	for asset, prices := range d.Data {
		if n > 0 && n < len(prices) {
			prices = prices[len(prices)-n:]
		}
		out.Data[asset] = prices
	}
	if n > 0 && n < len(d.Dates) {
		out.Dates = d.Dates[len(d.Dates)-n:]
	}
	return out
}
