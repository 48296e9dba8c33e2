package optimization

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/pkg/formulas"
)

// HighCorrelationThreshold is the absolute correlation reported as "high".
const HighCorrelationThreshold = 0.80

// CorrelationPair is a pair of assets whose returns move together.
type CorrelationPair struct {
	Asset1      string  `json:"asset1" msgpack:"asset1"`
	Asset2      string  `json:"asset2" msgpack:"asset2"`
	Correlation float64 `json:"correlation" msgpack:"correlation"`
}

// AssetStat is the annualized standalone profile of one asset.
type AssetStat struct {
	Asset                string   `json:"asset" msgpack:"asset"`
	AnnualizedReturn     float64  `json:"annualizedReturn" msgpack:"annualized_return"`
	AnnualizedVolatility float64  `json:"annualizedVolatility" msgpack:"annualized_volatility"`
	SharpeRatio          *float64 `json:"sharpeRatio,omitempty" msgpack:"sharpe_ratio,omitempty"`
}

// NewMoments builds Moments from plain slices, validating shape and symmetry.
// Useful when moments come from somewhere other than EstimateMoments.
func NewMoments(assets []string, mean []float64, covariance [][]float64) (*Moments, error) {
	n := len(assets)
	if n == 0 {
		return nil, ErrEmptyAssetUniverse
	}
	if len(mean) != n {
		return nil, fmt.Errorf("%w: %d means for %d assets", ErrMisalignedSeries, len(mean), n)
	}
	if len(covariance) != n {
		return nil, fmt.Errorf("%w: covariance has %d rows for %d assets", ErrMisalignedSeries, len(covariance), n)
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(covariance[i]) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns, expected %d",
				ErrMisalignedSeries, i, len(covariance[i]), n)
		}
		for j := i; j < n; j++ {
			if math.Abs(covariance[i][j]-covariance[j][i]) > 1e-12 {
				return nil, fmt.Errorf("%w: covariance is not symmetric at (%d, %d)", ErrIllConditioned, i, j)
			}
			cov.SetSym(i, j, covariance[i][j])
		}
	}
	if err := guardCovariance(cov, assets); err != nil {
		return nil, err
	}

	return &Moments{
		Assets:     append([]string(nil), assets...),
		Mean:       append([]float64(nil), mean...),
		Covariance: cov,
	}, nil
}

// CorrelationMatrix converts the covariance into a correlation matrix.
// Assets with zero variance get zero correlation with everything but themselves.
func CorrelationMatrix(m *Moments) [][]float64 {
	n := m.NumAssets()
	corr := make([][]float64, n)
	for i := 0; i < n; i++ {
		corr[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				corr[i][j] = 1
				continue
			}
			vi, vj := m.Covariance.At(i, i), m.Covariance.At(j, j)
			if vi > 0 && vj > 0 {
				corr[i][j] = m.Covariance.At(i, j) / math.Sqrt(vi*vj)
			}
		}
	}
	return corr
}

// HighCorrelations lists asset pairs whose absolute correlation is at least threshold,
// strongest first.
func HighCorrelations(m *Moments, threshold float64) []CorrelationPair {
	corr := CorrelationMatrix(m)
	pairs := make([]CorrelationPair, 0)
	for i := 0; i < len(corr); i++ {
		for j := i + 1; j < len(corr); j++ {
			if math.Abs(corr[i][j]) >= threshold {
				pairs = append(pairs, CorrelationPair{
					Asset1:      m.Assets[i],
					Asset2:      m.Assets[j],
					Correlation: corr[i][j],
				})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return math.Abs(pairs[a].Correlation) > math.Abs(pairs[b].Correlation)
	})
	return pairs
}

// AssetStats returns each asset's standalone annualized return, volatility and Sharpe.
func AssetStats(m *Moments, periodsPerYear int, riskFreeRate float64) []AssetStat {
	stats := make([]AssetStat, m.NumAssets())
	for i, asset := range m.Assets {
		w := make(WeightVector, m.NumAssets())
		w[i] = 1
		entry := AssetStat{Asset: asset}
		perf, err := Evaluate(w, m, periodsPerYear, riskFreeRate)
		if err == nil {
			entry.AnnualizedReturn = perf.AnnualizedReturn
			entry.AnnualizedVolatility = perf.AnnualizedVolatility
			sharpe := perf.SharpeRatio
			entry.SharpeRatio = &sharpe
		} else {
			// zero-variance asset: return is defined, Sharpe is not
			entry.AnnualizedReturn = formulas.Annualize(m.Mean[i], periodsPerYear)
		}
		stats[i] = entry
	}
	return stats
}

// applyLedoitWolfShrinkage shrinks a sample covariance matrix toward a
// constant-correlation style target (average variance on the diagonal,
// average covariance elsewhere).
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator for large-dimensional covariance matrices"
func applyLedoitWolfShrinkage(sample *mat.SymDense) (*mat.SymDense, error) {
	n := sample.SymmetricDim()
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}
	if n == 1 {
		out := mat.NewSymDense(1, nil)
		out.CopySym(sample)
		return out, nil
	}

	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample.At(i, i)
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample.At(i, j)
			}
		}
	}
	avgVar /= float64(n)
	avgCov /= float64(n * (n - 1))

	target := func(i, j int) float64 {
		if i == j {
			return avgVar
		}
		if avgVar > 0 {
			return avgCov
		}
		return 0
	}

	// Simplified intensity: ratio of element dispersion to distance from target.
	shrinkage := 0.2
	if n > 2 && avgVar > 0 {
		var sumSqDiff, sumSq, sum float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := sample.At(i, j)
				diff := v - target(i, j)
				sumSqDiff += diff * diff
				sum += v
				sumSq += v * v
			}
		}
		count := float64(n * n)
		meanSqDiff := sumSqDiff / count
		mean := sum / count
		varSample := sumSq/count - mean*mean

		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (1-shrinkage)*sample.At(i, j)+shrinkage*target(i, j))
		}
	}
	return out, nil
}
