package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/frontier/pkg/formulas"
)

// MinReturnObservations is the smallest return matrix the estimator accepts.
// Sample covariance divides by N-1, so a single return row is undefined.
const MinReturnObservations = 2

// negativeVarianceTolerance bounds the round-off we silently clamp to zero.
const negativeVarianceTolerance = 1e-14

// EstimatorOptions tunes moment estimation.
type EstimatorOptions struct {
	// Shrinkage blends the sample covariance toward a constant-correlation
	// target. Off by default so results match the plain sample estimator.
	Shrinkage bool
}

// BuildReturnMatrix converts aligned prices into a log return matrix.
// Rows are consecutive time steps, columns follow the order of assets.
func BuildReturnMatrix(assets []string, data TimeSeriesData) (*mat.Dense, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyAssetUniverse
	}

	seen := make(map[string]bool, len(assets))
	numPrices := -1
	for _, asset := range assets {
		if seen[asset] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, asset)
		}
		seen[asset] = true

		prices, ok := data.Data[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
		}
		if len(prices) < MinReturnObservations+1 {
			return nil, fmt.Errorf("%w: %s has %d prices, need at least %d",
				ErrInsufficientData, asset, len(prices), MinReturnObservations+1)
		}
		if numPrices == -1 {
			numPrices = len(prices)
		} else if len(prices) != numPrices {
			return nil, fmt.Errorf("%w: %s has %d prices, expected %d",
				ErrMisalignedSeries, asset, len(prices), numPrices)
		}
		for i, p := range prices {
			if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return nil, fmt.Errorf("%w: %s has price %v at index %d", ErrInvalidPrice, asset, p, i)
			}
		}
	}

	if len(data.Dates) > 0 && len(data.Dates) != numPrices {
		return nil, fmt.Errorf("%w: %d dates for %d prices", ErrMisalignedSeries, len(data.Dates), numPrices)
	}

	returns := mat.NewDense(numPrices-1, len(assets), nil)
	for j, asset := range assets {
		returns.SetCol(j, formulas.LogReturns(data.Data[asset]))
	}
	return returns, nil
}

// EstimateMoments computes the mean log return per asset and the sample
// covariance matrix (divisor N-1) of the return matrix.
func EstimateMoments(assets []string, data TimeSeriesData, opts EstimatorOptions) (*Moments, error) {
	returns, err := BuildReturnMatrix(assets, data)
	if err != nil {
		return nil, err
	}
	return MomentsFromReturns(assets, returns, opts)
}

// MomentsFromReturns estimates moments from an already built return matrix.
func MomentsFromReturns(assets []string, returns *mat.Dense, opts EstimatorOptions) (*Moments, error) {
	rows, cols := returns.Dims()
	if cols != len(assets) {
		return nil, fmt.Errorf("%w: return matrix has %d columns for %d assets", ErrMisalignedSeries, cols, len(assets))
	}
	if rows < MinReturnObservations {
		return nil, fmt.Errorf("%w: %d return observations, need at least %d",
			ErrInsufficientData, rows, MinReturnObservations)
	}

	mean := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, returns)
		mean[j] = formulas.Mean(col)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, returns, nil)

	if err := guardCovariance(&cov, assets); err != nil {
		return nil, err
	}

	covariance := &cov
	if opts.Shrinkage {
		shrunk, err := applyLedoitWolfShrinkage(covariance)
		if err != nil {
			return nil, fmt.Errorf("failed to apply covariance shrinkage: %w", err)
		}
		covariance = shrunk
	}

	return &Moments{
		Assets:       append([]string(nil), assets...),
		Mean:         mean,
		Covariance:   covariance,
		Observations: rows,
	}, nil
}

// guardCovariance rejects non-finite entries and clamps round-off negative
// variances to zero. Larger negative variances mean the input is unusable.
func guardCovariance(cov *mat.SymDense, assets []string) error {
	n := cov.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := cov.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: covariance(%s, %s) is %v", ErrIllConditioned, assets[i], assets[j], v)
			}
		}
		if v := cov.At(i, i); v < 0 {
			if v < -negativeVarianceTolerance {
				return fmt.Errorf("%w: variance of %s is %v", ErrIllConditioned, assets[i], v)
			}
			cov.SetSym(i, i, 0)
		}
	}
	return nil
}
