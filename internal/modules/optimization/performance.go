package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/pkg/formulas"
)

// Evaluate computes annualized return, volatility and Sharpe ratio for w.
//
//	return     = (w . mean) * periodsPerYear
//	volatility = sqrt(w' * cov * w * periodsPerYear)
//	sharpe     = (return - riskFreeRate) / volatility
//
// Returns ErrDegenerateVolatility when the volatility is zero or not finite.
// Evaluate is pure and safe to call from many goroutines on shared Moments.
func Evaluate(w WeightVector, m *Moments, periodsPerYear int, riskFreeRate float64) (Performance, error) {
	n := m.NumAssets()
	if len(w) != n {
		return Performance{}, fmt.Errorf("%w: %d weights for %d assets", ErrMisalignedSeries, len(w), n)
	}
	if periodsPerYear <= 0 {
		return Performance{}, fmt.Errorf("%w: periods per year must be positive, got %d", ErrInvalidConfig, periodsPerYear)
	}

	periods := float64(periodsPerYear)
	var periodReturn float64
	for i, wi := range w {
		periodReturn += wi * m.Mean[i]
	}
	annualReturn := formulas.Annualize(periodReturn, periodsPerYear)

	x := mat.NewVecDense(n, []float64(w))
	variance := mat.Inner(x, m.Covariance, x)
	if variance < 0 && variance > -negativeVarianceTolerance {
		variance = 0
	}
	annualVol := math.Sqrt(variance * periods)

	sharpe := formulas.SharpeRatio(annualReturn, annualVol, riskFreeRate)
	if sharpe == nil || math.IsNaN(*sharpe) || math.IsInf(*sharpe, 0) {
		return Performance{}, fmt.Errorf("%w: volatility %v", ErrDegenerateVolatility, annualVol)
	}

	return Performance{
		AnnualizedReturn:     annualReturn,
		AnnualizedVolatility: annualVol,
		SharpeRatio:          *sharpe,
	}, nil
}
