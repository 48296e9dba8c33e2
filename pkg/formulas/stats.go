// Package formulas holds small statistical helpers shared by the engine and its callers.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// LogReturns converts prices to log returns.
// Returns[i] = ln(Price[i+1] / Price[i]). Callers must ensure prices are positive.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns
}

// Annualize scales a per-period mean return to annual terms.
func Annualize(periodMean float64, periodsPerYear int) float64 {
	return periodMean * float64(periodsPerYear)
}
