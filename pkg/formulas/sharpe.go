package formulas

import (
	"math"
)

// SharpeRatio computes (annualReturn - riskFreeRate) / annualVolatility.
// Returns nil when volatility is zero or any input is not finite.
func SharpeRatio(annualReturn, annualVolatility, riskFreeRate float64) *float64 {
	if annualVolatility <= 0 || !finite(annualReturn) || !finite(annualVolatility) || !finite(riskFreeRate) {
		return nil
	}
	sharpe := (annualReturn - riskFreeRate) / annualVolatility
	return &sharpe
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
