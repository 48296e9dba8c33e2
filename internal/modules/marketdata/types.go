// Package marketdata stores daily close prices and aligns them into the
// matrix shape the optimizer consumes.
package marketdata

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// ErrUnorderedSeries is returned when timestamps are not strictly increasing.
// It wraps optimization.ErrMisalignedSeries so callers can treat it as a data error.
var ErrUnorderedSeries = fmt.Errorf("%w: timestamps must be strictly increasing", optimization.ErrMisalignedSeries)

// ErrNoHistory is returned when an asset has no stored prices.
var ErrNoHistory = fmt.Errorf("%w: no stored prices", optimization.ErrInsufficientData)

// PricePoint is one close price.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// PriceSeries is the ordered price history of one asset.
type PriceSeries []PricePoint

// Validate checks ordering and that every close is a positive finite number.
func (s PriceSeries) Validate() error {
	for _, p := range s {
		if p.Close <= 0 || math.IsNaN(p.Close) || math.IsInf(p.Close, 0) {
			return fmt.Errorf("%w: close %v at %s", optimization.ErrInvalidPrice, p.Close, p.Time.Format(time.DateOnly))
		}
	}
	return checkOrder(s)
}

// Closes returns the close prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, p := range s {
		closes[i] = p.Close
	}
	return closes
}

// IsDataError reports whether err is a price-history problem.
func IsDataError(err error) bool {
	return errors.Is(err, ErrUnorderedSeries) || optimization.IsDataError(err)
}
