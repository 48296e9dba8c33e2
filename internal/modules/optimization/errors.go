package optimization

import "errors"

// Data errors: malformed or too-short price history. Never retried.
var (
	ErrInsufficientData   = errors.New("insufficient price history")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrMisalignedSeries   = errors.New("price series are not aligned")
	ErrIllConditioned     = errors.New("covariance matrix is not positive semi-definite")
	ErrUnknownAsset       = errors.New("asset has no price series")
	ErrDuplicateAsset     = errors.New("asset listed more than once")
	ErrEmptyAssetUniverse = errors.New("no assets provided")
)

// Numeric errors. ErrDegenerateVolatility is per trial and recoverable;
// ErrInsufficientSamples means no trial produced a usable portfolio.
var (
	ErrDegenerateVolatility = errors.New("portfolio volatility is zero or undefined")
	ErrInsufficientSamples  = errors.New("no valid portfolio samples")
)

// ErrInvalidConfig is returned before any computation starts when search
// parameters are out of range.
var ErrInvalidConfig = errors.New("invalid optimization config")

// ErrRunNotFound is returned by the run repository for unknown ids.
var ErrRunNotFound = errors.New("optimization run not found")

// IsDataError reports whether err stems from malformed input prices.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidPrice) ||
		errors.Is(err, ErrMisalignedSeries) ||
		errors.Is(err, ErrIllConditioned) ||
		errors.Is(err, ErrUnknownAsset) ||
		errors.Is(err, ErrDuplicateAsset) ||
		errors.Is(err, ErrEmptyAssetUniverse)
}

// IsNumericError reports whether err is a numeric failure of the search.
func IsNumericError(err error) bool {
	return errors.Is(err, ErrDegenerateVolatility) || errors.Is(err, ErrInsufficientSamples)
}
