package rebalancing

import "errors"

var (
	// ErrMissingPrice is returned when a target asset has no holding entry or no usable price.
	ErrMissingPrice = errors.New("missing price for asset")
	// ErrDivision is returned when the portfolio is worth nothing.
	ErrDivision = errors.New("total portfolio value is zero")
	// ErrInvalidTarget is returned for targets that are not long-only weights summing to 1.
	ErrInvalidTarget = errors.New("invalid target weights")
	// ErrInvalidHolding is returned for negative or non-finite quantities.
	ErrInvalidHolding = errors.New("invalid holding")
)
