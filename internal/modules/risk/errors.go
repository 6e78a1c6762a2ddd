// Package risk computes Value-at-Risk and annualized volatility per asset and for
// an equal-weighted portfolio of crypto assets.
package risk

import "errors"

var (
	// ErrModelFit is returned when the conditional volatility model cannot be fitted.
	// ValueAtRisk always recovers from it with the historical estimate.
	ErrModelFit = errors.New("volatility model fit failed")

	// ErrNoData is returned when no symbol produced a usable return series.
	ErrNoData = errors.New("no data for symbols")

	// ErrInvalidRequest is returned for out-of-range request parameters.
	ErrInvalidRequest = errors.New("invalid request")
)
