// Package optimization computes long-only mean-variance target allocations for
// crypto holdings and classifies the drift of the current allocation from them.
package optimization

import "errors"

var (
	// ErrOptimizationInfeasible is returned when the selected objective has no
	// solution under its constraint, or the solver does not converge.
	ErrOptimizationInfeasible = errors.New("optimization infeasible")

	// ErrNoData is returned when no holding produced a usable return series.
	ErrNoData = errors.New("no price data")

	// ErrInvalidRequest is returned for out-of-range request parameters.
	ErrInvalidRequest = errors.New("invalid request")
)
