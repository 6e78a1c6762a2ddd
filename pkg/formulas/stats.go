// Package formulas holds the return-series statistics shared by the risk and
// optimization modules.
package formulas

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// CryptoDaysPerYear is the annualization factor for daily crypto data.
// Crypto markets trade every calendar day.
const CryptoDaysPerYear = 365

// ErrNonPositivePrice is returned when a log return cannot be taken.
var ErrNonPositivePrice = errors.New("non-positive price")

// PopStdDev calculates the population (biased, divide by n) standard deviation.
// A constant series is exactly 0 regardless of rounding in the mean.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 || floats.Max(data) == floats.Min(data) {
		return 0
	}
	return math.Sqrt(stat.PopVariance(data, nil))
}

// LogReturns converts closes to log returns.
// Returns[i] = ln(Price[i+1] / Price[i])
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return []float64{}, nil
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			return nil, fmt.Errorf("%w at index %d", ErrNonPositivePrice, i)
		}
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}

	return returns, nil
}

// Percentile returns the p-th percentile (p in [0, 100]) using linear
// interpolation between closest ranks: rank = p/100 * (n-1).
func Percentile(data []float64, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)

	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// NormalQuantile returns the inverse standard normal CDF at p.
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}
