package formulas

import (
	"math"

	"github.com/shopspring/decimal"
)

// AnnualizedVolatility calculates annualized volatility in percent from daily returns.
// Formula: PopStdDev(daily returns) × sqrt(365) × 100
//
// Fewer than two observations yield 0.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	return PopStdDev(dailyReturns) * math.Sqrt(CryptoDaysPerYear) * 100
}

// Round rounds x to the given number of decimal places, half away from zero.
// Non-finite values are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}
