package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/aegisos/riskengine/pkg/formulas"
	"github.com/rs/zerolog"
)

// MinParametricObservations is the shortest series the conditional model is fitted on.
const MinParametricObservations = 30

// Calculator computes VaR from daily log returns. Results are positive percentages.
type Calculator struct {
	model VolatilityModel
	log   zerolog.Logger
}

// NewCalculator creates a calculator. A nil model uses GARCH(1,1).
func NewCalculator(model VolatilityModel, log zerolog.Logger) *Calculator {
	if model == nil {
		model = NewGARCHModel()
	}
	return &Calculator{
		model: model,
		log:   log.With().Str("component", "var_calculator").Logger(),
	}
}

// HistoricalVaR is |(1-confidence) percentile| of the percent-scaled returns.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return math.Abs(formulas.Percentile(toPercent(returns), (1-confidence)*100))
}

// ParametricVaR fits the volatility model on percent-scaled returns and returns
// |z*sigma| for the one-step-ahead forecast. Any failure wraps ErrModelFit.
func (c *Calculator) ParametricVaR(returns []float64, confidence float64) (float64, error) {
	if len(returns) < MinParametricObservations {
		return 0, fmt.Errorf("%w: need %d observations, have %d",
			ErrModelFit, MinParametricObservations, len(returns))
	}

	sigma, err := c.model.ForecastStdDev(toPercent(returns))
	if err != nil {
		if errors.Is(err, ErrModelFit) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", ErrModelFit, err)
	}
	if !(sigma >= 0) || math.IsInf(sigma, 0) {
		return 0, fmt.Errorf("%w: invalid forecast %g", ErrModelFit, sigma)
	}

	z := formulas.NormalQuantile(1 - confidence)
	return math.Abs(z * sigma), nil
}

// ValueAtRisk prefers the parametric estimate when enough observations exist and
// falls back to the historical estimate otherwise. It never fails.
func (c *Calculator) ValueAtRisk(returns []float64, confidence float64) float64 {
	historical := HistoricalVaR(returns, confidence)
	if len(returns) < MinParametricObservations {
		return historical
	}

	parametric, err := c.ParametricVaR(returns, confidence)
	if err != nil {
		c.log.Debug().
			Err(err).
			Int("observations", len(returns)).
			Msg("Falling back to historical VaR")
		return historical
	}
	return parametric
}

func toPercent(returns []float64) []float64 {
	pct := make([]float64, len(returns))
	for i, r := range returns {
		pct[i] = r * 100
	}
	return pct
}
