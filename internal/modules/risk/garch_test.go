package risk

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulateGARCH draws percent returns from a GARCH(1,1) process.
func simulateGARCH(n int, p GARCHParams, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	s2 := p.Omega / (1 - p.Persistence())
	out := make([]float64, n)
	var prev float64
	for i := range out {
		if i > 0 {
			s2 = p.Omega + p.Alpha*prev*prev + p.Beta*s2
		}
		e := math.Sqrt(s2) * rng.NormFloat64()
		out[i] = p.Mu + e
		prev = e
	}
	return out
}

func TestGARCHModel_FitSimulatedSeries(t *testing.T) {
	truth := GARCHParams{Mu: 0.05, Omega: 0.2, Alpha: 0.1, Beta: 0.85}
	returns := simulateGARCH(1500, truth, 42)

	fit, err := NewGARCHModel().Fit(returns)
	require.NoError(t, err)

	assert.Greater(t, fit.Params.Omega, 0.0)
	assert.GreaterOrEqual(t, fit.Params.Alpha, 0.0)
	assert.GreaterOrEqual(t, fit.Params.Beta, 0.0)
	assert.Less(t, fit.Params.Persistence(), 1.0)
	assert.Greater(t, fit.Params.Persistence(), 0.5)
	assert.False(t, math.IsNaN(fit.LogLikelihood))

	// Unconditional std of the true process is 2; the forecast stays in that neighbourhood
	sigma := math.Sqrt(fit.ForecastVariance)
	assert.Greater(t, sigma, 0.5)
	assert.Less(t, sigma, 8.0)
}

func TestGARCHModel_ForecastIsScaleEquivariant(t *testing.T) {
	returns := simulateGARCH(500, GARCHParams{Omega: 0.1, Alpha: 0.08, Beta: 0.9}, 7)
	scaled := make([]float64, len(returns))
	for i, r := range returns {
		scaled[i] = r * 10
	}

	model := NewGARCHModel()
	base, err := model.ForecastStdDev(returns)
	require.NoError(t, err)
	big, err := model.ForecastStdDev(scaled)
	require.NoError(t, err)

	assert.InDelta(t, base*10, big, base*1e-3)
}

func TestGARCHModel_ConstantSeriesFails(t *testing.T) {
	returns := make([]float64, 50)
	for i := range returns {
		returns[i] = 0.5
	}

	_, err := NewGARCHModel().ForecastStdDev(returns)
	assert.ErrorIs(t, err, ErrModelFit)
}

func TestGARCHModel_TooShortFails(t *testing.T) {
	_, err := NewGARCHModel().Fit([]float64{1, -1})
	assert.ErrorIs(t, err, ErrModelFit)
}

func TestGARCHNegLogLikelihood_RejectsNonStationary(t *testing.T) {
	r := simulateGARCH(100, GARCHParams{Omega: 0.1, Alpha: 0.1, Beta: 0.8}, 3)

	nll, _ := garchNegLogLikelihood(r, GARCHParams{Omega: 0.1, Alpha: 0.5, Beta: 0.5})
	assert.Equal(t, invalidNLL, nll)

	nll, _ = garchNegLogLikelihood(r, GARCHParams{Omega: -0.1, Alpha: 0.1, Beta: 0.8})
	assert.Equal(t, invalidNLL, nll)

	nll, last := garchNegLogLikelihood(r, GARCHParams{Omega: 0.1, Alpha: 0.1, Beta: 0.8})
	assert.Less(t, nll, invalidNLL)
	assert.Greater(t, last, 0.0)
}

func TestValueAtRisk_WithGARCH(t *testing.T) {
	returns := simulateGARCH(99, GARCHParams{Omega: 0.3, Alpha: 0.1, Beta: 0.8}, 11)
	for i := range returns {
		returns[i] /= 100
	}
	calc := NewCalculator(nil, zerolog.Nop())

	v := calc.ValueAtRisk(returns, 0.95)

	assert.Greater(t, v, 0.0)
	assert.False(t, math.IsInf(v, 0))
}
