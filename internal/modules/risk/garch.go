package risk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// VolatilityModel forecasts the next-period conditional standard deviation of a
// return series, in the same units as the input.
type VolatilityModel interface {
	ForecastStdDev(returns []float64) (float64, error)
}

// GARCHParams are the fitted GARCH(1,1) parameters with a constant mean:
//
//	r_t = Mu + e_t,  e_t ~ N(0, s2_t)
//	s2_t = Omega + Alpha*e_{t-1}^2 + Beta*s2_{t-1}
type GARCHParams struct {
	Mu    float64
	Omega float64
	Alpha float64
	Beta  float64
}

// Persistence is Alpha+Beta; the model is covariance-stationary below 1.
func (p GARCHParams) Persistence() float64 {
	return p.Alpha + p.Beta
}

func (p GARCHParams) valid() bool {
	return p.Omega > 0 && p.Alpha >= 0 && p.Beta >= 0 && p.Persistence() < 1 &&
		!math.IsNaN(p.Mu) && !math.IsInf(p.Mu, 0)
}

// GARCHFit is a fitted model together with its one-step-ahead variance forecast.
type GARCHFit struct {
	Params           GARCHParams
	LogLikelihood    float64
	ForecastVariance float64
}

const (
	// minVariance below this the series has no variation to model.
	minVariance = 1e-12
	// invalidNLL is returned for parameters outside the admissible region.
	invalidNLL = 1e10
)

// GARCHModel fits GARCH(1,1) with normal innovations by maximum likelihood.
type GARCHModel struct {
	// MaxEvaluations caps likelihood evaluations; reaching it counts as non-convergence.
	MaxEvaluations int
}

// NewGARCHModel creates a GARCH(1,1) model with default limits.
func NewGARCHModel() *GARCHModel {
	return &GARCHModel{MaxEvaluations: 20000}
}

// ForecastStdDev fits the model and returns the one-step-ahead conditional standard deviation.
func (m *GARCHModel) ForecastStdDev(returns []float64) (float64, error) {
	fit, err := m.Fit(returns)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(fit.ForecastVariance), nil
}

// Fit estimates the parameters. The series is standardized before optimization so
// the simplex works on unit-scale parameters; results are mapped back to input units.
func (m *GARCHModel) Fit(returns []float64) (*GARCHFit, error) {
	n := len(returns)
	if n < 3 {
		return nil, fmt.Errorf("%w: %d observations", ErrModelFit, n)
	}

	mean, variance := stat.MeanVariance(returns, nil)
	if !(variance > minVariance) || math.IsInf(variance, 0) {
		return nil, fmt.Errorf("%w: insufficient variation (variance %g)", ErrModelFit, variance)
	}
	scale := math.Sqrt(variance)

	z := make([]float64, n)
	for i, r := range returns {
		z[i] = (r - mean) / scale
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			nll, _ := garchNegLogLikelihood(z, paramsFromVector(x))
			return nll
		},
	}

	// Typical daily crypto persistence as the starting point
	initial := []float64{0, 0.1, 0.1, 0.8}

	settings := &optimize.Settings{
		FuncEvaluations: m.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-9,
			Relative:   1e-9,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
	}
	if !converged(result.Status) {
		return nil, fmt.Errorf("%w: did not converge (status=%v)", ErrModelFit, result.Status)
	}

	std := paramsFromVector(result.X)
	if !std.valid() {
		return nil, fmt.Errorf("%w: parameters outside stationary region %+v", ErrModelFit, std)
	}

	nll, lastVar := garchNegLogLikelihood(z, std)
	if nll >= invalidNLL || math.IsNaN(nll) {
		return nil, fmt.Errorf("%w: non-finite likelihood", ErrModelFit)
	}

	lastResid := z[n-1] - std.Mu
	forecast := std.Omega + std.Alpha*lastResid*lastResid + std.Beta*lastVar
	if !(forecast > 0) || math.IsInf(forecast, 0) {
		return nil, fmt.Errorf("%w: degenerate variance forecast %g", ErrModelFit, forecast)
	}

	// Map standardized parameters back to the input scale
	return &GARCHFit{
		Params: GARCHParams{
			Mu:    mean + scale*std.Mu,
			Omega: variance * std.Omega,
			Alpha: std.Alpha,
			Beta:  std.Beta,
		},
		LogLikelihood:    -nll - float64(n)*math.Log(scale),
		ForecastVariance: variance * forecast,
	}, nil
}

func paramsFromVector(x []float64) GARCHParams {
	return GARCHParams{Mu: x[0], Omega: x[1], Alpha: x[2], Beta: x[3]}
}

// garchNegLogLikelihood returns the Gaussian negative log-likelihood and the
// conditional variance of the last observation. The recursion starts from the
// sample variance of the residuals.
func garchNegLogLikelihood(r []float64, p GARCHParams) (float64, float64) {
	if !p.valid() {
		return invalidNLL, 0
	}

	n := len(r)
	var backcast float64
	for _, v := range r {
		e := v - p.Mu
		backcast += e * e
	}
	backcast /= float64(n)

	s2 := backcast
	var sum float64
	for t := 0; t < n; t++ {
		if t > 0 {
			prev := r[t-1] - p.Mu
			s2 = p.Omega + p.Alpha*prev*prev + p.Beta*s2
		}
		if !(s2 > 0) || math.IsInf(s2, 0) {
			return invalidNLL, 0
		}
		e := r[t] - p.Mu
		sum += math.Log(s2) + e*e/s2
	}

	nll := 0.5 * (float64(n)*math.Log(2*math.Pi) + sum)
	if math.IsNaN(nll) || math.IsInf(nll, 0) {
		return invalidNLL, 0
	}
	return nll, s2
}

func converged(status optimize.Status) bool {
	switch status {
	case optimize.Success,
		optimize.FunctionConvergence,
		optimize.GradientThreshold,
		optimize.MethodConverge:
		return true
	}
	return false
}
