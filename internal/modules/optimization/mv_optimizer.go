package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// DefaultRiskFreeRate is the annual rate used in Sharpe ratios.
	DefaultRiskFreeRate = 0.02
	// ConservativeMaxVolatility caps annualized volatility for StrategyConservative.
	ConservativeMaxVolatility = 0.15
	// BalancedReturnBoost scales the mean expected return into the Balanced target:
	// target = mean(mu) * (1 + riskTolerance*BalancedReturnBoost).
	BalancedReturnBoost = 0.5

	// scalePenalty pins the unconstrained search vector near unit sum.
	scalePenalty = 10.0
	// targetTolerance is the accepted relative shortfall against a return target.
	targetTolerance = 1e-3
	// minPortfolioVariance guards the Sharpe ratio denominator.
	minPortfolioVariance = 1e-12

	// maxEvaluations bounds each local search.
	maxEvaluations = 20000
)

// targetPenalties weight the squared relative return shortfall in EfficientReturn.
// Each stage starts from the previous optimum, so the final weight is reached
// without handing the simplex search an ill-conditioned surface up front.
var targetPenalties = []float64{1e3, 1e5, 1e7}

// MVOptimizer performs long-only mean-variance portfolio optimization.
// Weights are found over an unconstrained vector that is projected onto the
// simplex, so every candidate is long-only and fully invested.
type MVOptimizer struct {
	riskFreeRate  float64
	maxVolatility float64
}

// NewMVOptimizer creates a new mean-variance optimizer.
func NewMVOptimizer(riskFreeRate float64) *MVOptimizer {
	return &MVOptimizer{
		riskFreeRate:  riskFreeRate,
		maxVolatility: ConservativeMaxVolatility,
	}
}

// Optimize solves the problem selected by strategy and returns raw (uncleaned)
// weights keyed by symbol. covariance rows and columns follow symbols.
//
// Objectives:
//   - conservative: minimize w'Σw, infeasible if sqrt(w'Σw) > 15%
//   - balanced: minimize w'Σw subject to μ'w ≥ mean(μ)·(1 + rt·0.5)
//   - aggressive: maximize (μ'w - r_f) / sqrt(w'Σw)
//
// Constraints:
//   - Σw = 1
//   - w_i ≥ 0
func (mvo *MVOptimizer) Optimize(
	expectedReturns map[string]float64,
	covariance mat.Symmetric,
	symbols []string,
	strategy Strategy,
	riskTolerance float64,
) (map[string]float64, error) {
	n := len(symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}
	if dim := covariance.SymmetricDim(); dim != n {
		return nil, fmt.Errorf("covariance matrix size %d doesn't match symbols count %d", dim, n)
	}

	mu := make([]float64, n)
	for i, symbol := range symbols {
		ret, ok := expectedReturns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing expected return for symbol %s", symbol)
		}
		mu[i] = ret
	}

	w, err := mvo.OptimizeVector(mu, covariance, strategy, riskTolerance)
	if err != nil {
		return nil, err
	}

	weights := make(map[string]float64, n)
	for i, symbol := range symbols {
		weights[symbol] = w[i]
	}
	return weights, nil
}

// OptimizeVector is Optimize over positional inputs; weights follow the order of mu.
func (mvo *MVOptimizer) OptimizeVector(mu []float64, sigma mat.Symmetric, strategy Strategy, riskTolerance float64) ([]float64, error) {
	if len(mu) == 0 || sigma.SymmetricDim() != len(mu) {
		return nil, fmt.Errorf("dimension mismatch: %d expected returns, %d covariance rows", len(mu), sigma.SymmetricDim())
	}

	switch strategy {
	case StrategyConservative:
		w, err := mvo.MinVolatility(sigma)
		if err != nil {
			return nil, err
		}
		if vol := math.Sqrt(PortfolioVariance(w, sigma)); vol > mvo.maxVolatility {
			return nil, fmt.Errorf("%w: minimum achievable volatility %.4f exceeds %.2f",
				ErrOptimizationInfeasible, vol, mvo.maxVolatility)
		}
		return w, nil
	case StrategyBalanced:
		target := floats.Sum(mu) / float64(len(mu)) * (1 + riskTolerance*BalancedReturnBoost)
		return mvo.EfficientReturn(mu, sigma, target)
	case StrategyAggressive:
		return mvo.MaxSharpe(mu, sigma)
	default:
		return nil, fmt.Errorf("unknown strategy: %s", strategy)
	}
}

// MinVolatility minimizes w'Σw.
func (mvo *MVOptimizer) MinVolatility(sigma mat.Symmetric) ([]float64, error) {
	return solve(sigma.SymmetricDim(), varianceObjective(sigma, nil, 0, 0))
}

// EfficientReturn minimizes w'Σw subject to μ'w ≥ target. The constraint is a
// quadratic shortfall penalty tightened over targetPenalties; a final shortfall
// beyond tolerance is infeasible.
func (mvo *MVOptimizer) EfficientReturn(mu []float64, sigma mat.Symmetric, target float64) ([]float64, error) {
	if maxMu := floats.Max(mu); target > maxMu {
		return nil, fmt.Errorf("%w: target return %.4f exceeds the highest expected return %.4f",
			ErrOptimizationInfeasible, target, maxMu)
	}

	stages := make([]weightObjective, len(targetPenalties))
	for i, penalty := range targetPenalties {
		stages[i] = varianceObjective(sigma, mu, target, penalty)
	}
	w, err := solve(len(mu), stages...)
	if err != nil {
		return nil, err
	}

	if achieved := floats.Dot(mu, w); target-achieved > targetTolerance*math.Max(1, math.Abs(target)) {
		return nil, fmt.Errorf("%w: target return %.4f not reached (achieved %.4f)",
			ErrOptimizationInfeasible, target, achieved)
	}
	return w, nil
}

// MaxSharpe maximizes (μ'w - r_f) / sqrt(w'Σw).
func (mvo *MVOptimizer) MaxSharpe(mu []float64, sigma mat.Symmetric) ([]float64, error) {
	if floats.Max(mu) <= mvo.riskFreeRate {
		return nil, fmt.Errorf("%w: no asset has expected return above the risk-free rate %.4f",
			ErrOptimizationInfeasible, mvo.riskFreeRate)
	}

	n := len(mu)
	return solve(n, weightObjective{
		value: func(w []float64) float64 {
			variance := math.Max(PortfolioVariance(w, sigma), minPortfolioVariance)
			return -(floats.Dot(mu, w) - mvo.riskFreeRate) / math.Sqrt(variance)
		},
		grad: func(dst, w []float64) {
			sw := covTimes(sigma, w)
			variance := floats.Dot(w, sw)
			excess := floats.Dot(mu, w) - mvo.riskFreeRate
			if variance <= minPortfolioVariance {
				vol := math.Sqrt(minPortfolioVariance)
				floats.ScaleTo(dst, -1/vol, mu)
				return
			}
			vol := math.Sqrt(variance)
			// -μ/σ + excess·Σw/σ³
			floats.ScaleTo(dst, -1/vol, mu)
			floats.AddScaled(dst, excess/(vol*variance), sw)
		},
	})
}

// PortfolioPerformance returns expected return, volatility and Sharpe ratio of w.
func (mvo *MVOptimizer) PortfolioPerformance(w, mu []float64, sigma mat.Symmetric) (ret, vol, sharpe float64) {
	ret = floats.Dot(mu, w)
	vol = math.Sqrt(PortfolioVariance(w, sigma))
	if vol > 0 {
		sharpe = (ret - mvo.riskFreeRate) / vol
	}
	return ret, vol, sharpe
}

// PortfolioVariance returns w'Σw.
func PortfolioVariance(w []float64, sigma mat.Symmetric) float64 {
	v := mat.NewVecDense(len(w), w)
	return mat.Inner(v, sigma, v)
}

// weightObjective is a function of long-only, fully invested weights together
// with its gradient with respect to those weights.
type weightObjective struct {
	value func(w []float64) float64
	grad  func(dst, w []float64)
}

// varianceObjective is w'Σw divided by the mean asset variance, plus
// penalty·(shortfall/max(1,|target|))² when penalty > 0, where shortfall is
// max(0, target - μ'w). Scaling keeps the variance term near unity whatever the
// asset volatility, so it is not swamped by the scale and shortfall penalties.
func varianceObjective(sigma mat.Symmetric, mu []float64, target, penalty float64) weightObjective {
	n := sigma.SymmetricDim()
	scale := 0.0
	for i := 0; i < n; i++ {
		scale += sigma.At(i, i)
	}
	scale /= float64(n)
	if !(scale > 0) || math.IsInf(scale, 0) {
		scale = 1
	}
	norm := math.Max(1, math.Abs(target))

	shortfall := func(w []float64) float64 {
		if penalty <= 0 {
			return 0
		}
		return math.Max(0, target-floats.Dot(mu, w)) / norm
	}

	return weightObjective{
		value: func(w []float64) float64 {
			sf := shortfall(w)
			return PortfolioVariance(w, sigma)/scale + penalty*sf*sf
		},
		grad: func(dst, w []float64) {
			floats.ScaleTo(dst, 2/scale, covTimes(sigma, w))
			if sf := shortfall(w); sf > 0 {
				floats.AddScaled(dst, -2*penalty*sf/norm, mu)
			}
		},
	}
}

// solve minimizes over long-only weights summing to 1. Every stage is minimized
// from the optimum of the one before. Runs start from equal weights and from
// each vertex of the simplex; the lowest value of the last stage wins.
func solve(n int, stages ...weightObjective) ([]float64, error) {
	if n == 0 {
		return nil, fmt.Errorf("no assets to optimize")
	}
	if n == 1 {
		return []float64{1}, nil
	}

	final := stages[len(stages)-1]
	var best []float64
	bestValue := math.Inf(1)

	for _, x0 := range startingPoints(n) {
		x, ok := x0, true
		for _, stage := range stages {
			if x, ok = minimizeStage(x, stage); !ok {
				break
			}
		}
		if !ok {
			continue
		}

		w := simplexWeights(projectToBounds(x))
		if v := final.value(w); v < bestValue {
			best, bestValue = w, v
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: optimization did not converge from any starting point", ErrOptimizationInfeasible)
	}
	return best, nil
}

// startingPoints returns equal weights followed by every simplex vertex.
func startingPoints(n int) [][]float64 {
	points := make([][]float64, 0, n+1)

	equal := make([]float64, n)
	for i := range equal {
		equal[i] = 1.0 / float64(n)
	}
	points = append(points, equal)

	for i := 0; i < n; i++ {
		vertex := make([]float64, n)
		vertex[i] = 1
		points = append(points, vertex)
	}
	return points
}

// minimizeStage runs Nelder-Mead from x0, then polishes its optimum with BFGS.
// The polish is kept only if it lowers the objective.
func minimizeStage(x0 []float64, obj weightObjective) ([]float64, bool) {
	problem := liftedProblem(obj)

	result, err := optimize.Minimize(problem, x0, stageSettings(), &optimize.NelderMead{})
	if err != nil || result == nil || !finite(result.X) {
		return nil, false
	}
	x, fx := result.X, problem.Func(result.X)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return nil, false
	}

	polished, err := optimize.Minimize(problem, x, stageSettings(), &optimize.BFGS{})
	if err == nil && polished != nil && finite(polished.X) {
		if fp := problem.Func(polished.X); fp < fx {
			x = polished.X
		}
	}
	return x, true
}

// liftedProblem maps obj onto the unconstrained search vector x:
//
//	F(x) = obj(p/Σp) + scalePenalty·(Σp - 1)²,  p = clamp(x, 0, 1)
//
// Clamped coordinates have zero gradient.
func liftedProblem(obj weightObjective) optimize.Problem {
	return optimize.Problem{
		Func: func(x []float64) float64 {
			p := projectToBounds(x)
			sum := floats.Sum(p)
			return obj.value(simplexWeights(p)) + scalePenalty*(sum-1)*(sum-1)
		},
		Grad: func(grad, x []float64) {
			p := projectToBounds(x)
			sum := floats.Sum(p)
			for i := range grad {
				grad[i] = 0
			}
			if sum <= 0 {
				return
			}

			w := simplexWeights(p)
			g := make([]float64, len(w))
			obj.grad(g, w)
			wg := floats.Dot(w, g)
			for i := range grad {
				if x[i] > 0 && x[i] < 1 {
					grad[i] = (g[i]-wg)/sum + 2*scalePenalty*(sum-1)
				}
			}
		},
	}
}

func stageSettings() *optimize.Settings {
	return &optimize.Settings{
		FuncEvaluations: maxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-14,
			Relative:   1e-12,
			Iterations: 300,
		},
	}
}

// covTimes returns Σw.
func covTimes(sigma mat.Symmetric, w []float64) []float64 {
	var sw mat.VecDense
	sw.MulVec(sigma, mat.NewVecDense(len(w), w))
	return sw.RawVector().Data
}

func finite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// projectToBounds clamps every coordinate into [0, 1].
func projectToBounds(x []float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0, math.Min(1, x[i]))
	}
	return proj
}

// simplexWeights normalizes non-negative values to sum to 1. An all-zero
// vector maps to equal weights.
func simplexWeights(x []float64) []float64 {
	w := make([]float64, len(x))
	sum := floats.Sum(x)
	if sum <= 0 {
		for i := range w {
			w[i] = 1.0 / float64(len(w))
		}
		return w
	}
	for i := range x {
		w[i] = x[i] / sum
	}
	return w
}
