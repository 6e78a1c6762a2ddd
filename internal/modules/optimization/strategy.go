package optimization

// Strategy is the optimization objective chosen from a risk tolerance.
type Strategy string

const (
	// StrategyConservative minimizes variance under a volatility cap.
	StrategyConservative Strategy = "conservative"
	// StrategyBalanced minimizes variance for a tolerance-scaled return target.
	StrategyBalanced Strategy = "balanced"
	// StrategyAggressive maximizes the Sharpe ratio.
	StrategyAggressive Strategy = "aggressive"
)

// Risk tolerance boundaries. Both boundary values themselves are Balanced.
const (
	ConservativeBelow = 0.3
	AggressiveAbove   = 0.7
)

// ClassifyRiskTolerance maps a tolerance in [0, 1] to a strategy.
func ClassifyRiskTolerance(riskTolerance float64) Strategy {
	switch {
	case riskTolerance < ConservativeBelow:
		return StrategyConservative
	case riskTolerance > AggressiveAbove:
		return StrategyAggressive
	default:
		return StrategyBalanced
	}
}
