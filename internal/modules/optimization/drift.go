package optimization

import "math"

// Action is the suggested response to allocation drift.
type Action string

const (
	ActionRebalance Action = "REBALANCE"
	ActionHold      Action = "HOLD"
	// ActionReduceRisk and ActionIncreaseExposure are part of the response
	// vocabulary but no rule currently produces them.
	ActionReduceRisk       Action = "REDUCE_RISK"
	ActionIncreaseExposure Action = "INCREASE_EXPOSURE"
)

// Drift thresholds in percent.
const (
	RebalanceDriftPct    = 15.0
	ConservativeDriftPct = 5.0
)

// CurrentWeights returns value/total for holdings with a positive value.
// Repeated symbols are summed. An empty or zero-valued portfolio yields no weights.
func CurrentWeights(holdings []Holding) map[string]float64 {
	var total float64
	values := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		if h.Symbol == "" || !(h.ValueUSD > 0) {
			continue
		}
		values[h.Symbol] += h.ValueUSD
		total += h.ValueUSD
	}

	weights := make(map[string]float64, len(values))
	if total <= 0 {
		return weights
	}
	for symbol, v := range values {
		weights[symbol] = v / total
	}
	return weights
}

// Classify measures drift over the target's symbols only and picks an action.
// Current holdings absent from the target do not add to the drift.
func Classify(target, current map[string]float64, riskTolerance float64) (float64, Action) {
	var drift float64
	for symbol, tw := range target {
		drift += math.Abs(tw - current[symbol])
	}
	driftPct := drift * 100

	switch {
	case driftPct > RebalanceDriftPct:
		return driftPct, ActionRebalance
	case riskTolerance < ConservativeBelow && driftPct > ConservativeDriftPct:
		return driftPct, ActionRebalance
	default:
		return driftPct, ActionHold
	}
}
