package optimization

import "github.com/aegisos/riskengine/pkg/formulas"

const (
	// WeightDecimals is the precision of reported weights.
	WeightDecimals = 4
	// MinReportedWeight drops dust allocations. Remaining weights are not renormalized.
	MinReportedWeight = 0.001
)

// CleanWeights rounds weights to WeightDecimals and drops entries <= MinReportedWeight.
func CleanWeights(weights map[string]float64) map[string]float64 {
	cleaned := make(map[string]float64, len(weights))
	for symbol, w := range weights {
		rounded := formulas.Round(w, WeightDecimals)
		if rounded > MinReportedWeight {
			cleaned[symbol] = rounded
		}
	}
	return cleaned
}
