package optimization

// Request defaults applied when a field is omitted.
const (
	DefaultRiskTolerance = 0.5
	DefaultHorizonDays   = 90
	// MinCloses is the shortest usable close series; shorter symbols are dropped.
	MinCloses = 10
)

// Holding is one position of the portfolio.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Amount   float64 `json:"amount"`
	ValueUSD float64 `json:"valueUsd"`
}

// Request is the optimization input. RiskTolerance is a pointer because zero
// is a meaningful value (most conservative).
type Request struct {
	Holdings      []Holding `json:"holdings"`
	RiskTolerance *float64  `json:"riskTolerance,omitempty"`
	HorizonDays   int       `json:"horizonDays"`
}

// Response is the optimization output.
type Response struct {
	TargetWeights   map[string]float64 `json:"targetWeights"`
	SuggestedAction Action             `json:"suggestedAction"`
	DriftPct        float64            `json:"driftPct"`
	SharpeEstimate  float64            `json:"sharpeEstimate"`
}
