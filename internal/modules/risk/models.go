package risk

// Request defaults applied when a field is omitted.
const (
	DefaultConfidence  = 0.95
	DefaultHorizonDays = 1
	// DefaultLookbackDays is the number of daily closes fetched per symbol.
	DefaultLookbackDays = 100
	// MinCloses is the shortest usable close series; shorter symbols are dropped.
	MinCloses = 30
)

// DefaultSymbols are used when a request omits the symbol list entirely.
var DefaultSymbols = []string{"BTCUSDT", "ETHUSDT"}

// Request is the VaR calculation input.
type Request struct {
	Symbols     []string `json:"symbols"`
	Confidence  *float64 `json:"confidence"` // nil when omitted; an explicit 0 is rejected
	HorizonDays int      `json:"horizonDays"`
}

// AssetRisk holds the metrics of one asset, or the reason it was dropped.
type AssetRisk struct {
	VaRPct        float64 `json:"varPct"`
	VolatilityPct float64 `json:"volatilityPct"`
	Error         string  `json:"error,omitempty"`
}

// Response is the VaR calculation output.
type Response struct {
	VaRPortfolioPct         float64              `json:"varPortfolioPct"`
	VolatilityAnnualizedPct float64              `json:"volatilityAnnualizedPct"`
	PerAsset                map[string]AssetRisk `json:"perAsset"`
}
