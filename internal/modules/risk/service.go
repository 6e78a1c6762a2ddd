package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/aegisos/riskengine/internal/modules/marketdata"
	"github.com/aegisos/riskengine/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReturnsFetcher supplies log-return series per symbol.
type ReturnsFetcher interface {
	FetchReturns(ctx context.Context, symbols []string, lookback, minCloses int) marketdata.Result
}

// Service orchestrates VaR and volatility for a request.
type Service struct {
	fetcher      ReturnsFetcher
	calculator   *Calculator
	lookbackDays int
	log          zerolog.Logger
}

// NewService creates a risk service. lookbackDays <= 0 uses DefaultLookbackDays.
func NewService(fetcher ReturnsFetcher, calculator *Calculator, lookbackDays int, log zerolog.Logger) *Service {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Service{
		fetcher:      fetcher,
		calculator:   calculator,
		lookbackDays: lookbackDays,
		log:          log.With().Str("service", "risk").Logger(),
	}
}

// Normalize applies defaults and validates the request.
// A nil symbol list takes DefaultSymbols; an explicit empty list is kept and
// yields ErrNoData later.
func (r Request) Normalize() (Request, error) {
	if r.Symbols == nil {
		r.Symbols = append([]string(nil), DefaultSymbols...)
	}
	if r.Confidence == nil {
		c := DefaultConfidence
		r.Confidence = &c
	}
	if r.HorizonDays == 0 {
		r.HorizonDays = DefaultHorizonDays
	}

	if c := *r.Confidence; !(c > 0 && c < 1) {
		return r, fmt.Errorf("%w: confidence must be in (0, 1), got %g", ErrInvalidRequest, c)
	}
	if r.HorizonDays < 1 {
		return r, fmt.Errorf("%w: horizonDays must be >= 1, got %d", ErrInvalidRequest, r.HorizonDays)
	}
	return r, nil
}

// Calculate computes per-asset and portfolio metrics. Symbols that cannot be
// fetched are reported inline in PerAsset; if none remain the result is ErrNoData.
// VaR is one-period at the requested confidence; horizonDays is validated only.
func (s *Service) Calculate(ctx context.Context, req Request) (*Response, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	confidence := *req.Confidence

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	fetched := s.fetcher.FetchReturns(ctx, req.Symbols, s.lookbackDays, MinCloses)

	resp := &Response{PerAsset: make(map[string]AssetRisk, len(req.Symbols))}
	series := make([][]float64, 0, len(fetched.Returns))

	for _, symbol := range req.Symbols {
		if _, done := resp.PerAsset[symbol]; done {
			continue
		}
		if ferr, failed := fetched.Failures[symbol]; failed {
			resp.PerAsset[symbol] = AssetRisk{Error: ferr.Error()}
			continue
		}
		returns, ok := fetched.Returns[symbol]
		if !ok {
			continue
		}

		series = append(series, returns)
		resp.PerAsset[symbol] = AssetRisk{
			VaRPct:        formulas.Round(s.calculator.ValueAtRisk(returns, confidence), 4),
			VolatilityPct: formulas.Round(formulas.AnnualizedVolatility(returns), 2),
		}
	}

	portfolio, err := AggregateReturns(series)
	if err != nil {
		log.Warn().Strs("symbols", req.Symbols).Msg("No usable data for any symbol")
		return nil, fmt.Errorf("%w: %v", ErrNoData, req.Symbols)
	}

	resp.VaRPortfolioPct = formulas.Round(s.calculator.ValueAtRisk(portfolio, confidence), 4)
	resp.VolatilityAnnualizedPct = formulas.Round(formulas.AnnualizedVolatility(portfolio), 2)

	log.Info().
		Int("symbols", len(req.Symbols)).
		Int("usable", len(series)).
		Int("observations", len(portfolio)).
		Float64("confidence", confidence).
		Float64("var_pct", resp.VaRPortfolioPct).
		Dur("duration", time.Since(start)).
		Msg("VaR calculated")

	return resp, nil
}
