package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/aegisos/riskengine/internal/modules/marketdata"
	"github.com/aegisos/riskengine/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// ReturnsFetcher supplies log-return series per symbol.
type ReturnsFetcher interface {
	FetchReturns(ctx context.Context, symbols []string, lookback, minCloses int) marketdata.Result
}

// Service produces target allocations and drift actions for a portfolio.
type Service struct {
	fetcher   ReturnsFetcher
	optimizer *MVOptimizer
	log       zerolog.Logger
}

// NewService creates an optimization service.
func NewService(fetcher ReturnsFetcher, optimizer *MVOptimizer, log zerolog.Logger) *Service {
	return &Service{
		fetcher:   fetcher,
		optimizer: optimizer,
		log:       log.With().Str("service", "optimization").Logger(),
	}
}

// Normalize applies defaults and validates the request.
func (r Request) Normalize() (Request, error) {
	if r.RiskTolerance == nil {
		rt := DefaultRiskTolerance
		r.RiskTolerance = &rt
	}
	if r.HorizonDays == 0 {
		r.HorizonDays = DefaultHorizonDays
	}

	if rt := *r.RiskTolerance; !(rt >= 0 && rt <= 1) {
		return r, fmt.Errorf("%w: riskTolerance must be in [0, 1], got %g", ErrInvalidRequest, rt)
	}
	if r.HorizonDays < 2 {
		return r, fmt.Errorf("%w: horizonDays must be >= 2, got %d", ErrInvalidRequest, r.HorizonDays)
	}
	for i, h := range r.Holdings {
		if h.ValueUSD > 0 && h.Symbol == "" {
			return r, fmt.Errorf("%w: holding %d has a value but no symbol", ErrInvalidRequest, i)
		}
	}
	return r, nil
}

// Optimize computes target weights for the positively valued holdings, the
// drift of the current allocation from them and the suggested action.
// Fewer than two positive holdings short-circuit to HOLD without fetching data.
func (s *Service) Optimize(ctx context.Context, req Request) (*Response, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	riskTolerance := *req.RiskTolerance

	runID := uuid.New().String()
	log := s.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	symbols := positiveSymbols(req.Holdings)
	if len(symbols) < 2 {
		weights := make(map[string]float64, len(symbols))
		for _, symbol := range symbols {
			weights[symbol] = 1.0
		}
		log.Debug().Int("holdings", len(symbols)).Msg("Nothing to optimize")
		return &Response{
			TargetWeights:   weights,
			SuggestedAction: ActionHold,
		}, nil
	}

	fetched := s.fetcher.FetchReturns(ctx, symbols, req.HorizonDays, MinCloses)

	usable := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if _, ok := fetched.Returns[symbol]; ok {
			usable = append(usable, symbol)
		}
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoData, symbols)
	}

	table, err := NewReturnsTable(fetched.Returns, usable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	mu := table.ExpectedReturns()
	sigma := table.Covariance()

	expected := make(map[string]float64, len(usable))
	for i, symbol := range usable {
		expected[symbol] = mu[i]
	}

	strategy := ClassifyRiskTolerance(riskTolerance)
	raw, err := s.optimizer.Optimize(expected, sigma, usable, strategy, riskTolerance)
	if err != nil {
		log.Warn().Err(err).Str("strategy", string(strategy)).Msg("Optimization failed")
		return nil, err
	}
	target := CleanWeights(raw)

	driftPct, action := Classify(target, CurrentWeights(req.Holdings), riskTolerance)
	sharpe := s.sharpeEstimate(mu, sigma, log)

	resp := &Response{
		TargetWeights:   target,
		SuggestedAction: action,
		DriftPct:        formulas.Round(driftPct, 2),
		SharpeEstimate:  formulas.Round(sharpe, 4),
	}

	log.Info().
		Str("strategy", string(strategy)).
		Int("holdings", len(symbols)).
		Int("usable", len(usable)).
		Int("observations", table.Rows()).
		Float64("drift_pct", resp.DriftPct).
		Str("action", string(action)).
		Dur("duration", time.Since(start)).
		Msg("Portfolio optimized")

	return resp, nil
}

// sharpeEstimate runs an independent max-Sharpe optimization. Any failure
// reports 0 rather than failing the request.
func (s *Service) sharpeEstimate(mu []float64, sigma *mat.SymDense, log zerolog.Logger) float64 {
	w, err := s.optimizer.MaxSharpe(mu, sigma)
	if err != nil {
		log.Debug().Err(err).Msg("Sharpe estimate unavailable")
		return 0
	}
	_, _, sharpe := s.optimizer.PortfolioPerformance(w, mu, sigma)
	return sharpe
}

// positiveSymbols returns the distinct symbols with a positive value, in request order.
func positiveSymbols(holdings []Holding) []string {
	seen := make(map[string]bool, len(holdings))
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		if h.Symbol == "" || !(h.ValueUSD > 0) || seen[h.Symbol] {
			continue
		}
		seen[h.Symbol] = true
		symbols = append(symbols, h.Symbol)
	}
	return symbols
}
