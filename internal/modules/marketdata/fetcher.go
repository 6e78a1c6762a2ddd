package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aegisos/riskengine/pkg/formulas"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrDataUnavailable marks a symbol whose series could not be used.
// It is never fatal on its own: the symbol is dropped from downstream computation.
var ErrDataUnavailable = errors.New("data unavailable")

// DefaultConcurrency bounds parallel upstream requests per call.
const DefaultConcurrency = 8

// CloseProvider returns daily closes for a trading pair, oldest first.
type CloseProvider interface {
	FetchCloses(ctx context.Context, pair string, limit int) ([]float64, error)
}

// Result holds the usable return series and per-symbol failures of one fetch.
// Both maps are keyed by the symbol as requested.
type Result struct {
	Returns  map[string][]float64
	Failures map[string]error
}

// Fetcher fans out close-price requests and converts them to log returns.
type Fetcher struct {
	provider    CloseProvider
	concurrency int
	log         zerolog.Logger
}

// NewFetcher creates a fetcher. concurrency <= 0 uses DefaultConcurrency.
func NewFetcher(provider CloseProvider, concurrency int, log zerolog.Logger) *Fetcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{
		provider:    provider,
		concurrency: concurrency,
		log:         log.With().Str("component", "marketdata").Logger(),
	}
}

// FetchReturns fetches lookback closes for every symbol concurrently and returns
// their log returns. A symbol fails independently (ErrDataUnavailable) when the
// provider errors, fewer than minCloses closes arrive, or a price is non-positive.
// Sibling fetches are never cancelled by a failure.
func (f *Fetcher) FetchReturns(ctx context.Context, symbols []string, lookback, minCloses int) Result {
	res := Result{
		Returns:  make(map[string][]float64, len(symbols)),
		Failures: make(map[string]error),
	}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(f.concurrency)

	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		symbol := symbol
		g.Go(func() error {
			returns, err := f.fetchOne(ctx, symbol, lookback, minCloses)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.log.Warn().Err(err).Str("symbol", symbol).Msg("Dropping symbol")
				res.Failures[symbol] = err
				return nil
			}
			res.Returns[symbol] = returns
			return nil
		})
	}
	_ = g.Wait()

	f.log.Debug().
		Int("requested", len(seen)).
		Int("usable", len(res.Returns)).
		Int("failed", len(res.Failures)).
		Msg("Fetched return series")

	return res
}

func (f *Fetcher) fetchOne(ctx context.Context, symbol string, lookback, minCloses int) ([]float64, error) {
	pair := ResolvePair(symbol)

	closes, err := f.provider.FetchCloses(ctx, pair, lookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, pair, err)
	}
	if len(closes) < minCloses {
		return nil, fmt.Errorf("%w: %s: only %d closes (need %d)", ErrDataUnavailable, pair, len(closes), minCloses)
	}

	returns, err := formulas.LogReturns(closes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, pair, err)
	}

	return returns, nil
}
