// Package binance fetches daily candles from the Binance spot REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aegisos/riskengine/internal/clientdata"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Binance spot API.
	DefaultBaseURL = "https://api.binance.com"

	klinesTable = "klines"

	// closeIndex is the position of the close price within a kline row.
	closeIndex = 4
)

var (
	// ErrUnknownSymbol is returned when Binance rejects the trading pair.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrUpstream is returned for transport failures and non-200 responses.
	ErrUpstream = errors.New("binance request failed")
)

// Client for the Binance klines endpoint
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
	cacheTTL  time.Duration
}

// NewClient creates a new Binance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, cacheTTL time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = clientdata.TTLKlines
	}
	return &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log.With().Str("client", "binance").Logger(),
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
	}
}

// cachedCloses is the structure stored in the cache
type cachedCloses struct {
	Closes []float64 `msgpack:"closes"`
}

// FetchCloses returns up to limit daily close prices for pair, oldest first.
// If the API fails, stale cached closes are returned when available.
func (c *Client) FetchCloses(ctx context.Context, pair string, limit int) ([]float64, error) {
	cacheKey := fmt.Sprintf("%s|%d", pair, limit)

	if c.cacheRepo != nil {
		var cached cachedCloses
		ok, err := c.cacheRepo.GetIfFresh(klinesTable, cacheKey, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("pair", pair).Msg("Failed to read kline cache")
		} else if ok {
			c.log.Debug().Str("pair", pair).Int("closes", len(cached.Closes)).Msg("Cache hit")
			return cached.Closes, nil
		}
	}

	closes, err := c.fetchKlines(ctx, pair, limit)
	if err != nil {
		// An unknown pair stays unknown (delisted): drop its cached closes
		if errors.Is(err, ErrUnknownSymbol) {
			c.evict(cacheKey)
			return nil, err
		}
		// Transient failures fall back to stale data
		if ctx.Err() == nil {
			if stale, ok := c.getStaleFromCache(cacheKey); ok {
				c.log.Warn().
					Err(err).
					Str("pair", pair).
					Int("closes", len(stale)).
					Msg("API failed, using stale cached closes")
				return stale, nil
			}
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(klinesTable, cacheKey, cachedCloses{Closes: closes}, c.cacheTTL); err != nil {
			c.log.Warn().Err(err).Str("pair", pair).Msg("Failed to cache closes")
		}
	}

	c.log.Debug().Str("pair", pair).Int("closes", len(closes)).Msg("Fetched klines")

	return closes, nil
}

func (c *Client) fetchKlines(ctx context.Context, pair string, limit int) ([]float64, error) {
	q := url.Values{}
	q.Set("symbol", pair)
	q.Set("interval", "1d")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := c.baseURL + "/api/v3/klines?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, fmt.Errorf("%w %s: %s", ErrUnknownSymbol, pair, apiErr.Msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for %s", ErrUpstream, resp.StatusCode, pair)
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse klines for %s: %w", pair, err)
	}

	closes := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) <= closeIndex {
			return nil, fmt.Errorf("kline %d for %s has %d fields", i, pair, len(row))
		}
		v, err := parseNumber(row[closeIndex])
		if err != nil {
			return nil, fmt.Errorf("kline %d for %s: %w", i, pair, err)
		}
		closes = append(closes, v)
	}

	return closes, nil
}

// parseNumber accepts Binance's quoted decimals as well as bare JSON numbers.
func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("invalid close price %s", string(raw))
	}
	return f, nil
}

// getStaleFromCache retrieves cached closes even if expired.
func (c *Client) getStaleFromCache(cacheKey string) ([]float64, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached cachedCloses
	ok, err := c.cacheRepo.Get(klinesTable, cacheKey, &cached)
	if err != nil || !ok {
		return nil, false
	}

	return cached.Closes, true
}

// evict removes a cache entry that must never be served again.
func (c *Client) evict(cacheKey string) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Delete(klinesTable, cacheKey); err != nil {
		c.log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to evict cached closes")
	}
}
