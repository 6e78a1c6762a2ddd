// Package marketdata turns upstream daily closes into aligned log-return series.
package marketdata

import "strings"

const (
	// QuoteAsset is the quote currency every pair is priced in.
	QuoteAsset = "USDT"
	// StableReferencePair prices the quote asset itself, since USDTUSDT does not exist.
	StableReferencePair = "BTCUSDT"
)

// ResolvePair maps a request symbol to the trading pair sent upstream.
//
//	USDT     -> BTCUSDT
//	BTC      -> BTCUSDT
//	BTCUSDT  -> BTCUSDT (already a pair)
func ResolvePair(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case s == QuoteAsset:
		return StableReferencePair
	case strings.HasSuffix(s, QuoteAsset):
		return s
	default:
		return s + QuoteAsset
	}
}
