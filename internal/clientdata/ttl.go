package clientdata

import "time"

// TTL constants for cached upstream responses.
const (
	// TTLKlines covers daily candles: the last candle is still forming, so keep it short.
	TTLKlines = 10 * time.Minute
)
