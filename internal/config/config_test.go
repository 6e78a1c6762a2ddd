package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "https://api.binance.com", cfg.BinanceBaseURL)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 0.02, cfg.RiskFreeRate)
	assert.Equal(t, 100, cfg.VaRLookbackDays)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "@hourly", cfg.Cache.CleanupSchedule)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CachePath())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "6000")
	t.Setenv("RISK_FREE_RATE", "0.035")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("KLINE_CACHE_TTL_MINUTES", "3")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, 0.035, cfg.RiskFreeRate)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 3*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.DevMode)
}

func TestLoad_MalformedValueFallsBackToDefault(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5001, cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			BinanceBaseURL:   "https://api.binance.com",
			Port:             5001,
			FetchConcurrency: 8,
			RiskFreeRate:     0.02,
			VaRLookbackDays:  100,
			Cache:            CacheConfig{Enabled: true, TTL: time.Minute, CleanupSchedule: "@hourly"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"base url", func(c *Config) { c.BinanceBaseURL = "" }},
		{"concurrency", func(c *Config) { c.FetchConcurrency = 0 }},
		{"risk free rate", func(c *Config) { c.RiskFreeRate = -0.01 }},
		{"lookback", func(c *Config) { c.VaRLookbackDays = 20 }},
		{"ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"schedule", func(c *Config) { c.Cache.CleanupSchedule = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
