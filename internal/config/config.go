// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir          string // Directory of the kline cache database (always absolute)
	BinanceBaseURL   string
	LogLevel         string
	Port             int
	DevMode          bool
	FetchConcurrency int
	RiskFreeRate     float64
	VaRLookbackDays  int
	Cache            CacheConfig
}

// CacheConfig controls the upstream kline cache
type CacheConfig struct {
	Enabled         bool
	TTL             time.Duration
	CleanupSchedule string // cron expression, e.g. "@hourly"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		BinanceBaseURL:   getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("GO_PORT", 5001),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		FetchConcurrency: getEnvAsInt("FETCH_CONCURRENCY", 8),
		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 0.02),
		VaRLookbackDays:  getEnvAsInt("VAR_LOOKBACK_DAYS", 100),
		Cache: CacheConfig{
			Enabled:         getEnvAsBool("CACHE_ENABLED", true),
			TTL:             time.Duration(getEnvAsInt("KLINE_CACHE_TTL_MINUTES", 10)) * time.Minute,
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT out of range: %d", c.Port)
	}
	if c.BinanceBaseURL == "" {
		return fmt.Errorf("BINANCE_BASE_URL must not be empty")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be >= 1, got %d", c.FetchConcurrency)
	}
	if c.RiskFreeRate < 0 || c.RiskFreeRate >= 1 {
		return fmt.Errorf("RISK_FREE_RATE must be in [0, 1), got %g", c.RiskFreeRate)
	}
	// The VaR path drops any series shorter than 30 closes
	if c.VaRLookbackDays < 30 || c.VaRLookbackDays > 1000 {
		return fmt.Errorf("VAR_LOOKBACK_DAYS must be in [30, 1000], got %d", c.VaRLookbackDays)
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("KLINE_CACHE_TTL_MINUTES must be positive")
		}
		if c.Cache.CleanupSchedule == "" {
			return fmt.Errorf("CACHE_CLEANUP_SCHEDULE must not be empty when the cache is enabled")
		}
	}
	return nil
}

// CachePath returns the kline cache database path
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
