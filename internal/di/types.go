/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is created by Wire() and passed to the server for access to services.
 */
package di

import (
	"github.com/aegisos/riskengine/internal/clientdata"
	"github.com/aegisos/riskengine/internal/clients/binance"
	"github.com/aegisos/riskengine/internal/database"
	"github.com/aegisos/riskengine/internal/modules/marketdata"
	"github.com/aegisos/riskengine/internal/modules/optimization"
	"github.com/aegisos/riskengine/internal/modules/risk"
	"github.com/aegisos/riskengine/internal/scheduler"
)

/**
 * Container holds all dependencies for the application.
 *
 * Architecture:
 * - Databases: a single cache database for upstream kline responses (optional)
 * - Clients: Binance klines client with TTL cache and stale fallback
 * - Services: VaR calculation and portfolio optimization
 * - Scheduler: cron-driven cache maintenance
 */
type Container struct {
	// Databases
	CacheDB *database.DB // Upstream response cache; nil when caching is disabled

	// Repositories
	ClientDataRepo *clientdata.Repository // Kline cache access; nil when caching is disabled

	// Clients
	BinanceClient *binance.Client // Daily closes from the Binance spot API

	// Services
	Fetcher             *marketdata.Fetcher   // Concurrent close fetch and log-return conversion
	VaRCalculator       *risk.Calculator      // GARCH VaR with historical fallback
	RiskService         *risk.Service         // POST /var
	MVOptimizer         *optimization.MVOptimizer
	OptimizationService *optimization.Service // POST /optimize

	// Background jobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to registered jobs for manual triggering
type JobInstances struct {
	CacheCleanup *clientdata.CleanupJob // nil when caching is disabled
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.CacheDB != nil {
		return c.CacheDB.Close()
	}
	return nil
}
