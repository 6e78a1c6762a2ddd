// Package di provides dependency injection for services.
package di

import (
	"fmt"

	"github.com/aegisos/riskengine/internal/clientdata"
	"github.com/aegisos/riskengine/internal/clients/binance"
	"github.com/aegisos/riskengine/internal/config"
	"github.com/aegisos/riskengine/internal/modules/marketdata"
	"github.com/aegisos/riskengine/internal/modules/optimization"
	"github.com/aegisos/riskengine/internal/modules/risk"
	"github.com/rs/zerolog"
)

// InitializeServices creates the clients and services in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	if container.CacheDB != nil {
		container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())
	}

	// Binance client (cache repository may be nil)
	container.BinanceClient = binance.NewClient(cfg.BinanceBaseURL, container.ClientDataRepo, cfg.Cache.TTL, log)

	// Shared fetcher for both request paths
	container.Fetcher = marketdata.NewFetcher(container.BinanceClient, cfg.FetchConcurrency, log)

	// VaR: GARCH(1,1) with historical fallback
	container.VaRCalculator = risk.NewCalculator(risk.NewGARCHModel(), log)
	container.RiskService = risk.NewService(container.Fetcher, container.VaRCalculator, cfg.VaRLookbackDays, log)

	// Mean-variance optimization
	container.MVOptimizer = optimization.NewMVOptimizer(cfg.RiskFreeRate)
	container.OptimizationService = optimization.NewService(container.Fetcher, container.MVOptimizer, log)

	log.Info().Msg("Services initialized")

	return nil
}
