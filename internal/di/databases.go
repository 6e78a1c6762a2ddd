// Package di provides dependency injection for database connections.
package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aegisos/riskengine/internal/config"
	"github.com/aegisos/riskengine/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens the kline cache database when caching is enabled
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if !cfg.Cache.Enabled {
		log.Info().Msg("Kline cache disabled, skipping cache database")
		return container, nil
	}

	// cache.db - Ephemeral upstream responses (safe to delete at any time)
	cacheDB, err := openCacheDB(cfg.CachePath(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	log.Info().Str("path", cacheDB.Path()).Msg("Cache database initialized")

	return container, nil
}

// openCacheDB opens the cache database, recreating the file once if it cannot
// be opened or fails its integrity check. It only holds refetchable klines.
func openCacheDB(path string, log zerolog.Logger) (*database.DB, error) {
	db, err := openCheckedCacheDB(path)
	if err == nil {
		return db, nil
	}

	log.Warn().Err(err).Str("path", path).Msg("Cache database unusable, recreating")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if rmErr := os.Remove(path + suffix); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("failed to remove %s: %w", path+suffix, rmErr)
		}
	}

	return openCheckedCacheDB(path)
}

func openCheckedCacheDB(path string) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    path,
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.QuickCheck(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
