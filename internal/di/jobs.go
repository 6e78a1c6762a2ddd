// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/aegisos/riskengine/internal/clientdata"
	"github.com/aegisos/riskengine/internal/config"
	"github.com/aegisos/riskengine/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers maintenance jobs.
// Returns JobInstances for manual triggering.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}
	container.Scheduler = scheduler.New(log)

	// Expired kline cleanup (only with a cache database)
	if container.ClientDataRepo != nil {
		instances.CacheCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)
		if err := container.Scheduler.AddJob(cfg.Cache.CleanupSchedule, instances.CacheCleanup); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", instances.CacheCleanup.Name(), err)
		}
	}

	log.Info().Strs("jobs", container.Scheduler.Names()).Msg("Jobs registered")

	return instances, nil
}
