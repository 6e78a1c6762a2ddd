package di

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterJobs(t *testing.T) {
	cfg := testConfig(t.TempDir(), true)
	log := zerolog.Nop()

	container, err := InitializeDatabases(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	require.NoError(t, InitializeServices(container, cfg, log))

	instances, err := RegisterJobs(container, cfg, log)
	require.NoError(t, err)

	require.NotNil(t, instances.CacheCleanup)
	assert.Equal(t, "client_data_cleanup", instances.CacheCleanup.Name())
	assert.Equal(t, []string{"client_data_cleanup"}, container.Scheduler.Names())

	// Manual trigger against an empty cache is a no-op
	assert.NoError(t, container.Scheduler.RunNow(instances.CacheCleanup.Name()))
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t.TempDir(), true), zerolog.Nop())
	assert.Error(t, err)
}
