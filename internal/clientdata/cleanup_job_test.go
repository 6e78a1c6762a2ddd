package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	job := NewCleanupJob(NewRepository(setupTestDB(t)), zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := time.Now()
	repo.now = func() time.Time { return base.Add(-time.Hour) }
	require.NoError(t, repo.Store("klines", "expired", cachedCloses{Closes: []float64{1}}, time.Minute))
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Store("klines", "fresh", cachedCloses{Closes: []float64{2}}, time.Hour))

	job := NewCleanupJob(repo, zerolog.Nop())
	require.NoError(t, job.Run())

	ok, err := repo.Get("klines", "expired", &cachedCloses{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Get("klines", "fresh", &cachedCloses{})
	require.NoError(t, err)
	assert.True(t, ok)
}
