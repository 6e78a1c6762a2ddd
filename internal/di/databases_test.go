package di

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabases(t *testing.T) {
	tmpDir := t.TempDir()

	container, err := InitializeDatabases(testConfig(tmpDir, true), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container.CacheDB)
	defer container.Close()

	assert.Equal(t, "cache", container.CacheDB.Name())
	assert.FileExists(t, filepath.Join(tmpDir, "cache.db"))

	var count int
	err = container.CacheDB.Conn().QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='klines'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "klines table should exist")
}

func TestInitializeDatabases_RecreatesCorruptCache(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cache.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a database "), 512), 0o644))

	container, err := InitializeDatabases(testConfig(tmpDir, true), zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container.CacheDB)
	defer container.Close()

	assert.NoError(t, container.CacheDB.QuickCheck(context.Background()))

	_, err = container.CacheDB.Conn().Exec(
		"INSERT INTO klines (cache_key, data, expires_at) VALUES ('k', x'00', 0)",
	)
	assert.NoError(t, err)
}
