package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InMemoryAppliesCacheSchema(t *testing.T) {
	db, err := New(Config{Path: ":memory:", Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='klines'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "klines", name)
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestNew_FileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.Equal(t, "cache", db.Name())
	assert.FileExists(t, path)
}

func TestBuildConnectionString(t *testing.T) {
	connStr := buildConnectionString("/tmp/cache.db", ProfileCache, false)
	assert.Contains(t, connStr, "/tmp/cache.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, connStr, "synchronous(OFF)")

	memStr := buildConnectionString(":memory:", ProfileStandard, true)
	assert.NotContains(t, memStr, "journal_mode")
	assert.Contains(t, memStr, "synchronous(NORMAL)")
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := New(Config{Path: ":memory:", Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO klines (cache_key, data, expires_at) VALUES ('k', x'00', 1)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM klines`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NilDB(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}
