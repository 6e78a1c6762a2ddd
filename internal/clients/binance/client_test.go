package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aegisos/riskengine/internal/clientdata"
	"github.com/aegisos/riskengine/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesBody = `[
	[1700000000000, "100.0", "101.0", "99.0", "100.5", "10", 1700086399999, "1000", 5, "5", "500", "0"],
	[1700086400000, "100.5", "103.0", "100.0", "102.25", "12", 1700172799999, "1200", 6, "6", "600", "0"],
	[1700172800000, "102.25", "104.0", "101.0", 103.75, "9", 1700259199999, "900", 4, "4", "400", "0"]
]`

func newCacheRepo(t *testing.T) *clientdata.Repository {
	db, err := database.New(database.Config{Path: ":memory:", Profile: database.ProfileCache, Name: "cache"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return clientdata.NewRepository(db.Conn())
}

func TestFetchCloses_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, 0, zerolog.Nop())
	closes, err := client.FetchCloses(context.Background(), "BTCUSDT", 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 102.25, 103.75}, closes)
}

func TestFetchCloses_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, 0, zerolog.Nop())
	_, err := client.FetchCloses(context.Background(), "NOPEUSDT", 100)
	require.ErrorIs(t, err, ErrUnknownSymbol)
	assert.Contains(t, err.Error(), "Invalid symbol.")
}

func TestFetchCloses_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, 0, zerolog.Nop())
	_, err := client.FetchCloses(context.Background(), "BTCUSDT", 100)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFetchCloses_MalformedRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[[1, "2", "3"]]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, 0, zerolog.Nop())
	_, err := client.FetchCloses(context.Background(), "BTCUSDT", 100)
	assert.Error(t, err)
}

func TestFetchCloses_UsesFreshCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(klinesBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, newCacheRepo(t), time.Hour, zerolog.Nop())

	first, err := client.FetchCloses(context.Background(), "ETHUSDT", 100)
	require.NoError(t, err)
	second, err := client.FetchCloses(context.Background(), "ETHUSDT", 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchCloses_StaleFallbackOnUpstreamFailure(t *testing.T) {
	repo := newCacheRepo(t)
	// An already-expired entry
	require.NoError(t, repo.Store("klines", "ETHUSDT|100", cachedCloses{Closes: []float64{1, 2, 3}}, -time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, repo, time.Hour, zerolog.Nop())
	closes, err := client.FetchCloses(context.Background(), "ETHUSDT", 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, closes)
}

func TestFetchCloses_UnknownSymbolEvictsStaleCache(t *testing.T) {
	repo := newCacheRepo(t)
	require.NoError(t, repo.Store("klines", "LUNAUSDT|100", cachedCloses{Closes: []float64{1, 2, 3}}, -time.Minute))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, repo, time.Hour, zerolog.Nop())
	_, err := client.FetchCloses(context.Background(), "LUNAUSDT", 100)
	require.ErrorIs(t, err, ErrUnknownSymbol)

	ok, err := repo.Get("klines", "LUNAUSDT|100", &cachedCloses{})
	require.NoError(t, err)
	assert.False(t, ok, "delisted pair should be evicted from the cache")
}

func TestParseNumber(t *testing.T) {
	v, err := parseNumber([]byte(`"42.5"`))
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)

	v, err = parseNumber([]byte(`7`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	_, err = parseNumber([]byte(`{}`))
	assert.Error(t, err)
}
