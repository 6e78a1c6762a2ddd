package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aegisos/riskengine/internal/modules/optimization"
	"github.com/aegisos/riskengine/internal/modules/risk"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRisk struct{}

func (fakeRisk) Calculate(ctx context.Context, req risk.Request) (*risk.Response, error) {
	return &risk.Response{VaRPortfolioPct: 2.5, PerAsset: map[string]risk.AssetRisk{}}, nil
}

type fakeOptimizer struct{}

func (fakeOptimizer) Optimize(ctx context.Context, req optimization.Request) (*optimization.Response, error) {
	return &optimization.Response{TargetWeights: map[string]float64{}, SuggestedAction: optimization.ActionHold}, nil
}

func newTestServer() *Server {
	return New(Config{
		Log:          zerolog.Nop(),
		Port:         0,
		DevMode:      true,
		RiskService:  fakeRisk{},
		Optimization: fakeOptimizer{},
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRoutesMounted(t *testing.T) {
	s := newTestServer()

	for _, path := range []string{"/var", "/optimize"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"), path)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodOptions, "/var", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
