package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"samplegate/config"
	"samplegate/internal/providers"
	"samplegate/internal/providers/stub"
)

func stubFactory() *providers.StrategyFactory {
	f := providers.NewStrategyFactory()
	f.Add(stub.Registration)
	return f
}

func stubConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Sampling: config.SamplingConfig{Strategy: config.StrategyStub},
		Cache:    config.CacheConfig{Type: "none"},
		Storage: config.StorageConfig{
			Type:   "sqlite",
			SQLite: config.SQLiteStorageConfig{Path: filepath.Join(t.TempDir(), "usage.db")},
		},
		Usage: config.UsageConfig{
			Enabled:       true,
			BufferSize:    10,
			FlushInterval: 1,
			RetentionDays: 0,
		},
		Metrics: config.MetricsConfig{Enabled: true, Endpoint: "/metrics"},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "nil app config", cfg: Config{Factory: stubFactory()}, want: "app config is required"},
		{name: "nil config", cfg: Config{AppConfig: &config.LoadResult{}, Factory: stubFactory()}, want: "nil Config"},
		{name: "nil factory", cfg: Config{AppConfig: &config.LoadResult{Config: &config.Config{}}}, want: "factory is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNew_UnknownStrategy(t *testing.T) {
	cfg := stubConfig(t)
	cfg.Sampling.Strategy = "openrouter"

	_, err := New(context.Background(), Config{
		AppConfig:  &config.LoadResult{Config: cfg},
		Factory:    stubFactory(),
		Registerer: prometheus.NewRegistry(),
	})
	assert.ErrorContains(t, err, "unknown strategy type: openrouter")
}

func TestApp_EndToEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New(context.Background(), Config{
		AppConfig:  &config.LoadResult{Config: stubConfig(t)},
		Factory:    stubFactory(),
		Registerer: reg,
		Gatherer:   reg,
	})
	require.NoError(t, err)
	defer a.Shutdown(context.Background())

	require.NotNil(t, a.Service())
	require.NotNil(t, a.MCPHandler())
	assert.Equal(t, "stub", a.Service().StrategyName())

	body := `{"jsonrpc":"2.0","id":"e2e","method":"sampling/createMessage","params":{"messages":[{"role":"user","content":{"type":"text","text":"Hi"}}],"maxTokens":5}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sampling", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":"e2e","result":{"model":"stub-model","stopReason":"endTurn","role":"assistant","content":{"type":"text","text":"This is a stub response."}}}`,
		rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `samplegate_sampling_requests_total{code="0",status="success",strategy="stub"} 1`)

	req = httptest.NewRequest(http.MethodGet, "/v1/strategies", nil)
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":"stub"`)
}

func TestApp_ShutdownIdempotent(t *testing.T) {
	cfg := stubConfig(t)
	cfg.Usage.Enabled = false
	cfg.Metrics.Enabled = false

	a, err := New(context.Background(), Config{
		AppConfig: &config.LoadResult{Config: cfg},
		Factory:   stubFactory(),
	})
	require.NoError(t, err)

	require.NoError(t, a.Shutdown(context.Background()))
	require.NoError(t, a.Shutdown(context.Background()))
}
