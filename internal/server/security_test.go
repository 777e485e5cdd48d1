package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetricsEndpointCustomPaths verifies that custom metrics paths work correctly
func TestMetricsEndpointCustomPaths(t *testing.T) {
	t.Run("custom metrics path is accessible without auth", func(t *testing.T) {
		srv := New(stubService(), &Config{
			MasterKey:       "secret-key",
			MetricsEnabled:  true,
			MetricsEndpoint: "/monitoring/metrics",
		})

		req := httptest.NewRequest(http.MethodGet, "/monitoring/metrics", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for custom metrics path, got %d", rec.Code)
		}
	})

	t.Run("nested metrics path works", func(t *testing.T) {
		srv := New(stubService(), &Config{
			MasterKey:       "secret-key",
			MetricsEnabled:  true,
			MetricsEndpoint: "/api/v2/metrics",
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v2/metrics", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for nested metrics path, got %d", rec.Code)
		}
	})
}

// TestMetricsEndpointAPIRouteProtection verifies that metrics endpoint cannot shadow API routes
func TestMetricsEndpointAPIRouteProtection(t *testing.T) {
	t.Run("metrics at /v1/sampling falls back to /metrics", func(t *testing.T) {
		srv := New(stubService(), &Config{
			MasterKey:       "secret-key",
			MetricsEnabled:  true,
			MetricsEndpoint: "/v1/sampling",
		})

		// /v1/sampling must stay protected
		req := httptest.NewRequest(http.MethodPost, "/v1/sampling", strings.NewReader(samplingBody))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for /v1/sampling, got %d", rec.Code)
		}

		req2 := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec2 := httptest.NewRecorder()
		srv.ServeHTTP(rec2, req2)

		if rec2.Code != http.StatusOK {
			t.Errorf("Expected 200 for /metrics fallback, got %d", rec2.Code)
		}
	})

	t.Run("path traversal to /v1/ is blocked", func(t *testing.T) {
		srv := New(stubService(), &Config{
			MasterKey:       "secret-key",
			MetricsEnabled:  true,
			MetricsEndpoint: "/foo/../v1/strategies",
		})

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for /metrics fallback, got %d", rec.Code)
		}
	})
}

// TestMetricsEndpointPathTraversal tests that path traversal is normalized
func TestMetricsEndpointPathTraversal(t *testing.T) {
	t.Run("double dots are cleaned from path", func(t *testing.T) {
		srv := New(stubService(), &Config{
			MasterKey:       "secret",
			MetricsEnabled:  true,
			MetricsEndpoint: "/a/b/../c",
		})

		req := httptest.NewRequest(http.MethodGet, "/a/c", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for cleaned path /a/c, got %d", rec.Code)
		}
	})
}

// TestConfigurableBodySizeLimit tests that body size limit can be configured
func TestConfigurableBodySizeLimit(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		accepted int
		rejected int
	}{
		{name: "default 10M when config is nil", config: nil, accepted: 9 * 1024 * 1024, rejected: 11 * 1024 * 1024},
		{name: "default 10M when not configured", config: &Config{}, accepted: 9 * 1024 * 1024, rejected: 11 * 1024 * 1024},
		{name: "custom 1M", config: &Config{BodySizeLimit: "1M"}, accepted: 500 * 1024, rejected: 2 * 1024 * 1024},
		{name: "kilobytes unit", config: &Config{BodySizeLimit: "500K"}, accepted: 400 * 1024, rejected: 600 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(stubService(), tt.config)

			req := httptest.NewRequest(http.MethodPost, "/v1/sampling", strings.NewReader(strings.Repeat("x", tt.accepted)))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			// Accepted bodies reach the handler and fail JSON-RPC parsing
			if rec.Code != http.StatusOK {
				t.Errorf("%d byte body should be accepted, got %d", tt.accepted, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), "-32700") {
				t.Errorf("expected a parse error response, got: %.200s", rec.Body.String())
			}

			req2 := httptest.NewRequest(http.MethodPost, "/v1/sampling", strings.NewReader(strings.Repeat("x", tt.rejected)))
			rec2 := httptest.NewRecorder()
			srv.ServeHTTP(rec2, req2)

			if rec2.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("%d byte body should be rejected, got %d", tt.rejected, rec2.Code)
			}
		})
	}
}

// TestBodyLimitAppliesToAllRoutes tests that body limit is applied globally
func TestBodyLimitAppliesToAllRoutes(t *testing.T) {
	srv := New(stubService(), nil)

	largeBody := strings.Repeat("x", 11*1024*1024)

	req := httptest.NewRequest(http.MethodGet, "/health", strings.NewReader(largeBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Body limit should apply globally, got status %d", rec.Code)
	}
}
