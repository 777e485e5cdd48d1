package providers

import (
	"net/http"
	"time"

	"samplegate/config"
	"samplegate/internal/httpclient"
	"samplegate/internal/pkg/llmclient"
)

// ClientConfig resolves the llmclient configuration for a provider from the
// global resilience settings.
func ClientConfig(providerName, baseURL string, r config.ResilienceConfig, hooks llmclient.Hooks) llmclient.Config {
	cfg := llmclient.DefaultConfig(providerName, baseURL)
	cfg.Hooks = hooks

	retry := r.Retry
	if retry.MaxRetries >= 0 {
		cfg.MaxRetries = retry.MaxRetries
	}
	if retry.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(retry.InitialBackoffMs) * time.Millisecond
	}
	if retry.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(retry.MaxBackoffMs) * time.Millisecond
	}
	if retry.BackoffFactor > 0 {
		cfg.BackoffFactor = retry.BackoffFactor
	}

	cb := r.CircuitBreaker
	if !cb.Enabled {
		cfg.CircuitBreaker = nil
		return cfg
	}
	if cb.FailureThreshold > 0 {
		cfg.CircuitBreaker.FailureThreshold = cb.FailureThreshold
	}
	if cb.SuccessThreshold > 0 {
		cfg.CircuitBreaker.SuccessThreshold = cb.SuccessThreshold
	}
	if cb.Timeout > 0 {
		cfg.CircuitBreaker.Timeout = time.Duration(cb.Timeout) * time.Second
	}
	return cfg
}

// HTTPClient returns opts.HTTPClient, or a pooled client built from the
// configured timeouts.
func HTTPClient(opts StrategyOptions, cfg config.HTTPConfig) *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}
	clientCfg := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		clientCfg.Timeout = time.Duration(cfg.Timeout) * time.Second
	}
	if cfg.ResponseHeaderTimeout > 0 {
		clientCfg.ResponseHeaderTimeout = time.Duration(cfg.ResponseHeaderTimeout) * time.Second
	}
	return httpclient.NewHTTPClient(&clientCfg)
}
