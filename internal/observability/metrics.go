// Package observability exposes Prometheus metrics for sampling requests and
// the upstream provider calls they make.
package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"samplegate/internal/core"
	"samplegate/internal/pkg/llmclient"
)

const namespace = "samplegate"

// Request outcome labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	samplingRequests *prometheus.CounterVec
	samplingDuration *prometheus.HistogramVec
	samplingTokens   *prometheus.CounterVec
	selectedModels   *prometheus.CounterVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamInFlight *prometheus.GaugeVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		samplingRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampling_requests_total",
			Help:      "Sampling requests by strategy and outcome",
		}, []string{"strategy", "status", "code"}),
		samplingDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sampling_request_duration_seconds",
			Help:      "End-to-end sampling latency",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
		samplingTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sampling_tokens_total",
			Help:      "Tokens reported by providers",
		}, []string{"strategy", "model", "direction"}),
		selectedModels: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selected_model_total",
			Help:      "Models chosen for successful sampling requests",
		}, []string{"strategy", "model"}),
		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Outbound provider requests by status code",
		}, []string{"provider", "endpoint", "status_code"}),
		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound provider latency including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "endpoint"}),
		upstreamInFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_requests_in_flight",
			Help:      "Outbound provider requests currently running",
		}, []string{"provider"}),
	}
}

// RecordSampling records one finished sampling request. code is the
// JSON-RPC error code, or 0 on success.
func (m *Metrics) RecordSampling(strategy string, result *core.SamplingResult, duration time.Duration, code int) {
	if m == nil {
		return
	}

	status := StatusSuccess
	if code != 0 {
		status = StatusError
	}
	m.samplingRequests.WithLabelValues(strategy, status, strconv.Itoa(code)).Inc()
	m.samplingDuration.WithLabelValues(strategy).Observe(duration.Seconds())

	if result == nil {
		return
	}
	m.selectedModels.WithLabelValues(strategy, result.Model).Inc()
	if u := result.Usage; u != nil {
		m.samplingTokens.WithLabelValues(strategy, result.Model, "input").Add(float64(u.InputTokens))
		m.samplingTokens.WithLabelValues(strategy, result.Model, "output").Add(float64(u.OutputTokens))
	}
}

// Hooks returns llmclient hooks feeding the upstream collectors.
func (m *Metrics) Hooks() llmclient.Hooks {
	if m == nil {
		return llmclient.Hooks{}
	}
	return llmclient.Hooks{
		OnRequestStart: func(ctx context.Context, info llmclient.RequestInfo) context.Context {
			m.upstreamInFlight.WithLabelValues(info.Provider).Inc()
			return ctx
		},
		OnRequestEnd: func(_ context.Context, info llmclient.ResponseInfo) {
			m.upstreamInFlight.WithLabelValues(info.Provider).Dec()
			code := "error"
			if info.StatusCode != 0 {
				code = strconv.Itoa(info.StatusCode)
			}
			m.upstreamRequests.WithLabelValues(info.Provider, info.Endpoint, code).Inc()
			m.upstreamDuration.WithLabelValues(info.Provider, info.Endpoint).Observe(info.Duration.Seconds())
		},
	}
}
