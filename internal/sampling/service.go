// Package sampling validates MCP sampling requests, runs them through the
// configured strategy and wraps the outcome in a JSON-RPC response.
package sampling

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"samplegate/internal/core"
	"samplegate/internal/observability"
	"samplegate/internal/selection"
	"samplegate/internal/usage"
)

// Service runs sampling requests against one strategy.
type Service struct {
	name     string
	strategy core.Strategy
	usage    usage.LoggerInterface
	metrics  *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithUsageLogger records one usage entry per request.
func WithUsageLogger(l usage.LoggerInterface) Option {
	return func(s *Service) {
		if l != nil {
			s.usage = l
		}
	}
}

// WithMetrics records Prometheus metrics per request.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a service for the strategy registered as name.
func NewService(name string, strategy core.Strategy, opts ...Option) *Service {
	s := &Service{
		name:     name,
		strategy: strategy,
		usage:    &usage.NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StrategyName returns the name of the active strategy.
func (s *Service) StrategyName() string {
	return s.name
}

// Handle runs req and returns the JSON-RPC envelope for id. It never
// returns nil; failures are reported in the envelope's error member.
func (s *Service) Handle(ctx context.Context, id json.RawMessage, req *core.SamplingRequest) *core.SamplingResponse {
	result, err := s.CreateMessage(ctx, req)
	if err != nil {
		se, _ := core.AsSamplingError(err)
		return core.NewErrorResponse(id, se.Code, se.Message)
	}
	return core.NewResultResponse(id, result)
}

// CreateMessage validates and normalizes req, calls the strategy and fills
// result defaults. Every returned error is a *core.SamplingError.
func (s *Service) CreateMessage(ctx context.Context, req *core.SamplingRequest) (*core.SamplingResult, error) {
	start := time.Now()
	ctx = core.WithStrategy(ctx, s.name)

	result, err := s.createMessage(ctx, req)
	duration := time.Since(start)

	var se *core.SamplingError
	code := 0
	if err != nil {
		se = toSamplingError(err)
		code = se.Code
		slog.Warn("sampling request failed",
			"request_id", core.GetRequestID(ctx),
			"strategy", s.name,
			"code", se.Code,
			"error", err,
		)
	} else {
		slog.Debug("sampling request completed",
			"request_id", core.GetRequestID(ctx),
			"strategy", s.name,
			"model", result.Model,
			"duration", duration,
		)
	}

	s.usage.Write(usage.NewEntry(core.GetRequestID(ctx), s.name, result, duration, code))
	s.metrics.RecordSampling(s.name, result, duration, code)

	if se != nil {
		return nil, se
	}
	return result, nil
}

func (s *Service) createMessage(ctx context.Context, req *core.SamplingRequest) (*core.SamplingResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	normalized := *req
	normalized.Messages = NormalizeMessages(req.Messages)

	result, err := s.strategy.CreateMessage(ctx, &normalized)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, core.NewSamplingExecutionError("strategy returned no result", nil)
	}
	return finalizeResult(result), nil
}

// Validate applies the minimal checks every sampling request must pass.
func Validate(req *core.SamplingRequest) error {
	if req == nil || len(req.Messages) == 0 {
		return core.NewSamplingError("Messages array is required and cannot be empty")
	}
	if req.MaxTokens <= 0 {
		return core.NewSamplingError("maxTokens must be a positive number")
	}
	return nil
}

// NormalizeMessages returns a copy of messages in canonical form: text
// content keeps only its text and anything else is treated as an image with
// a default mime type.
func NormalizeMessages(messages []core.SamplingMessage) []core.SamplingMessage {
	out := make([]core.SamplingMessage, len(messages))
	for i, m := range messages {
		out[i].Role = m.Role
		if m.Content.Type == core.ContentTypeText {
			out[i].Content = core.Content{Type: core.ContentTypeText, Text: m.Content.Text}
			continue
		}
		mime := m.Content.MimeType
		if mime == "" {
			mime = core.DefaultImageMimeType
		}
		out[i].Content = core.Content{Type: core.ContentTypeImage, Data: m.Content.Data, MimeType: mime}
	}
	return out
}

// finalizeResult fills the fields the response envelope always carries.
func finalizeResult(r *core.SamplingResult) *core.SamplingResult {
	out := *r
	if out.StopReason == "" {
		out.StopReason = core.StopReasonEndTurn
	}
	out.Role = core.RoleAssistant
	out.Content = core.Content{Type: core.ContentTypeText, Text: r.Content.Text}
	return &out
}

// toSamplingError classifies a strategy failure. Catalog, provider and
// cancellation failures are execution errors; anything unrecognized keeps
// the generic sampling code.
func toSamplingError(err error) *core.SamplingError {
	if se, ok := core.AsSamplingError(err); ok {
		return se
	}

	var catalogErr *selection.CatalogFetchError
	if errors.As(err, &catalogErr) {
		return core.NewSamplingExecutionError(catalogErr.Error(), err)
	}

	var gwErr *core.GatewayError
	if errors.As(err, &gwErr) {
		return core.NewSamplingExecutionError(gwErr.Error(), err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewSamplingExecutionError("sampling request canceled: "+err.Error(), err)
	}

	return &core.SamplingError{
		Code:    core.CodeSamplingError,
		Message: "Failed to handle sampling request: " + err.Error(),
		Err:     err,
	}
}
