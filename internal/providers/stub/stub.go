// Package stub provides a sampling strategy that answers without calling any
// upstream. It is the default strategy and is useful for wiring tests.
package stub

import (
	"context"

	"samplegate/config"
	"samplegate/internal/core"
	"samplegate/internal/providers"
)

const (
	// Model is the model name reported by every stub response.
	Model = "stub-model"
	// Text is the fixed response text.
	Text = "This is a stub response."
)

// Registration provides factory registration for the stub strategy.
var Registration = providers.Registration{
	Type: config.StrategyStub,
	Definition: core.StrategyDefinition{
		ID:   config.StrategyStub,
		Name: "Stub",
	},
	New: func(*config.Config, providers.StrategyOptions) (core.Strategy, error) {
		return New(), nil
	},
}

// Strategy returns a canned response.
type Strategy struct{}

// New creates a stub strategy.
func New() *Strategy {
	return &Strategy{}
}

// CreateMessage ignores the request and returns the canned response.
func (s *Strategy) CreateMessage(ctx context.Context, _ *core.SamplingRequest) (*core.SamplingResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &core.SamplingResult{
		Model:      Model,
		StopReason: core.StopReasonEndTurn,
		Role:       core.RoleAssistant,
		Content:    core.Content{Type: core.ContentTypeText, Text: Text},
	}, nil
}
