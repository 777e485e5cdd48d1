// Package core defines the core interfaces and types for the sampling gateway.
package core

import "context"

// Strategy is a sampling backend. Implementations choose a concrete model
// for the request and return the provider's completion.
type Strategy interface {
	CreateMessage(ctx context.Context, req *SamplingRequest) (*SamplingResult, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, req *SamplingRequest) (*SamplingResult, error)

// CreateMessage calls f.
func (f StrategyFunc) CreateMessage(ctx context.Context, req *SamplingRequest) (*SamplingResult, error) {
	return f(ctx, req)
}

// ConfigField describes one configuration field a strategy accepts.
type ConfigField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
}

// StrategyDefinition describes a registered strategy to clients.
type StrategyDefinition struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	RequiresConfig bool          `json:"requiresConfig"`
	ConfigFields   []ConfigField `json:"configFields,omitempty"`
}
