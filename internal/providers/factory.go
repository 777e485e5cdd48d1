// Package providers holds the strategy registry and the plumbing shared by
// sampling strategies.
package providers

import (
	"fmt"
	"net/http"
	"sync"

	"samplegate/config"
	"samplegate/internal/cache"
	"samplegate/internal/core"
	"samplegate/internal/pkg/llmclient"
)

// StrategyOptions carries the shared dependencies handed to every builder.
type StrategyOptions struct {
	// Hooks observe outbound provider requests
	Hooks llmclient.Hooks
	// HTTPClient is used for outbound calls; nil selects the pooled default
	HTTPClient *http.Client
	// Cache persists fetched model catalogs; nil disables persistence
	Cache cache.Cache
}

// Builder creates a strategy from configuration.
type Builder func(cfg *config.Config, opts StrategyOptions) (core.Strategy, error)

// Registration describes a strategy a factory can build.
type Registration struct {
	Type       string
	Definition core.StrategyDefinition
	New        Builder
}

// StrategyFactory maps strategy names to builders. It is built once at
// startup and passed to whoever needs it.
type StrategyFactory struct {
	mu            sync.RWMutex
	registrations map[string]Registration
	order         []string
	opts          StrategyOptions
}

// NewStrategyFactory creates an empty factory.
func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		registrations: make(map[string]Registration),
	}
}

// Add registers a strategy. Re-adding a type replaces the earlier registration
// but keeps its position.
func (f *StrategyFactory) Add(reg Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if reg.Definition.ID == "" {
		reg.Definition.ID = reg.Type
	}
	if _, exists := f.registrations[reg.Type]; !exists {
		f.order = append(f.order, reg.Type)
	}
	f.registrations[reg.Type] = reg
}

// Register registers a bare builder without a definition.
func (f *StrategyFactory) Register(strategyType string, builder Builder) {
	f.Add(Registration{
		Type:       strategyType,
		Definition: core.StrategyDefinition{ID: strategyType, Name: strategyType},
		New:        builder,
	})
}

// SetHooks configures observability hooks passed to every builder.
func (f *StrategyFactory) SetHooks(hooks llmclient.Hooks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.Hooks = hooks
}

// GetHooks returns the configured hooks.
func (f *StrategyFactory) GetHooks() llmclient.Hooks {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.opts.Hooks
}

// SetCache configures the catalog snapshot cache passed to builders.
func (f *StrategyFactory) SetCache(c cache.Cache) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.Cache = c
}

// SetHTTPClient overrides the HTTP client passed to builders.
func (f *StrategyFactory) SetHTTPClient(client *http.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.HTTPClient = client
}

// Create builds the strategy named by cfg.Sampling.Strategy.
func (f *StrategyFactory) Create(cfg *config.Config) (core.Strategy, error) {
	return f.CreateType(cfg.Sampling.Strategy, cfg)
}

// CreateType builds the named strategy.
func (f *StrategyFactory) CreateType(strategyType string, cfg *config.Config) (core.Strategy, error) {
	f.mu.RLock()
	reg, ok := f.registrations[strategyType]
	opts := f.opts
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown strategy type: %s", strategyType)
	}
	return reg.New(cfg, opts)
}

// ListRegistered returns the registered strategy types in registration order.
func (f *StrategyFactory) ListRegistered() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, len(f.order))
	copy(types, f.order)
	return types
}

// Definitions returns the definitions of all registered strategies in
// registration order.
func (f *StrategyFactory) Definitions() []core.StrategyDefinition {
	f.mu.RLock()
	defer f.mu.RUnlock()

	defs := make([]core.StrategyDefinition, 0, len(f.order))
	for _, t := range f.order {
		defs = append(defs, f.registrations[t].Definition)
	}
	return defs
}
