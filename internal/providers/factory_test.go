package providers

import (
	"context"
	"testing"

	"samplegate/config"
	"samplegate/internal/cache"
	"samplegate/internal/core"
	"samplegate/internal/pkg/llmclient"
)

func noopStrategy() core.Strategy {
	return core.StrategyFunc(func(context.Context, *core.SamplingRequest) (*core.SamplingResult, error) {
		return &core.SamplingResult{Model: "noop"}, nil
	})
}

func testConfig(strategy string) *config.Config {
	return &config.Config{Sampling: config.SamplingConfig{Strategy: strategy}}
}

func TestStrategyFactory_Register(t *testing.T) {
	factory := NewStrategyFactory()

	factory.Register("test-strategy", func(*config.Config, StrategyOptions) (core.Strategy, error) {
		return nil, nil
	})

	registered := factory.ListRegistered()
	if len(registered) != 1 {
		t.Fatalf("expected 1 registered strategy, got %d", len(registered))
	}
	if registered[0] != "test-strategy" {
		t.Errorf("expected 'test-strategy', got %q", registered[0])
	}

	defs := factory.Definitions()
	if len(defs) != 1 || defs[0].ID != "test-strategy" {
		t.Errorf("unexpected definitions: %+v", defs)
	}
}

func TestStrategyFactory_Create_UnknownType(t *testing.T) {
	factory := NewStrategyFactory()

	_, err := factory.Create(testConfig("unknown-type"))
	if err == nil {
		t.Fatal("expected error for unknown strategy type, got nil")
	}

	expectedMsg := "unknown strategy type: unknown-type"
	if err.Error() != expectedMsg {
		t.Errorf("expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
}

func TestStrategyFactory_Create_Success(t *testing.T) {
	factory := NewStrategyFactory()
	factory.Register("mock", func(*config.Config, StrategyOptions) (core.Strategy, error) {
		return noopStrategy(), nil
	})

	strategy, err := factory.Create(testConfig("mock"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategy == nil {
		t.Fatal("expected strategy to be created, got nil")
	}

	result, err := strategy.CreateMessage(context.Background(), &core.SamplingRequest{})
	if err != nil || result.Model != "noop" {
		t.Errorf("unexpected result %+v, %v", result, err)
	}
}

func TestStrategyFactory_ListRegisteredKeepsOrder(t *testing.T) {
	factory := NewStrategyFactory()
	builder := func(*config.Config, StrategyOptions) (core.Strategy, error) { return nil, nil }

	factory.Register("stub", builder)
	factory.Register("openrouter", builder)
	factory.Register("anthropic", builder)
	factory.Register("openrouter", builder)

	registered := factory.ListRegistered()
	want := []string{"stub", "openrouter", "anthropic"}
	if len(registered) != len(want) {
		t.Fatalf("expected %d registered strategies, got %v", len(want), registered)
	}
	for i := range want {
		if registered[i] != want[i] {
			t.Errorf("registered[%d] = %q, want %q", i, registered[i], want[i])
		}
	}
}

func TestStrategyFactory_AddDefinition(t *testing.T) {
	factory := NewStrategyFactory()
	factory.Add(Registration{
		Type: "anthropic",
		Definition: core.StrategyDefinition{
			Name:           "Anthropic",
			RequiresConfig: true,
			ConfigFields:   []core.ConfigField{{Name: "model", Type: "string", Label: "Model", Required: true}},
		},
		New: func(*config.Config, StrategyOptions) (core.Strategy, error) { return noopStrategy(), nil },
	})

	defs := factory.Definitions()
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	if defs[0].ID != "anthropic" {
		t.Errorf("ID = %q, want defaulted to type", defs[0].ID)
	}
	if !defs[0].RequiresConfig || len(defs[0].ConfigFields) != 1 {
		t.Errorf("unexpected definition %+v", defs[0])
	}
}

func TestStrategyFactory_SetHooks(t *testing.T) {
	factory := NewStrategyFactory()

	hooks := factory.GetHooks()
	if hooks.OnRequestStart != nil || hooks.OnRequestEnd != nil {
		t.Error("expected zero hooks initially")
	}

	factory.SetHooks(llmclient.Hooks{
		OnRequestStart: func(ctx context.Context, info llmclient.RequestInfo) context.Context {
			return ctx
		},
	})

	if factory.GetHooks().OnRequestStart == nil {
		t.Error("expected OnRequestStart to be set")
	}
}

func TestStrategyFactory_OptionsPassedToBuilder(t *testing.T) {
	factory := NewStrategyFactory()
	factory.SetHooks(llmclient.Hooks{
		OnRequestStart: func(ctx context.Context, info llmclient.RequestInfo) context.Context {
			return ctx
		},
	})
	snapshots := cache.NewLocalCache(t.TempDir())
	factory.SetCache(snapshots)

	var received StrategyOptions
	var receivedCfg *config.Config
	factory.Register("test", func(cfg *config.Config, opts StrategyOptions) (core.Strategy, error) {
		received = opts
		receivedCfg = cfg
		return noopStrategy(), nil
	})

	cfg := testConfig("test")
	if _, err := factory.Create(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received.Hooks.OnRequestStart == nil {
		t.Error("expected hooks to be passed to builder")
	}
	if received.Cache != snapshots {
		t.Error("expected cache to be passed to builder")
	}
	if receivedCfg != cfg {
		t.Error("expected config to be passed to builder")
	}
}
