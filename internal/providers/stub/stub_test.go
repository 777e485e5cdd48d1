package stub

import (
	"context"
	"testing"

	"samplegate/config"
	"samplegate/internal/core"
	"samplegate/internal/providers"
)

func TestCreateMessage(t *testing.T) {
	result, err := New().CreateMessage(context.Background(), &core.SamplingRequest{
		Messages:  []core.SamplingMessage{{Role: core.RoleUser, Content: core.Content{Type: core.ContentTypeText, Text: "Hello"}}},
		MaxTokens: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Model != "stub-model" {
		t.Errorf("Model = %q, want stub-model", result.Model)
	}
	if result.StopReason != "endTurn" {
		t.Errorf("StopReason = %q, want endTurn", result.StopReason)
	}
	if result.Role != "assistant" {
		t.Errorf("Role = %q, want assistant", result.Role)
	}
	if result.Content.Type != "text" || result.Content.Text != "This is a stub response." {
		t.Errorf("unexpected content %+v", result.Content)
	}
}

func TestCreateMessage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().CreateMessage(ctx, &core.SamplingRequest{}); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestRegistration(t *testing.T) {
	factory := providers.NewStrategyFactory()
	factory.Add(Registration)

	strategy, err := factory.Create(&config.Config{Sampling: config.SamplingConfig{Strategy: "stub"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := strategy.(*Strategy); !ok {
		t.Errorf("expected *Strategy, got %T", strategy)
	}

	defs := factory.Definitions()
	if len(defs) != 1 || defs[0].RequiresConfig {
		t.Errorf("unexpected definitions %+v", defs)
	}
}
