// Package anthropic provides the Anthropic Messages API sampling strategy.
package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"samplegate/config"
	"samplegate/internal/core"
	"samplegate/internal/pkg/llmclient"
	"samplegate/internal/providers"
	"samplegate/internal/selection"
)

const (
	providerName         = "anthropic"
	anthropicAPIVersion  = "2023-06-01"
	defaultMaxTokens     = 1024
	defaultTemperature   = 0.7
	defaultContextWindow = 200000
)

// ModelConfig is one entry of the static Anthropic catalog.
type ModelConfig struct {
	selection.ModelScore
	ContextWindow            int
	SupportsExtendedThinking bool
}

// DefaultModels is used when no models are configured.
var DefaultModels = []ModelConfig{
	{ModelScore: selection.ModelScore{ID: "claude-3-7-sonnet-latest", SpeedScore: 0.8, IntelligenceScore: 1.0, CostScore: 0.7}, ContextWindow: defaultContextWindow, SupportsExtendedThinking: true},
	{ModelScore: selection.ModelScore{ID: "claude-3-5-haiku-latest", SpeedScore: 1.0, IntelligenceScore: 0.7, CostScore: 0.9}, ContextWindow: defaultContextWindow},
	{ModelScore: selection.ModelScore{ID: "claude-3-5-sonnet-latest", SpeedScore: 0.8, IntelligenceScore: 0.9, CostScore: 0.7}, ContextWindow: defaultContextWindow},
	{ModelScore: selection.ModelScore{ID: "claude-3-opus-latest", SpeedScore: 0.6, IntelligenceScore: 0.95, CostScore: 0.3}, ContextWindow: defaultContextWindow},
}

// Registration provides factory registration for the Anthropic strategy.
var Registration = providers.Registration{
	Type: config.StrategyAnthropic,
	Definition: core.StrategyDefinition{
		ID:             config.StrategyAnthropic,
		Name:           "Anthropic",
		RequiresConfig: true,
		ConfigFields: []core.ConfigField{
			{Name: "model", Type: "string", Label: "Model", Placeholder: "claude-3-5-sonnet-latest", Required: true},
		},
	},
	New: NewFromConfig,
}

// Strategy sends sampling requests to the Anthropic Messages API.
type Strategy struct {
	client   *llmclient.Client
	resolver *selection.Resolver
	apiKey   string
}

// NewFromConfig builds the strategy from application configuration.
func NewFromConfig(cfg *config.Config, opts providers.StrategyOptions) (core.Strategy, error) {
	ac := cfg.Anthropic
	if ac.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}

	models, err := modelConfigs(ac.Models)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	resolver, err := NewResolver(models, ac.Model, ac.ThinkingBonus)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	baseURL := strings.TrimRight(ac.BaseURL, "/")
	s := &Strategy{resolver: resolver, apiKey: ac.APIKey}
	clientCfg := providers.ClientConfig(providerName, baseURL, cfg.Resilience, opts.Hooks)
	s.client = llmclient.NewWithHTTPClient(providers.HTTPClient(opts, cfg.HTTP), clientCfg, s.setHeaders)

	slog.Info("anthropic strategy configured",
		"base_url", baseURL,
		"default_model", resolver.DefaultModel(),
		"models", len(models),
		"thinking_bonus", ac.ThinkingBonus,
	)
	return s, nil
}

// NewResolver builds a resolver over a static catalog of models.
func NewResolver(models []ModelConfig, defaultModel string, thinkingBonus bool) (*selection.Resolver, error) {
	scores := make([]selection.ModelScore, len(models))
	descriptors := make([]selection.ModelDescriptor, len(models))
	for i, m := range models {
		scores[i] = m.ModelScore
		d := selection.ModelDescriptor{ID: m.ID, Name: m.ID, ContextLength: m.ContextWindow}
		if m.SupportsExtendedThinking {
			d.Capabilities = []string{selection.CapabilityExtendedThinking}
		}
		descriptors[i] = d
	}

	table, err := selection.NewScoreTable(scores)
	if err != nil {
		return nil, err
	}

	opts := []selection.Option{
		selection.WithName(providerName),
		selection.WithCapabilityFlag(selection.CapabilityExtendedThinking),
	}
	if thinkingBonus {
		opts = append(opts, selection.WithExtendedThinkingBonus())
	}
	return selection.NewResolver(table, selection.NewStaticCatalog(descriptors), defaultModel, opts...)
}

func modelConfigs(entries []config.AnthropicModelConfig) ([]ModelConfig, error) {
	if len(entries) == 0 {
		return DefaultModels, nil
	}
	models := make([]ModelConfig, 0, len(entries))
	for i, e := range entries {
		score, err := e.ToModelScore(i)
		if err != nil {
			return nil, err
		}
		window := e.ContextWindow
		if window <= 0 {
			window = defaultContextWindow
		}
		models = append(models, ModelConfig{
			ModelScore:               score,
			ContextWindow:            window,
			SupportsExtendedThinking: e.SupportsExtendedThinking,
		})
	}
	return models, nil
}

// setHeaders sets the required headers for Anthropic API requests
func (s *Strategy) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// messagesRequest represents the Anthropic API request format
type messagesRequest struct {
	Model         string             `json:"model"`
	Messages      []anthropicMessage `json:"messages"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   float64            `json:"temperature"`
	System        string             `json:"system,omitempty"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
}

// anthropicMessage represents a message in Anthropic format
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse represents the Anthropic API response format
type messagesResponse struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	Model      string             `json:"model"`
	StopReason string             `json:"stop_reason"`
	Usage      anthropicUsage     `json:"usage"`
}

// anthropicContent represents content in Anthropic response
type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// anthropicUsage represents token usage in Anthropic response
type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// convertToAnthropicRequest forwards user and assistant turns with content;
// the system prompt goes to the dedicated field.
func convertToAnthropicRequest(req *core.SamplingRequest, model string) *messagesRequest {
	out := &messagesRequest{
		Model:         model,
		Messages:      make([]anthropicMessage, 0, len(req.Messages)),
		MaxTokens:     providers.MaxTokensOr(req.MaxTokens, defaultMaxTokens),
		Temperature:   providers.TemperatureOr(req.Temperature, defaultTemperature),
		System:        req.SystemPrompt,
		StopSequences: req.StopSequences,
	}

	for _, m := range req.Messages {
		if m.Role != core.RoleUser && m.Role != core.RoleAssistant {
			continue
		}
		body := providers.MessageBody(m)
		if body == "" {
			continue
		}
		out.Messages = append(out.Messages, anthropicMessage{Role: m.Role, Content: body})
	}
	return out
}

// convertFromAnthropicResponse takes the first text block.
func convertFromAnthropicResponse(resp *messagesResponse, model string) *core.SamplingResult {
	text := ""
	for _, block := range resp.Content {
		if block.Type == core.ContentTypeText {
			text = block.Text
			break
		}
	}

	result := &core.SamplingResult{
		Model:      resp.Model,
		StopReason: resp.StopReason,
		Role:       core.RoleAssistant,
		Content:    core.Content{Type: core.ContentTypeText, Text: text},
		Usage: &core.Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
	if result.Model == "" {
		result.Model = model
	}
	if result.StopReason == "" {
		result.StopReason = core.StopReasonStop
	}
	return result
}

// CreateMessage selects a Claude model and sends the request.
func (s *Strategy) CreateMessage(ctx context.Context, req *core.SamplingRequest) (*core.SamplingResult, error) {
	model, err := s.resolver.Select(ctx, providers.Preferences(req.ModelPreferences), providers.PromptParams(req))
	if err != nil {
		return nil, err
	}

	var resp messagesResponse
	err = s.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     convertToAnthropicRequest(req, model),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return convertFromAnthropicResponse(&resp, model), nil
}
