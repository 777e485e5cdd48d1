// Package openrouter provides the OpenRouter sampling strategy. The model is
// chosen against OpenRouter's live model catalog.
package openrouter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"samplegate/config"
	"samplegate/internal/cache"
	"samplegate/internal/core"
	"samplegate/internal/modeldata"
	"samplegate/internal/pkg/llmclient"
	"samplegate/internal/providers"
	"samplegate/internal/selection"
)

const (
	providerName       = "openrouter"
	defaultMaxTokens   = 1000
	defaultTemperature = 0.2
)

// DefaultModels is the allow-list used when none is configured.
var DefaultModels = []selection.ModelScore{
	{ID: "openai/gpt-4o", SpeedScore: 0.67, IntelligenceScore: 0.46, CostScore: 0.75},
	{ID: "openai/gpt-4o-mini", SpeedScore: 0.68, IntelligenceScore: 0.46, CostScore: 0.97},
	{ID: "openai/o1", SpeedScore: 0.13, IntelligenceScore: 1.00, CostScore: 0.15},
	{ID: "openai/o1-mini", SpeedScore: 0.90, IntelligenceScore: 0.80, CostScore: 0.72},
	{ID: "anthropic/claude-3.5-sonnet", SpeedScore: 0.50, IntelligenceScore: 0.90, CostScore: 0.60},
}

// Registration provides factory registration for the OpenRouter strategy.
var Registration = providers.Registration{
	Type: config.StrategyOpenRouter,
	Definition: core.StrategyDefinition{
		ID:             config.StrategyOpenRouter,
		Name:           "OpenRouter",
		RequiresConfig: true,
		ConfigFields: []core.ConfigField{
			{Name: "defaultModel", Type: "string", Label: "Default model", Placeholder: "openai/gpt-4o-mini", Required: true},
			{Name: "allowedModels", Type: "array", Label: "Allowed models"},
		},
	},
	New: NewFromConfig,
}

// Strategy sends sampling requests to OpenRouter's chat completions API.
type Strategy struct {
	client   *llmclient.Client
	resolver *selection.Resolver
	catalog  *selection.FetchingCatalog
	apiKey   string
	referer  string
	title    string
}

// NewFromConfig builds the strategy from application configuration.
func NewFromConfig(cfg *config.Config, opts providers.StrategyOptions) (core.Strategy, error) {
	or := cfg.OpenRouter
	if or.APIKey == "" {
		return nil, fmt.Errorf("openrouter: API key is required")
	}

	scores, err := scoreTable(or.Models)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}

	baseURL := strings.TrimRight(or.BaseURL, "/")
	httpClient := providers.HTTPClient(opts, cfg.HTTP)

	source := modeldata.NewSource(httpClient, baseURL, or.APIKey)
	var catalogOpts []selection.FetchingCatalogOption
	if opts.Cache != nil {
		store := cache.NewSnapshotStore(opts.Cache, source.Name())
		maxAge := time.Duration(cfg.Cache.CatalogMaxAge) * time.Second
		catalogOpts = append(catalogOpts, selection.WithSnapshotStore(store, maxAge))
	}
	catalog := selection.NewFetchingCatalog(source, catalogOpts...)

	resolver, err := selection.NewResolver(scores, catalog, or.DefaultModel,
		selection.WithName(providerName),
		selection.WithCapabilityFlag(selection.CapabilityExtendedThinking),
	)
	if err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}

	s := &Strategy{
		resolver: resolver,
		catalog:  catalog,
		apiKey:   or.APIKey,
		referer:  or.Referer,
		title:    or.Title,
	}
	clientCfg := providers.ClientConfig(providerName, baseURL, cfg.Resilience, opts.Hooks)
	s.client = llmclient.NewWithHTTPClient(httpClient, clientCfg, s.setHeaders)

	slog.Info("openrouter strategy configured",
		"base_url", baseURL,
		"default_model", resolver.DefaultModel(),
		"allowed_models", scores.Len(),
	)
	return s, nil
}

func scoreTable(entries []config.ModelScoreConfig) (*selection.ScoreTable, error) {
	if len(entries) == 0 {
		return selection.NewScoreTable(DefaultModels)
	}
	return config.BuildScoreTable(entries)
}

// Catalog returns the strategy's model catalog.
func (s *Strategy) Catalog() *selection.FetchingCatalog {
	return s.catalog
}

func (s *Strategy) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if s.referer != "" {
		req.Header.Set("HTTP-Referer", s.referer)
	}
	if s.title != "" {
		req.Header.Set("X-Title", s.title)
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// buildMessages puts the system prompt first and drops messages without content.
func buildMessages(req *core.SamplingRequest) []chatMessage {
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: core.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		body := providers.MessageBody(m)
		if body == "" {
			continue
		}
		messages = append(messages, chatMessage{Role: m.Role, Content: body})
	}
	return messages
}

// CreateMessage selects a model and requests a chat completion.
func (s *Strategy) CreateMessage(ctx context.Context, req *core.SamplingRequest) (*core.SamplingResult, error) {
	messages := buildMessages(req)

	model, err := s.resolver.Select(ctx, providers.Preferences(req.ModelPreferences), providers.PromptParams(req))
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   providers.MaxTokensOr(req.MaxTokens, defaultMaxTokens),
		Temperature: providers.TemperatureOr(req.Temperature, defaultTemperature),
		Stop:        req.StopSequences,
	}

	var resp chatResponse
	err = s.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     body,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, core.NewProviderError(providerName, http.StatusBadGateway, "response contained no choices", nil)
	}

	choice := resp.Choices[0]
	result := &core.SamplingResult{
		Model:      resp.Model,
		StopReason: choice.FinishReason,
		Role:       core.RoleAssistant,
		Content:    core.Content{Type: core.ContentTypeText, Text: choice.Message.Content},
	}
	if result.Model == "" {
		result.Model = model
	}
	if result.StopReason == "" {
		result.StopReason = core.StopReasonStop
	}
	if resp.Usage != nil {
		result.Usage = &core.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}
	return result, nil
}
