package config

import (
	"fmt"
	"strings"

	"samplegate/internal/selection"
)

// Validate checks settings that would otherwise fail late at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server.port must not be empty")
	}

	switch c.Sampling.Strategy {
	case StrategyStub:
	case StrategyOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter strategy")
		}
		if strings.TrimSpace(c.OpenRouter.DefaultModel) == "" {
			return fmt.Errorf("DEFAULT_MODEL_NAME is required for the openrouter strategy")
		}
	case StrategyAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic strategy")
		}
	default:
		return fmt.Errorf("unknown sampling strategy: %q", c.Sampling.Strategy)
	}

	switch c.Cache.Type {
	case "", "none", "local":
	case "redis":
		if c.Cache.Redis.URL == "" {
			return fmt.Errorf("cache.redis.url is required when cache.type is redis")
		}
	default:
		return fmt.Errorf("unknown cache type: %q", c.Cache.Type)
	}

	switch c.Storage.Type {
	case "sqlite", "postgresql", "mongodb":
	default:
		return fmt.Errorf("unknown storage type: %q", c.Storage.Type)
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}

	if c.Cache.CatalogMaxAge < 0 {
		return fmt.Errorf("cache.catalog_max_age must not be negative")
	}
	return nil
}

// ToModelScore converts a configured entry. A missing score is an
// InvalidConfigurationError rather than an implicit zero.
func (m ModelScoreConfig) ToModelScore(index int) (selection.ModelScore, error) {
	field := func(name string) string { return fmt.Sprintf("models[%d].%s", index, name) }

	if strings.TrimSpace(m.ID) == "" {
		return selection.ModelScore{}, &selection.InvalidConfigurationError{Field: field("id"), Message: "is required"}
	}
	missing := func(name string) error {
		return &selection.InvalidConfigurationError{Field: field(name), Message: fmt.Sprintf("is required for model %q", m.ID)}
	}
	if m.SpeedScore == nil {
		return selection.ModelScore{}, missing("speed_score")
	}
	if m.IntelligenceScore == nil {
		return selection.ModelScore{}, missing("intelligence_score")
	}
	if m.CostScore == nil {
		return selection.ModelScore{}, missing("cost_score")
	}

	return selection.ModelScore{
		ID:                m.ID,
		SpeedScore:        *m.SpeedScore,
		IntelligenceScore: *m.IntelligenceScore,
		CostScore:         *m.CostScore,
	}, nil
}

// BuildScoreTable converts configured entries into a validated score table.
func BuildScoreTable(entries []ModelScoreConfig) (*selection.ScoreTable, error) {
	scores := make([]selection.ModelScore, 0, len(entries))
	for i, e := range entries {
		s, err := e.ToModelScore(i)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return selection.NewScoreTable(scores)
}
