// Package config provides configuration management for the application.
//
// Configuration is assembled in three layers: compiled defaults, an optional
// config.yaml (with ${VAR} and ${VAR:-default} expansion), and finally
// environment variables named by the env struct tags below. A .env file in
// the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Strategy names.
const (
	StrategyStub       = "stub"
	StrategyOpenRouter = "openrouter"
	StrategyAnthropic  = "anthropic"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Sampling   SamplingConfig   `yaml:"sampling"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	HTTP       HTTPConfig       `yaml:"http"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	Usage      UsageConfig      `yaml:"usage"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
	// MasterKey enables bearer authentication when non-empty
	MasterKey string `yaml:"master_key" env:"SAMPLEGATE_MASTER_KEY"`
	// BodySizeLimit uses echo's size syntax, e.g. "10M"
	BodySizeLimit string `yaml:"body_size_limit" env:"BODY_SIZE_LIMIT"`
}

// SamplingConfig selects the active strategy
type SamplingConfig struct {
	Strategy string `yaml:"strategy" env:"SAMPLING_STRATEGY"`
}

// ModelScoreConfig is one allow-list entry. Scores are pointers so a missing
// field can be told apart from an explicit zero.
type ModelScoreConfig struct {
	ID                string   `yaml:"id"`
	SpeedScore        *float64 `yaml:"speed_score"`
	IntelligenceScore *float64 `yaml:"intelligence_score"`
	CostScore         *float64 `yaml:"cost_score"`
}

// OpenRouterConfig holds OpenRouter strategy configuration
type OpenRouterConfig struct {
	APIKey       string             `yaml:"api_key" env:"OPENROUTER_API_KEY"`
	BaseURL      string             `yaml:"base_url" env:"OPENROUTER_BASE_URL"`
	DefaultModel string             `yaml:"default_model" env:"DEFAULT_MODEL_NAME"`
	Referer      string             `yaml:"referer" env:"OPENROUTER_REFERER"`
	Title        string             `yaml:"title" env:"OPENROUTER_TITLE"`
	Models       []ModelScoreConfig `yaml:"models"`
}

// AnthropicModelConfig is a model entry of the static Anthropic catalog
type AnthropicModelConfig struct {
	ModelScoreConfig         `yaml:",inline"`
	ContextWindow            int  `yaml:"context_window"`
	SupportsExtendedThinking bool `yaml:"supports_extended_thinking"`
}

// AnthropicConfig holds Anthropic strategy configuration
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	BaseURL string `yaml:"base_url" env:"ANTHROPIC_BASE_URL"`
	// Model is the default model used when no preference applies
	Model  string                 `yaml:"model" env:"ANTHROPIC_MODEL"`
	Models []AnthropicModelConfig `yaml:"models"`
	// ThinkingBonus ranks thinking-capable models up instead of filtering out the rest
	ThinkingBonus bool `yaml:"thinking_bonus" env:"ANTHROPIC_THINKING_BONUS"`
}

// HTTPConfig holds outbound HTTP client timeouts in seconds
type HTTPConfig struct {
	Timeout               int `yaml:"timeout" env:"HTTP_TIMEOUT"`
	ResponseHeaderTimeout int `yaml:"response_header_timeout" env:"HTTP_RESPONSE_HEADER_TIMEOUT"`
}

// RetryConfig controls retries of completion calls
type RetryConfig struct {
	MaxRetries int `yaml:"max_retries" env:"RETRY_MAX_RETRIES"`
	// InitialBackoffMs and MaxBackoffMs are in milliseconds
	InitialBackoffMs int     `yaml:"initial_backoff_ms" env:"RETRY_INITIAL_BACKOFF_MS"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" env:"RETRY_MAX_BACKOFF_MS"`
	BackoffFactor    float64 `yaml:"backoff_factor" env:"RETRY_BACKOFF_FACTOR"`
}

// CircuitBreakerConfig controls the per-provider circuit breaker
type CircuitBreakerConfig struct {
	Enabled          bool `yaml:"enabled" env:"CIRCUIT_BREAKER_ENABLED"`
	FailureThreshold int  `yaml:"failure_threshold" env:"CIRCUIT_BREAKER_FAILURE_THRESHOLD"`
	SuccessThreshold int  `yaml:"success_threshold" env:"CIRCUIT_BREAKER_SUCCESS_THRESHOLD"`
	// Timeout is in seconds
	Timeout int `yaml:"timeout" env:"CIRCUIT_BREAKER_TIMEOUT"`
}

// ResilienceConfig groups retry and circuit breaker settings
type ResilienceConfig struct {
	Retry          RetryConfig          `yaml:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RedisConfig holds Redis cache settings
type RedisConfig struct {
	URL    string `yaml:"url" env:"REDIS_URL"`
	Prefix string `yaml:"prefix" env:"REDIS_PREFIX"`
	// TTL is in seconds
	TTL int `yaml:"ttl" env:"REDIS_TTL"`
}

// CacheConfig controls persistence of fetched model catalogs
type CacheConfig struct {
	// Type is "local", "redis" or "none"
	Type string `yaml:"type" env:"CACHE_TYPE"`
	// Dir is the directory for local catalog snapshots
	Dir string `yaml:"dir" env:"CACHE_DIR"`
	// CatalogMaxAge is how old (in seconds) a persisted catalog may be; 0 accepts any age
	CatalogMaxAge int         `yaml:"catalog_max_age" env:"CATALOG_MAX_AGE"`
	Redis         RedisConfig `yaml:"redis"`
}

// SQLiteStorageConfig holds SQLite settings
type SQLiteStorageConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH"`
}

// PostgreSQLStorageConfig holds PostgreSQL settings
type PostgreSQLStorageConfig struct {
	URL      string `yaml:"url" env:"POSTGRES_URL"`
	MaxConns int    `yaml:"max_conns" env:"POSTGRES_MAX_CONNS"`
}

// MongoDBStorageConfig holds MongoDB settings
type MongoDBStorageConfig struct {
	URL      string `yaml:"url" env:"MONGODB_URL"`
	Database string `yaml:"database" env:"MONGODB_DATABASE"`
}

// StorageConfig selects the database used for usage records
type StorageConfig struct {
	Type       string                  `yaml:"type" env:"STORAGE_TYPE"`
	SQLite     SQLiteStorageConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLStorageConfig `yaml:"postgresql"`
	MongoDB    MongoDBStorageConfig    `yaml:"mongodb"`
}

// UsageConfig controls sampling usage tracking
type UsageConfig struct {
	Enabled    bool `yaml:"enabled" env:"USAGE_ENABLED"`
	BufferSize int  `yaml:"buffer_size" env:"USAGE_BUFFER_SIZE"`
	// FlushInterval is in seconds
	FlushInterval int `yaml:"flush_interval" env:"USAGE_FLUSH_INTERVAL"`
	RetentionDays int `yaml:"retention_days" env:"USAGE_RETENTION_DAYS"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Endpoint string `yaml:"endpoint" env:"METRICS_ENDPOINT"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
	// Format is "text", "json" or empty for automatic detection
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// LoadResult is returned by Load.
type LoadResult struct {
	Config *Config
	// ConfigFile is the YAML file that was read, or "" if none was found
	ConfigFile string
}

// buildDefaultConfig returns the compiled-in defaults.
func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: "10M",
		},
		Sampling: SamplingConfig{
			Strategy: StrategyStub,
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Referer: "http://localhost:3000",
			Title:   "MCP Sampling Service",
		},
		Anthropic: AnthropicConfig{
			BaseURL: "https://api.anthropic.com/v1",
			Model:   "claude-3-5-sonnet-latest",
		},
		HTTP: HTTPConfig{
			Timeout:               300,
			ResponseHeaderTimeout: 300,
		},
		Resilience: ResilienceConfig{
			Retry: RetryConfig{
				MaxRetries:       3,
				InitialBackoffMs: 1000,
				MaxBackoffMs:     30000,
				BackoffFactor:    2.0,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 2,
				Timeout:          30,
			},
		},
		Cache: CacheConfig{
			Type:          "local",
			Dir:           ".cache",
			CatalogMaxAge: 86400,
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			SQLite:     SQLiteStorageConfig{Path: "data/samplegate.db"},
			PostgreSQL: PostgreSQLStorageConfig{MaxConns: 10},
			MongoDB:    MongoDBStorageConfig{Database: "samplegate"},
		},
		Usage: UsageConfig{
			Enabled:       false,
			BufferSize:    1000,
			FlushInterval: 5,
			RetentionDays: 90,
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from .env, config.yaml and the environment.
// CONFIG_FILE overrides the YAML path; otherwise config/config.yaml and
// config.yaml are tried in that order. A missing file is not an error.
func Load() (*LoadResult, error) {
	_ = godotenv.Load() // .env is optional

	cfg := buildDefaultConfig()
	result := &LoadResult{Config: cfg}

	path, data, err := readConfigFile()
	if err != nil {
		return nil, err
	}
	if data != nil {
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		expandNode(&node)
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		result.ConfigFile = path
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func readConfigFile() (string, []byte, error) {
	candidates := []string{"config/config.yaml", "config.yaml"}
	explicit := os.Getenv("CONFIG_FILE")
	if explicit != "" {
		candidates = []string{explicit}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) || explicit != "" {
			return "", nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return "", nil, nil
}

// expandNode applies expandString to every scalar in the document.
func expandNode(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		n.Value = expandString(n.Value)
		return
	}
	for _, c := range n.Content {
		expandNode(c)
	}
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default}. Unset variables without
// a default are left as-is so misconfiguration stays visible.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := placeholderRe.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]
		if v := os.Getenv(name); v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// applyEnvOverrides walks cfg and sets every field whose env tag names a
// non-empty environment variable.
func applyEnvOverrides(cfg *Config) error {
	return applyEnv(reflect.ValueOf(cfg).Elem())
}

func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := applyEnv(fv); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return err
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", fv.Kind())
	}
	return nil
}
