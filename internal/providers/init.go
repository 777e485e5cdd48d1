package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"samplegate/config"
	"samplegate/internal/cache"
	"samplegate/internal/core"
)

// Cache types accepted by config.CacheConfig.Type.
const (
	CacheTypeLocal = "local"
	CacheTypeRedis = "redis"
	CacheTypeNone  = "none"
)

// InitResult holds the active strategy and the resources backing it.
type InitResult struct {
	// Name is the registered type of Strategy
	Name     string
	Strategy core.Strategy
	// Cache is nil when catalog persistence is disabled
	Cache   cache.Cache
	Factory *StrategyFactory
}

// Close releases the catalog cache. Safe to call multiple times.
func (r *InitResult) Close() error {
	if r.Cache == nil {
		return nil
	}
	err := r.Cache.Close()
	r.Cache = nil
	return err
}

// Init opens the catalog cache and builds the strategy selected by
// cfg.Sampling.Strategy. Hooks and the HTTP client should be set on the
// factory before calling Init.
//
// The caller must call InitResult.Close() during shutdown.
func Init(_ context.Context, cfg *config.Config, factory *StrategyFactory) (*InitResult, error) {
	if factory == nil {
		return nil, fmt.Errorf("strategy factory is required")
	}

	catalogCache, err := initCache(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	factory.SetCache(catalogCache)

	strategy, err := factory.Create(cfg)
	if err != nil {
		if catalogCache != nil {
			catalogCache.Close()
		}
		return nil, fmt.Errorf("failed to create %s strategy: %w", cfg.Sampling.Strategy, err)
	}

	slog.Info("sampling strategy ready", "strategy", cfg.Sampling.Strategy)
	return &InitResult{
		Name:     cfg.Sampling.Strategy,
		Strategy: strategy,
		Cache:    catalogCache,
		Factory:  factory,
	}, nil
}

// initCache initializes the catalog cache backend. A nil cache with a nil
// error means persistence is disabled.
func initCache(cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Type {
	case CacheTypeNone:
		slog.Info("catalog cache disabled")
		return nil, nil

	case CacheTypeRedis:
		ttl := time.Duration(cfg.Redis.TTL) * time.Second
		if ttl == 0 {
			ttl = cache.DefaultRedisTTL
		}

		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			URL:    cfg.Redis.URL,
			Prefix: cfg.Redis.Prefix,
			TTL:    ttl,
		})
		if err != nil {
			return nil, err
		}
		return redisCache, nil

	case "", CacheTypeLocal:
		dir := cfg.Dir
		if dir == "" {
			dir = ".cache"
		}
		slog.Info("using local catalog cache", "dir", dir)
		return cache.NewLocalCache(dir), nil

	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: local, redis, none)", cfg.Type)
	}
}
