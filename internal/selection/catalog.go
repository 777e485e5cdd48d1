package selection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// CapabilityExtendedThinking marks models that support extended reasoning.
const CapabilityExtendedThinking = "extended-thinking"

// Pricing holds per-token prices as reported by the catalog source.
// Values are kept as strings because upstreams encode them that way.
type Pricing struct {
	Prompt     string `json:"prompt,omitempty"`
	Completion string `json:"completion,omitempty"`
	Image      string `json:"image,omitempty"`
	Request    string `json:"request,omitempty"`
}

// Architecture describes a model's modalities.
type Architecture struct {
	Modality     string `json:"modality,omitempty"`
	Tokenizer    string `json:"tokenizer,omitempty"`
	InstructType string `json:"instruct_type,omitempty"`
}

// ModelDescriptor is one entry of a model catalog.
type ModelDescriptor struct {
	ID            string        `json:"id"`
	Name          string        `json:"name,omitempty"`
	ContextLength int           `json:"context_length"`
	Capabilities  []string      `json:"capabilities,omitempty"`
	Pricing       *Pricing      `json:"pricing,omitempty"`
	Architecture  *Architecture `json:"architecture,omitempty"`
}

// HasCapability reports whether the descriptor carries flag.
func (d ModelDescriptor) HasCapability(flag string) bool {
	for _, c := range d.Capabilities {
		if c == flag {
			return true
		}
	}
	return false
}

// Catalog supplies the models a resolver may pick from, in a stable order.
type Catalog interface {
	Models(ctx context.Context) ([]ModelDescriptor, error)
}

// StaticCatalog is a fixed, in-memory catalog.
type StaticCatalog struct {
	models []ModelDescriptor
}

// NewStaticCatalog copies models into a catalog.
func NewStaticCatalog(models []ModelDescriptor) *StaticCatalog {
	out := make([]ModelDescriptor, len(models))
	copy(out, models)
	return &StaticCatalog{models: out}
}

// Models returns the fixed list. It never fails.
func (c *StaticCatalog) Models(context.Context) ([]ModelDescriptor, error) {
	return c.models, nil
}

// Source loads a catalog from an upstream.
type Source interface {
	// Name identifies the upstream in errors and logs, typically its URL.
	Name() string
	FetchModels(ctx context.Context) ([]ModelDescriptor, error)
}

// SnapshotStore persists fetched catalogs across process restarts.
// Load returns nil models when nothing is stored.
type SnapshotStore interface {
	LoadCatalog(ctx context.Context) (models []ModelDescriptor, updatedAt time.Time, err error)
	SaveCatalog(ctx context.Context, models []ModelDescriptor) error
}

// FetchingCatalog loads its models from a Source on first use and keeps
// them for its lifetime. Concurrent first callers share one fetch. Failed
// fetches are not cached, so a later call tries again.
type FetchingCatalog struct {
	source    Source
	snapshots SnapshotStore
	maxAge    time.Duration
	now       func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	models  []ModelDescriptor
	loaded  bool
	fetches atomic.Int64
}

// FetchingCatalogOption configures a FetchingCatalog.
type FetchingCatalogOption func(*FetchingCatalog)

// WithSnapshotStore lets the catalog start from a persisted snapshot no older
// than maxAge. A zero maxAge accepts any snapshot.
func WithSnapshotStore(store SnapshotStore, maxAge time.Duration) FetchingCatalogOption {
	return func(c *FetchingCatalog) {
		c.snapshots = store
		c.maxAge = maxAge
	}
}

// NewFetchingCatalog creates a lazily loaded catalog.
func NewFetchingCatalog(source Source, opts ...FetchingCatalogOption) *FetchingCatalog {
	c := &FetchingCatalog{source: source, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Models returns the cached catalog, loading it on the first call.
func (c *FetchingCatalog) Models(ctx context.Context) ([]ModelDescriptor, error) {
	c.mu.RLock()
	if c.loaded {
		models := c.models
		c.mu.RUnlock()
		return models, nil
	}
	c.mu.RUnlock()

	// The shared load must outlive any single caller's cancellation.
	ch := c.group.DoChan("catalog", func() (any, error) {
		return c.load(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]ModelDescriptor), nil
	}
}

// FetchCount returns how many times the upstream source was called.
func (c *FetchingCatalog) FetchCount() int64 {
	return c.fetches.Load()
}

// Loaded reports whether the catalog has been populated.
func (c *FetchingCatalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *FetchingCatalog) load(ctx context.Context) ([]ModelDescriptor, error) {
	c.mu.RLock()
	if c.loaded {
		models := c.models
		c.mu.RUnlock()
		return models, nil
	}
	c.mu.RUnlock()

	if models := c.loadSnapshot(ctx); models != nil {
		c.store(models)
		return models, nil
	}

	c.fetches.Add(1)
	models, err := c.source.FetchModels(ctx)
	if err != nil {
		var fetchErr *CatalogFetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &CatalogFetchError{Source: c.source.Name(), Message: err.Error(), Err: err}
	}

	c.store(models)
	slog.Info("model catalog loaded", "source", c.source.Name(), "models", len(models))

	if c.snapshots != nil {
		if err := c.snapshots.SaveCatalog(ctx, models); err != nil {
			slog.Warn("failed to persist model catalog", "source", c.source.Name(), "error", err)
		}
	}
	return models, nil
}

func (c *FetchingCatalog) loadSnapshot(ctx context.Context) []ModelDescriptor {
	if c.snapshots == nil {
		return nil
	}
	models, updatedAt, err := c.snapshots.LoadCatalog(ctx)
	if err != nil {
		slog.Warn("failed to read persisted model catalog", "source", c.source.Name(), "error", err)
		return nil
	}
	if len(models) == 0 {
		return nil
	}
	if c.maxAge > 0 && c.now().Sub(updatedAt) > c.maxAge {
		slog.Debug("persisted model catalog is stale", "source", c.source.Name(), "updated_at", updatedAt)
		return nil
	}
	slog.Info("model catalog restored from cache", "source", c.source.Name(), "models", len(models))
	return models
}

func (c *FetchingCatalog) store(models []ModelDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = models
	c.loaded = true
}
