// Package cache persists fetched model catalogs.
// Supports both local (file) and Redis backends for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"samplegate/internal/selection"
)

// SnapshotVersion is bumped when the stored layout changes.
const SnapshotVersion = 1

// CatalogSnapshot is the data stored for one catalog source.
type CatalogSnapshot struct {
	Version   int                         `json:"version"`
	Source    string                      `json:"source"`
	UpdatedAt time.Time                   `json:"updated_at"`
	Models    []selection.ModelDescriptor `json:"models"`
}

// Cache defines the interface for catalog snapshot storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the snapshot stored under key.
	// Returns nil, nil if nothing is stored yet.
	Get(ctx context.Context, key string) (*CatalogSnapshot, error)

	// Set stores the snapshot under key.
	Set(ctx context.Context, key string, snapshot *CatalogSnapshot) error

	// Close releases any resources held by the cache.
	Close() error
}

// Key derives a stable storage key from a catalog source URL.
func Key(source string) string {
	return fmt.Sprintf("catalog-%016x", xxhash.Sum64String(source))
}

// SnapshotStore adapts a Cache to selection.SnapshotStore for one source.
type SnapshotStore struct {
	cache  Cache
	source string
	key    string
	now    func() time.Time
}

// NewSnapshotStore binds c to the given catalog source.
func NewSnapshotStore(c Cache, source string) *SnapshotStore {
	return &SnapshotStore{cache: c, source: source, key: Key(source), now: time.Now}
}

// LoadCatalog implements selection.SnapshotStore. Snapshots written for a
// different source or layout version are ignored.
func (s *SnapshotStore) LoadCatalog(ctx context.Context) ([]selection.ModelDescriptor, time.Time, error) {
	snap, err := s.cache.Get(ctx, s.key)
	if err != nil || snap == nil {
		return nil, time.Time{}, err
	}
	if snap.Version != SnapshotVersion || snap.Source != s.source {
		return nil, time.Time{}, nil
	}
	return snap.Models, snap.UpdatedAt, nil
}

// SaveCatalog implements selection.SnapshotStore.
func (s *SnapshotStore) SaveCatalog(ctx context.Context, models []selection.ModelDescriptor) error {
	return s.cache.Set(ctx, s.key, &CatalogSnapshot{
		Version:   SnapshotVersion,
		Source:    s.source,
		UpdatedAt: s.now().UTC(),
		Models:    models,
	})
}
