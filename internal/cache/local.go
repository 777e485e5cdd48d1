package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalCache implements Cache using one JSON file per key in a directory.
// This is suitable for single-instance deployments.
type LocalCache struct {
	mu  sync.RWMutex
	dir string
}

// NewLocalCache creates a new local file-based cache rooted at dir.
// An empty dir disables persistence.
func NewLocalCache(dir string) *LocalCache {
	return &LocalCache{dir: dir}
}

func (c *LocalCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get retrieves the snapshot stored under key.
func (c *LocalCache) Get(ctx context.Context, key string) (*CatalogSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dir == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var snap CatalogSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return &snap, nil
}

// Set stores the snapshot under key.
func (c *LocalCache) Set(ctx context.Context, key string, snapshot *CatalogSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	// Write atomically using temp file + rename
	target := c.path(key)
	tmpFile := target + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpFile, target); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}
	return nil
}

// Close is a no-op for local cache.
func (c *LocalCache) Close() error {
	return nil
}
