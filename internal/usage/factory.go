package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"samplegate/config"
	"samplegate/internal/storage"
)

// Result holds the initialized usage logger and its dependencies.
// The caller is responsible for calling Close() to release resources.
type Result struct {
	Logger LoggerInterface
	// Reader is nil when usage tracking is disabled.
	Reader  UsageReader
	Storage storage.Storage
}

// Close releases all resources held by the usage logger.
// Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logger close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// New opens the configured storage and builds a usage logger on it.
// If usage tracking is disabled it returns a NoopLogger and no storage.
func New(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.Usage.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	result, err := NewWithSharedStorage(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	result.Storage = store
	return result, nil
}

// NewWithSharedStorage builds a usage logger on an existing connection.
// The caller keeps ownership of store.
func NewWithSharedStorage(ctx context.Context, cfg *config.Config, store storage.Storage) (*Result, error) {
	if !cfg.Usage.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required when usage tracking is enabled")
	}

	usageStore, reader, err := createUsageStore(ctx, store, cfg.Usage.RetentionDays)
	if err != nil {
		return nil, err
	}

	return &Result{
		Logger: NewLogger(usageStore, buildLoggerConfig(cfg.Usage)),
		Reader: reader,
	}, nil
}

func createUsageStore(ctx context.Context, store storage.Storage, retentionDays int) (UsageStore, UsageReader, error) {
	switch store.Type() {
	case storage.TypeSQLite:
		db := store.SQLiteDB()
		s, err := NewSQLiteStore(db, retentionDays)
		if err != nil {
			return nil, nil, err
		}
		r, err := NewSQLiteReader(db)
		if err != nil {
			return nil, nil, err
		}
		return s, r, nil

	case storage.TypePostgreSQL:
		pool := store.PostgreSQLPool()
		s, err := NewPostgreSQLStore(ctx, pool, retentionDays)
		if err != nil {
			return nil, nil, err
		}
		r, err := NewPostgreSQLReader(pool)
		if err != nil {
			return nil, nil, err
		}
		return s, r, nil

	case storage.TypeMongoDB:
		db := store.MongoDatabase()
		s, err := NewMongoDBStore(ctx, db, retentionDays)
		if err != nil {
			return nil, nil, err
		}
		r, err := NewMongoDBReader(db)
		if err != nil {
			return nil, nil, err
		}
		return s, r, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type: %s", store.Type())
	}
}

func buildLoggerConfig(usageCfg config.UsageConfig) Config {
	cfg := DefaultConfig()
	cfg.Enabled = usageCfg.Enabled
	cfg.RetentionDays = usageCfg.RetentionDays
	if usageCfg.BufferSize > 0 {
		cfg.BufferSize = usageCfg.BufferSize
	}
	if usageCfg.FlushInterval > 0 {
		cfg.FlushInterval = time.Duration(usageCfg.FlushInterval) * time.Second
	}
	return cfg
}
