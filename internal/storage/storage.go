// Package storage opens the database that backs usage tracking.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"samplegate/config"
)

// Type constants for storage backends
const (
	TypeSQLite     = "sqlite"
	TypePostgreSQL = "postgresql"
	TypeMongoDB    = "mongodb"
)

const (
	defaultSQLitePath    = "data/samplegate.db"
	defaultMaxConns      = 10
	defaultMongoDatabase = "samplegate"
)

// Storage is an open database connection.
// Exactly one of the accessors returns a non-nil handle, matching Type.
type Storage interface {
	Type() string

	SQLiteDB() *sql.DB
	PostgreSQLPool() *pgxpool.Pool
	MongoDatabase() *mongo.Database

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// New opens the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	cfg = withDefaults(cfg)
	switch cfg.Type {
	case TypeSQLite:
		return NewSQLite(cfg.SQLite)
	case TypePostgreSQL:
		return NewPostgreSQL(ctx, cfg.PostgreSQL)
	case TypeMongoDB:
		return NewMongoDB(ctx, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", cfg.Type)
	}
}

func withDefaults(cfg config.StorageConfig) config.StorageConfig {
	if cfg.Type == "" {
		cfg.Type = TypeSQLite
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = defaultSQLitePath
	}
	if cfg.PostgreSQL.MaxConns <= 0 {
		cfg.PostgreSQL.MaxConns = defaultMaxConns
	}
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = defaultMongoDatabase
	}
	return cfg
}
