package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SQLite binds at most 999 parameters per statement.
const (
	maxSQLiteParams      = 999
	columnsPerUsageEntry = 11
	maxEntriesPerBatch   = maxSQLiteParams / columnsPerUsageEntry
)

// sqliteTimeLayout is fixed width so stored timestamps and query bounds
// order correctly as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		strategy TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_code INTEGER NOT NULL DEFAULT 0
	)
`

// SQLiteStore implements UsageStore for SQLite databases.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// NewSQLiteStore creates the usage table and indexes if missing and starts
// the retention cleanup loop when retentionDays is positive.
func NewSQLiteStore(db *sql.DB, retentionDays int) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create usage table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sampling_usage_timestamp ON " + tableName + "(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_sampling_usage_request_id ON " + tableName + "(request_id)",
		"CREATE INDEX IF NOT EXISTS idx_sampling_usage_strategy_model ON " + tableName + "(strategy, model)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	store := &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
		stopCleanup:   make(chan struct{}),
	}
	if retentionDays > 0 {
		go RunCleanupLoop(store.stopCleanup, CleanupInterval, store.cleanup)
	}
	return store, nil
}

// WriteBatch inserts entries in chunks that fit SQLite's parameter limit.
// Duplicate IDs are ignored.
func (s *SQLiteStore) WriteBatch(ctx context.Context, entries []*UsageEntry) error {
	for i := 0; i < len(entries); i += maxEntriesPerBatch {
		end := min(i+maxEntriesPerBatch, len(entries))
		chunk := entries[i:end]

		placeholders := make([]string, len(chunk))
		values := make([]any, 0, len(chunk)*columnsPerUsageEntry)
		for j, e := range chunk {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			values = append(values,
				e.ID,
				e.RequestID,
				sqliteTime(e.Timestamp),
				e.Strategy,
				e.Model,
				e.InputTokens,
				e.OutputTokens,
				e.TotalTokens,
				e.DurationMs,
				e.Status,
				e.ErrorCode,
			)
		}

		query := `INSERT OR IGNORE INTO ` + tableName + ` (id, request_id, timestamp, strategy, model,
			input_tokens, output_tokens, total_tokens, duration_ms, status, error_code) VALUES ` +
			strings.Join(placeholders, ",")

		if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert usage batch %d: %w", i/maxEntriesPerBatch, err)
		}
	}
	return nil
}

// Flush is a no-op; writes are synchronous.
func (s *SQLiteStore) Flush(_ context.Context) error {
	return nil
}

// Close stops the cleanup goroutine. The database itself belongs to the
// storage layer. Safe to call multiple times.
func (s *SQLiteStore) Close() error {
	if s.retentionDays > 0 {
		s.closeOnce.Do(func() { close(s.stopCleanup) })
	}
	return nil
}

func (s *SQLiteStore) cleanup() {
	cutoff := sqliteTime(retentionCutoff(s.retentionDays))

	result, err := s.db.Exec("DELETE FROM "+tableName+" WHERE timestamp < ?", cutoff)
	if err != nil {
		slog.Error("failed to cleanup old usage entries", "error", err)
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		slog.Info("cleaned up old usage entries", "deleted", n)
	}
}
