package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteReader implements UsageReader for SQLite databases.
type SQLiteReader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite usage reader.
func NewSQLiteReader(db *sql.DB) (*SQLiteReader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteReader{db: db}, nil
}

func sqliteFilters(params UsageQueryParams) ([]string, []any) {
	return sqlFilters(params,
		func(int) string { return "?" },
		func(t time.Time) any { return sqliteTime(t) },
	)
}

func (r *SQLiteReader) GetSummary(ctx context.Context, params UsageQueryParams) (*UsageSummary, error) {
	conditions, args := sqliteFilters(params)
	query := `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(total_tokens), 0)
		FROM ` + tableName + buildWhereClause(conditions)

	summary := &UsageSummary{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalRequests, &summary.FailedRequests,
		&summary.TotalInput, &summary.TotalOutput, &summary.TotalTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	return summary, nil
}

func (r *SQLiteReader) GetModelUsage(ctx context.Context, params UsageQueryParams) ([]ModelUsage, error) {
	conditions, args := sqliteFilters(params)
	conditions = append(conditions, "status = 'success'")
	query := `SELECT strategy, model, COUNT(*) AS requests,
			COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(total_tokens), 0)
		FROM ` + tableName + buildWhereClause(conditions) + `
		GROUP BY strategy, model ORDER BY requests DESC, strategy, model`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query model usage: %w", err)
	}
	defer rows.Close()

	result := make([]ModelUsage, 0)
	for rows.Next() {
		var m ModelUsage
		if err := rows.Scan(&m.Strategy, &m.Model, &m.Requests, &m.InputTokens, &m.OutputTokens, &m.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to scan model usage row: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model usage rows: %w", err)
	}
	return result, nil
}
