package usage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLReader implements UsageReader for PostgreSQL databases.
type PostgreSQLReader struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLReader creates a new PostgreSQL usage reader.
func NewPostgreSQLReader(pool *pgxpool.Pool) (*PostgreSQLReader, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &PostgreSQLReader{pool: pool}, nil
}

func postgresFilters(params UsageQueryParams) ([]string, []any) {
	return sqlFilters(params,
		func(n int) string { return "$" + strconv.Itoa(n) },
		func(t time.Time) any { return t },
	)
}

func (r *PostgreSQLReader) GetSummary(ctx context.Context, params UsageQueryParams) (*UsageSummary, error) {
	conditions, args := postgresFilters(params)
	query := `SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'error'),
			COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(total_tokens), 0)
		FROM ` + tableName + buildWhereClause(conditions)

	summary := &UsageSummary{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&summary.TotalRequests, &summary.FailedRequests,
		&summary.TotalInput, &summary.TotalOutput, &summary.TotalTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	return summary, nil
}

func (r *PostgreSQLReader) GetModelUsage(ctx context.Context, params UsageQueryParams) ([]ModelUsage, error) {
	conditions, args := postgresFilters(params)
	conditions = append(conditions, "status = 'success'")
	query := `SELECT strategy, model, COUNT(*) AS requests,
			COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(SUM(total_tokens), 0)
		FROM ` + tableName + buildWhereClause(conditions) + `
		GROUP BY strategy, model ORDER BY requests DESC, strategy, model`

	rows, err := r.pool.Query(ctx, query, args...)
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
