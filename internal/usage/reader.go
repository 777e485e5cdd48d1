package usage

import (
	"context"
	"time"
)

// UsageQueryParams filters aggregated usage. Zero dates are open bounds and
// an empty Strategy matches every strategy.
type UsageQueryParams struct {
	StartDate time.Time // inclusive, day precision
	EndDate   time.Time // inclusive, day precision
	Strategy  string
}

// UsageSummary holds aggregated usage statistics over a time period.
type UsageSummary struct {
	TotalRequests  int   `json:"total_requests"`
	FailedRequests int   `json:"failed_requests"`
	TotalInput     int64 `json:"total_input_tokens"`
	TotalOutput    int64 `json:"total_output_tokens"`
	TotalTokens    int64 `json:"total_tokens"`
}

// ModelUsage is the usage of one model under one strategy.
type ModelUsage struct {
	Strategy     string `json:"strategy"`
	Model        string `json:"model"`
	Requests     int    `json:"requests"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TotalTokens  int64  `json:"total_tokens"`
}

// UsageReader provides aggregated read access to usage entries.
type UsageReader interface {
	GetSummary(ctx context.Context, params UsageQueryParams) (*UsageSummary, error)

	// GetModelUsage groups successful requests by strategy and model,
	// ordered by request count descending.
	GetModelUsage(ctx context.Context, params UsageQueryParams) ([]ModelUsage, error)
}
