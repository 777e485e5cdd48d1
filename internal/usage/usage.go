// Package usage records one entry per sampling request and stores the
// entries in the configured database for later aggregation.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"samplegate/internal/core"
)

// Entry statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UsageStore defines the interface for usage storage backends.
// Implementations must be safe for concurrent use.
type UsageStore interface {
	// WriteBatch writes multiple usage entries to storage.
	// This is called by the Logger when flushing buffered entries.
	WriteBatch(ctx context.Context, entries []*UsageEntry) error

	// Flush forces any pending writes to complete.
	Flush(ctx context.Context) error

	Close() error
}

// UsageEntry is the record of one sampling request.
type UsageEntry struct {
	ID        string    `json:"id" bson:"_id"`
	RequestID string    `json:"request_id" bson:"request_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	// Strategy is the sampling strategy that served the request.
	Strategy string `json:"strategy" bson:"strategy"`
	// Model is the concrete model the strategy selected, empty on early failures.
	Model string `json:"model" bson:"model"`

	InputTokens  int `json:"input_tokens" bson:"input_tokens"`
	OutputTokens int `json:"output_tokens" bson:"output_tokens"`
	TotalTokens  int `json:"total_tokens" bson:"total_tokens"`

	DurationMs int64  `json:"duration_ms" bson:"duration_ms"`
	Status     string `json:"status" bson:"status"`
	// ErrorCode is the JSON-RPC error code for failed requests, 0 otherwise.
	ErrorCode int `json:"error_code,omitempty" bson:"error_code,omitempty"`
}

// NewEntry builds an entry for a finished request. A nil result with a
// non-zero errorCode records a failure.
func NewEntry(requestID, strategy string, result *core.SamplingResult, duration time.Duration, errorCode int) *UsageEntry {
	e := &UsageEntry{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		Timestamp:  time.Now().UTC(),
		Strategy:   strategy,
		DurationMs: duration.Milliseconds(),
		Status:     StatusSuccess,
	}
	if errorCode != 0 {
		e.Status = StatusError
		e.ErrorCode = errorCode
	}
	if result != nil {
		e.Model = result.Model
		if u := result.Usage; u != nil {
			e.InputTokens = u.InputTokens
			e.OutputTokens = u.OutputTokens
			e.TotalTokens = u.TotalTokens
			if e.TotalTokens == 0 {
				e.TotalTokens = u.InputTokens + u.OutputTokens
			}
		}
	}
	return e
}

// Config holds usage tracking configuration
type Config struct {
	Enabled bool

	// BufferSize is the number of usage entries to buffer before flushing
	BufferSize int

	FlushInterval time.Duration

	// RetentionDays is how long to keep usage data (0 = forever)
	RetentionDays int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		RetentionDays: 90,
	}
}
