package core

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request-id"
	strategyKey  contextKey = "strategy"
)

// WithRequestID returns a new context with the request ID attached.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithStrategy records the name of the strategy serving the request.
func WithStrategy(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, strategyKey, name)
}

// GetStrategy returns the strategy name stored by WithStrategy.
func GetStrategy(ctx context.Context) string {
	if v, ok := ctx.Value(strategyKey).(string); ok {
		return v
	}
	return ""
}
