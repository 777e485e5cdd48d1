package admin

import "samplegate/internal/core"

// OverviewResponse is the JSON response for GET /admin/api/v1/overview.
type OverviewResponse struct {
	Strategy      string `json:"strategy"`
	UsageTracking bool   `json:"usage_tracking"`
	Uptime        string `json:"uptime"`
	Version       string `json:"version"`
	GoVersion     string `json:"go_version"`
}

// StrategiesResponse is the JSON response for GET /v1/strategies.
type StrategiesResponse struct {
	Active     string                    `json:"active"`
	Strategies []core.StrategyDefinition `json:"strategies"`
}
