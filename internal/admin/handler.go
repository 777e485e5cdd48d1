// Package admin provides the read-only REST API over strategies and usage.
package admin

import (
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"samplegate/internal/core"
	"samplegate/internal/usage"
	"samplegate/internal/version"
)

// Handler serves admin API endpoints.
type Handler struct {
	usageReader usage.UsageReader
	strategies  []core.StrategyDefinition
	active      string
	startTime   time.Time
}

// NewHandler creates a new admin API handler.
// usageReader may be nil if usage tracking is not available.
func NewHandler(reader usage.UsageReader, strategies []core.StrategyDefinition, active string) *Handler {
	return &Handler{
		usageReader: reader,
		strategies:  strategies,
		active:      active,
		startTime:   time.Now(),
	}
}

// parseUsageParams extracts UsageQueryParams from the request query string.
// Returns an error if date parameters are provided but malformed.
func parseUsageParams(c echo.Context) (usage.UsageQueryParams, error) {
	var params usage.UsageQueryParams

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	startStr := c.QueryParam("start_date")
	endStr := c.QueryParam("end_date")

	var startParsed, endParsed bool

	if startStr != "" {
		t, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			return params, core.NewInvalidRequestError("invalid start_date format, expected YYYY-MM-DD", nil)
		}
		params.StartDate = t
		startParsed = true
	}

	if endStr != "" {
		t, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			return params, core.NewInvalidRequestError("invalid end_date format, expected YYYY-MM-DD", nil)
		}
		params.EndDate = t
		endParsed = true
	}

	if startParsed || endParsed {
		if !startParsed {
			params.StartDate = params.EndDate.AddDate(0, 0, -29)
		}
		if !endParsed {
			params.EndDate = today
		}
	} else {
		days := 30
		if d := c.QueryParam("days"); d != "" {
			if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 {
				days = parsed
			}
		}
		params.EndDate = today
		params.StartDate = today.AddDate(0, 0, -(days - 1))
	}

	if params.StartDate.After(params.EndDate) {
		return params, core.NewInvalidRequestError("start_date must not be after end_date", nil)
	}

	params.Strategy = c.QueryParam("strategy")
	return params, nil
}

// handleError converts errors to HTTP responses in the gateway error format.
func handleError(c echo.Context, err error) error {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return c.JSON(gatewayErr.HTTPStatusCode(), map[string]interface{}{
			"error": gatewayErr,
		})
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}

// Strategies handles GET /v1/strategies
func (h *Handler) Strategies(c echo.Context) error {
	defs := h.strategies
	if defs == nil {
		defs = []core.StrategyDefinition{}
	}
	return c.JSON(http.StatusOK, StrategiesResponse{
		Active:     h.active,
		Strategies: defs,
	})
}

// Overview handles GET /admin/api/v1/overview
func (h *Handler) Overview(c echo.Context) error {
	return c.JSON(http.StatusOK, OverviewResponse{
		Strategy:      h.active,
		UsageTracking: h.usageReader != nil,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		Version:       version.Version,
		GoVersion:     runtime.Version(),
	})
}

// UsageSummary handles GET /admin/api/v1/usage/summary
func (h *Handler) UsageSummary(c echo.Context) error {
	if h.usageReader == nil {
		return c.JSON(http.StatusOK, usage.UsageSummary{})
	}

	params, err := parseUsageParams(c)
	if err != nil {
		return handleError(c, err)
	}

	summary, err := h.usageReader.GetSummary(c.Request().Context(), params)
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(http.StatusOK, summary)
}

// UsageByModel handles GET /admin/api/v1/usage/models
func (h *Handler) UsageByModel(c echo.Context) error {
	if h.usageReader == nil {
		return c.JSON(http.StatusOK, []usage.ModelUsage{})
	}

	params, err := parseUsageParams(c)
	if err != nil {
		return handleError(c, err)
	}

	models, err := h.usageReader.GetModelUsage(c.Request().Context(), params)
	if err != nil {
		return handleError(c, err)
	}

	if models == nil {
		models = []usage.ModelUsage{}
	}

	return c.JSON(http.StatusOK, models)
}
