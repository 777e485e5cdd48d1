package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"samplegate/internal/core"
	"samplegate/internal/usage"
)

// mockUsageReader implements usage.UsageReader for testing.
type mockUsageReader struct {
	summary       *usage.UsageSummary
	modelUsage    []usage.ModelUsage
	summaryErr    error
	modelUsageErr error
	lastParams    usage.UsageQueryParams
}

func (m *mockUsageReader) GetSummary(_ context.Context, params usage.UsageQueryParams) (*usage.UsageSummary, error) {
	m.lastParams = params
	if m.summaryErr != nil {
		return nil, m.summaryErr
	}
	return m.summary, nil
}

func (m *mockUsageReader) GetModelUsage(_ context.Context, params usage.UsageQueryParams) ([]usage.ModelUsage, error) {
	m.lastParams = params
	if m.modelUsageErr != nil {
		return nil, m.modelUsageErr
	}
	return m.modelUsage, nil
}

func newHandlerContext(path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var testDefinitions = []core.StrategyDefinition{
	{ID: "stub", Name: "Stub"},
	{ID: "openrouter", Name: "OpenRouter", RequiresConfig: true, ConfigFields: []core.ConfigField{
		{Name: "apiKey", Type: "password", Label: "API Key", Required: true},
	}},
}

func TestStrategies(t *testing.T) {
	h := NewHandler(nil, testDefinitions, "openrouter")
	c, rec := newHandlerContext("/v1/strategies")

	if err := h.Strategies(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp StrategiesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Active != "openrouter" {
		t.Errorf("expected active strategy openrouter, got %q", resp.Active)
	}
	if len(resp.Strategies) != 2 || resp.Strategies[1].ID != "openrouter" {
		t.Fatalf("unexpected strategies: %+v", resp.Strategies)
	}
	if !resp.Strategies[1].RequiresConfig || len(resp.Strategies[1].ConfigFields) != 1 {
		t.Errorf("expected config fields to be returned, got %+v", resp.Strategies[1])
	}
}

func TestStrategies_Empty(t *testing.T) {
	h := NewHandler(nil, nil, "stub")
	c, rec := newHandlerContext("/v1/strategies")

	if err := h.Strategies(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"strategies":[]`) {
		t.Errorf("expected empty strategies array, got: %s", rec.Body.String())
	}
}

func TestOverview(t *testing.T) {
	h := NewHandler(&mockUsageReader{}, nil, "anthropic")
	c, rec := newHandlerContext("/admin/api/v1/overview")

	if err := h.Overview(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp OverviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Strategy != "anthropic" {
		t.Errorf("expected strategy anthropic, got %q", resp.Strategy)
	}
	if !resp.UsageTracking {
		t.Error("expected usage tracking to be reported")
	}
	if resp.GoVersion == "" || resp.Version == "" {
		t.Errorf("expected version info, got %+v", resp)
	}
}

// --- UsageSummary handler tests ---

func TestUsageSummary_NilReader(t *testing.T) {
	h := NewHandler(nil, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/summary")

	if err := h.UsageSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var summary usage.UsageSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if summary != (usage.UsageSummary{}) {
		t.Errorf("expected zeroed summary, got %+v", summary)
	}
}

func TestUsageSummary_Success(t *testing.T) {
	reader := &mockUsageReader{
		summary: &usage.UsageSummary{
			TotalRequests:  42,
			FailedRequests: 2,
			TotalInput:     1000,
			TotalOutput:    500,
			TotalTokens:    1500,
		},
	}
	h := NewHandler(reader, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/summary?days=30&strategy=openrouter")

	if err := h.UsageSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var summary usage.UsageSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if summary.TotalRequests != 42 || summary.FailedRequests != 2 {
		t.Errorf("unexpected request counts: %+v", summary)
	}
	if summary.TotalTokens != 1500 {
		t.Errorf("expected 1500 total tokens, got %d", summary.TotalTokens)
	}
	if reader.lastParams.Strategy != "openrouter" {
		t.Errorf("expected strategy filter to be passed through, got %q", reader.lastParams.Strategy)
	}
}

func TestUsageSummary_InvalidDate(t *testing.T) {
	h := NewHandler(&mockUsageReader{}, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/summary?start_date=yesterday")

	if err := h.UsageSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Errorf("expected invalid_request_error in body, got: %s", rec.Body.String())
	}
}

func TestUsageSummary_GenericError(t *testing.T) {
	reader := &mockUsageReader{
		summaryErr: errors.New("database connection lost"),
	}
	h := NewHandler(reader, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/summary")

	if err := h.UsageSummary(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "database connection lost") {
		t.Errorf("original error message should be hidden, got: %s", body)
	}
	if !strings.Contains(body, "an unexpected error occurred") {
		t.Errorf("expected generic message, got: %s", body)
	}
}

// --- UsageByModel handler tests ---

func TestUsageByModel_NilReader(t *testing.T) {
	h := NewHandler(nil, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/models")

	if err := h.UsageByModel(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got: %s", rec.Body.String())
	}
}

func TestUsageByModel_Success(t *testing.T) {
	reader := &mockUsageReader{
		modelUsage: []usage.ModelUsage{
			{Strategy: "openrouter", Model: "openai/gpt-4o", Requests: 3, InputTokens: 30, OutputTokens: 9, TotalTokens: 39},
			{Strategy: "anthropic", Model: "claude-3-5-haiku-latest", Requests: 1, InputTokens: 5, OutputTokens: 2, TotalTokens: 7},
		},
	}
	h := NewHandler(reader, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/models?start_date=2026-01-01&end_date=2026-01-31")

	if err := h.UsageByModel(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []usage.ModelUsage
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Model != "openai/gpt-4o" || got[0].Requests != 3 {
		t.Errorf("unexpected model usage: %+v", got)
	}
}

func TestUsageByModel_NilResult(t *testing.T) {
	h := NewHandler(&mockUsageReader{}, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/models")

	if err := h.UsageByModel(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got: %s", rec.Body.String())
	}
}

func TestUsageByModel_Error(t *testing.T) {
	reader := &mockUsageReader{
		modelUsageErr: core.NewProviderError("storage", http.StatusBadGateway, "unavailable", nil),
	}
	h := NewHandler(reader, nil, "stub")
	c, rec := newHandlerContext("/admin/api/v1/usage/models")

	if err := h.UsageByModel(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestHandleError_GatewayErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "provider_error → 502",
			err:            core.NewProviderError("test", http.StatusBadGateway, "upstream error", nil),
			expectedStatus: http.StatusBadGateway,
			expectedType:   "provider_error",
		},
		{
			name:           "rate_limit_error → 429",
			err:            core.NewRateLimitError("test", "rate limited"),
			expectedStatus: http.StatusTooManyRequests,
			expectedType:   "rate_limit_error",
		},
		{
			name:           "invalid_request_error → 400",
			err:            core.NewInvalidRequestError("bad input", nil),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_request_error",
		},
		{
			name:           "authentication_error → 401",
			err:            core.NewAuthenticationError("test", "invalid key"),
			expectedStatus: http.StatusUnauthorized,
			expectedType:   "authentication_error",
		},
		{
			name:           "not_found_error → 404",
			err:            core.NewNotFoundError("model not found"),
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newHandlerContext("/test")

			if err := handleError(c, tt.err); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedType) {
				t.Errorf("expected %s in body, got: %s", tt.expectedType, rec.Body.String())
			}
		})
	}
}

func newContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestParseUsageParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "default 30 days",
			query:     "",
			wantStart: today().AddDate(0, 0, -29),
			wantEnd:   today(),
		},
		{
			name:      "explicit days",
			query:     "days=7",
			wantStart: today().AddDate(0, 0, -6),
			wantEnd:   today(),
		},
		{
			name:      "invalid days falls back to default",
			query:     "days=-3",
			wantStart: today().AddDate(0, 0, -29),
			wantEnd:   today(),
		},
		{
			name:      "start and end date",
			query:     "start_date=2026-01-01&end_date=2026-01-31",
			wantStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "only end date",
			query:     "end_date=2026-02-10",
			wantStart: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "only start date",
			query:     "start_date=2026-01-15",
			wantStart: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			wantEnd:   today(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := parseUsageParams(newContext(tt.query))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !params.StartDate.Equal(tt.wantStart) {
				t.Errorf("expected start date %v, got %v", tt.wantStart, params.StartDate)
			}
			if !params.EndDate.Equal(tt.wantEnd) {
				t.Errorf("expected end date %v, got %v", tt.wantEnd, params.EndDate)
			}
		})
	}
}

func TestParseUsageParams_Errors(t *testing.T) {
	for _, query := range []string{
		"start_date=invalid",
		"start_date=2026-01-01&end_date=also-invalid",
		"start_date=2026-02-01&end_date=2026-01-01",
	} {
		t.Run(query, func(t *testing.T) {
			_, err := parseUsageParams(newContext(query))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var gatewayErr *core.GatewayError
			if !errors.As(err, &gatewayErr) {
				t.Fatalf("expected GatewayError, got %T", err)
			}
			if gatewayErr.HTTPStatusCode() != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", gatewayErr.HTTPStatusCode())
			}
		})
	}
}
