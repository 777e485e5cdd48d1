package modeldata

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"samplegate/internal/selection"
)

const catalogJSON = `{
	"data": [
		{
			"id": "openai/o1",
			"name": "OpenAI: o1",
			"context_length": 200000,
			"pricing": {"prompt": "0.000015", "completion": "0.00006"},
			"architecture": {"modality": "text+image->text", "tokenizer": "GPT"},
			"supported_parameters": ["max_tokens", "reasoning"]
		},
		{
			"id": "openai/gpt-4o-mini",
			"name": "OpenAI: GPT-4o-mini",
			"context_length": 128000,
			"pricing": {"prompt": "0.00000015", "completion": "0.0000006"}
		},
		{
			"id": "meta-llama/llama-3-8b",
			"top_provider": {"context_length": 8192}
		},
		{
			"name": "missing id"
		}
	]
}`

func compressBrotli(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("brotli write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("brotli close: %v", err)
	}
	return buf.Bytes()
}

func compressGzip(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Error("expected Accept: application/json header")
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want Bearer sk-test", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	list, raw, err := Fetch(context.Background(), server.Client(), server.URL, "sk-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw == nil {
		t.Fatal("expected non-nil raw bytes")
	}
	if len(list.Data) != 4 {
		t.Errorf("Data len = %d, want 4", len(list.Data))
	}
}

func TestFetch_Encodings(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		encode   func(*testing.T, []byte) []byte
	}{
		{"brotli", "br", compressBrotli},
		{"gzip", "gzip", compressGzip},
		{"identity", "", func(_ *testing.T, b []byte) []byte { return b }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.encode(t, []byte(catalogJSON))
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.Header.Get("Accept-Encoding"), "br") {
					t.Error("expected brotli to be advertised")
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(body)
			}))
			defer server.Close()

			list, _, err := Fetch(context.Background(), server.Client(), server.URL, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list.Data) != 4 {
				t.Errorf("Data len = %d, want 4", len(list.Data))
			}
		})
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "No auth credentials found", "code": 401}}`))
	}))
	defer server.Close()

	_, _, err := Fetch(context.Background(), server.Client(), server.URL, "")
	var fetchErr *selection.CatalogFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *CatalogFetchError, got %T (%v)", err, err)
	}
	if fetchErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", fetchErr.StatusCode)
	}
	if fetchErr.Message != "No auth credentials found" {
		t.Errorf("Message = %q", fetchErr.Message)
	}
}

func TestFetch_InvalidJSON(t *testing.T) {
	for _, body := range []string{"not json", `{"models": []}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, _, err := Fetch(context.Background(), server.Client(), server.URL, "")
		server.Close()

		var fetchErr *selection.CatalogFetchError
		if !errors.As(err, &fetchErr) {
			t.Errorf("body %q: expected *CatalogFetchError, got %v", body, err)
		}
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	client := &http.Client{Timeout: 20 * time.Millisecond}
	_, _, err := Fetch(context.Background(), client, server.URL, "")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestFetch_BodyTooLarge(t *testing.T) {
	_, err := decodeBody(strings.NewReader(strings.Repeat("x", 32)), "", 16)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestDecodeBody_UnsupportedEncoding(t *testing.T) {
	if _, err := decodeBody(strings.NewReader("x"), "zstd", 16); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestSource_FetchModels(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(catalogJSON))
	}))
	defer server.Close()

	src := NewSource(server.Client(), server.URL+"/api/v1/", "key")
	if src.Name() != server.URL+"/api/v1/models" {
		t.Errorf("Name() = %q", src.Name())
	}

	models, err := src.FetchModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/api/v1/models" {
		t.Errorf("path = %q, want /api/v1/models", path)
	}
	if len(models) != 3 {
		t.Fatalf("got %d descriptors, want 3", len(models))
	}

	if models[0].ID != "openai/o1" || !models[0].HasCapability(selection.CapabilityExtendedThinking) {
		t.Errorf("o1 descriptor = %+v, want extended thinking capability", models[0])
	}
	if models[0].Pricing == nil || models[0].Pricing.Prompt != "0.000015" {
		t.Errorf("o1 pricing = %+v", models[0].Pricing)
	}
	if models[1].HasCapability(selection.CapabilityExtendedThinking) {
		t.Error("gpt-4o-mini should not have extended thinking")
	}
	if models[2].ContextLength != 8192 {
		t.Errorf("llama ContextLength = %d, want 8192 from top_provider", models[2].ContextLength)
	}
}
