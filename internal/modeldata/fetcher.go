package modeldata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"samplegate/internal/core"
	"samplegate/internal/selection"
)

const maxBodySize = 10 * 1024 * 1024 // 10 MB

// Fetch downloads and parses the model list from url. Every failure is a
// *selection.CatalogFetchError so callers can report it as a catalog outage.
// Returns the parsed list and the decoded JSON bytes.
func Fetch(ctx context.Context, client *http.Client, url, apiKey string) (*ModelList, []byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fetchError(url, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fetchError(url, 0, fmt.Errorf("fetching model list: %w", err))
	}
	defer resp.Body.Close()

	raw, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"), maxBodySize)
	if err != nil {
		return nil, nil, fetchError(url, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, &selection.CatalogFetchError{
			Source:     url,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(core.ProviderErrorMessage(raw)),
		}
	}

	list, err := Parse(raw)
	if err != nil {
		return nil, nil, fetchError(url, resp.StatusCode, err)
	}
	return list, raw, nil
}

// Parse deserializes raw JSON bytes into a ModelList.
func Parse(raw []byte) (*ModelList, error) {
	var list ModelList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parsing model list JSON: %w", err)
	}
	if list.Data == nil {
		return nil, fmt.Errorf("parsing model list JSON: missing data array")
	}
	return &list, nil
}

func fetchError(url string, status int, err error) error {
	return &selection.CatalogFetchError{Source: url, StatusCode: status, Message: err.Error(), Err: err}
}

// Source is a selection.Source backed by an OpenRouter-compatible /models endpoint.
type Source struct {
	client *http.Client
	url    string
	apiKey string
}

// NewSource returns a source reading {baseURL}/models.
func NewSource(client *http.Client, baseURL, apiKey string) *Source {
	return &Source{
		client: client,
		url:    strings.TrimRight(baseURL, "/") + "/models",
		apiKey: apiKey,
	}
}

// Name returns the catalog URL.
func (s *Source) Name() string {
	return s.url
}

// FetchModels implements selection.Source.
func (s *Source) FetchModels(ctx context.Context) ([]selection.ModelDescriptor, error) {
	list, _, err := Fetch(ctx, s.client, s.url, s.apiKey)
	if err != nil {
		return nil, err
	}
	return list.Descriptors(), nil
}
