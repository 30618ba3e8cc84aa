package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultGoogleEndpoint is the public translate endpoint
const DefaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend queries the public translate endpoint
type GoogleBackend struct {
	endpoint   string
	sourceLang string
	targetLang string
	httpClient *http.Client
}

// NewGoogleBackend creates a backend for the given endpoint (empty means
// the public one)
func NewGoogleBackend(endpoint, sourceLang, targetLang string) *GoogleBackend {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	return &GoogleBackend{
		endpoint:   endpoint,
		sourceLang: sourceLang,
		targetLang: targetLang,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name
func (g *GoogleBackend) Name() string {
	return ProviderGoogle
}

// Fragments translates text and returns the endpoint's fragments in order
func (g *GoogleBackend) Fragments(ctx context.Context, text string) ([]Fragment, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", g.sourceLang)
	params.Set("tl", g.targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	reqURL := fmt.Sprintf("%s?%s", g.endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("translation service returned status %d: %s", resp.StatusCode, string(body))
	}

	var data []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(data) == 0 || string(data[0]) == "null" {
		return nil, ErrEmptyResponse
	}

	fragments, err := decodeTuples(data[0])
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, ErrEmptyResponse
	}
	return fragments, nil
}
