package translation

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiBackend asks a Gemini model for sentence pairs
type GeminiBackend struct {
	apiKey     string
	model      string
	sourceLang string
	targetLang string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiBackend creates a Gemini backend. The client is created lazily
// on first use so that a missing key only fails translation calls.
func NewGeminiBackend(apiKey, model, sourceLang, targetLang string) *GeminiBackend {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{
		apiKey:     apiKey,
		model:      model,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

// Name returns the provider name
func (g *GeminiBackend) Name() string {
	return ProviderGemini
}

// Fragments translates text with a single GenerateContent call
func (g *GeminiBackend) Fragments(ctx context.Context, text string) ([]Fragment, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("Gemini API key not found")
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(chatPrompt(g.sourceLang, g.targetLang, text)), config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}

	return decodePairsPayload(resp.Text())
}

func (g *GeminiBackend) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}
