package translation

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend asks an OpenAI chat model for sentence pairs
type OpenAIBackend struct {
	apiKey     string
	model      string
	sourceLang string
	targetLang string
	client     *openai.Client
}

// NewOpenAIBackend creates an OpenAI backend
func NewOpenAIBackend(apiKey, model, sourceLang, targetLang string) *OpenAIBackend {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIBackend{
		apiKey:     apiKey,
		model:      model,
		sourceLang: sourceLang,
		targetLang: targetLang,
		client:     openai.NewClient(apiKey),
	}
}

// Name returns the provider name
func (o *OpenAIBackend) Name() string {
	return ProviderOpenAI
}

// Fragments translates text with a single chat completion
func (o *OpenAIBackend) Fragments(ctx context.Context, text string) ([]Fragment, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: chatPrompt(o.sourceLang, o.targetLang, text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return decodePairsPayload(resp.Choices[0].Message.Content)
}
