package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/samber/lo"
)

// OpenAIBackend talks to any OpenAI-compatible chat completions endpoint,
// including Gemini's.
type OpenAIBackend struct {
	client openai.Client
}

func NewOpenAIBackend(apiKey, baseURL string, opts ...option.RequestOption) *OpenAIBackend {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	}, opts...)
	return &OpenAIBackend{client: openai.NewClient(all...)}
}

func (b *OpenAIBackend) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	completion, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: modelName,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model %s returned no completion choices", modelName)
	}

	return completion.Choices[0].Message.Content, nil
}

func (b *OpenAIBackend) ListModels(ctx context.Context) ([]string, error) {
	page, err := b.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return lo.Map(page.Data, func(m openai.Model, _ int) string { return m.ID }), nil
}
