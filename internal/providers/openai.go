package providers

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIAnswerer answers questions through any OpenAI-compatible chat API.
type OpenAIAnswerer struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnswerer creates an answerer for an OpenAI-compatible endpoint.
// baseURL is optional and overrides the default OpenAI endpoint.
func NewOpenAIAnswerer(apiKey, modelName, baseURL string) *OpenAIAnswerer {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIAnswerer{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}
}

func (a *OpenAIAnswerer) Answer(ctx context.Context, question string, passages []string) (string, error) {
	temperature := answerTemperature

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(question, passages)},
		},
		Temperature: &temperature,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}
