package providers

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// AnthropicAnswerer answers questions by calling the Anthropic API directly.
type AnthropicAnswerer struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicAnswerer creates an Anthropic-backed answerer.
func NewAnthropicAnswerer(apiKey, modelName string) *AnthropicAnswerer {
	return &AnthropicAnswerer{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}
}

func (a *AnthropicAnswerer) Answer(ctx context.Context, question string, passages []string) (string, error) {
	temperature := answerTemperature

	req := anthropic.MessagesRequest{
		Model: anthropic.Model(a.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(buildUserPrompt(question, passages))},
			},
		},
		MaxTokens:   1024,
		Temperature: &temperature,
		MultiSystem: []anthropic.MessageSystemPart{
			{Type: "text", Text: systemPrompt},
		},
	}

	resp, err := a.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response from Anthropic")
	}
	return text, nil
}
