package model

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Claude generates content through the Anthropic Messages API.
type Claude struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewClaude creates a Claude provider for the given model name.
func NewClaude(apiKey, model string) *Claude {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Claude{
		client: &client,
		model:  anthropic.Model(model),
	}
}

func (c *Claude) Name() string {
	return string(c.model)
}

func (c *Claude) Generate(ctx context.Context, req Request) (string, error) {
	prompt, err := req.Prompt()
	if err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response from %s", c.model)
	}

	return resp.Content[0].Text, nil
}
