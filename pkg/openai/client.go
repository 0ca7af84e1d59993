package openai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("openai api key is required")

// Client wraps the OpenAI chat completion API used for pricing suggestions.
type Client struct {
	api   *openai.Client
	model string
}

// ChatCompleter is the surface services depend on so tests can fake it.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// NewClient validates the key and returns a ready client.
func NewClient(ctx context.Context, cfg config.OpenAIConfig, logg *logger.Logger) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = openai.GPT4TurboPreview
	}

	if logg != nil {
		logg.Info(ctx, "openai client initialized")
	}

	return &Client{
		api:   openai.NewClient(key),
		model: model,
	}, nil
}

// Complete sends one system+user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
