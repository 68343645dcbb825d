// Package llm implements the AI completion port on the OpenAI API, wrapped
// in a circuit breaker so a degraded upstream fails fast instead of piling
// up request timeouts.
package llm

import (
	"context"
	"time"

	"lexflow_server/pkg/logger"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
)

const DefaultModel = "gpt-4o-mini"

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

type Client struct {
	client      *openai.Client
	breaker     *gobreaker.CircuitBreaker
	model       string
	maxTokens   int
	temperature float32
}

func NewClient(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.4
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openai",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return &Client{
		client:      openai.NewClient(cfg.APIKey),
		breaker:     breaker,
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	})
}

func (c *Client) chat(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
