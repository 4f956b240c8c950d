// Package llm is the chat-completion collaborator. One request per
// generation, a single user-role message, no retry: the first choice's
// content is consumed verbatim as Markdown.
package llm

import (
	"context"
	"fmt"
	"time"

	"roadmap-backend/domain/roadmap"
	apperrors "roadmap-backend/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Options configures the client. BaseURL points the OpenAI-compatible
// client at the hosting provider (Groq by default).
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client calls a hosted chat-completion endpoint to generate roadmaps.
type Client struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a new generation client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}

	// Fail fast while the provider is down. The breaker never retries
	// a request; it only rejects new ones until the provider recovers.
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("llm circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		client:  openai.NewClientWithConfig(config),
		model:   opts.Model,
		breaker: breaker,
		logger:  logger,
	}
}

// Generate sends the templated prompt and returns the completion text.
func (c *Client) Generate(ctx context.Context, req roadmap.GenerationRequest) (string, error) {
	out, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: req.Prompt()},
			},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("completion response contained no choices")
		}
		c.logger.Debug("chat completion finished",
			zap.String("model", c.model),
			zap.Int("promptTokens", resp.Usage.PromptTokens),
			zap.Int("completionTokens", resp.Usage.CompletionTokens),
		)
		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		switch err {
		case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
			return "", apperrors.NewUnavailableError("roadmap generation")
		}
		return "", apperrors.NewExternalError("roadmap generation", err)
	}

	content, ok := out.(string)
	if !ok || content == "" {
		return "", apperrors.NewExternalError("roadmap generation", fmt.Errorf("empty completion"))
	}
	return content, nil
}
