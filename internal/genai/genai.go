// Package genai provides the text generation client used by the coffee
// assistant, wrapping the OpenAI chat completions API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// chatService defines the minimal interface for chat completions.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Error variables for better error handling and testability
var (
	ErrNoChoicesReturned = errors.New("no choices returned")
	ErrEmptyCompletion   = errors.New("completion returned empty text")
)

// Retry defaults for transient upstream failures.
const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = 800 * time.Millisecond
)

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey     string
	Model      string
	MaxRetries int
	BaseDelay  time.Duration
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key explicitly.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithMaxRetries overrides the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(o *Opts) { o.MaxRetries = n }
}

// Client wraps the OpenAI chat completion service for generating answers.
type Client struct {
	chat       chatService
	model      string
	maxRetries int
	baseDelay  time.Duration
}

// NewClient initializes a new GenAI client, falling back to the
// OPENAI_API_KEY environment variable when no key option is given.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:      string(openai.ChatModelGPT4oMini),
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		chat:       &cli.Chat.Completions,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
	}, nil
}

// GeneratePrompt generates a response from the provided system and user
// instructions. Transient upstream failures (rate limits, 5xx) are retried
// with exponential backoff and jitter up to the configured budget.
func (c *Client) GeneratePrompt(ctx context.Context, systemInstructions, userInstructions string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstructions),
			openai.UserMessage(userInstructions),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.chat.New(ctx, params)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", ErrNoChoicesReturned
			}
			content := resp.Choices[0].Message.Content
			if content == "" {
				return "", ErrEmptyCompletion
			}
			return content, nil
		}

		lastErr = err
		slog.Warn("GenAI completion attempt failed", "attempt", attempt, "error", err)
		if !isRetryable(err) || attempt == c.maxRetries {
			return "", err
		}

		delay := c.baseDelay*(1<<attempt) + time.Duration(rand.IntN(200))*time.Millisecond
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// isRetryable reports whether an upstream error is worth retrying.
func isRetryable(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"429", "500", "502", "503", "504", "overloaded", "timeout"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
