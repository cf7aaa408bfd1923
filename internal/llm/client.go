// Package llm ranks priced hotels and answers concierge prompts via the
// OpenAI chat completions API.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/neexbeast/gumdrop/internal/apperr"
	"github.com/neexbeast/gumdrop/internal/observability"
)

const (
	service      = "openai"
	DefaultModel = "gpt-4o-mini"

	requestTimeout = 60 * time.Second
	defaultRPS     = 2
)

// Options configures a Client. BaseURL is only set by tests.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	RPS     int
}

// Client wraps the chat completions API.
type Client struct {
	api   *openai.Client
	model string
	rl    *rate.Limiter
}

// New constructs a Client. It returns nil when no API key is configured so
// callers can treat the model as disabled.
func New(opts Options) *Client {
	if opts.APIKey == "" {
		return nil
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: opts.Model,
		rl:    rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
	}
}

type completion struct {
	system      string
	user        string
	maxTokens   int
	temperature float32
	jsonOnly    bool
}

// complete runs one chat completion and returns the first choice's content.
func (c *Client) complete(ctx context.Context, endpoint string, req completion) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", fmt.Errorf("openai %s: waiting for rate limiter: %w", endpoint, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	chat := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.system},
			{Role: openai.ChatMessageRoleUser, Content: req.user},
		},
		MaxTokens:   req.maxTokens,
		Temperature: req.temperature,
	}
	if req.jsonOnly {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, chat)
	if err != nil {
		status := 0
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
		}
		observability.ObserveExternal(service, endpoint, status, time.Since(start))
		return "", &apperr.UpstreamError{Service: service, Status: status, Message: endpoint + " completion failed", Err: err}
	}
	observability.ObserveExternal(service, endpoint, 200, time.Since(start))

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &apperr.ParseError{Service: service, Err: errors.New(endpoint + ": empty completion")}
	}
	return resp.Choices[0].Message.Content, nil
}
