// Package ai exposes the single text-completion capability the engine
// consumes. Only the ai_classification condition uses it.
package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mailflow/mailflow/pkg/schema"
)

// Completer produces one text completion for a system instruction and a user
// prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Resolver yields the Completer configured for a mail connection. Returning
// an error is a normal outcome (no provider configured); callers degrade
// rather than fail.
type Resolver func(ctx context.Context, connectionID string) (Completer, error)

// ClientConfig configures the HTTP completion client.
type ClientConfig struct {
	BaseURL string // e.g. "https://api.openai.com/v1"
	APIKey  string
	Model   string
	Timeout time.Duration
}

const (
	defaultModel       = "gpt-4o-mini"
	defaultAITimeout   = 30 * time.Second
	maxCompletionBody  = 1 << 20 // 1MB
	completionEndpoint = "/chat/completions"
)

// Client is an OpenAI-compatible chat-completion client.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a completion client for an OpenAI-compatible endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAITimeout
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", schema.NewError(schema.ErrCodeExecution, "marshal completion request").WithCause(err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + completionEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return "", schema.NewError(schema.ErrCodeExecution, "create completion request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", schema.NewErrorf(schema.ErrCodeExecution, "completion request failed: %v", err).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCompletionBody))
	if err != nil {
		return "", schema.NewError(schema.ErrCodeExecution, "read completion response").WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", schema.NewErrorf(schema.ErrCodeExecution, "completion endpoint returned %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", schema.NewError(schema.ErrCodeExecution, "decode completion response").WithCause(err)
	}
	if len(parsed.Choices) == 0 {
		return "", schema.NewError(schema.ErrCodeExecution, "completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
