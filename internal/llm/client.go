// Package llm is a minimal client for OpenAI-compatible chat completion
// endpoints. It performs exactly one HTTP call per Complete invocation and
// classifies failures as transient or fatal; retrying is the caller's job.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vk/draftgrid/internal/ctxlog"
	"github.com/vk/draftgrid/internal/retry"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Config locates and authenticates the endpoint.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1" or a local
	// proxy. The chat completions path is appended.
	BaseURL string

	// Model is the model name sent with every request.
	Model string

	// APIKey, when non-empty, is sent as a bearer token.
	APIKey string
}

// Client calls one OpenAI-compatible endpoint. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion request.
type Request struct {
	Messages []Message

	// Temperature controls randomness. nil uses the endpoint default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the endpoint default.
	MaxTokens int
}

// Response is the parsed completion result.
type Response struct {
	Content      string
	Model        string
	FinishReason string
	TotalTokens  int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient validates the config and returns a client. The default HTTP
// timeout is generous because completions for long sections are slow.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm: base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request. Network failures, rate limits
// and 5xx responses come back as transient errors; auth and bad-request
// responses as fatal ones.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, retry.NewFatalError(fmt.Errorf("llm: at least one message is required"))
	}

	logger := ctxlog.FromContext(ctx)

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, retry.NewFatalError(fmt.Errorf("llm: encode request: %w", err))
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.NewFatalError(fmt.Errorf("llm: create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	logger.Debug("Sending completion request",
		slog.String("model", c.cfg.Model), slog.Int("messages", len(req.Messages)))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, retry.NewTransientError(fmt.Errorf("llm: request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, retry.NewTransientError(fmt.Errorf("llm: read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retry.NewTransientError(fmt.Errorf("llm: decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return nil, retry.NewTransientError(fmt.Errorf("llm: response contains no choices"))
	}

	return &Response{
		Content:      parsed.Choices[0].Message.Content,
		Model:        parsed.Model,
		FinishReason: parsed.Choices[0].FinishReason,
		TotalTokens:  parsed.Usage.TotalTokens,
	}, nil
}

// classifyHTTPError sorts a non-200 status into the retry taxonomy.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}

	err := fmt.Errorf("llm: API error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return retry.NewTransientError(err)
	case statusCode >= 500:
		return retry.NewTransientError(err)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return retry.NewFatalError(err)
	case statusCode == http.StatusBadRequest:
		return retry.NewFatalError(err)
	default:
		return retry.NewFatalError(err)
	}
}
