package namer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	messagesURL      = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-haiku-4-5"
)

// AnthropicClient calls the Anthropic Messages API directly.
type AnthropicClient struct {
	apiKey   string
	model    string
	endpoint string
	maxLen   int
	http     *http.Client
}

// ClientOption configures an AnthropicClient.
type ClientOption func(*AnthropicClient)

func WithModel(model string) ClientOption {
	return func(c *AnthropicClient) {
		if model != "" {
			c.model = model
		}
	}
}

func WithMaxTitleLength(n int) ClientOption {
	return func(c *AnthropicClient) { c.maxLen = n }
}

func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *AnthropicClient) { c.http.Timeout = d }
}

// WithEndpoint overrides the Messages API URL.
func WithEndpoint(url string) ClientOption {
	return func(c *AnthropicClient) { c.endpoint = url }
}

// NewAnthropicClient reads its key from ANTHROPIC_API_KEY and fails when
// the variable is unset.
func NewAnthropicClient(opts ...ClientOption) (*AnthropicClient, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	c := &AnthropicClient{
		apiKey:   key,
		model:    defaultModel,
		endpoint: messagesURL,
		maxLen:   maxTitleRunes,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *AnthropicClient) Summarize(ctx context.Context, previews []string) (string, error) {
	payload, err := json.Marshal(apiRequest{
		Model:     c.model,
		MaxTokens: 50,
		Messages:  []apiMessage{{Role: "user", Content: prompt(previews)}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, body)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	switch {
	case out.Error != nil:
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	case len(out.Content) == 0:
		return "", fmt.Errorf("empty response from API")
	}
	return cleanTitle(out.Content[0].Text, c.maxLen)
}
