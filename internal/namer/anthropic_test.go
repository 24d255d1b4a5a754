package namer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewAnthropicClient(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		if _, err := NewAnthropicClient(); err == nil {
			t.Error("expected error when API key not set")
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "test-key")
		c, err := NewAnthropicClient(WithModel("custom-model"), WithMaxTitleLength(30), WithHTTPTimeout(5*time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.model != "custom-model" || c.maxLen != 30 || c.http.Timeout != 5*time.Second {
			t.Errorf("expected options applied, got model=%s maxLen=%d timeout=%v", c.model, c.maxLen, c.http.Timeout)
		}
		if c.endpoint != messagesURL {
			t.Errorf("expected default endpoint, got %s", c.endpoint)
		}
	})

	t.Run("empty model keeps default", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "test-key")
		c, _ := NewAnthropicClient(WithModel(""))
		if c.model != defaultModel {
			t.Errorf("expected %s, got %s", defaultModel, c.model)
		}
	})
}

func anthropicStub(t *testing.T, status int, body string, seen *apiRequest) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing API headers: %v", r.Header)
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, seen); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	c, err := NewAnthropicClient(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewAnthropicClient failed: %v", err)
	}
	return c
}

func TestAnthropicClient_Summarize(t *testing.T) {
	var req apiRequest
	c := anthropicStub(t, http.StatusOK, `{"content":[{"type":"text","text":"Database Migration"}]}`, &req)

	title, err := c.Summarize(context.Background(), []string{"started the migration"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Database Migration" {
		t.Errorf("expected 'Database Migration', got %q", title)
	}
	if req.Model != defaultModel || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Errorf("unexpected request: %+v", req)
	}
	if !strings.Contains(req.Messages[0].Content, "- started the migration") {
		t.Errorf("expected preview in prompt, got %q", req.Messages[0].Content)
	}
}

func TestAnthropicClient_SummarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"rate_limit","message":"Too many requests"}}`},
		{"api error body", http.StatusOK, `{"error":{"type":"overloaded","message":"busy"}}`},
		{"empty content", http.StatusOK, `{"content":[]}`},
		{"empty title", http.StatusOK, `{"content":[{"type":"text","text":"  \"\"  "}]}`},
		{"malformed", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := anthropicStub(t, tt.status, tt.body, nil)
			if _, err := c.Summarize(context.Background(), []string{"x"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
