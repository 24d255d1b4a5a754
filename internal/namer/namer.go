package namer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Iron-Ham/agentboard/internal/config"
	"github.com/Iron-Ham/agentboard/internal/errors"
	"github.com/Iron-Ham/agentboard/internal/logging"
)

// DefaultTimeout bounds a single summarizer call.
const DefaultTimeout = 15 * time.Second

// Namer wraps a Client with a timeout and a per-key cache. Each key is
// summarized at most once; failures cache the fallback.
type Namer struct {
	client  Client
	timeout time.Duration
	logger  *logging.Logger

	titles map[string]string
	mu     sync.Mutex
}

// Option configures a Namer.
type Option func(*Namer)

// WithTimeout bounds each summarizer call.
func WithTimeout(d time.Duration) Option {
	return func(n *Namer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(n *Namer) {
		if l != nil {
			n.logger = l
		}
	}
}

// New creates a new Namer.
// Panics if client is nil (programmer error).
func New(client Client, opts ...Option) *Namer {
	if client == nil {
		panic("namer: client is required")
	}
	n := &Namer{
		client:  client,
		timeout: DefaultTimeout,
		logger:  logging.NopLogger(),
		titles:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FromConfig builds the Namer selected by cfg.Summarizer. It returns nil
// when summarization is disabled.
func FromConfig(cfg config.TitlesConfig, logger *logging.Logger) (*Namer, error) {
	var client Client
	switch cfg.Summarizer {
	case "", "none":
		return nil, nil
	case "cli":
		client = NewCLIClient(cfg.Command)
	case "anthropic":
		c, err := NewAnthropicClient(WithModel(cfg.Model), WithHTTPTimeout(cfg.Timeout()))
		if err != nil {
			return nil, errors.Wrap(errors.ErrSummarizerUnavailable, err.Error())
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown summarizer %q", cfg.Summarizer)
	}
	return New(client, WithTimeout(cfg.Timeout()), WithLogger(logger)), nil
}

// Title returns the cached title for key, or asks the client once. Any
// failure, including the timeout, yields fallback.
func (n *Namer) Title(ctx context.Context, key string, previews []string, fallback string) string {
	n.mu.Lock()
	if title, ok := n.titles[key]; ok {
		n.mu.Unlock()
		return title
	}
	n.mu.Unlock()

	title := fallback
	if len(previews) > 0 {
		if generated, err := n.summarize(ctx, previews); err != nil {
			n.logger.Warn("failed to generate session title",
				"key", key,
				"error", err.Error())
		} else {
			title = generated
			n.logger.Debug("generated session title", "key", key, "title", title)
		}
	}

	n.mu.Lock()
	n.titles[key] = title
	n.mu.Unlock()
	return title
}

func (n *Namer) summarize(ctx context.Context, previews []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	title, err := n.client.Summarize(ctx, previews)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return "", errors.NewTimeoutError("summarize session title", n.timeout).WithCause(err)
	}
	return title, err
}

// IsNamed returns true if key already has a cached title.
func (n *Namer) IsNamed(key string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.titles[key]
	return ok
}

// Reset forgets the cached title for key.
func (n *Namer) Reset(key string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.titles, key)
}
