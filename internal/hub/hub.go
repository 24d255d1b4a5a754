// Package hub runs the evaluation pipeline between the registry and the
// viewers.
//
// A Hub owns one evaluation goroutine. Registry changes are debounced into
// a single re-evaluation (attention, then board), the consolidated State is
// stored, and every subscriber is handed the latest copy. Dismiss commands
// travel through the same goroutine so they are ordered with evaluations.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/board"
	"github.com/Iron-Ham/agentboard/internal/event"
	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/registry"
	"github.com/Iron-Ham/agentboard/internal/session"
)

// DefaultDebounce coalesces bursts of registry changes.
const DefaultDebounce = 250 * time.Millisecond

// State is the consolidated view pushed to viewers.
type State struct {
	Version        uint64              `json:"version" yaml:"version" toml:"version"`
	GeneratedAt    time.Time           `json:"generatedAt" yaml:"generatedAt" toml:"generatedAt"`
	Workspaces     []session.Workspace `json:"workspaces" yaml:"workspaces" toml:"workspaces"`
	AttentionItems []attention.Item    `json:"attentionItems" yaml:"attentionItems" toml:"attentionItems"`
	BoardCards     []board.Card        `json:"boardCards" yaml:"boardCards" toml:"boardCards"`
}

type dismissRequest struct {
	cardID string
	reply  chan error
}

// Hub evaluates registry state and fans it out.
type Hub struct {
	registry   *registry.Registry
	classifier *attention.Classifier
	engine     *board.Engine
	bus        *event.Bus
	logger     *logging.Logger
	debounce   time.Duration

	trigger   chan struct{}
	dismissCh chan dismissRequest
	running   atomic.Bool

	evalMu  sync.Mutex
	stateMu sync.RWMutex
	state   State

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// Option configures a Hub.
type Option func(*Hub)

// WithDebounce sets how long the hub waits for registry changes to settle.
func WithDebounce(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Hub over reg. Events are published on the registry's bus.
func New(reg *registry.Registry, classifier *attention.Classifier, engine *board.Engine, opts ...Option) *Hub {
	h := &Hub{
		registry:   reg,
		classifier: classifier,
		engine:     engine,
		bus:        reg.Bus(),
		logger:     logging.NopLogger(),
		debounce:   DefaultDebounce,
		trigger:    make(chan struct{}, 1),
		dismissCh:  make(chan dismissRequest),
		subs:       make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run initializes the registry, publishes the first state and then
// re-evaluates after every settled burst of changes until ctx is done.
// Subscriber channels are closed when Run returns.
func (h *Hub) Run(ctx context.Context) error {
	if !h.running.CompareAndSwap(false, true) {
		return nil
	}
	defer h.running.Store(false)
	defer h.closeSubscribers()

	unsubscribe := h.registry.OnStateChange(h.notify)
	defer unsubscribe()
	defer h.registry.Close()

	if err := h.registry.Initialize(ctx); err != nil {
		return err
	}
	h.Evaluate(ctx)

	timer := time.NewTimer(h.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-h.trigger:
			timer.Reset(h.debounce)

		case <-timer.C:
			h.Evaluate(ctx)

		case req := <-h.dismissCh:
			req.reply <- h.dismiss(ctx, req.cardID)
		}
	}
}

// notify records that the registry changed. It never blocks the caller.
func (h *Hub) notify() {
	select {
	case h.trigger <- struct{}{}:
	default:
	}
}

// Evaluate runs the pipeline once over the registry's current workspaces,
// stores the result and pushes it to subscribers.
func (h *Hub) Evaluate(ctx context.Context) State {
	h.evalMu.Lock()
	defer h.evalMu.Unlock()
	return h.evaluateLocked(ctx)
}

func (h *Hub) evaluateLocked(ctx context.Context) State {
	start := time.Now()

	workspaces := h.registry.Workspaces()
	items := h.classifier.Evaluate(workspaces)
	cards := h.engine.Evaluate(ctx, workspaces, items)
	board.SortCards(cards)

	h.stateMu.Lock()
	h.state = State{
		Version:        h.state.Version + 1,
		GeneratedAt:    start,
		Workspaces:     workspaces,
		AttentionItems: items,
		BoardCards:     cards,
	}
	state := h.state
	h.stateMu.Unlock()

	elapsed := time.Since(start)
	h.logger.Debug("state evaluated",
		"version", state.Version,
		"workspaces", len(workspaces),
		"attention_items", len(items),
		"board_cards", len(cards),
		"duration_ms", elapsed.Milliseconds())
	h.bus.Publish(event.NewStateEvaluatedEvent(len(workspaces), len(items), len(cards), elapsed))

	h.broadcast(state)
	return state
}

// Snapshot returns the most recently evaluated state.
func (h *Hub) Snapshot() State {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.state
}

// DismissCard dismisses a done card and re-publishes the board. While Run
// is active the command is ordered with evaluations on the hub goroutine.
func (h *Hub) DismissCard(ctx context.Context, cardID string) error {
	if !h.running.Load() {
		return h.dismiss(ctx, cardID)
	}

	req := dismissRequest{cardID: cardID, reply: make(chan error, 1)}
	select {
	case h.dismissCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) dismiss(ctx context.Context, cardID string) error {
	h.evalMu.Lock()
	defer h.evalMu.Unlock()

	if err := h.engine.DismissCard(cardID); err != nil {
		h.logger.Debug("dismiss rejected", "card_id", cardID, "error", err.Error())
		return err
	}
	h.bus.Publish(event.NewCardDismissedEvent(cardID))
	h.evaluateLocked(ctx)
	return nil
}

// Subscribe returns a channel that receives the current state and every
// later one. Slow readers only see the newest state. Call the returned
// function to unsubscribe.
func (h *Hub) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	h.subMu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	if state := h.Snapshot(); state.Version > 0 {
		offer(ch, state)
	}
	h.subMu.Unlock()

	return ch, func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	return len(h.subs)
}

func (h *Hub) broadcast(state State) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.subs {
		offer(ch, state)
	}
}

// offer replaces whatever is buffered in ch with state.
func offer(ch chan State, state State) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- state:
	default:
	}
}

func (h *Hub) closeSubscribers() {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
