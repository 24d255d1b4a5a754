package event

import (
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"

	"github.com/Iron-Ham/agentboard/internal/logging"
)

// Handler receives a published event.
type Handler func(Event)

type subscription struct {
	id      uint64
	topic   string // empty for SubscribeAll
	handler Handler
}

// Bus delivers events synchronously: Publish returns once every matching
// handler has run. Handlers for the event's type run first, then catch-all
// handlers, each in registration order.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	lastID uint64
	logger *logging.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets where recovered handler panics are reported.
func WithLogger(logger *logging.Logger) BusOption {
	return func(b *Bus) { b.logger = logger }
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{logger: logging.NopLogger()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for one event type. The returned ID is
// accepted by Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastID++
	b.subs = append(b.subs, subscription{id: b.lastID, topic: eventType, handler: handler})
	return "sub-" + strconv.FormatUint(b.lastID, 10)
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("", handler)
}

// Unsubscribe removes a subscription and reports whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	var n uint64
	if _, err := fmt.Sscanf(id, "sub-%d", &n); err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	before := len(b.subs)
	b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == n })
	return len(b.subs) < before
}

// Publish runs every matching handler. A panicking handler is logged and
// does not stop delivery to the rest.
func (b *Bus) Publish(e Event) {
	topic := e.EventType()

	b.mu.RLock()
	var specific, catchAll []Handler
	for _, s := range b.subs {
		switch s.topic {
		case topic:
			specific = append(specific, s.handler)
		case "":
			catchAll = append(catchAll, s.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range append(specific, catchAll...) {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				"event_type", e.EventType(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(e)
}

// Clear drops every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}

func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
