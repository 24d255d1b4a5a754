package event

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/agentboard/internal/logging"
)

func TestBus_DeliveryOrder(t *testing.T) {
	bus := NewBus()

	var got []string
	record := func(tag string) Handler {
		return func(e Event) { got = append(got, tag+":"+e.EventType()) }
	}
	bus.SubscribeAll(record("all"))
	bus.Subscribe(TypeWorkspaceAdded, record("added-1"))
	bus.Subscribe(TypeCardDismissed, record("dismissed"))
	bus.Subscribe(TypeWorkspaceAdded, record("added-2"))

	bus.Publish(NewWorkspaceAddedEvent("teams/alpha", "teams"))
	bus.Publish(NewCardDismissedEvent("alpha-epoch-0"))

	want := []string{
		"added-1:workspace.added",
		"added-2:workspace.added",
		"all:workspace.added",
		"dismissed:card.dismissed",
		"all:card.dismissed",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBus_EventFields(t *testing.T) {
	bus := NewBus()

	var received []StateChangedEvent
	bus.Subscribe(TypeStateChanged, func(e Event) {
		received = append(received, e.(StateChangedEvent))
	})
	bus.Publish(NewStateChangedEvent("teams/alpha", "alpha"))

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].WorkspaceID != "teams/alpha" || received[0].SessionID != "alpha" {
		t.Errorf("unexpected event fields: %+v", received[0])
	}
	if received[0].Timestamp().IsZero() {
		t.Error("expected a non-zero timestamp")
	}
}

func TestBus_UnsubscribeAndClear(t *testing.T) {
	bus := NewBus()

	calls := map[string]int{}
	first := bus.Subscribe(TypeStateChanged, func(Event) { calls["first"]++ })
	bus.Subscribe(TypeStateChanged, func(Event) { calls["second"]++ })
	bus.SubscribeAll(func(Event) { calls["all"]++ })

	if !bus.Unsubscribe(first) {
		t.Error("expected Unsubscribe to report an existing subscription")
	}
	for _, id := range []string{first, "sub-999", "bogus"} {
		if bus.Unsubscribe(id) {
			t.Errorf("expected Unsubscribe(%q) to report false", id)
		}
	}

	bus.Publish(NewStateChangedEvent("teams/alpha", ""))
	if calls["first"] != 0 || calls["second"] != 1 || calls["all"] != 1 {
		t.Errorf("unexpected calls after unsubscribe: %v", calls)
	}

	if bus.SubscriptionCount() != 2 {
		t.Errorf("expected 2 subscriptions, got %d", bus.SubscriptionCount())
	}
	bus.Clear()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("expected 0 subscriptions after clear, got %d", bus.SubscriptionCount())
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	dir := t.TempDir()
	logger, err := logging.NewLogger(dir, logging.LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	bus := NewBus(WithLogger(logger))

	calls := 0
	bus.Subscribe(TypeSourceFailed, func(Event) {
		calls++
		panic("handler panic")
	})
	bus.Subscribe(TypeSourceFailed, func(Event) { calls++ })

	bus.Publish(NewSourceFailedEvent("teams", "teams/alpha", "scan", errors.New("boom")))
	_ = logger.Close()

	if calls != 2 {
		t.Errorf("expected both handlers to run despite the panic, got %d calls", calls)
	}
	entries, err := logging.AggregateLogs(dir)
	if err != nil {
		t.Fatalf("AggregateLogs failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "event handler panicked" {
		t.Errorf("expected one panic log entry, got %+v", entries)
	}
}

func TestBus_Concurrency(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	published := 0
	bus.Subscribe(TypeStateEvaluated, func(Event) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	ids := make(chan string, 50)
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() { bus.Publish(NewStateEvaluatedEvent(1, 2, 3, time.Millisecond)) })
		wg.Go(func() {
			id := bus.Subscribe(TypeStateChanged, func(Event) {})
			ids <- id
			bus.Unsubscribe(id)
		})
	}
	wg.Wait()
	close(ids)

	if published != 50 {
		t.Errorf("expected 50 deliveries, got %d", published)
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("expected only the evaluated subscription to remain, got %d", bus.SubscriptionCount())
	}
	seen := map[string]bool{}
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate subscription ID: %s", id)
		}
		seen[id] = true
	}
}
