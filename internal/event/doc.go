// Package event defines the events agentboard components exchange and the
// bus that carries them.
//
// # Event Flow
//
// The registry publishes [StateChangedEvent] synchronously for every merged
// snapshot, plus [WorkspaceAddedEvent], [WorkspaceRemovedEvent] and
// [SourceFailedEvent] as the workspace set evolves. The hub subscribes to
// state changes, debounces them, re-derives the board and publishes
// [StateEvaluatedEvent]. Dismissals produce [CardDismissedEvent].
//
//	bus := event.NewBus(event.WithLogger(logger))
//	id := bus.Subscribe(event.TypeStateChanged, func(e event.Event) {
//	    changed := e.(event.StateChangedEvent)
//	    logger.Debug("state changed", "workspace", changed.WorkspaceID)
//	})
//	defer bus.Unsubscribe(id)
//
// [Bus] is safe for concurrent use. Handlers run on the publisher's
// goroutine.
package event
