package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a "category.action" identifier, e.g. "state.changed".
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeStateChanged     = "state.changed"
	TypeWorkspaceAdded   = "workspace.added"
	TypeWorkspaceRemoved = "workspace.removed"
	TypeSourceFailed     = "source.failed"
	TypeStateEvaluated   = "state.evaluated"
	TypeCardDismissed    = "card.dismissed"
)

type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Registry Events
// -----------------------------------------------------------------------------

// StateChangedEvent is emitted once per merge of a session snapshot into the
// registry, and once per workspace removal.
type StateChangedEvent struct {
	baseEvent
	WorkspaceID string // SourceName/Key of the affected workspace
	SessionID   string // empty when a whole workspace changed
}

// NewStateChangedEvent creates a StateChangedEvent.
func NewStateChangedEvent(workspaceID, sessionID string) StateChangedEvent {
	return StateChangedEvent{
		baseEvent:   newBaseEvent(TypeStateChanged),
		WorkspaceID: workspaceID,
		SessionID:   sessionID,
	}
}

// WorkspaceAddedEvent is emitted when a workspace is onboarded.
type WorkspaceAddedEvent struct {
	baseEvent
	WorkspaceID string
	Source      string
}

// NewWorkspaceAddedEvent creates a WorkspaceAddedEvent.
func NewWorkspaceAddedEvent(workspaceID, source string) WorkspaceAddedEvent {
	return WorkspaceAddedEvent{
		baseEvent:   newBaseEvent(TypeWorkspaceAdded),
		WorkspaceID: workspaceID,
		Source:      source,
	}
}

// WorkspaceRemovedEvent is emitted when a source reports a workspace gone.
type WorkspaceRemovedEvent struct {
	baseEvent
	WorkspaceID string
	Source      string
}

// NewWorkspaceRemovedEvent creates a WorkspaceRemovedEvent.
func NewWorkspaceRemovedEvent(workspaceID, source string) WorkspaceRemovedEvent {
	return WorkspaceRemovedEvent{
		baseEvent:   newBaseEvent(TypeWorkspaceRemoved),
		WorkspaceID: workspaceID,
		Source:      source,
	}
}

// SourceFailedEvent is emitted when detect, scan or watch fails. The
// workspace is retried on the next change notification.
type SourceFailedEvent struct {
	baseEvent
	Source      string
	WorkspaceID string // empty for detect failures
	Op          string // "detect", "scan" or "watch"
	Err         error
}

// NewSourceFailedEvent creates a SourceFailedEvent.
func NewSourceFailedEvent(source, workspaceID, op string, err error) SourceFailedEvent {
	return SourceFailedEvent{
		baseEvent:   newBaseEvent(TypeSourceFailed),
		Source:      source,
		WorkspaceID: workspaceID,
		Op:          op,
		Err:         err,
	}
}

// -----------------------------------------------------------------------------
// Hub Events
// -----------------------------------------------------------------------------

// StateEvaluatedEvent is emitted after the hub derives a new consolidated state.
type StateEvaluatedEvent struct {
	baseEvent
	Workspaces     int
	AttentionItems int
	BoardCards     int
	Duration       time.Duration
}

// NewStateEvaluatedEvent creates a StateEvaluatedEvent.
func NewStateEvaluatedEvent(workspaces, items, cards int, d time.Duration) StateEvaluatedEvent {
	return StateEvaluatedEvent{
		baseEvent:      newBaseEvent(TypeStateEvaluated),
		Workspaces:     workspaces,
		AttentionItems: items,
		BoardCards:     cards,
		Duration:       d,
	}
}

// CardDismissedEvent is emitted when a done card is dismissed.
type CardDismissedEvent struct {
	baseEvent
	CardID string
}

// NewCardDismissedEvent creates a CardDismissedEvent.
func NewCardDismissedEvent(cardID string) CardDismissedEvent {
	return CardDismissedEvent{
		baseEvent: newBaseEvent(TypeCardDismissed),
		CardID:    cardID,
	}
}
