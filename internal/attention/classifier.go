// Package attention turns messages that need a human response into
// urgency-ranked attention items.
//
// The Classifier keeps an index of the items it has produced so that a
// message observed on every scan maps to the same item, with the same ID
// and creation time, for as long as it still needs a response.
package attention

import (
	"sync"
	"time"

	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/session"
	"github.com/Iron-Ham/agentboard/internal/util"
	"github.com/google/uuid"
)

// shortContextLen bounds ShortContext, including the ellipsis.
const shortContextLen = 80

// SourceRef locates the message an item was derived from.
type SourceRef struct {
	Source    string `json:"source"`
	Workspace string `json:"workspace"`
	SessionID string `json:"sessionId"`
	Agent     string `json:"agent,omitempty"`
}

// Item is a message that needs a human response.
type Item struct {
	ID           string    `json:"id"`
	MessageID    string    `json:"messageId"`
	Urgency      Urgency   `json:"urgency"`
	ShortContext string    `json:"shortContext"`
	FullContext  string    `json:"fullContext"`
	Ref          SourceRef `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
}

// indexKey scopes a message ID to its workspace and session; IDs are only
// unique within a session.
type indexKey struct {
	workspace string
	sessionID string
	messageID string
}

// Classifier derives attention items. It is safe for concurrent use.
type Classifier struct {
	mu     sync.Mutex
	index  map[indexKey]Item
	rules  []Rule
	now    func() time.Time
	newID  func() string
	logger *logging.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithRules replaces the classification table.
func WithRules(rules []Rule) Option {
	return func(c *Classifier) { c.rules = rules }
}

// WithClock sets the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// WithIDGenerator sets the item ID generator. Defaults to random UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(c *Classifier) { c.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New creates a Classifier with an empty index.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		index:  make(map[indexKey]Item),
		rules:  DefaultRules,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Evaluate returns one item per message that needs a response, in
// workspace, session and message order. Items already in the index are
// returned unchanged; index entries not produced by this pass are dropped.
func (c *Classifier) Evaluate(workspaces []session.Workspace) []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Item, 0)
	seen := make(map[indexKey]bool)

	for _, ws := range workspaces {
		for _, sess := range ws.Sessions {
			for _, msg := range sess.Messages {
				if !msg.NeedsResponse {
					continue
				}
				key := indexKey{workspace: ws.Ref.ID(), sessionID: sess.ID, messageID: msg.ID}
				if seen[key] {
					continue
				}
				seen[key] = true

				item, ok := c.index[key]
				if !ok {
					item = c.newItem(ws.Ref, sess.ID, msg)
					c.index[key] = item
					c.logger.WithSession(sess.ID).Debug("attention item created",
						"item_id", item.ID,
						"urgency", item.Urgency.String())
				}
				items = append(items, item)
			}
		}
	}

	for key, item := range c.index {
		if !seen[key] {
			delete(c.index, key)
			c.logger.WithSession(key.sessionID).Debug("attention item resolved", "item_id", item.ID)
		}
	}

	return items
}

// Len returns the number of indexed items.
func (c *Classifier) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *Classifier) newItem(ref session.WorkspaceRef, sessionID string, msg session.Message) Item {
	return Item{
		ID:           c.newID(),
		MessageID:    msg.ID,
		Urgency:      Classify(c.rules, msg.Content),
		ShortContext: ShortContext(msg),
		FullContext:  msg.Content,
		Ref: SourceRef{
			Source:    ref.SourceName,
			Workspace: ref.Key,
			SessionID: sessionID,
			Agent:     msg.From,
		},
		CreatedAt: c.now(),
	}
}

// ShortContext is the one-line preview of a message: its summary when set,
// else the first line of its content with markdown stripped.
func ShortContext(msg session.Message) string {
	text := msg.Summary
	if text == "" {
		text = util.FirstLine(msg.Content)
	}
	return util.TruncateString(text, shortContextLen)
}

// ForSession returns the items that belong to sessionID in the workspace
// ref.
func ForSession(items []Item, ref session.WorkspaceRef, sessionID string) []Item {
	var out []Item
	for _, it := range items {
		if it.Ref.Source == ref.SourceName && it.Ref.Workspace == ref.Key && it.Ref.SessionID == sessionID {
			out = append(out, it)
		}
	}
	return out
}

// Highest returns the most urgent level among items. ok is false when items
// is empty.
func Highest(items []Item) (u Urgency, ok bool) {
	if len(items) == 0 {
		return UrgencyInformational, false
	}
	u = items[0].Urgency
	for _, it := range items[1:] {
		if it.Urgency.MoreUrgentThan(u) {
			u = it.Urgency
		}
	}
	return u, true
}
