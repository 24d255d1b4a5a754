// Package board derives kanban cards from aggregated sessions.
//
// The Engine keeps one list of epochs per session, scoped by workspace. The newest epoch is live
// and follows the session through backlog, in_progress and done; when a
// completed session picks up new work a new epoch, and therefore a new
// card, is opened while the finished one stays on the board as history.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/errors"
	"github.com/Iron-Ham/agentboard/internal/logging"
	"github.com/Iron-Ham/agentboard/internal/session"
)

// Card is the board projection of one epoch.
type Card struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"sessionId"`
	Source         string            `json:"source"`
	Workspace      string            `json:"workspace"`
	Epoch          int               `json:"epoch"`
	Live           bool              `json:"live"`
	Title          string            `json:"title"`
	Stage          Stage             `json:"stage"`
	Attention      *AttentionSummary `json:"attention,omitempty"`
	TaskSummary    string            `json:"taskSummary"`
	StageEnteredAt time.Time         `json:"stageEnteredAt"`
	LastActivity   time.Time         `json:"lastActivity"`
}

// Engine derives board cards. It is safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	epochs     map[epochKey][]*Epoch
	dismissed  map[string]bool
	policy     Policy
	summarizer Summarizer
	now        func() time.Time
	logger     *logging.Logger
}

// epochKey scopes a session ID to its workspace; two sources may report
// the same session ID.
type epochKey struct {
	workspace string
	sessionID string
}

func keyOf(ref session.WorkspaceRef, sessionID string) epochKey {
	return epochKey{workspace: ref.ID(), sessionID: sessionID}
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the stage and resumption heuristics.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithSummarizer sets the fallback title summarizer.
func WithSummarizer(s Summarizer) Option {
	return func(e *Engine) { e.summarizer = s }
}

// WithClock sets the clock used for stage timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an Engine with no epochs.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		epochs:    make(map[epochKey][]*Epoch),
		dismissed: make(map[string]bool),
		policy:    DefaultPolicy(),
		now:       time.Now,
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate advances every session's epochs against its latest snapshot and
// returns the cards of all epochs that have not been dismissed, in
// workspace, session and epoch order. Use SortCards for display order.
//
// ctx only bounds the title summarizer.
func (eng *Engine) Evaluate(ctx context.Context, workspaces []session.Workspace, items []attention.Item) []Card {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	now := eng.now()
	cards := make([]Card, 0)

	for _, ws := range workspaces {
		for _, sess := range ws.Sessions {
			epochs := eng.advance(keyOf(ws.Ref, sess.ID), sess, now)
			for _, e := range epochs {
				if eng.dismissed[e.CardID] {
					continue
				}
				cards = append(cards, eng.project(ctx, ws.Ref, sess, e, e == epochs[len(epochs)-1], items))
			}
		}
	}
	return cards
}

// advance creates, updates or rolls over the epochs of sess.
func (eng *Engine) advance(key epochKey, sess session.Session, now time.Time) []*Epoch {
	log := eng.logger.WithWorkspace(key.workspace).WithSession(sess.ID)

	epochs, ok := eng.epochs[key]
	if !ok {
		e := newEpoch(sess, 0, nil, eng.policy, now)
		eng.epochs[key] = []*Epoch{e}
		log.Debug("epoch opened", "card_id", e.CardID, "stage", e.Stage.String())
		return eng.epochs[key]
	}

	live := epochs[len(epochs)-1]
	if live.resumed(sess, eng.policy) {
		e := newEpoch(sess, live.Seq+1, live.completedTasks, eng.policy, now)
		epochs = append(epochs, e)
		eng.epochs[key] = epochs
		log.Info("session resumed",
			"card_id", e.CardID,
			"previous_card_id", live.CardID,
			"stage", e.Stage.String())
		return epochs
	}

	if live.Completed() {
		// A finished epoch holds done until new work opens the next one.
		return epochs
	}

	from, stage := live.Stage, live.stageOf(sess, eng.policy)
	if live.setStage(sess, stage, now) {
		log.Debug("stage changed",
			"card_id", live.CardID,
			"from", from.String(),
			"to", stage.String())
	}
	return epochs
}

func (eng *Engine) project(ctx context.Context, ref session.WorkspaceRef, sess session.Session, e *Epoch, live bool, items []attention.Item) Card {
	card := Card{
		ID:             e.CardID,
		SessionID:      sess.ID,
		Source:         ref.SourceName,
		Workspace:      ref.Key,
		Epoch:          e.Seq,
		Live:           live,
		Title:          eng.resolveTitle(ctx, sess, e),
		StageEnteredAt: e.StageEnteredAt,
	}

	if !live {
		card.Stage = StageDone
		card.TaskSummary = e.taskSummaryAtCompletion
		if e.CompletedAt != nil {
			card.LastActivity = *e.CompletedAt
		}
		return card
	}

	card.Stage = e.Stage
	card.TaskSummary = TaskSummary(sess.Tasks)
	card.LastActivity = sess.LastActivity
	card.Attention = summarizeAttention(ref, sess, items)
	return card
}

// DismissCard removes a finished card from all later evaluations. It fails
// with ErrCardNotFound for unknown cards and ErrCardNotDismissable for
// cards that have never been done. A card ID shared by sessions in
// different workspaces is dismissed only when every such card is done.
func (eng *Engine) DismissCard(cardID string) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	matches := eng.findEpochs(cardID)
	if len(matches) == 0 {
		return errors.NewBoardError("no such card", errors.ErrCardNotFound).WithCardID(cardID)
	}
	for _, e := range matches {
		if !e.dismissable() {
			return errors.NewBoardError("only done cards can be dismissed", errors.ErrCardNotDismissable).
				WithCardID(cardID).
				WithStage(e.Stage.String())
		}
	}

	eng.dismissed[cardID] = true
	eng.logger.WithSession(matches[0].SessionID).Info("card dismissed", "card_id", cardID)
	return nil
}

// Dismiss is DismissCard reporting only success.
func (eng *Engine) Dismiss(cardID string) bool {
	return eng.DismissCard(cardID) == nil
}

// Epochs returns copies of the epochs recorded for sessionID in the
// workspace ref, oldest first.
func (eng *Engine) Epochs(ref session.WorkspaceRef, sessionID string) []Epoch {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	epochs := eng.epochs[keyOf(ref, sessionID)]
	out := make([]Epoch, 0, len(epochs))
	for _, e := range epochs {
		out = append(out, *e)
	}
	return out
}

// Dismissed reports whether cardID has been dismissed.
func (eng *Engine) Dismissed(cardID string) bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.dismissed[cardID]
}

func (eng *Engine) findEpochs(cardID string) []*Epoch {
	var out []*Epoch
	for _, epochs := range eng.epochs {
		for _, e := range epochs {
			if e.CardID == cardID {
				out = append(out, e)
			}
		}
	}
	return out
}
