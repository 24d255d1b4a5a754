package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/board"
	"github.com/Iron-Ham/agentboard/internal/errors"
	"github.com/Iron-Ham/agentboard/internal/hub"
)

type fakeDismisser struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeDismisser) DismissCard(ctx context.Context, cardID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, cardID)
	return f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testState() hub.State {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return hub.State{
		Version:     3,
		GeneratedAt: now,
		AttentionItems: []attention.Item{
			{ID: "a1", Urgency: attention.UrgencyWaiting, ShortContext: "please review", CreatedAt: now},
			{ID: "a2", Urgency: attention.UrgencyBlocking, ShortContext: "blocked on creds", CreatedAt: now.Add(time.Minute)},
		},
		BoardCards: []board.Card{
			{ID: "alpha-epoch-0", Title: "Auth rewrite", Stage: board.StageInProgress, Live: true, TaskSummary: "1/3 tasks done", Workspace: "alpha",
				Attention: &board.AttentionSummary{Urgency: attention.UrgencyBlocking, Preview: "blocked on creds", Count: 1}},
			{ID: "beta-epoch-0", Title: "Docs pass", Stage: board.StageInProgress, Live: true, TaskSummary: "0/1 tasks done", Workspace: "beta"},
			{ID: "gamma-epoch-0", Title: "Release notes", Stage: board.StageDone, Live: true, TaskSummary: "2/2 tasks done", Workspace: "gamma"},
		},
	}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func TestModel_StateSelectsFirstCard(t *testing.T) {
	m := NewModel(make(chan hub.State), nil)
	m, cmd := update(t, m, stateMsg{state: testState()})

	if cmd == nil {
		t.Error("expected model to keep listening for states")
	}
	if m.stage() != board.StageInProgress {
		t.Errorf("expected in_progress column focused, got %s", m.stage())
	}
	if m.selectedID != "alpha-epoch-0" {
		t.Errorf("expected alpha selected, got %q", m.selectedID)
	}
}

func TestModel_SelectionSurvivesUpdates(t *testing.T) {
	m := NewModel(make(chan hub.State), nil)
	m, _ = update(t, m, stateMsg{state: testState()})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.selectedID != "beta-epoch-0" {
		t.Fatalf("expected beta selected, got %q", m.selectedID)
	}

	state := testState()
	state.Version++
	state.BoardCards[0], state.BoardCards[1] = state.BoardCards[1], state.BoardCards[0]
	m, _ = update(t, m, stateMsg{state: state})
	if m.selectedID != "beta-epoch-0" {
		t.Errorf("expected selection kept across re-sort, got %q", m.selectedID)
	}

	state.BoardCards = state.BoardCards[1:]
	m, _ = update(t, m, stateMsg{state: state})
	if m.selectedID != "alpha-epoch-0" {
		t.Errorf("expected selection to fall back to first card, got %q", m.selectedID)
	}
}

func TestModel_Navigation(t *testing.T) {
	m := NewModel(make(chan hub.State), nil)
	m, _ = update(t, m, stateMsg{state: testState()})

	tests := []struct {
		name      string
		msg       tea.KeyMsg
		wantStage board.Stage
		wantID    string
	}{
		{"up clamps at top", tea.KeyMsg{Type: tea.KeyUp}, board.StageInProgress, "alpha-epoch-0"},
		{"down", runes("j"), board.StageInProgress, "beta-epoch-0"},
		{"down clamps at bottom", runes("j"), board.StageInProgress, "beta-epoch-0"},
		{"right", runes("l"), board.StageDone, "gamma-epoch-0"},
		{"right wraps", tea.KeyMsg{Type: tea.KeyRight}, board.StageBacklog, ""},
		{"left wraps back", runes("h"), board.StageDone, "gamma-epoch-0"},
	}
	for _, tt := range tests {
		m, _ = update(t, m, tt.msg)
		if m.stage() != tt.wantStage || m.selectedID != tt.wantID {
			t.Errorf("%s: expected %s/%q, got %s/%q", tt.name, tt.wantStage, tt.wantID, m.stage(), m.selectedID)
		}
	}
}

func TestModel_Dismiss(t *testing.T) {
	t.Run("rejects cards that are not done", func(t *testing.T) {
		d := &fakeDismisser{}
		m := NewModel(make(chan hub.State), d)
		m, _ = update(t, m, stateMsg{state: testState()})

		m, cmd := update(t, m, runes("d"))
		if cmd != nil {
			t.Error("expected no command for an in-progress card")
		}
		if !strings.Contains(m.status, "only done cards") {
			t.Errorf("expected status explaining rejection, got %q", m.status)
		}
	})

	t.Run("dismisses the selected done card", func(t *testing.T) {
		d := &fakeDismisser{}
		m := NewModel(make(chan hub.State), d)
		m, _ = update(t, m, stateMsg{state: testState()})
		m, _ = update(t, m, runes("l"))

		m, cmd := update(t, m, runes("d"))
		if cmd == nil {
			t.Fatal("expected dismiss command")
		}
		msg := cmd()
		if len(d.ids) != 1 || d.ids[0] != "gamma-epoch-0" {
			t.Errorf("expected gamma dismissed, got %v", d.ids)
		}

		m, _ = update(t, m, msg)
		if !m.statusOK || m.status != "dismissed gamma-epoch-0" {
			t.Errorf("expected success status, got %q", m.status)
		}
	})

	t.Run("reports errors", func(t *testing.T) {
		m := NewModel(make(chan hub.State), nil)
		m, _ = update(t, m, dismissResultMsg{cardID: "x-epoch-0", err: errors.ErrCardNotDismissable})
		if m.statusOK || !strings.Contains(m.status, "card is not done") {
			t.Errorf("expected error status, got %q", m.status)
		}
	})
}

func TestModel_QuitsWhenSubscriptionCloses(t *testing.T) {
	states := make(chan hub.State)
	close(states)
	m := NewModel(states, nil)

	msg := m.Init()()
	if _, ok := msg.(subscriptionClosedMsg); !ok {
		t.Fatalf("expected subscriptionClosedMsg, got %T", msg)
	}
	m, cmd := update(t, m, msg)
	if !m.quitting || cmd == nil {
		t.Error("expected model to quit")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel(make(chan hub.State), nil)
	if !strings.Contains(m.View(), "scanning") {
		t.Error("expected scanning placeholder before the first state")
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, stateMsg{state: testState()})
	view := m.View()

	for _, want := range []string{"Needs attention", "blocked on creds", "Backlog (0)", "In Progress (2)", "Done (1)", "Auth rewrite", "2/2 tasks done"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestAttentionQueue(t *testing.T) {
	items := attentionQueue(testState().AttentionItems)
	if items[0].ID != "a2" {
		t.Errorf("expected blocking item first, got %s", items[0].ID)
	}
}
