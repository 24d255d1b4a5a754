package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/agentboard/internal/board"
	"github.com/Iron-Ham/agentboard/internal/hub"
)

const dismissTimeout = 5 * time.Second

// Dismisser dismisses done cards.
type Dismisser interface {
	DismissCard(ctx context.Context, cardID string) error
}

// stateMsg delivers a newly evaluated state.
type stateMsg struct {
	state hub.State
}

// subscriptionClosedMsg is sent when the hub stops publishing.
type subscriptionClosedMsg struct{}

// dismissResultMsg reports the outcome of a dismiss command.
type dismissResultMsg struct {
	cardID string
	err    error
}

// Model is the bubbletea model for the board view.
type Model struct {
	states    <-chan hub.State
	dismisser Dismisser

	state   hub.State
	columns map[board.Stage][]board.Card

	// Selection is tracked by card ID so it survives re-sorting.
	col        int
	selectedID string

	width  int
	height int

	keys     KeyMap
	help     help.Model
	status   string
	statusOK bool
	quitting bool
}

// NewModel creates a model that renders every state received on states and
// sends dismiss commands to d.
func NewModel(states <-chan hub.State, d Dismisser) Model {
	return Model{
		states:    states,
		dismisser: d,
		columns:   make(map[board.Stage][]board.Card),
		col:       1,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

// Init starts listening for states.
func (m Model) Init() tea.Cmd {
	return waitForState(m.states)
}

// waitForState blocks until the next state is available.
func waitForState(states <-chan hub.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return subscriptionClosedMsg{}
		}
		return stateMsg{state: state}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.states)

	case subscriptionClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case dismissResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("dismiss %s: %v", msg.cardID, msg.err)
			m.statusOK = false
		} else {
			m.status = "dismissed " + msg.cardID
			m.statusOK = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Left):
		m.moveColumn(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveColumn(1)
	case key.Matches(msg, m.keys.Up):
		m.moveRow(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveRow(1)
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.dismissSelected()
	}
	return m, nil
}

func (m *Model) applyState(state hub.State) {
	m.state = state
	m.columns = board.ByStage(state.BoardCards)
	if _, ok := m.selected(); !ok {
		m.selectFirst()
	}
}

// selected returns the selected card if it is still in the current column.
func (m Model) selected() (board.Card, bool) {
	for _, c := range m.columns[m.stage()] {
		if c.ID == m.selectedID {
			return c, true
		}
	}
	return board.Card{}, false
}

func (m Model) stage() board.Stage {
	return board.Stages()[m.col]
}

func (m *Model) selectFirst() {
	m.selectedID = ""
	if cards := m.columns[m.stage()]; len(cards) > 0 {
		m.selectedID = cards[0].ID
	}
}

func (m *Model) moveColumn(delta int) {
	n := len(board.Stages())
	m.col = (m.col + delta + n) % n
	m.selectFirst()
}

func (m *Model) moveRow(delta int) {
	cards := m.columns[m.stage()]
	if len(cards) == 0 {
		return
	}
	idx := 0
	for i, c := range cards {
		if c.ID == m.selectedID {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(cards) {
		idx = len(cards) - 1
	}
	m.selectedID = cards[idx].ID
}

func (m *Model) dismissSelected() tea.Cmd {
	card, ok := m.selected()
	if !ok {
		return nil
	}
	if card.Stage != board.StageDone {
		m.status = "only done cards can be dismissed"
		m.statusOK = false
		return nil
	}
	if m.dismisser == nil {
		return nil
	}
	d := m.dismisser
	id := card.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dismissTimeout)
		defer cancel()
		return dismissResultMsg{cardID: id, err: d.DismissCard(ctx, id)}
	}
}
