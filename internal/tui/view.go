package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/board"
	"github.com/Iron-Ham/agentboard/internal/util"
)

const (
	defaultWidth      = 100
	maxAttentionLines = 6
	columnGap         = 1
)

// View renders the attention queue above the three board columns.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n")
	b.WriteString(m.renderAttention(width))
	b.WriteString("\n\n")
	b.WriteString(m.renderBoard(width))
	b.WriteString("\n")
	if m.status != "" {
		style := errorStyle
		if m.statusOK {
			style = mutedStyle
		}
		b.WriteString(style.Render(util.TruncateANSI(m.status, width)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader(width int) string {
	title := titleStyle.Render("agentboard")
	if m.state.Version == 0 {
		return title + " " + mutedStyle.Render("scanning...")
	}
	info := fmt.Sprintf("%d workspaces · %d cards · %d need attention · updated %s",
		len(m.state.Workspaces),
		len(m.state.BoardCards),
		len(m.state.AttentionItems),
		m.state.GeneratedAt.Format("15:04:05"),
	)
	return util.TruncateANSI(title+" "+mutedStyle.Render(info), width)
}

func (m Model) renderAttention(width int) string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Needs attention"))
	if len(m.state.AttentionItems) == 0 {
		lines = append(lines, mutedStyle.Render("  nothing waiting on you"))
		return strings.Join(lines, "\n")
	}

	items := attentionQueue(m.state.AttentionItems)
	for i, item := range items {
		if i == maxAttentionLines {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  … %d more", len(items)-i)))
			break
		}
		badge := urgencyStyle(item.Urgency).Render(fmt.Sprintf("%-13s", strings.ToUpper(item.Urgency.String())))
		where := mutedStyle.Render(fmt.Sprintf("(%s/%s)", item.Ref.Workspace, item.Ref.Agent))
		lines = append(lines, util.TruncateANSI("  "+badge+" "+item.ShortContext+" "+where, width))
	}
	return strings.Join(lines, "\n")
}

// attentionQueue orders items most urgent first, oldest first within an
// urgency.
func attentionQueue(items []attention.Item) []attention.Item {
	out := make([]attention.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency != out[j].Urgency {
			return out[i].Urgency.MoreUrgentThan(out[j].Urgency)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m Model) renderBoard(width int) string {
	stages := board.Stages()
	colWidth := (width - columnGap*(len(stages)-1)) / len(stages)
	if colWidth < 12 {
		colWidth = 12
	}

	cols := make([]string, 0, len(stages))
	for i, stage := range stages {
		cols = append(cols, m.renderColumn(stage, colWidth, i == m.col))
		if i < len(stages)-1 {
			cols = append(cols, strings.Repeat(" ", columnGap))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(stage board.Stage, width int, focused bool) string {
	cards := m.columns[stage]
	header := columnHeaderStyle.Foreground(stageColors[stage]).
		Render(fmt.Sprintf("%s (%d)", stageLabels[stage], len(cards)))
	if focused {
		header = columnHeaderStyle.Background(stageColors[stage]).Foreground(textColor).
			Render(fmt.Sprintf("%s (%d)", stageLabels[stage], len(cards)))
	}

	parts := []string{util.TruncateANSI(header, width)}
	for _, c := range cards {
		parts = append(parts, m.renderCard(c, width, focused && c.ID == m.selectedID))
	}
	return lipgloss.NewStyle().Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderCard(c board.Card, width int, selected bool) string {
	style := cardStyle
	switch {
	case selected:
		style = selectedCardStyle
	case !c.Live:
		style = historicalCardStyle
	}
	inner := width - style.GetHorizontalFrameSize()
	if inner < 4 {
		inner = 4
	}

	title := c.Title
	if c.Epoch > 0 {
		title = fmt.Sprintf("%s #%d", title, c.Epoch+1)
	}
	lines := []string{
		util.TruncateANSI(lipgloss.NewStyle().Bold(true).Render(title), inner),
		util.TruncateANSI(mutedStyle.Render(c.Workspace+" · "+c.TaskSummary), inner),
	}
	if c.Attention != nil {
		badge := urgencyStyle(c.Attention.Urgency).Render("● " + c.Attention.Preview)
		lines = append(lines, util.TruncateANSI(badge, inner))
	}
	return style.Width(inner).Render(strings.Join(lines, "\n"))
}
