package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/agentboard/internal/attention"
	"github.com/Iron-Ham/agentboard/internal/board"
)

var (
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	greenColor   = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	blueColor    = lipgloss.Color("#60A5FA")
	mutedColor   = lipgloss.Color("#9CA3AF")
	textColor    = lipgloss.Color("#F9FAFB")
	borderColor  = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle = lipgloss.NewStyle().Foreground(errorColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			MarginTop(1)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	selectedCardStyle = cardStyle.
				BorderForeground(primaryColor)

	historicalCardStyle = cardStyle.
				BorderStyle(lipgloss.HiddenBorder()).
				Foreground(mutedColor)
)

var stageColors = map[board.Stage]lipgloss.Color{
	board.StageBacklog:    mutedColor,
	board.StageInProgress: blueColor,
	board.StageDone:       greenColor,
}

var stageLabels = map[board.Stage]string{
	board.StageBacklog:    "Backlog",
	board.StageInProgress: "In Progress",
	board.StageDone:       "Done",
}

func urgencyStyle(u attention.Urgency) lipgloss.Style {
	switch u {
	case attention.UrgencyBlocking:
		return lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	case attention.UrgencyWaiting:
		return lipgloss.NewStyle().Bold(true).Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(blueColor)
	}
}
