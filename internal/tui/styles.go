package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/taskboard/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityHighColor   = lipgloss.Color("#FF6B6B")
	PriorityMediumColor = lipgloss.Color("#FFE66D")
	PriorityLowColor    = lipgloss.Color("#4ECDC4")

	Overdue = lipgloss.Color("#FF6B6B")

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Lanes
	LaneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	LaneActiveStyle = LaneStyle.
			BorderForeground(Highlight)

	// Task card
	TaskItemStyle = lipgloss.NewStyle()

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	OverdueStyle = lipgloss.NewStyle().Foreground(Overdue)

	// Priority badges
	PriorityHighStyle   = lipgloss.NewStyle().Foreground(PriorityHighColor).Bold(true)
	PriorityMediumStyle = lipgloss.NewStyle().Foreground(PriorityMediumColor)
	PriorityLowStyle    = lipgloss.NewStyle().Foreground(PriorityLowColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// GetPriorityStyle returns the style for a given priority
func GetPriorityStyle(p model.Priority) lipgloss.Style {
	switch p {
	case model.PriorityHigh:
		return PriorityHighStyle
	case model.PriorityLow:
		return PriorityLowStyle
	default:
		return PriorityMediumStyle
	}
}

// FormatPriority returns a short priority badge
func FormatPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return PriorityHighStyle.Render("▲")
	case model.PriorityLow:
		return PriorityLowStyle.Render("▽")
	default:
		return PriorityMediumStyle.Render("•")
	}
}

// laneTitleStyle colours a column header with the column's own colour
func laneTitleStyle(c model.Column) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	if c.Color != "" {
		s = s.Foreground(lipgloss.Color(c.Color))
	}
	return s
}
