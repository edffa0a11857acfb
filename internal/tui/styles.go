package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentPrimary   = lipgloss.Color("#00A3AD")
	accentSecondary = lipgloss.Color("#F6AE2D")
	mutedText       = lipgloss.Color("#8CA1AE")
	okText          = lipgloss.Color("#6AE18A")
	warningText     = lipgloss.Color("#FF6B6B")
	panelBorder     = lipgloss.Color("#2D6A80")
)

var (
	titleStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	subtleStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	healthUpStyle = lipgloss.NewStyle().
			Foreground(okText).
			Bold(true)

	healthDownStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(accentSecondary).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(okText)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedText)
)
