package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/avandyck/rostrum/internal/debate"
)

var (
	// Colors
	proColor    = lipgloss.Color("#60A5FA") // Blue
	conColor    = lipgloss.Color("#F59E0B") // Amber
	accentColor = lipgloss.Color("#A78BFA") // Purple
	mutedColor  = lipgloss.Color("#9CA3AF") // Gray
	errorColor  = lipgloss.Color("#F87171") // Red
	winColor    = lipgloss.Color("#10B981") // Green

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	winnerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(winColor)

	proStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(proColor)

	conStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(conColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(mutedColor)
)

// sideStyle returns the display style for a debater.
func sideStyle(side debate.Side) lipgloss.Style {
	if side == debate.SidePro {
		return proStyle
	}
	return conStyle
}

// statusStyle returns the display style for a session status.
func statusStyle(status debate.Status) lipgloss.Style {
	switch status {
	case debate.StatusCompleted:
		return winnerStyle
	case debate.StatusError:
		return errorStyle
	case debate.StatusPending:
		return mutedStyle
	default:
		return lipgloss.NewStyle().Foreground(accentColor)
	}
}
