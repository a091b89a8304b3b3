package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorCyan      = lipgloss.Color("87")  // Cyan for agent replies
	ColorBlue      = lipgloss.Color("75")  // Blue for in-review

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StylePrimary = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)
	StyleLabel   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)

	// Components
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Padding(0, 1)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)

	StyleBadge = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	// Agent card border
	StyleCard = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1)

	// Chat prefixes
	StylePrefixAgent  = lipgloss.NewStyle().Foreground(ColorCyan).Bold(true)
	StylePrefixBanker = lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
)

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}

// StatusStyle colors a request status badge.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "approved":
		return StyleBadge.Foreground(ColorSuccess)
	case "rejected":
		return StyleBadge.Foreground(ColorError)
	case "in_review":
		return StyleBadge.Foreground(ColorBlue)
	case "pending":
		return StyleBadge.Foreground(ColorWarning)
	default:
		return StyleBadge
	}
}
