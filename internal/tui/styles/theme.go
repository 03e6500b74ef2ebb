package styles

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha color palette
var (
	Base     = lipgloss.Color("#1e1e2e") // Dark background
	Surface0 = lipgloss.Color("#313244") // Surface colors
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Overlay0 = lipgloss.Color("#6c7086")
	Subtext0 = lipgloss.Color("#a6adc8") // Text colors
	Subtext1 = lipgloss.Color("#bac2de")
	Text     = lipgloss.Color("#cdd6f4")

	Blue   = lipgloss.Color("#89b4fa")
	Sky    = lipgloss.Color("#89dceb")
	Green  = lipgloss.Color("#a6e3a1")
	Yellow = lipgloss.Color("#f9e2af")
	Peach  = lipgloss.Color("#fab387")
	Red    = lipgloss.Color("#f38ba8")
	Mauve  = lipgloss.Color("#cba6f7")
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve).
			Background(Surface0).
			Padding(0, 1)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Surface2).
			Padding(0, 1)

	// Picker styles
	TableBaseStyle = lipgloss.NewStyle().
			Foreground(Text).
			BorderForeground(Surface2).
			Align(lipgloss.Left)

	TableHighlightStyle = lipgloss.NewStyle().
				Foreground(Base).
				Background(Mauve).
				Bold(true)

	HintStyle = lipgloss.NewStyle().
			Foreground(Overlay0)
)

type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusError
)

// StatusIndicator returns the single character status marker and its color
func StatusIndicator(status StatusType) (string, lipgloss.Style) {
	switch status {
	case StatusConnected:
		return "●", lipgloss.NewStyle().Foreground(Green)
	case StatusConnecting:
		return "○", lipgloss.NewStyle().Foreground(Yellow)
	case StatusError:
		return "✗", lipgloss.NewStyle().Foreground(Red)
	default:
		return "○", lipgloss.NewStyle().Foreground(Red)
	}
}
