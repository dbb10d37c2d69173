package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette of the interactive mode
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
)

// Styles contains the interactive mode styles
type Styles struct {
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	Muted       lipgloss.Style
	Warning     lipgloss.Style
	Success     lipgloss.Style
	Error       lipgloss.Style
	Box         lipgloss.Style
}

// DefaultStyles returns the default style configuration
func DefaultStyles() *Styles {
	s := &Styles{}

	s.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorBorder).
		Padding(0, 1).
		MarginBottom(1)

	s.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	s.Muted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	s.Warning = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorWarning)

	s.Success = lipgloss.NewStyle().
		Foreground(ColorSuccess)

	s.Error = lipgloss.NewStyle().
		Foreground(ColorError)

	s.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	return s
}
