package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the terminal styles used by the renderer.
type Styles struct {
	Header    lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
}

// DefaultStyles returns the styles used on a color terminal.
func DefaultStyles() *Styles {
	return &Styles{
		Header:    lipgloss.NewStyle().Bold(true),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}
