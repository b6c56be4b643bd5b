package printer

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	errorColor   = lipgloss.Color("#FF4B4B")
	mutedColor   = lipgloss.Color("#666666")
)

// styles holds renderer-bound styles. The zero value renders plain text.
type styles struct {
	enabled   bool
	header    lipgloss.Style
	allocated lipgloss.Style
	free      lipgloss.Style
	label     lipgloss.Style
	warn      lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		enabled:   true,
		header:    r.NewStyle().Bold(true).Foreground(primaryColor),
		allocated: r.NewStyle().Foreground(primaryColor),
		free:      r.NewStyle().Foreground(successColor),
		label:     r.NewStyle().Foreground(mutedColor),
		warn:      r.NewStyle().Foreground(errorColor).Bold(true),
	}
}

func (s styles) render(st lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return st.Render(text)
}
