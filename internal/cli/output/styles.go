package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the CLI.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	FilePath lipgloss.Style
}

// NewStyles creates styles bound to a lipgloss renderer, so color output
// follows the renderer's profile.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:     r.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:     r.NewStyle().Bold(true),
		FilePath: r.NewStyle().Underline(true),
	}
}
