package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles holds the lipgloss styles used for the header.
type Styles struct {
	enabled bool
	label   lipgloss.Style
}

// NewStyles builds styles bound to out. Styling is disabled unless bold is
// requested and out is a terminal, so redirected output stays plain.
func NewStyles(out io.Writer, bold bool) Styles {
	if !bold || !IsTerminal(out) {
		return Styles{}
	}
	renderer := lipgloss.NewRenderer(out)
	return Styles{
		enabled: true,
		label:   renderer.NewStyle().Bold(true),
	}
}

// Label renders the "Every Ns: " segment.
func (s Styles) Label(label string) string {
	if !s.enabled {
		return label
	}
	return s.label.Render(label)
}

// IsTerminal reports whether w is backed by a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
