package ui

import (
	"io"

	"github.com/muesli/termenv"
)

// Screen clears the primary output between cycles.
type Screen struct {
	out *termenv.Output
}

// NewScreen returns a Screen writing control sequences to w.
func NewScreen(w io.Writer) *Screen {
	return &Screen{out: termenv.NewOutput(w)}
}

// Clear erases the display and homes the cursor.
func (s *Screen) Clear() {
	s.out.ClearScreen()
}
