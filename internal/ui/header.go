package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// headerSlack is added to the padding so the timestamp lands past the
// right edge instead of wrapping early on terminals near the boundary.
const headerSlack = 5

// RenderHeader formats the status line and separator rule:
//
//	Every  2s: <command><padding><ctime timestamp>\n
//	<width underscores>\n
//	\n
//
// Padding is clamped at zero, so a narrow terminal gets a line longer than
// its width rather than a truncated one.
func RenderHeader(width int, interval time.Duration, command string, now time.Time) string {
	label, rest := headerParts(width, interval, command, now)
	return label + rest
}

func headerParts(width int, interval time.Duration, command string, now time.Time) (label, rest string) {
	label = formatLabel(interval)
	stamp := formatTimestamp(now)

	padding := width - len(label) - len(stamp) - lipgloss.Width(command) + headerSlack
	if padding < 0 {
		padding = 0
	}

	var b strings.Builder
	b.WriteString(command)
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(stamp)
	b.WriteString(Rule(width))
	b.WriteString("\n\n")
	return label, b.String()
}

func formatLabel(interval time.Duration) string {
	return fmt.Sprintf("Every %2ds: ", int64(interval/time.Second))
}

// formatTimestamp matches ctime(3), trailing newline included.
func formatTimestamp(now time.Time) string {
	return now.Format(time.ANSIC) + "\n"
}

// Rule returns a separator of width underscores.
func Rule(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("_", width)
}

// HeaderWriter writes headers to the diagnostic stream.
type HeaderWriter struct {
	out    io.Writer
	styles Styles
}

// NewHeaderWriter returns a HeaderWriter for out. The label is only styled
// when bold is requested and out is a terminal.
func NewHeaderWriter(out io.Writer, bold bool) *HeaderWriter {
	return &HeaderWriter{out: out, styles: NewStyles(out, bold)}
}

// Write renders one header for the given geometry and writes it.
func (h *HeaderWriter) Write(geometry Geometry, interval time.Duration, command string, now time.Time) error {
	label, rest := headerParts(geometry.Width, interval, command, now)
	if _, err := io.WriteString(h.out, h.styles.Label(label)+rest); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}
