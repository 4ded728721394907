// Package ui draws everything every puts on the terminal around the
// command's own output.
//
// # Components
//
//   - geometry.go: ProbeGeometry asks the terminal for its size, falling
//     back to 80x24 when there is no terminal or the query fails
//   - header.go: RenderHeader and HeaderWriter produce the status line and
//     separator rule
//   - theme.go: optional bold label, only applied on a terminal
//   - screen.go: Screen clears the display between cycles
//
// # Header Layout
//
//	Every  2s: df -h                                    Thu Apr  2 09:05:07 2015
//	________________________________________________________________________________
//
// The interval sits in a two character field. Padding is
//
//	width - len(label) - len(timestamp) - width(command) + 5
//
// clamped at zero. The timestamp uses the ctime(3) layout and its length
// includes the trailing newline. The command is measured in display cells
// so wide characters do not push the timestamp off the line.
//
// # Streams
//
// Headers go to the diagnostic stream (stderr) and screen clears to the
// primary stream (stdout), so the command's output on stdout is never
// interleaved with header text.
package ui
