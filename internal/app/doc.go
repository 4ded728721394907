// Package app runs the refresh loop.
//
// # Overview
//
// Run ties the other packages together: it measures the terminal, draws the
// header, runs the command and sleeps, over and over, until the context is
// cancelled or the command fails with errexit set.
//
// # Cycle
//
//	┌────────────────────────────────────────────┐
//	│ probe geometry (once, then every cycle     │
//	│   unless fixed_geometry is set)            │
//	│ clear screen              → stdout         │
//	│ header (unless -t)        → stderr         │
//	│ run command, stream output → stdout        │
//	│ failure policy (-b bell, -e exit)          │
//	│ sleep interval                             │
//	└────────────────────────────────────────────┘
//
// Before the first cycle the screen is cleared and the header drawn once.
// Cycles never overlap: the next one starts only after the command has been
// reaped and the failure policy evaluated.
//
// # Termination
//
// Run returns:
//
//   - nil when ctx is cancelled, whether during the sleep or while the
//     command is running
//   - *ExitStatusError when errexit is set and the command failed; Code is
//     the child's exit status (128+signal for signaled children)
//   - *runner.SpawnError when the command could not be started
//
// The caller maps these to process exit codes.
package app
