package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/five82/every/internal/logging"
)

const (
	defaultShell   = "/bin/sh"
	copyBufferSize = 32 * 1024
	// stopGrace bounds how long a cancelled run waits for the child (and
	// anything still holding its stdout) before the pipe is closed and the
	// shell is killed.
	stopGrace = 2 * time.Second
)

// SpawnError reports that the child process or its output pipe could not be
// created.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one command execution.
type Result struct {
	ExitCode int
	Signaled bool
	Signal   syscall.Signal
}

// Failed reports whether the command exited non-zero or was killed by a
// signal.
func (r Result) Failed() bool {
	return r.Signaled || r.ExitCode != 0
}

// Status is the exit status to propagate for this result, using the shell
// convention of 128+signal for signaled children.
func (r Result) Status() int {
	if r.Signaled {
		return 128 + int(r.Signal)
	}
	return r.ExitCode
}

func (r Result) String() string {
	if r.Signaled {
		return fmt.Sprintf("signal %s", r.Signal)
	}
	return fmt.Sprintf("exit %d", r.ExitCode)
}

// Runner spawns commands through a shell and streams their standard output.
// Zero values for Stdout and Stderr discard output; a nil Logger is taken
// from the context.
type Runner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger
}

// Run executes command with Shell -c, copies its standard output to Stdout
// as it arrives and waits for it to exit. Only one child exists for the
// duration of the call; the pipe is closed and the child reaped before Run
// returns.
//
// A cancelled ctx sends SIGTERM to the shell and Run returns ctx.Err().
// Only the shell is signalled: processes it left running in the background
// keep running, and once stopGrace has passed their hold on stdout no longer
// delays the return. The child shares the terminal's process group, so a
// terminal interrupt reaches every process of the command directly.
func (r *Runner) Run(ctx context.Context, command string) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	shell := r.Shell
	if shell == "" {
		shell = defaultShell
	}
	stdout := r.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command) // #nosec G204 -- the command is the user's shell text
	cmd.Stdin = r.Stdin
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = stopGrace

	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, &SpawnError{Command: command, Err: err}
	}

	logger.Debug("spawning command", "shell", shell, "command", command)
	if err := cmd.Start(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, &SpawnError{Command: command, Err: err}
	}

	// Grandchildren can keep the write end open after the shell is gone;
	// unblock the read loop once the grace period has passed.
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(stopGrace, func() { _ = pipe.Close() })
	})
	defer stop()

	written, copyErr := stream(stdout, pipe)
	waitErr := cmd.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Debug("command interrupted", "pid", cmd.Process.Pid, "bytes", written)
		return classify(cmd.ProcessState), ctxErr
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return Result{}, fmt.Errorf("wait for command: %w", waitErr)
	}

	result := classify(cmd.ProcessState)
	logger.Debug("command finished", "pid", cmd.Process.Pid, "result", result.String(), "bytes", written)

	if copyErr != nil {
		return result, fmt.Errorf("copy command output: %w", copyErr)
	}
	return result, nil
}

func classify(state *os.ProcessState) Result {
	if state == nil {
		return Result{ExitCode: -1}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Result{ExitCode: -1, Signaled: true, Signal: ws.Signal()}
	}
	return Result{ExitCode: state.ExitCode()}
}

// stream copies src to dst chunk by chunk, writing each chunk as soon as it
// is read. After a write failure the rest of src is drained so the child
// never blocks on a full pipe.
func stream(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64
	var writeErr error
	for {
		n, err := src.Read(buf)
		if n > 0 && writeErr == nil {
			w, werr := dst.Write(buf[:n])
			written += int64(w)
			if werr == nil && w != n {
				werr = io.ErrShortWrite
			}
			writeErr = werr
		}
		if err != nil {
			if writeErr != nil {
				return written, writeErr
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return written, nil
			}
			return written, err
		}
	}
}
