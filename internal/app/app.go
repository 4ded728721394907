package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/five82/every/internal/config"
	"github.com/five82/every/internal/logging"
	"github.com/five82/every/internal/runner"
	"github.com/five82/every/internal/ui"
)

// Options configure the streams and collaborators of a run. Zero values
// use the process's own stdio, the real terminal and the wall clock.
type Options struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger

	// Probe measures the terminal; defaults to probing stderr.
	Probe func() ui.Geometry
	// Now supplies header timestamps.
	Now func() time.Time
}

// ExitStatusError is returned when errexit is set and the command fails.
// Code is the status the process should exit with.
type ExitStatusError struct {
	Code   int
	Result runner.Result
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("command failed (%s)", e.Result)
}

// Run drives the refresh loop until ctx is cancelled, the command fails
// with errexit set, or a fatal error occurs. Cancellation is a clean stop
// and returns nil.
func Run(ctx context.Context, cfg config.RunConfig, opts Options) error {
	if cfg.Command == "" {
		return fmt.Errorf("no command to run")
	}
	return newLoop(cfg, opts.withDefaults(ctx)).run(ctx)
}

func newLoop(cfg config.RunConfig, opts Options) *loop {
	return &loop{
		cfg:    cfg,
		stdout: opts.Stdout,
		screen: ui.NewScreen(opts.Stdout),
		header: ui.NewHeaderWriter(opts.Stderr, cfg.BoldTitle),
		runner: &runner.Runner{
			Shell:  cfg.Shell,
			Stdout: opts.Stdout,
			Stderr: opts.Stderr,
			Stdin:  opts.Stdin,
			Logger: opts.Logger,
		},
		probe:  opts.Probe,
		now:    opts.Now,
		logger: opts.Logger,
	}
}

func (o Options) withDefaults(ctx context.Context) Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Logger == nil {
		o.Logger = logging.FromContext(ctx)
	}
	if o.Probe == nil {
		fd := int(os.Stderr.Fd())
		if f, ok := o.Stderr.(interface{ Fd() uintptr }); ok {
			fd = int(f.Fd())
		}
		o.Probe = func() ui.Geometry { return ui.ProbeGeometry(fd) }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
