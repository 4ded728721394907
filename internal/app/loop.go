package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/five82/every/internal/config"
	"github.com/five82/every/internal/runner"
	"github.com/five82/every/internal/ui"
)

const (
	bell            = "\a"
	stopSignalGrace = 250 * time.Millisecond
)

type commandRunner interface {
	Run(ctx context.Context, command string) (runner.Result, error)
}

type loop struct {
	cfg      config.RunConfig
	stdout   io.Writer
	screen   *ui.Screen
	header   *ui.HeaderWriter
	runner   commandRunner
	probe    func() ui.Geometry
	now      func() time.Time
	logger   *slog.Logger
	geometry ui.Geometry
}

func (l *loop) run(ctx context.Context) error {
	l.geometry = l.probe()
	l.logger.Debug("terminal geometry", "width", l.geometry.Width, "height", l.geometry.Height)
	l.redraw()

	for cycle := 1; ; cycle++ {
		if ctx.Err() != nil {
			return nil
		}
		if !l.cfg.FixedGeometry {
			l.geometry = l.probe()
		}
		l.redraw()

		l.logger.Debug("cycle start", "cycle", cycle)
		result, err := l.runner.Run(ctx, l.cfg.Command)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			var spawnErr *runner.SpawnError
			if errors.As(err, &spawnErr) {
				return err
			}
			l.logger.Debug("command run incomplete", "error", err)
		}

		// A terminal interrupt reaches the child and this process together;
		// the child's death can be seen before ctx is cancelled.
		if result.Signaled && isStopSignal(result.Signal) {
			awaitStop(ctx, stopSignalGrace)
		}
		if ctx.Err() != nil {
			return nil
		}

		if err := l.applyFailurePolicy(result); err != nil {
			return err
		}

		l.logger.Debug("sleeping", "interval", l.cfg.Interval)
		if !sleep(ctx, l.cfg.Interval) {
			return nil
		}
	}
}

func (l *loop) redraw() {
	l.screen.Clear()
	if l.cfg.NoTitle {
		return
	}
	if err := l.header.Write(l.geometry, l.cfg.Interval, l.cfg.Command, l.now()); err != nil {
		l.logger.Debug("header not written", "error", err)
	}
}

// applyFailurePolicy evaluates beep and errexit independently on the same
// result.
func (l *loop) applyFailurePolicy(result runner.Result) error {
	if !result.Failed() {
		return nil
	}
	if l.cfg.Beep {
		if _, err := io.WriteString(l.stdout, bell); err != nil {
			l.logger.Debug("bell not written", "error", err)
		}
	}
	if l.cfg.ErrExit {
		return &ExitStatusError{Code: result.Status(), Result: result}
	}
	return nil
}

func isStopSignal(sig syscall.Signal) bool {
	switch sig {
	case unix.SIGINT, unix.SIGTERM, unix.SIGHUP:
		return true
	}
	return false
}

// awaitStop gives a pending cancellation up to d to arrive.
func awaitStop(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
