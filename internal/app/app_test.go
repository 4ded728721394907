package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/every/internal/config"
	"github.com/five82/every/internal/logging"
	"github.com/five82/every/internal/runner"
	"github.com/five82/every/internal/ui"
)

var fixedNow = time.Date(2015, time.April, 12, 10, 0, 0, 0, time.UTC)

type harness struct {
	stdout, stderr bytes.Buffer
	probes         int
}

func (h *harness) options() Options {
	return Options{
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Stdin:  strings.NewReader(""),
		Logger: logging.Nop(),
		Probe: func() ui.Geometry {
			h.probes++
			return ui.FallbackGeometry
		},
		Now: func() time.Time { return fixedNow },
	}
}

// stoppingRunner wraps another runner and cancels the run after limit
// invocations, recording when each one started.
type stoppingRunner struct {
	next   commandRunner
	limit  int
	cancel context.CancelFunc

	mu     sync.Mutex
	starts []time.Time
}

func (s *stoppingRunner) Run(ctx context.Context, command string) (runner.Result, error) {
	s.mu.Lock()
	s.starts = append(s.starts, time.Now())
	n := len(s.starts)
	s.mu.Unlock()

	result, err := s.next.Run(ctx, command)
	if n >= s.limit {
		s.cancel()
	}
	return result, err
}

type fixedRunner struct {
	result runner.Result
	err    error
}

func (f fixedRunner) Run(context.Context, string) (runner.Result, error) {
	return f.result, f.err
}

func runCycles(t *testing.T, h *harness, cfg config.RunConfig, next commandRunner, cycles int) (*stoppingRunner, error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts := h.options()
	l := newLoop(cfg, opts)
	if next == nil {
		next = l.runner
	}
	sr := &stoppingRunner{next: next, limit: cycles, cancel: cancel}
	l.runner = sr

	done := make(chan error, 1)
	go func() { done <- l.run(ctx) }()
	select {
	case err := <-done:
		return sr, err
	case <-time.After(10 * time.Second):
		t.Fatal("loop did not stop")
		return nil, nil
	}
}

func TestRun_EchoScenario(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Interval: 10 * time.Millisecond, Command: "echo hi"}

	sr, err := runCycles(t, h, cfg, nil, 2)
	require.NoError(t, err)
	assert.Len(t, sr.starts, 2)

	assert.Equal(t, 2, strings.Count(h.stdout.String(), "hi\n"))
	assert.Contains(t, h.stderr.String(), "Every  0s: echo hi ")
	assert.NotContains(t, h.stdout.String(), "Every")
	assert.NotContains(t, h.stderr.String(), "hi\n")
}

func TestRun_HeaderLabelForOneSecond(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Interval: time.Second, Command: "echo hi"}

	_, err := runCycles(t, h, cfg, fixedRunner{}, 1)
	require.NoError(t, err)
	assert.Contains(t, h.stderr.String(), "Every  1s: echo hi ")
}

func TestRun_ErrExitPropagatesStatus(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Interval: time.Hour, Command: "false", ErrExit: true}

	start := time.Now()
	err := Run(context.Background(), cfg, h.options())

	var exitErr *ExitStatusError
	require.True(t, errors.As(err, &exitErr), "want *ExitStatusError, got %v", err)
	assert.Equal(t, 1, exitErr.Code)
	assert.Less(t, time.Since(start), 10*time.Second, "must not sleep before exiting")
	assert.NotContains(t, h.stdout.String(), bell)
	// One header from init and one from the only cycle.
	assert.Equal(t, 2, strings.Count(h.stderr.String(), "Every"))
}

func TestRun_ErrExitWithStatusFromShell(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "exit 7", ErrExit: true, NoTitle: true}

	err := Run(context.Background(), cfg, h.options())

	var exitErr *ExitStatusError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 7, exitErr.Code)
}

func TestRun_FailurePolicyIndependence(t *testing.T) {
	failing := fixedRunner{result: runner.Result{ExitCode: 2}}
	tests := []struct {
		name      string
		beep      bool
		errExit   bool
		wantBells int
		wantExit  bool
	}{
		{name: "neither", wantBells: 0},
		{name: "beep only", beep: true, wantBells: 3},
		{name: "exit only", errExit: true, wantExit: true},
		{name: "beep and exit", beep: true, errExit: true, wantBells: 1, wantExit: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			cfg := config.RunConfig{Command: "x", Beep: tt.beep, ErrExit: tt.errExit}

			sr, err := runCycles(t, h, cfg, failing, 3)
			if tt.wantExit {
				var exitErr *ExitStatusError
				require.True(t, errors.As(err, &exitErr))
				assert.Equal(t, 2, exitErr.Code)
				assert.Len(t, sr.starts, 1)
			} else {
				require.NoError(t, err)
				assert.Len(t, sr.starts, 3)
			}
			assert.Equal(t, tt.wantBells, strings.Count(h.stdout.String(), bell))
		})
	}
}

func TestRun_SuccessNeverBeeps(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "true", Beep: true}

	sr, err := runCycles(t, h, cfg, nil, 3)
	require.NoError(t, err)
	assert.Len(t, sr.starts, 3)
	assert.NotContains(t, h.stdout.String(), bell)
}

func TestRun_SignaledChildExitStatus(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "kill -TERM $$", ErrExit: true, NoTitle: true}

	err := Run(context.Background(), cfg, h.options())

	var exitErr *ExitStatusError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 143, exitErr.Code)
}

func TestRun_IntervalBetweenStarts(t *testing.T) {
	const interval = 80 * time.Millisecond
	h := &harness{}
	cfg := config.RunConfig{Interval: interval, Command: "x", NoTitle: true}

	sr, err := runCycles(t, h, cfg, fixedRunner{}, 3)
	require.NoError(t, err)
	require.Len(t, sr.starts, 3)
	for i := 1; i < len(sr.starts); i++ {
		assert.GreaterOrEqual(t, sr.starts[i].Sub(sr.starts[i-1]), interval)
	}
}

func TestRun_CancelDuringSleepIsClean(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Interval: time.Hour, Command: "true", NoTitle: true}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := Run(ctx, cfg, h.options())
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_CancelDuringCommandIsClean(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Interval: time.Second, Command: "sleep 30", NoTitle: true}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	err := Run(ctx, cfg, h.options())
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

// interruptedRunner reports a child killed by sig and cancels ctx after
// delay, the way a terminal interrupt reaches both processes.
type interruptedRunner struct {
	sig    syscall.Signal
	delay  time.Duration
	cancel context.CancelFunc
}

func (r interruptedRunner) Run(context.Context, string) (runner.Result, error) {
	if r.delay <= 0 {
		r.cancel()
	} else {
		time.AfterFunc(r.delay, r.cancel)
	}
	return runner.Result{ExitCode: -1, Signaled: true, Signal: r.sig}, nil
}

func TestRun_InterruptedChildWithErrExitIsClean(t *testing.T) {
	tests := []struct {
		name  string
		sig   syscall.Signal
		delay time.Duration
	}{
		{name: "cancelled before the result", sig: syscall.SIGINT},
		{name: "cancelled just after the result", sig: syscall.SIGINT, delay: 20 * time.Millisecond},
		{name: "hangup", sig: syscall.SIGHUP, delay: 20 * time.Millisecond},
		{name: "terminate", sig: syscall.SIGTERM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			cfg := config.RunConfig{Command: "sleep 30", ErrExit: true, Beep: true, NoTitle: true}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			l := newLoop(cfg, h.options())
			l.runner = interruptedRunner{sig: tt.sig, delay: tt.delay, cancel: cancel}

			assert.NoError(t, l.run(ctx))
			assert.NotContains(t, h.stdout.String(), bell)
		})
	}
}

func TestRun_OutputCopyErrorIsNotFatal(t *testing.T) {
	copyErr := fmt.Errorf("copy command output: %w", errors.New("no space left on device"))

	h := &harness{}
	cfg := config.RunConfig{Command: "x", NoTitle: true}
	sr, err := runCycles(t, h, cfg, fixedRunner{err: copyErr}, 3)
	require.NoError(t, err)
	assert.Len(t, sr.starts, 3)

	h = &harness{}
	cfg.ErrExit = true
	_, err = runCycles(t, h, cfg, fixedRunner{result: runner.Result{ExitCode: 5}, err: copyErr}, 3)
	var exitErr *ExitStatusError
	require.True(t, errors.As(err, &exitErr), "want *ExitStatusError, got %v", err)
	assert.Equal(t, 5, exitErr.Code)
}

func TestRun_SpawnErrorIsFatal(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "date", Shell: "/nonexistent/shell"}

	err := Run(context.Background(), cfg, h.options())

	var spawnErr *runner.SpawnError
	require.True(t, errors.As(err, &spawnErr), "want *runner.SpawnError, got %v", err)
}

func TestRun_EmptyCommandRejected(t *testing.T) {
	h := &harness{}
	err := Run(context.Background(), config.RunConfig{}, h.options())
	require.Error(t, err)
}

func TestRun_NoTitleOnlyClears(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "x", NoTitle: true}

	_, err := runCycles(t, h, cfg, fixedRunner{}, 2)
	require.NoError(t, err)
	assert.Empty(t, h.stderr.String())
	// Init clear plus one per cycle.
	assert.Equal(t, 3, strings.Count(h.stdout.String(), "\x1b[2J"))
}

func TestRun_GeometryReadEachCycle(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "x"}

	_, err := runCycles(t, h, cfg, fixedRunner{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, h.probes)
}

func TestRun_FixedGeometryReadOnce(t *testing.T) {
	h := &harness{}
	cfg := config.RunConfig{Command: "x", FixedGeometry: true}

	_, err := runCycles(t, h, cfg, fixedRunner{}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, h.probes)
}

func TestRun_HeaderUsesTerminalWidth(t *testing.T) {
	h := &harness{}
	opts := h.options()
	opts.Probe = func() ui.Geometry { return ui.Geometry{Width: 50, Height: 10} }
	cfg := config.RunConfig{Command: "x", FixedGeometry: true}

	l := newLoop(cfg, opts)
	l.geometry = opts.Probe()
	l.redraw()
	assert.Contains(t, h.stderr.String(), "\n"+strings.Repeat("_", 50)+"\n\n")
}

func TestSleep(t *testing.T) {
	assert.True(t, sleep(context.Background(), 0))
	assert.True(t, sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleep(ctx, 0))
	assert.False(t, sleep(ctx, time.Hour))
}
