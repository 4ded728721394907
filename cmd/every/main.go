package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/five82/every/internal/app"
	"github.com/five82/every/internal/config"
	"github.com/five82/every/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		return reportParseError(os.Stderr, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
	defer cancel()

	logger := logging.New(os.Stderr, cfg.Verbose)
	ctx = logging.WithContext(ctx, logger)

	err = app.Run(ctx, cfg, app.Options{Logger: logger})
	return exitCode(os.Stderr, err)
}

// reportParseError prints the outcome of a failed config.Parse and returns
// the exit status for it.
func reportParseError(w io.Writer, err error) int {
	var usageErr *config.UsageError
	switch {
	case errors.Is(err, config.ErrVersion):
		fmt.Fprintln(w, config.Version)
		return 0
	case errors.Is(err, config.ErrHelp):
		fmt.Fprintln(w, config.Usage)
		return 1
	case errors.As(err, &usageErr):
		fmt.Fprintf(w, "every: %v\n", usageErr)
		fmt.Fprintln(w, config.Usage)
		return 1
	default:
		fmt.Fprintf(w, "every: %v\n", err)
		return 1
	}
}

// exitCode maps the result of app.Run to a process exit status.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *app.ExitStatusError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(w, "every: %v\n", err)
	return 1
}
