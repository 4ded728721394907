package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/spf13/pflag"
)

// Version is printed by -v.
const Version = "0.0.1"

// Usage is printed for -h, unknown flags and a missing command.
const Usage = "usage:  every [-tbehv] [-n <interval>] command"

var (
	// ErrHelp is returned by Parse when -h was given.
	ErrHelp = errors.New("help requested")
	// ErrVersion is returned by Parse when -v was given.
	ErrVersion = errors.New("version requested")
)

// UsageError reports a malformed command line.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// Parse turns the process arguments (without the program name) into a
// RunConfig. Flag parsing stops at the first positional argument so the
// command keeps its own flags.
func Parse(args []string) (RunConfig, error) {
	fs := pflag.NewFlagSet("every", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.SetInterspersed(false)
	fs.SortFlags = false

	interval := fs.StringP("interval", "n", "", "seconds to wait between updates")
	noTitle := fs.BoolP("no-title", "t", false, "turn off the header")
	beep := fs.BoolP("beep", "b", false, "beep if the command has a non-zero exit")
	errExit := fs.BoolP("errexit", "e", false, "exit if the command has a non-zero exit")
	help := fs.BoolP("help", "h", false, "display this help and exit")
	version := fs.BoolP("version", "v", false, "output version information and exit")
	verbose := fs.Bool("verbose", false, "log cycle details to stderr")
	configPath := fs.String("config", "", "defaults file (optional, defaults to "+defaultConfigPath+")")

	if err := fs.Parse(args); err != nil {
		return RunConfig{}, &UsageError{Reason: err.Error()}
	}
	if *help {
		return RunConfig{}, ErrHelp
	}
	if *version {
		return RunConfig{}, ErrVersion
	}

	command := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(command) == "" {
		return RunConfig{}, &UsageError{Reason: "missing command"}
	}

	defaults, err := LoadDefaults(*configPath)
	if err != nil {
		return RunConfig{}, fmt.Errorf("load defaults: %w", err)
	}

	cfg := RunConfig{
		Interval:      defaults.Interval,
		Command:       command,
		Shell:         defaults.Shell,
		NoTitle:       defaults.NoTitle || *noTitle,
		Beep:          defaults.Beep || *beep,
		ErrExit:       defaults.ErrExit || *errExit,
		Verbose:       *verbose,
		BoldTitle:     defaults.BoldTitle,
		FixedGeometry: defaults.FixedGeometry,
	}
	if fs.Changed("interval") {
		cfg.Interval = clampSeconds(atoi(*interval))
	}
	return cfg, nil
}

// atoi mirrors C atoi: an optional sign and the leading run of digits, 0 when
// there is none.
func atoi(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	const limit = 1 << 31
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		if n >= limit {
			n = limit - 1
			break
		}
	}
	if neg {
		return -n
	}
	return n
}
