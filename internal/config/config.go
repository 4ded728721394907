package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// RunConfig is the immutable configuration handed to the refresh loop.
type RunConfig struct {
	Interval      time.Duration
	Command       string
	Shell         string
	NoTitle       bool
	Beep          bool
	ErrExit       bool
	Verbose       bool
	BoldTitle     bool
	FixedGeometry bool
}

// Defaults captures the values read from the optional defaults file.
type Defaults struct {
	Interval      time.Duration
	Shell         string
	NoTitle       bool
	Beep          bool
	ErrExit       bool
	BoldTitle     bool
	FixedGeometry bool
}

const (
	defaultConfigPath = "~/.config/every/config.toml"
	defaultInterval   = 2 * time.Second
	defaultShell      = "/bin/sh"
)

// LoadDefaults locates and parses the defaults file, falling back to built-in
// values when it is missing.
func LoadDefaults(path string) (Defaults, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults{}, err
	}

	defaults := Defaults{Interval: defaultInterval, Shell: defaultShell}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return Defaults{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Defaults{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Interval      *int   `toml:"interval"`
		Shell         string `toml:"shell"`
		NoTitle       bool   `toml:"no_title"`
		Beep          bool   `toml:"beep"`
		ErrExit       bool   `toml:"errexit"`
		BoldTitle     bool   `toml:"bold_title"`
		FixedGeometry bool   `toml:"fixed_geometry"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Defaults{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.Interval != nil {
		defaults.Interval = clampSeconds(*raw.Interval)
	}
	defaults.Shell = strings.TrimSpace(raw.Shell)
	if defaults.Shell == "" {
		defaults.Shell = defaultShell
	}
	defaults.Shell = mustExpand(defaults.Shell)
	defaults.NoTitle = raw.NoTitle
	defaults.Beep = raw.Beep
	defaults.ErrExit = raw.ErrExit
	defaults.BoldTitle = raw.BoldTitle
	defaults.FixedGeometry = raw.FixedGeometry

	return defaults, nil
}

func clampSeconds(n int) time.Duration {
	if n < 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
