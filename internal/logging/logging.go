package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Options controls where log output goes.
type Options struct {
	Level string
	// Console forces human-readable stderr output even when stderr is not
	// a terminal. A terminal always gets console output.
	Console bool
	// Quiet disables stderr output entirely, e.g. while a TUI owns the
	// terminal.
	Quiet bool
	// File overrides the log file path. "-" disables the file.
	File string
}

// New creates a zerolog logger writing to the log file and, when attached to
// a terminal, to stderr. The returned closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var writers []io.Writer
	if !opts.Quiet && (opts.Console || term.IsTerminal(int(os.Stderr.Fd()))) {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	var closer io.Closer = nopCloser{}
	path := opts.File
	if path == "" {
		path = LogPath()
	}
	if path != "-" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("create log dir: %w", err)
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, logFile)
		closer = logFile
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}
	multi := zerolog.MultiLevelWriter(writers...)

	// The log file is appended to across runs; the session id tells them apart.
	return zerolog.New(multi).Level(level).With().
		Timestamp().
		Caller().
		Str("session", uuid.NewString()[:8]).
		Logger(), closer, nil
}

// ParseLevel accepts zerolog level names. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// LogPath returns the platform-specific log file path.
func LogPath() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Logs"
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.local/state"
		}
	}

	return filepath.Join(base, "hotkey-tray", "hotkey-tray.log")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
