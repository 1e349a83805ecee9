// Package logging provides the structured logger used across media-mirror.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Exported constants.
const (
	// FormatJSON selects the JSON handler.
	FormatJSON = "json"
	// FormatText selects the key=value text handler.
	FormatText = "text"
)

// unexported constants.
const (
	logDirPermissions  = 0o750
	logFilePermissions = 0o600
)

// Logger is a minimal structured logger facade over slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// New creates a logger writing to w in the given format ("text" or "json").
func New(w io.Writer, format string, level slog.Leveler) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewText(w, level), nil
	case FormatJSON:
		return NewJSON(w, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text or json)", format) //nolint:err113 // Includes the bad value
	}
}

// NewText creates a text-handler logger writing to w with the given level.
func NewText(w io.Writer, level slog.Leveler) Logger {
	if w == nil {
		w = os.Stderr
	}

	return &slogLogger{l: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))}
}

// NewJSON creates a json-handler logger writing to w with the given level.
func NewJSON(w io.Writer, level slog.Leveler) Logger {
	if w == nil {
		w = os.Stderr
	}

	return &slogLogger{l: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))}
}

// Nop returns a no-op logger.
func Nop() Logger { return nopLogger{} }

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}

	return l
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

// OpenFile opens path for appending, creating it and its parent directory.
func OpenFile(path string) (*os.File, error) {
	err := os.MkdirAll(filepath.Dir(path), logDirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	//nolint:gosec // Log path comes from the user's own flag
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return file, nil
}

type slogLogger struct{ l *slog.Logger }

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger { return &slogLogger{l: s.l.With(args...)} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (n nopLogger) With(...any) Logger { return n }
