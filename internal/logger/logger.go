package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/josephgoksu/TodoChat/types"
)

// level is shared by every logger built here so it can change at runtime.
var level = new(slog.LevelVar)

// ParseLevel maps debug/info/warn/error to a slog level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the level of every logger created by New.
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// New builds a logger from the log config. The returned closer releases a log
// file; it is a no-op for stdout and stderr.
func New(cfg types.LogConfig) (*slog.Logger, io.Closer) {
	SetLevel(cfg.Level)

	var out io.Writer
	var closer io.Closer = nopCloser{}
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "stderr", "":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			out = os.Stderr
		} else {
			out, closer = f, f
		}
	}
	return NewWithWriter(out, cfg.Format), closer
}

// NewWithWriter builds a text or JSON logger writing to w at the shared level.
func NewWithWriter(w io.Writer, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
