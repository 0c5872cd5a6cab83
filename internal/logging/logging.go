// Package logging builds the slog logger shared by commands and collectors.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w. verbose enables debug output;
// jsonMode raises the level to warn so machine-readable stdout is not
// interleaved with chatter on a shared terminal.
func New(w io.Writer, verbose, jsonMode bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case jsonMode:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
