package main

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger returns a text logger for library diagnostics. Warnings and
// errors are shown by default; --verbose lowers the level to debug and
// DOCCROP_LOG_LEVEL overrides both.
func newLogger(w io.Writer, verbose bool, level string) *slog.Logger {
	lvl := slog.LevelWarn
	if verbose {
		lvl = slog.LevelDebug
	}
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
