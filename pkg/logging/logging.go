// Package logging configures the process-wide structured logger.
//
// All packages log through log/slog; this package wires the default handler
// once at startup. Logs always go to stderr so they never interleave with
// the MCP stdio protocol on stdout.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name to its slog level. Unknown names fall back
// to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// Setup installs the default slog handler writing to w at the given level.
// This should be called once at application startup.
func Setup(level string, w io.Writer) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}
