package cli

import (
	"io"
	"log/slog"
	"strings"
)

// parseLogLevel maps a level name to a slog.Level. Unknown names yield
// LevelInfo and ok=false.
func parseLogLevel(level string) (lvl slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// setupLogging installs a text handler on w as the default slog logger.
func setupLogging(w io.Writer, level string) {
	lvl, ok := parseLogLevel(level)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	if !ok {
		slog.Warn("Invalid log level, using INFO", "value", level)
	}
}
