// Package logging configures slog for the terminal peer and maps its level
// onto pion's logger factory.
package logging

import (
	"log/slog"
	"os"

	"github.com/pion/logging"
)

var level = slog.LevelError

func Init() {
	level = parseLevel(os.Getenv("LOG_LEVEL"))

	logger := slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}),
	)
	slog.SetDefault(logger)
}

func parseLevel(l string) slog.Level {
	switch l {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default: // production only shows errors
		return slog.LevelError
	}
}

// PionFactory returns a pion logger factory writing to stderr at the level
// chosen by Init.
func PionFactory() logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.Writer = os.Stderr
	f.DefaultLogLevel = pionLevel(level)
	return f
}

func pionLevel(l slog.Level) logging.LogLevel {
	switch {
	case l <= slog.LevelDebug:
		return logging.LogLevelDebug
	case l <= slog.LevelInfo:
		return logging.LogLevelInfo
	case l <= slog.LevelWarn:
		return logging.LogLevelWarn
	default:
		return logging.LogLevelError
	}
}
