package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the global logger instance. Usable before Setup (tests, init paths)
// via the slog default.
var Log = slog.Default()

// Setup initializes the global logger. Production emits JSON, everything
// else emits human-readable text. LOG_LEVEL overrides the default level.
func Setup(env string) {
	opts := &slog.HandlerOptions{
		Level: levelFromEnv(),
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// With returns a child logger carrying the given attributes
func With(args ...any) *slog.Logger {
	return Log.With(args...)
}
