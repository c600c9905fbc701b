package utils

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	Level           string
	Output          io.Writer
	Prefix          string
	ReportTimestamp bool
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
)

// InitLogger builds a charmbracelet logger from options.
// A nil Output writes to stderr.
func InitLogger(opts LoggerOptions) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.ReportTimestamp,
		TimeFormat:      time.Kitchen,
	})
}

// InitDefaultLogger creates the CLI logger and installs it as the package default.
// DIVEBOARD_LOG_LEVEL overrides the level (default: info).
func InitDefaultLogger() *log.Logger {
	level := os.Getenv("DIVEBOARD_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger := InitLogger(LoggerOptions{Level: level, Output: os.Stderr})
	SetDefaultLogger(logger)
	return logger
}

// GetDefaultLogger returns the shared logger.
func GetDefaultLogger() *log.Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the shared logger. Nil is ignored.
func SetDefaultLogger(logger *log.Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// parseLevel maps a level name onto a log.Level, defaulting to info.
func parseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs through the default logger.
func Debug(msg any, keyvals ...any) { GetDefaultLogger().Debug(msg, keyvals...) }

// Info logs through the default logger.
func Info(msg any, keyvals ...any) { GetDefaultLogger().Info(msg, keyvals...) }

// Warn logs through the default logger.
func Warn(msg any, keyvals ...any) { GetDefaultLogger().Warn(msg, keyvals...) }

// Error logs through the default logger.
func Error(msg any, keyvals ...any) { GetDefaultLogger().Error(msg, keyvals...) }

// With returns a child of the default logger carrying keyvals.
func With(keyvals ...any) *log.Logger { return GetDefaultLogger().With(keyvals...) }

// WithPrefix returns a child of the default logger with the given prefix.
func WithPrefix(prefix string) *log.Logger { return GetDefaultLogger().WithPrefix(prefix) }
