// Package logging provides the structured logger shared by pullconfd and
// pullconf-agent. Output format (logfmt or JSON) is selected once at process
// start from PULLCONF_LOG_FORMAT; every record carries the process id and a
// subsystem scope so log lines can be correlated across a run.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler used for process output.
type Format string

const (
	FormatLogfmt Format = "logfmt"
	FormatJSON   Format = "json"
)

// ParseFormat validates a PULLCONF_LOG_FORMAT value, defaulting to logfmt
// when empty.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatLogfmt:
		return FormatLogfmt, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format %q, expected %q or %q", s, FormatLogfmt, FormatJSON)
	}
}

var defaultLogger *slog.Logger

// Init configures the package-level logger. It must be called once near the
// start of main before any other package logs.
func Init(format Format, output io.Writer, pid int) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler).With(slog.Int("pid", pid))
	slog.SetDefault(defaultLogger)
}

// InitDefault configures the logger with sane defaults for tests and for
// code paths that run before Init is called.
func InitDefault() {
	if defaultLogger == nil {
		Init(FormatLogfmt, os.Stderr, os.Getpid())
	}
}

func logger() *slog.Logger {
	InitDefault()
	return defaultLogger
}

// Debug logs a debug-level record scoped to subsystem.
func Debug(scope string, msg string, args ...any) {
	log(slog.LevelDebug, scope, msg, args...)
}

// Info logs an info-level record scoped to subsystem.
func Info(scope string, msg string, args ...any) {
	log(slog.LevelInfo, scope, msg, args...)
}

// Warn logs a warn-level record scoped to subsystem.
func Warn(scope string, msg string, args ...any) {
	log(slog.LevelWarn, scope, msg, args...)
}

// Error logs an error-level record scoped to subsystem, attaching err.
func Error(scope string, err error, msg string, args ...any) {
	l := logger().With(slog.String("scope", scope))
	if err != nil {
		l = l.With(slog.String("error", err.Error()))
	}
	l.Log(context.Background(), slog.LevelError, fmt.Sprintf(msg, args...))
}

func log(level slog.Level, scope string, msg string, args ...any) {
	logger().With(slog.String("scope", scope)).Log(context.Background(), level, msg, args...)
}

// With returns a derived logger carrying the given key-value attributes for
// every subsequent call, used by resource appliers to attach their kind and
// primary key to every record they emit for a given apply.
func With(attrs ...any) *slog.Logger {
	return logger().With(attrs...)
}
