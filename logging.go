// logging.go: Pluggable logging for the plugin host
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"context"
	"sync"
)

type loggerContextKey string

const loggerKey loggerContextKey = "logger"

// Logger is the logging interface used throughout swb.
//
// The plugin subsystem only reports through this interface, so a host can
// route diagnostics anywhere: the terminal UI sends them to a log file via
// ZapAdapter, tests capture them with TestLogger.
//
// Args are alternating key-value pairs:
//
//	logger.Warn("Plugin not found", "plugin", name, "searched", dirs)
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a logger that prepends args to every subsequent call.
	With(args ...any) Logger
}

// NewLogger adapts the supported logger types to Logger.
//
// Supported types:
//   - Logger: used directly
//   - nil: NoOpLogger
//
// Any other type panics; this is a programming error at wiring time.
func NewLogger(logger any) Logger {
	switch l := logger.(type) {
	case Logger:
		return l
	case nil:
		return NewNoOpLogger()
	default:
		panic("unsupported logger type: expected Logger interface or nil")
	}
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Debug(msg string, args ...any) {}
func (n *NoOpLogger) Info(msg string, args ...any)  {}
func (n *NoOpLogger) Warn(msg string, args ...any)  {}
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger.
func (n *NoOpLogger) With(args ...any) Logger {
	return n
}

// TestLogger captures messages so tests can assert on diagnostics.
//
// Loggers derived through With share the parent's message buffer and
// prepend their context args, so a warning emitted by a component holding
// logger.With("plugin", name) is still visible to the test.
type TestLogger struct {
	shared  *testLogBuffer
	context []any
}

type testLogBuffer struct {
	mu       sync.RWMutex
	messages []TestLogMessage
}

// TestLogMessage represents a captured log message.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{shared: &testLogBuffer{}}
}

func (t *TestLogger) record(level, msg string, args []any) {
	all := make([]any, 0, len(t.context)+len(args))
	all = append(all, t.context...)
	all = append(all, args...)

	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	t.shared.messages = append(t.shared.messages, TestLogMessage{
		Level:   level,
		Message: msg,
		Args:    all,
	})
}

func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }
func (t *TestLogger) Info(msg string, args ...any)  { t.record("INFO", msg, args) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.record("WARN", msg, args) }
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

// With implements Logger.
func (t *TestLogger) With(args ...any) Logger {
	ctx := make([]any, 0, len(t.context)+len(args))
	ctx = append(ctx, t.context...)
	ctx = append(ctx, args...)
	return &TestLogger{shared: t.shared, context: ctx}
}

// Messages returns a snapshot of everything captured so far.
func (t *TestLogger) Messages() []TestLogMessage {
	t.shared.mu.RLock()
	defer t.shared.mu.RUnlock()
	out := make([]TestLogMessage, len(t.shared.messages))
	copy(out, t.shared.messages)
	return out
}

// HasMessage reports whether a message with the exact level and text was captured.
func (t *TestLogger) HasMessage(level, message string) bool {
	return t.CountMessages(level, message) > 0
}

// CountMessages counts captured messages with the exact level and text.
func (t *TestLogger) CountMessages(level, message string) int {
	n := 0
	for _, msg := range t.Messages() {
		if msg.Level == level && msg.Message == message {
			n++
		}
	}
	return n
}

// Clear removes all captured messages.
func (t *TestLogger) Clear() {
	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	t.shared.messages = t.shared.messages[:0]
}

// DefaultLogger returns the logger used when none is configured.
func DefaultLogger() Logger {
	return NewNoOpLogger()
}

// LoggerFromContext extracts a logger from ctx, falling back to DefaultLogger.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// ContextWithLogger adds a logger to the context.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
