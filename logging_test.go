// logging_test.go: tests for the Logger adapters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	t.Run("NilBecomesNoOp", func(t *testing.T) {
		logger := NewLogger(nil)
		_, ok := logger.(*NoOpLogger)
		assert.True(t, ok, "nil should adapt to NoOpLogger, got %T", logger)
	})

	t.Run("LoggerPassesThrough", func(t *testing.T) {
		tl := NewTestLogger()
		assert.Same(t, tl, NewLogger(tl))
	})

	t.Run("UnsupportedTypePanics", func(t *testing.T) {
		assert.Panics(t, func() { NewLogger("not a logger") })
	})
}

func TestTestLogger_WithSharesBuffer(t *testing.T) {
	logger := NewTestLogger()
	child := logger.With("plugin", "navbar.so")

	child.Warn("Failed to load plugin", "error", "boom")
	logger.Info("Loaded plugin")

	msgs := logger.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, []any{"plugin", "navbar.so", "error", "boom"}, msgs[0].Args)
	assert.True(t, logger.HasMessage("INFO", "Loaded plugin"))
	assert.False(t, logger.HasMessage("ERROR", "Loaded plugin"))

	logger.Clear()
	assert.Empty(t, logger.Messages())
	assert.Zero(t, logger.CountMessages("WARN", "Failed to load plugin"))
}

func TestLoggerContext(t *testing.T) {
	_, ok := LoggerFromContext(context.Background()).(*NoOpLogger)
	assert.True(t, ok)

	tl := NewTestLogger()
	ctx := ContextWithLogger(context.Background(), tl)
	assert.Same(t, tl, LoggerFromContext(ctx))
}

func TestZapAdapter_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapAdapter(zap.New(core)).With("plugin", "backbtn.so")

	logger.Debug("Plugin module resolved")
	logger.Warn("Failed to load plugin", "error", "missing symbol")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "Failed to load plugin", entries[1].Message)

	fields := entries[1].ContextMap()
	assert.Equal(t, "backbtn.so", fields["plugin"])
	assert.Equal(t, "missing symbol", fields["error"])
}

func TestNewZapLogger(t *testing.T) {
	t.Run("WritesToFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "swb.log")
		logger, err := NewZapLogger(LogConfig{Level: "debug", Format: "json", File: path})
		require.NoError(t, err)

		logger.Info("Browser started", "tabs", 1)
		require.NoError(t, logger.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"Browser started"`)
		assert.Contains(t, string(data), `"tabs":1`)
	})

	t.Run("RejectsBadLevel", func(t *testing.T) {
		_, err := NewZapLogger(LogConfig{Level: "chatty"})
		assert.Error(t, err)
	})

	t.Run("RejectsBadFormat", func(t *testing.T) {
		_, err := NewZapLogger(LogConfig{Level: "info", Format: "xml"})
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "xml"))
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"DEBUG":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := parseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
