// logfile.go: Log destination for the terminal UI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"
	"path/filepath"

	"github.com/agilira/swb"
)

// defaultLogFile returns $XDG_STATE_HOME/swb/swb.log, falling back to
// $HOME/.local/state/swb/swb.log. The terminal belongs to the UI, so the
// browser never logs to stderr while running.
func defaultLogFile(env swb.Env) string {
	if env == nil {
		env = os.Getenv
	}
	if dir := env("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "swb", "swb.log")
	}
	if home := env("HOME"); home != "" {
		return filepath.Join(home, ".local", "state", "swb", "swb.log")
	}
	return filepath.Join(os.TempDir(), "swb.log")
}

// newUILogger builds the zap logger for a UI session. On failure it returns
// a no-op logger and the error, so the browser still starts.
func newUILogger(cfg swb.LogConfig, env swb.Env) (swb.Logger, func(), error) {
	if cfg.File == "" {
		cfg.File = defaultLogFile(env)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		return swb.NewNoOpLogger(), func() {}, err
	}
	zl, err := swb.NewZapLogger(cfg)
	if err != nil {
		return swb.NewNoOpLogger(), func() {}, err
	}
	return zl, func() { _ = zl.Sync() }, nil
}
