// panic_recovery.go: Panic containment for plugin callbacks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"runtime"
)

// RecoveryHandler receives a recovered panic value and the stack it came from.
type RecoveryHandler func(recovered any, stack []byte)

// captureStack returns the current goroutine's stack, truncated at 64KB.
func captureStack() []byte {
	buf := make([]byte, 64<<10)
	n := runtime.Stack(buf, false)
	return buf[:n]
}

// invokeRecovered runs fn, turning a panic into a call to handler. It
// returns true when fn panicked.
func invokeRecovered(handler RecoveryHandler, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if handler != nil {
				handler(r, captureStack())
			}
		}
	}()
	fn()
	return false
}

// logRecovery returns a handler that logs the panic against one plugin callback.
func logRecovery(logger Logger, plugin string, entry EntryPoint) RecoveryHandler {
	return func(recovered any, stack []byte) {
		logger.Error("Plugin callback panicked",
			"plugin", plugin,
			"callback", string(entry),
			"panic", recovered,
			"stack", string(stack))
	}
}
