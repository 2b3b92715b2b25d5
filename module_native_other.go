// module_native_other.go: C ABI module backend stub for unsupported platforms
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build !darwin && !freebsd && !linux

package swb

import "fmt"

// NativeOpener is unavailable on this platform; every open fails and the
// plugin is skipped like any other unloadable module.
type NativeOpener struct{}

// Open implements ModuleOpener.
func (NativeOpener) Open(path string) (Module, error) {
	return nil, fmt.Errorf("%s: native C ABI modules are not supported on this platform", path)
}
