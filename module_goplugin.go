// module_goplugin.go: Go plugin (-buildmode=plugin) module backend
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"fmt"
	"plugin"
)

// GoPluginOpener opens modules built with `go build -buildmode=plugin`.
// Entry points are exported functions named by EntryPoint.GoSymbol, for
// example:
//
//	func OnLoad() int { return swb.HostMajorVersion }
//	func CreateBarItem(nb swb.Notebook) swb.Widget { ... }
//
// The Go runtime cannot unload a plugin. Close only drops the host's
// references; the code stays mapped until the process exits.
type GoPluginOpener struct{}

// Open implements ModuleOpener.
func (GoPluginOpener) Open(path string) (Module, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return &goPluginModule{path: path, plugin: p}, nil
}

type goPluginModule struct {
	path   string
	plugin *plugin.Plugin
}

func (m *goPluginModule) Lookup(entry EntryPoint) (any, error) {
	if m.plugin == nil {
		return nil, fmt.Errorf("%s: module closed", m.path)
	}
	sym, err := m.plugin.Lookup(entry.GoSymbol())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), errSymbolNotFound)
	}
	return sym, nil
}

func (m *goPluginModule) Close() error {
	m.plugin = nil
	return nil
}
