// module_native_unix.go: C ABI module backend over dlopen
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build darwin || freebsd || linux

package swb

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// NativeOpener opens C ABI modules with dlopen(RTLD_NOW|RTLD_LOCAL), so
// unresolved dependencies fail at open time instead of at first call.
// Symbols are named by EntryPoint.CSymbol; see examples/native/swb_plugin.h
// for the C prototypes.
type NativeOpener struct{}

// Open implements ModuleOpener.
func (NativeOpener) Open(path string) (Module, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &nativeModule{path: path, handle: handle}, nil
}

type nativeModule struct {
	path   string
	handle uintptr
}

func (m *nativeModule) sym(name string) (uintptr, error) {
	if m.handle == 0 {
		return 0, fmt.Errorf("%s: module closed", m.path)
	}
	addr, err := purego.Dlsym(m.handle, name)
	if err != nil {
		return 0, fmt.Errorf("%s: %s: %w", m.path, err.Error(), errSymbolNotFound)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%s: %s: %w", m.path, name, errSymbolNotFound)
	}
	return addr, nil
}

func (m *nativeModule) Lookup(entry EntryPoint) (any, error) {
	addr, err := m.sym(entry.CSymbol())
	if err != nil {
		return nil, err
	}

	switch entry {
	case EntryOnLoad:
		var fn func() int32
		purego.RegisterFunc(&fn, addr)
		return func() int { return int(fn()) }, nil

	case EntryOnUnload, EntryOnPageChange:
		var fn func()
		purego.RegisterFunc(&fn, addr)
		return fn, nil

	case EntryCreateBarItem:
		var create func() string
		purego.RegisterFunc(&create, addr)
		// plugin__on_bar_item_activate is optional and outside the contract
		var activate func()
		if actAddr, err := m.sym("plugin__on_bar_item_activate"); err == nil {
			purego.RegisterFunc(&activate, actAddr)
		}
		return func(Notebook) Widget {
			label := create()
			if label == "" {
				return nil
			}
			return &nativeWidget{label: label, activate: activate}
		}, nil

	case EntryIsPackStart, EntryIsPackExpand, EntryIsPackFill:
		var fn func() bool
		purego.RegisterFunc(&fn, addr)
		return fn, nil

	case EntryOnKeyPress:
		var fn func(key int32, r int32, mods uint32)
		purego.RegisterFunc(&fn, addr)
		return func(ev KeyEvent) {
			fn(int32(ev.Key), int32(ev.Rune), uint32(ev.Modifiers))
		}, nil

	case EntryOnBtnPress:
		var fn func(button, x, y int32, mods uint32)
		purego.RegisterFunc(&fn, addr)
		return func(ev ButtonEvent) {
			fn(int32(ev.Button), int32(ev.X), int32(ev.Y), uint32(ev.Modifiers))
		}, nil

	case EntryOnNewTab:
		var fn func(uri string)
		purego.RegisterFunc(&fn, addr)
		return func(view ContentView) {
			uri := ""
			if view != nil {
				uri = view.URI()
			}
			fn(uri)
		}, nil

	case EntryOnTabSwitched:
		var fn func(index int32)
		purego.RegisterFunc(&fn, addr)
		return func(index int) { fn(int32(index)) }, nil
	}

	return nil, fmt.Errorf("%s: unknown entry point %q: %w", m.path, entry, errSymbolNotFound)
}

func (m *nativeModule) Close() error {
	if m.handle == 0 {
		return nil
	}
	err := purego.Dlclose(m.handle)
	m.handle = 0
	return err
}

type nativeWidget struct {
	label    string
	activate func()
}

func (w *nativeWidget) Label() string { return w.label }

func (w *nativeWidget) Activate() {
	if w.activate != nil {
		w.activate()
	}
}
