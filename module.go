// module.go: Module backends and the statically linked plugin table
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Module is an opened plugin module. Lookup returns the entry point as a Go
// func value with the signature the contract requires:
//
//	on_load          func() int
//	on_unload        func()
//	create_bar_item  func(Notebook) Widget
//	is_pack_*        func() bool
//	on_key_press     func(KeyEvent)
//	on_btn_press     func(ButtonEvent)
//	on_page_change   func()
//	on_new_tab       func(ContentView)
//	on_tab_switched  func(int)
type Module interface {
	Lookup(entry EntryPoint) (any, error)
	Close() error
}

// ModuleOpener opens module files of one kind.
type ModuleOpener interface {
	Open(path string) (Module, error)
}

// ModuleOpenerFunc adapts a function to ModuleOpener.
type ModuleOpenerFunc func(path string) (Module, error)

// Open implements ModuleOpener.
func (f ModuleOpenerFunc) Open(path string) (Module, error) {
	return f(path)
}

// errSymbolNotFound is wrapped by backends when an entry point is absent.
var errSymbolNotFound = fmt.Errorf("symbol not found")

// SymbolTable maps entry points to their implementations.
type SymbolTable map[EntryPoint]any

// SymbolsOf builds the full symbol table for a Plugin implementation.
func SymbolsOf(p Plugin) SymbolTable {
	return SymbolTable{
		EntryOnLoad:        p.OnLoad,
		EntryOnUnload:      p.OnUnload,
		EntryCreateBarItem: p.CreateBarItem,
		EntryIsPackStart:   p.IsPackStart,
		EntryIsPackExpand:  p.IsPackExpand,
		EntryIsPackFill:    p.IsPackFill,
		EntryOnKeyPress:    p.OnKeyPress,
		EntryOnBtnPress:    p.OnBtnPress,
		EntryOnPageChange:  p.OnPageChange,
		EntryOnNewTab:      p.OnNewTab,
		EntryOnTabSwitched: p.OnTabSwitched,
	}
}

// Without returns a copy of the table lacking the given entry points.
func (t SymbolTable) Without(entries ...EntryPoint) SymbolTable {
	out := make(SymbolTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for _, e := range entries {
		delete(out, e)
	}
	return out
}

// StaticOpener serves modules compiled into the host. Modules are keyed by
// file name, so a registered "backbtn.so" is opened for any path whose base
// name matches. This lets statically linked plugins go through the same
// manifest, resolution and version gate as dynamic ones.
type StaticOpener struct {
	mu      sync.Mutex
	modules map[string]SymbolTable
	open    map[string]int
}

// NewStaticOpener creates an empty static table.
func NewStaticOpener() *StaticOpener {
	return &StaticOpener{
		modules: make(map[string]SymbolTable),
		open:    make(map[string]int),
	}
}

// Register adds a complete Plugin under name.
func (s *StaticOpener) Register(name string, p Plugin) {
	s.RegisterSymbols(name, SymbolsOf(p))
}

// RegisterSymbols adds a raw symbol table under name. Tables may be
// incomplete; the loader rejects them atomically.
func (s *StaticOpener) RegisterSymbols(name string, symbols SymbolTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[name] = symbols
}

// OpenCount reports how many modules opened under name are still open.
func (s *StaticOpener) OpenCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open[name]
}

// Open implements ModuleOpener.
func (s *StaticOpener) Open(path string) (Module, error) {
	name := filepath.Base(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	symbols, ok := s.modules[name]
	if !ok {
		return nil, fmt.Errorf("%s: no statically linked module with this name", name)
	}
	s.open[name]++
	return &staticModule{owner: s, name: name, symbols: symbols}, nil
}

type staticModule struct {
	owner   *StaticOpener
	name    string
	symbols SymbolTable
	closed  bool
}

func (m *staticModule) Lookup(entry EntryPoint) (any, error) {
	sym, ok := m.symbols[entry]
	if !ok || sym == nil {
		return nil, fmt.Errorf("%s: %s: %w", m.name, entry, errSymbolNotFound)
	}
	return sym, nil
}

func (m *staticModule) Close() error {
	if m.closed {
		return fmt.Errorf("%s: module already closed", m.name)
	}
	m.closed = true
	m.owner.mu.Lock()
	m.owner.open[m.name]--
	m.owner.mu.Unlock()
	return nil
}
