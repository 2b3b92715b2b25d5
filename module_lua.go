// module_lua.go: Lua script module backend
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// LuaScriptSuffix is the file suffix handled by LuaOpener.
const LuaScriptSuffix = ".lua"

// LuaOpener runs plugin scripts in a sandboxed gopher-lua state. Entry
// points are global functions named after the contract (on_load,
// create_bar_item, ...). The io, os, debug and package libraries are not
// opened and dofile/loadfile/load are removed.
//
// A Lua runtime error inside a callback is raised as a Go panic, which the
// host recovers and reports like any other misbehaving plugin.
type LuaOpener struct{}

// Open implements ModuleOpener.
func (LuaOpener) Open(path string) (Module, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSandboxedLibraries(L)
	L.PreloadModule("swb", luaHostModule)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, err
	}
	return &luaModule{path: path, L: L}, nil
}

func openSandboxedLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	lua.OpenPackage(L)
	// the openers leave their module tables on the stack
	L.SetTop(0)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// luaHostModule backs require("swb").
func luaHostModule(L *lua.LState) int {
	mod := L.NewTable()
	L.SetField(mod, "major_version", lua.LNumber(HostMajorVersion))
	L.SetField(mod, "plugin_directory", L.NewFunction(func(L *lua.LState) int {
		dir, ok := PluginDirectory(nil)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(dir))
		return 1
	}))
	L.Push(mod)
	return 1
}

type luaModule struct {
	path string
	L    *lua.LState
}

func (m *luaModule) Lookup(entry EntryPoint) (any, error) {
	if m.L == nil {
		return nil, fmt.Errorf("%s: module closed", m.path)
	}
	fn, ok := m.L.GetGlobal(string(entry)).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s: global function %s: %w", m.path, entry, errSymbolNotFound)
	}

	switch entry {
	case EntryOnLoad:
		return func() int {
			ret := m.call(fn, 1)
			n, _ := ret[0].(lua.LNumber)
			return int(n)
		}, nil

	case EntryOnUnload, EntryOnPageChange:
		return func() { m.call(fn, 0) }, nil

	case EntryCreateBarItem:
		return func(nb Notebook) Widget {
			ret := m.call(fn, 1, m.notebookTable(nb))
			return m.widgetFrom(ret[0])
		}, nil

	case EntryIsPackStart, EntryIsPackExpand, EntryIsPackFill:
		return func() bool {
			return lua.LVAsBool(m.call(fn, 1)[0])
		}, nil

	case EntryOnKeyPress:
		return func(ev KeyEvent) {
			t := m.L.NewTable()
			m.L.SetField(t, "key", lua.LString(ev.Key.String()))
			if ev.Rune != 0 {
				m.L.SetField(t, "rune", lua.LString(string(ev.Rune)))
			}
			m.setModifiers(t, ev.Modifiers)
			m.call(fn, 0, t)
		}, nil

	case EntryOnBtnPress:
		return func(ev ButtonEvent) {
			t := m.L.NewTable()
			m.L.SetField(t, "button", lua.LNumber(ev.Button))
			m.L.SetField(t, "x", lua.LNumber(ev.X))
			m.L.SetField(t, "y", lua.LNumber(ev.Y))
			m.setModifiers(t, ev.Modifiers)
			m.call(fn, 0, t)
		}, nil

	case EntryOnNewTab:
		return func(view ContentView) {
			m.call(fn, 0, m.viewTable(view))
		}, nil

	case EntryOnTabSwitched:
		return func(index int) {
			m.call(fn, 0, lua.LNumber(index))
		}, nil
	}

	return nil, fmt.Errorf("%s: unknown entry point %q: %w", m.path, entry, errSymbolNotFound)
}

func (m *luaModule) Close() error {
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
	return nil
}

// call invokes fn and always returns nret values, padding with nil.
func (m *luaModule) call(fn *lua.LFunction, nret int, args ...lua.LValue) []lua.LValue {
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}, args...); err != nil {
		panic(fmt.Errorf("%s: %w", m.path, err))
	}
	ret := make([]lua.LValue, nret)
	for i := 0; i < nret; i++ {
		ret[i] = m.L.Get(-nret + i)
	}
	m.L.Pop(nret)
	if nret == 0 {
		return []lua.LValue{lua.LNil}
	}
	return ret
}

func (m *luaModule) setModifiers(t *lua.LTable, mods Modifier) {
	m.L.SetField(t, "shift", lua.LBool(mods.Has(ModShift)))
	m.L.SetField(t, "ctrl", lua.LBool(mods.Has(ModCtrl)))
	m.L.SetField(t, "alt", lua.LBool(mods.Has(ModAlt)))
	m.L.SetField(t, "meta", lua.LBool(mods.Has(ModMeta)))
}

// widgetFrom accepts nil, a label string, or a table
// {label=..., on_activate=function, on_submit=function(text)}. A table with
// on_submit becomes an editable item.
func (m *luaModule) widgetFrom(v lua.LValue) Widget {
	switch val := v.(type) {
	case lua.LString:
		if val == "" {
			return nil
		}
		return &luaWidget{label: string(val)}
	case *lua.LTable:
		label := lua.LVAsString(val.RawGetString("label"))
		w := &luaWidget{label: label}
		if cb, ok := val.RawGetString("on_activate").(*lua.LFunction); ok {
			w.activate = func() { m.call(cb, 0) }
		}
		if cb, ok := val.RawGetString("on_submit").(*lua.LFunction); ok {
			return &luaEditable{luaWidget: w, submit: func(text string) {
				ret := m.call(cb, 1, lua.LString(text))
				if s, ok := ret[0].(lua.LString); ok {
					w.label = string(s)
				} else {
					w.label = text
				}
			}}
		}
		return w
	default:
		return nil
	}
}

func (m *luaModule) notebookTable(nb Notebook) *lua.LTable {
	t := m.L.NewTable()
	if nb == nil {
		return t
	}
	m.L.SetField(t, "current_page", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(nb.CurrentPage()))
		return 1
	}))
	m.L.SetField(t, "page_count", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(nb.PageCount()))
		return 1
	}))
	m.L.SetField(t, "current_view", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(m.viewTable(CurrentView(nb)))
		return 1
	}))
	m.L.SetField(t, "open_tab", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(nb.OpenTab(L.CheckString(1))))
		return 1
	}))
	return t
}

func (m *luaModule) viewTable(view ContentView) lua.LValue {
	if view == nil {
		return lua.LNil
	}
	t := m.L.NewTable()
	m.L.SetField(t, "uri", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(view.URI()))
		return 1
	}))
	m.L.SetField(t, "title", m.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(view.Title()))
		return 1
	}))
	m.L.SetField(t, "load_uri", m.L.NewFunction(func(L *lua.LState) int {
		view.LoadURI(L.CheckString(1))
		return 0
	}))
	m.L.SetField(t, "reload", m.L.NewFunction(func(L *lua.LState) int {
		view.Reload()
		return 0
	}))
	m.L.SetField(t, "go_back", m.L.NewFunction(func(L *lua.LState) int {
		view.GoBack()
		return 0
	}))
	m.L.SetField(t, "go_forward", m.L.NewFunction(func(L *lua.LState) int {
		view.GoForward()
		return 0
	}))
	return t
}

type luaWidget struct {
	label    string
	activate func()
}

func (w *luaWidget) Label() string { return w.label }

func (w *luaWidget) Activate() {
	if w.activate != nil {
		w.activate()
	}
}

// luaEditable keeps the string returned by on_submit as its new label.
type luaEditable struct {
	*luaWidget
	submit func(string)
}

func (e *luaEditable) Submit(text string) { e.submit(text) }
