// loader.go: Atomic plugin loading and unloading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LoadedPlugin is a plugin whose every entry point resolved. The loader
// never hands out a partially resolved value: either all callbacks are set
// or Load returns an error and the module is already closed.
//
// LoadedPlugin implements Plugin by calling through to the module.
type LoadedPlugin struct {
	// Name is the module file name as listed in plugins.txt.
	Name   string
	Path   string
	Origin Origin

	// Version is the major version reported by on_load; zero until the
	// version gate has run.
	Version  int
	LoadedAt time.Time

	module   Module
	unloaded bool

	onLoad        func() int
	onUnload      func()
	createBarItem func(Notebook) Widget
	isPackStart   func() bool
	isPackExpand  func() bool
	isPackFill    func() bool
	onKeyPress    func(KeyEvent)
	onBtnPress    func(ButtonEvent)
	onPageChange  func()
	onNewTab      func(ContentView)
	onTabSwitched func(int)
}

func (p *LoadedPlugin) OnLoad() int                      { return p.onLoad() }
func (p *LoadedPlugin) OnUnload()                        { p.onUnload() }
func (p *LoadedPlugin) CreateBarItem(nb Notebook) Widget { return p.createBarItem(nb) }
func (p *LoadedPlugin) IsPackStart() bool                { return p.isPackStart() }
func (p *LoadedPlugin) IsPackExpand() bool               { return p.isPackExpand() }
func (p *LoadedPlugin) IsPackFill() bool                 { return p.isPackFill() }
func (p *LoadedPlugin) OnKeyPress(ev KeyEvent)           { p.onKeyPress(ev) }
func (p *LoadedPlugin) OnBtnPress(ev ButtonEvent)        { p.onBtnPress(ev) }
func (p *LoadedPlugin) OnPageChange()                    { p.onPageChange() }
func (p *LoadedPlugin) OnNewTab(view ContentView)        { p.onNewTab(view) }
func (p *LoadedPlugin) OnTabSwitched(index int)          { p.onTabSwitched(index) }

// Unloaded reports whether the plugin's module has been released.
func (p *LoadedPlugin) Unloaded() bool {
	return p.unloaded
}

// bind stores sym in the callback slot for entry. It returns false when sym
// does not have the contract signature.
func (p *LoadedPlugin) bind(entry EntryPoint, sym any) bool {
	var ok bool
	switch entry {
	case EntryOnLoad:
		p.onLoad, ok = sym.(func() int)
	case EntryOnUnload:
		p.onUnload, ok = sym.(func())
	case EntryCreateBarItem:
		p.createBarItem, ok = sym.(func(Notebook) Widget)
	case EntryIsPackStart:
		p.isPackStart, ok = sym.(func() bool)
	case EntryIsPackExpand:
		p.isPackExpand, ok = sym.(func() bool)
	case EntryIsPackFill:
		p.isPackFill, ok = sym.(func() bool)
	case EntryOnKeyPress:
		p.onKeyPress, ok = sym.(func(KeyEvent))
	case EntryOnBtnPress:
		p.onBtnPress, ok = sym.(func(ButtonEvent))
	case EntryOnPageChange:
		p.onPageChange, ok = sym.(func())
	case EntryOnNewTab:
		p.onNewTab, ok = sym.(func(ContentView))
	case EntryOnTabSwitched:
		p.onTabSwitched, ok = sym.(func(int))
	}
	return ok
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithOpener routes files ending in suffix to opener. Suffix matching is
// case-insensitive and the longest matching suffix wins.
func WithOpener(suffix string, opener ModuleOpener) LoaderOption {
	return func(l *Loader) {
		l.openers[strings.ToLower(suffix)] = opener
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(logger Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = NewLogger(logger)
	}
}

// WithVerifier checks every module file with v before it is opened. A nil
// verifier disables the check.
func WithVerifier(v *ModuleVerifier) LoaderOption {
	return func(l *Loader) {
		l.verifier = v
	}
}

// Loader opens plugin modules and resolves the contract's entry points.
//
// Example:
//
//	loader := swb.NewLoader(
//	    swb.WithOpener(swb.PlatformModuleSuffix(), swb.GoPluginOpener{}),
//	    swb.WithOpener(swb.LuaScriptSuffix, swb.LuaOpener{}),
//	)
//	plugin, err := loader.Load("./backbtn.so")
type Loader struct {
	openers  map[string]ModuleOpener
	verifier *ModuleVerifier
	logger   Logger
}

// NewLoader creates a loader. Without WithOpener options it handles nothing
// and every Load fails with UnsupportedModule.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		openers: make(map[string]ModuleOpener),
		logger:  DefaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Suffixes returns the handled file suffixes, sorted.
func (l *Loader) Suffixes() []string {
	out := make([]string, 0, len(l.openers))
	for s := range l.openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Patterns returns glob patterns for the handled suffixes, suitable for
// EnumerateCandidates.
func (l *Loader) Patterns() []string {
	suffixes := l.Suffixes()
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = "*" + s
	}
	return out
}

func (l *Loader) openerFor(path string) ModuleOpener {
	lower := strings.ToLower(path)
	var best string
	for suffix := range l.openers {
		if strings.HasSuffix(lower, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}
	if best == "" {
		return nil
	}
	return l.openers[best]
}

// Load opens the module at path and resolves every required entry point in
// order. If any entry point is missing or has the wrong signature the
// module is closed before Load returns, and the error names the entry
// point. Load does not call on_load; the registry runs the version gate.
func (l *Loader) Load(path string) (*LoadedPlugin, error) {
	opener := l.openerFor(path)
	if opener == nil {
		return nil, NewUnsupportedModuleError(path)
	}
	if l.verifier != nil {
		if err := l.verifier.Verify(path); err != nil {
			return nil, err
		}
	}

	module, err := opener.Open(path)
	if err != nil {
		return nil, NewModuleOpenFailedError(path, err)
	}

	plugin := &LoadedPlugin{
		Name:   filepath.Base(path),
		Path:   path,
		module: module,
	}

	for _, entry := range requiredEntryPoints {
		sym, err := module.Lookup(entry)
		if err != nil {
			l.discard(path, module)
			return nil, NewMissingSymbolError(path, entry, err)
		}
		if !plugin.bind(entry, sym) {
			l.discard(path, module)
			return nil, NewSymbolSignatureError(path, entry, fmt.Sprintf("%T", sym))
		}
	}

	l.logger.Debug("Plugin module resolved", "path", path)
	return plugin, nil
}

func (l *Loader) discard(path string, module Module) {
	if err := module.Close(); err != nil {
		l.logger.Warn("Failed to close rejected module", "path", path, "error", err)
	}
}

// Unload calls the plugin's on_unload and releases its module. A panic in
// on_unload is logged and the module is released anyway. Calling Unload a
// second time logs a warning and does nothing.
func (l *Loader) Unload(p *LoadedPlugin) error {
	if p.unloaded {
		l.logger.Warn("Plugin already unloaded", "plugin", p.Name)
		return nil
	}
	p.unloaded = true

	invokeRecovered(logRecovery(l.logger, p.Name, EntryOnUnload), p.onUnload)
	return l.release(p)
}

// release closes the module without calling on_unload.
func (l *Loader) release(p *LoadedPlugin) error {
	p.unloaded = true
	module := p.module
	p.module = nil
	if module == nil {
		return nil
	}
	if err := module.Close(); err != nil {
		return NewModuleCloseFailedError(p.Name, err)
	}
	return nil
}
