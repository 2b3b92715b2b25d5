// testing_helpers_test.go: shared fakes for host and plugin tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"sync"
)

// eventLog is shared by recordingPlugins so tests can assert on the
// interleaving of callbacks across plugins.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// recordingPlugin is a statically linked plugin that appends "name:callback"
// to a shared log. Fields tune its answers.
type recordingPlugin struct {
	BasePlugin
	name    string
	log     *eventLog
	version int
	widget  Widget
	start   bool
	expand  bool
	fill    bool
	panicOn EntryPoint
}

func newRecordingPlugin(name string, log *eventLog) *recordingPlugin {
	return &recordingPlugin{name: name, log: log, version: HostMajorVersion, start: true}
}

func (p *recordingPlugin) hit(entry EntryPoint) {
	p.log.add(p.name + ":" + string(entry))
	if p.panicOn == entry {
		panic(p.name + " failed in " + string(entry))
	}
}

func (p *recordingPlugin) OnLoad() int {
	p.hit(EntryOnLoad)
	return p.version
}

func (p *recordingPlugin) OnUnload() { p.hit(EntryOnUnload) }

func (p *recordingPlugin) CreateBarItem(Notebook) Widget {
	p.hit(EntryCreateBarItem)
	return p.widget
}

func (p *recordingPlugin) IsPackStart() bool  { return p.start }
func (p *recordingPlugin) IsPackExpand() bool { return p.expand }
func (p *recordingPlugin) IsPackFill() bool   { return p.fill }

func (p *recordingPlugin) OnKeyPress(KeyEvent)    { p.hit(EntryOnKeyPress) }
func (p *recordingPlugin) OnBtnPress(ButtonEvent) { p.hit(EntryOnBtnPress) }
func (p *recordingPlugin) OnPageChange()          { p.hit(EntryOnPageChange) }
func (p *recordingPlugin) OnNewTab(ContentView)   { p.hit(EntryOnNewTab) }
func (p *recordingPlugin) OnTabSwitched(int)      { p.hit(EntryOnTabSwitched) }

// labelWidget is a fixed-label bar item that counts activations.
type labelWidget struct {
	label     string
	activated int
	submitted []string
	panics    bool
}

func (w *labelWidget) Label() string { return w.label }

func (w *labelWidget) Activate() {
	if w.panics {
		panic("activate failed")
	}
	w.activated++
}

// entryWidget is an editable labelWidget.
type entryWidget struct {
	labelWidget
}

func (w *entryWidget) Submit(text string) {
	if w.panics {
		panic("submit failed")
	}
	w.submitted = append(w.submitted, text)
	w.label = text
}

// fakeView is an in-memory ContentView.
type fakeView struct {
	uri     string
	title   string
	history []string
	reloads int
}

func (v *fakeView) URI() string   { return v.uri }
func (v *fakeView) Title() string { return v.title }

func (v *fakeView) LoadURI(uri string) {
	v.history = append(v.history, v.uri)
	v.uri = uri
}

func (v *fakeView) Reload()            { v.reloads++ }
func (v *fakeView) CanGoBack() bool    { return len(v.history) > 0 }
func (v *fakeView) CanGoForward() bool { return false }

func (v *fakeView) GoBack() {
	if n := len(v.history); n > 0 {
		v.uri = v.history[n-1]
		v.history = v.history[:n-1]
	}
}

func (v *fakeView) GoForward() {}

// fakeNotebook is an in-memory Notebook.
type fakeNotebook struct {
	views   []*fakeView
	current int
}

func (n *fakeNotebook) CurrentPage() int { return n.current }
func (n *fakeNotebook) PageCount() int   { return len(n.views) }

func (n *fakeNotebook) View(index int) ContentView {
	if index < 0 || index >= len(n.views) {
		return nil
	}
	return n.views[index]
}

func (n *fakeNotebook) OpenTab(uri string) int {
	n.views = append(n.views, &fakeView{uri: uri})
	n.current = len(n.views) - 1
	return n.current
}
