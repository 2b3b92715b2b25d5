// app_test.go: tests for the shell event loop on a simulated terminal
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/swb"
)

const testTimeout = 5 * time.Second

// clickPlugin is a statically linked plugin with one bar item.
type clickPlugin struct {
	swb.BasePlugin
	widget  swb.Widget
	newTabs int
	keys    []swb.KeyEvent
}

func (p *clickPlugin) CreateBarItem(swb.Notebook) swb.Widget { return p.widget }
func (p *clickPlugin) OnNewTab(swb.ContentView)              { p.newTabs++ }
func (p *clickPlugin) OnKeyPress(ev swb.KeyEvent)            { p.keys = append(p.keys, ev) }

type signalButton struct {
	clicked chan struct{}
}

func (b *signalButton) Label() string { return "go" }
func (b *signalButton) Activate()     { b.clicked <- struct{}{} }

type signalEntry struct {
	text      string
	submitted chan string
}

func (e *signalEntry) Label() string { return e.text }
func (e *signalEntry) Activate()     {}

func (e *signalEntry) Submit(text string) {
	e.text = text
	e.submitted <- text
}

// staticRegistry loads p as the only plugin through the regular registry path.
func staticRegistry(t *testing.T, p swb.Plugin) *swb.Registry {
	t.Helper()
	opener := swb.NewStaticOpener()
	opener.Register("test.so", p)
	loader := swb.NewLoader(swb.WithOpener(".so", opener))
	local := swb.CandidateSet{"test.so": {Name: "test.so", Dir: ".", Origin: swb.OriginLocal}}
	reg := swb.LoadRegistry(context.Background(), swb.PluginOrder{Names: []string{"test.so"}}, swb.CandidateSet{}, local, loader, nil)
	require.Equal(t, 1, reg.Len())
	t.Cleanup(reg.Shutdown)
	return reg
}

// startApp runs app in the background and waits for its loop.
func startApp(t *testing.T, app *App) <-chan error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- app.Run(context.Background()) }()
	select {
	case <-app.Ready():
	case <-time.After(testTimeout):
		t.Fatal("app did not start")
	}
	return errc
}

func waitExit(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("app did not exit")
	}
}

func testConfig() swb.HostConfig {
	cfg := swb.DefaultHostConfig()
	cfg.StartPage = "https://a.example"
	return cfg
}

func click(screen tcell.SimulationScreen, x, y int) {
	screen.InjectMouse(x, y, tcell.Button1, tcell.ModNone)
	screen.InjectMouse(x, y, tcell.ButtonNone, tcell.ModNone)
}

func TestApp_EmptyRegistryQuits(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), swb.NewRegistry(nil, nil), nil)

	errc := startApp(t, app)
	screen.InjectKey(tcell.KeyCtrlT, 0, tcell.ModCtrl)
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	assert.Equal(t, 2, app.Notebook().PageCount())
	assert.Equal(t, 1, app.Notebook().CurrentPage())
}

func TestApp_ContextCancelStops(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- app.Run(ctx) }()
	<-app.Ready()
	cancel()
	waitExit(t, errc)
}

func TestApp_BarClickActivates(t *testing.T) {
	button := &signalButton{clicked: make(chan struct{}, 1)}
	plugin := &clickPlugin{widget: button}
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), staticRegistry(t, plugin), nil)

	errc := startApp(t, app)
	click(screen, 1, barRow)
	select {
	case <-button.clicked:
	case <-time.After(testTimeout):
		t.Fatal("bar item was not activated")
	}
	screen.InjectKey(tcell.KeyF5, 0, tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	assert.Equal(t, 1, plugin.newTabs, "the first tab is announced to plugins")
	require.Len(t, plugin.keys, 2)
	assert.Equal(t, swb.KeyF5, plugin.keys[0].Key)
	// plugins see host shortcuts too
	assert.Equal(t, swb.KeyRune, plugin.keys[1].Key)
	assert.True(t, plugin.keys[1].Modifiers.Has(swb.ModCtrl))
}

func TestApp_EditableBarItem(t *testing.T) {
	entry := &signalEntry{text: "x", submitted: make(chan string, 1)}
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), staticRegistry(t, &clickPlugin{widget: entry}), nil)

	errc := startApp(t, app)
	click(screen, 1, barRow)
	screen.InjectKey(tcell.KeyBackspace2, 0, tcell.ModNone)
	for _, r := range "go.dev" {
		screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
	}
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	select {
	case got := <-entry.submitted:
		assert.Equal(t, "go.dev", got)
	case <-time.After(testTimeout):
		t.Fatal("entry was not submitted")
	}
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)
}

func TestApp_KeysReachPluginsWhileEditing(t *testing.T) {
	entry := &signalEntry{text: "x", submitted: make(chan string, 1)}
	plugin := &clickPlugin{widget: entry}
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), staticRegistry(t, plugin), nil)

	errc := startApp(t, app)
	click(screen, 1, barRow)
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	screen.InjectKey(tcell.KeyCtrlT, 0, tcell.ModCtrl)
	screen.InjectKey(tcell.KeyRune, 'b', tcell.ModNone)
	screen.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)

	select {
	case got := <-entry.submitted:
		assert.Equal(t, "xab", got)
	case <-time.After(testTimeout):
		t.Fatal("entry was not submitted")
	}
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	require.Len(t, plugin.keys, 5)
	assert.Equal(t, 'a', plugin.keys[0].Rune)
	assert.Equal(t, 'b', plugin.keys[2].Rune)
	assert.Equal(t, swb.KeyEnter, plugin.keys[3].Key)
	assert.Equal(t, 1, app.Notebook().PageCount(), "host shortcuts are off while editing")
}

type panickyButton struct{}

func (panickyButton) Label() string { panic("label boom") }
func (panickyButton) Activate()     {}

func TestApp_PanickingLabelIsContained(t *testing.T) {
	logger := swb.NewTestLogger()
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), staticRegistry(t, &clickPlugin{widget: panickyButton{}}), logger)

	errc := startApp(t, app)
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	require.Len(t, app.placements, 1)
	assert.Equal(t, 2, app.placements[0].Width, "an empty label keeps its brackets")
	assert.True(t, logger.HasMessage("ERROR", "Plugin callback panicked"))
}

func TestApp_TabStripClicks(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), nil, nil)

	errc := startApp(t, app)
	// " a.example " is 11 columns, then "x", a gap and "+"
	click(screen, 13, tabRow)
	click(screen, 0, tabRow)
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	assert.Equal(t, 2, app.Notebook().PageCount())
	assert.Equal(t, 0, app.Notebook().CurrentPage())
}

func TestApp_NotifyShowsStatus(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	app := NewApp(screen, testConfig(), nil, nil)

	errc := startApp(t, app)
	app.Notify("plugins.txt changed")
	screen.InjectKey(tcell.KeyCtrlQ, 0, tcell.ModCtrl)
	waitExit(t, errc)

	assert.Equal(t, "plugins.txt changed", app.status)
}
