// app.go: Terminal browser shell and its event loop
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/agilira/swb"
)

// Screen rows.
const (
	barRow  = 0
	tabRow  = 1
	bodyRow = 3
)

const barSpacing = 1

// App is the browser shell: one screen, one notebook and the plugins
// driving the navigation bar. Everything runs on the goroutine calling Run.
type App struct {
	screen     tcell.Screen
	cfg        swb.HostConfig
	logger     swb.Logger
	registry   *swb.Registry
	dispatcher *swb.Dispatcher
	notebook   *Notebook

	bar        swb.BarLayout
	placements []swb.Placement
	tabHits    []tabHit
	mouse      mouseTracker
	editor     *lineEditor

	status string
	ready  chan struct{}
	quit   bool
}

// tabHit is the clickable extent of one tab strip element.
type tabHit struct {
	x0, x1 int
	index  int
	close  bool
	add    bool
}

// NewApp wires the shell to a loaded registry. The registry may be empty.
func NewApp(screen tcell.Screen, cfg swb.HostConfig, registry *swb.Registry, logger swb.Logger) *App {
	logger = swb.NewLogger(logger)
	dispatcher := swb.NewDispatcher(registry, logger)
	return &App{
		screen:     screen,
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		dispatcher: dispatcher,
		notebook:   NewNotebook(cfg.StartPage, dispatcher),
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the event loop is running.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// Notebook returns the shell's tab container.
func (a *App) Notebook() *Notebook {
	return a.notebook
}

// Notify posts msg to the status line from any goroutine.
func (a *App) Notify(msg string) {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(msg)) // best-effort; queue may be full
}

// Run initialises the screen, builds the navigation bar, opens the first
// tab and processes events until the user quits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialise terminal: %w", err)
	}
	defer a.screen.Fini()
	a.screen.EnableMouse()

	a.bar = a.dispatcher.BuildBar(a.notebook)
	a.notebook.OpenTab(a.cfg.StartPage)
	a.logger.Info("Browser started", "plugins", a.dispatcher.Len(), "bar_items", a.bar.Len())

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = a.screen.PostEvent(tcell.NewEventInterrupt(ctx.Err()))
		case <-done:
		}
	}()

	close(a.ready)
	for !a.quit {
		a.draw()
		ev := a.screen.PollEvent()
		if ev == nil {
			break
		}
		a.handle(ev)
	}
	return nil
}

func (a *App) handle(ev tcell.Event) {
	switch e := ev.(type) {
	case *tcell.EventKey:
		a.handleKey(e)
	case *tcell.EventMouse:
		a.handleMouse(e)
	case *tcell.EventResize:
		a.screen.Sync()
	case *tcell.EventInterrupt:
		switch data := e.Data().(type) {
		case error:
			a.logger.Info("Shutting down", "reason", data)
			a.quit = true
		case string:
			a.status = data
		}
	}
}

// handleKey delivers every key to the plugins first. While a bar item is
// being edited the key then goes to the editor and host shortcuts are off.
func (a *App) handleKey(e *tcell.EventKey) {
	key := convertKeyEvent(e)
	a.dispatcher.KeyPress(key)

	if a.editor != nil {
		a.editor.handle(e)
		if a.editor.done {
			a.editor = nil
		}
		return
	}
	a.hostBinding(key)
}

// hostBinding runs the shell's own shortcuts after plugins saw the key.
func (a *App) hostBinding(key swb.KeyEvent) {
	ctrl := key.Modifiers.Has(swb.ModCtrl)
	letter := rune(0)
	if ctrl && key.Key == swb.KeyRune {
		letter = unicode.ToLower(key.Rune)
	}
	switch {
	case letter == 'q':
		a.quit = true
	case letter == 't':
		a.notebook.OpenTab("")
	case letter == 'w':
		a.notebook.Close(a.notebook.CurrentPage())
	case ctrl && key.Key == swb.KeyPageDown:
		if n := a.notebook.PageCount(); n > 0 {
			a.notebook.Select((a.notebook.CurrentPage() + 1) % n)
		}
	case ctrl && key.Key == swb.KeyPageUp:
		if n := a.notebook.PageCount(); n > 0 {
			a.notebook.Select((a.notebook.CurrentPage() + n - 1) % n)
		}
	}
}

func (a *App) handleMouse(e *tcell.EventMouse) {
	for _, press := range a.mouse.presses(e) {
		a.dispatcher.ButtonPress(press)
		if press.Button != swb.ButtonPrimary {
			continue
		}
		switch press.Y {
		case barRow:
			a.clickBar(press.X)
		case tabRow:
			a.clickTabs(press.X)
		}
	}
}

func (a *App) clickBar(x int) {
	for _, p := range a.placements {
		if x < p.X || x >= p.X+p.Width {
			continue
		}
		if _, ok := p.Item.Widget.(swb.Editable); ok {
			a.editor = newLineEditor(p.Item, a.dispatcher.Label(p.Item), a.dispatcher.Submit)
			return
		}
		a.dispatcher.Activate(p.Item)
		return
	}
}

func (a *App) clickTabs(x int) {
	for _, hit := range a.tabHits {
		if x < hit.x0 || x >= hit.x1 {
			continue
		}
		switch {
		case hit.add:
			a.notebook.OpenTab("")
		case hit.close:
			a.notebook.Close(hit.index)
		default:
			a.notebook.Select(hit.index)
		}
		return
	}
}
