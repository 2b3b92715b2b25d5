// notebook.go: Tabs and their content views
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"net/url"
	"strings"

	"github.com/agilira/swb"
)

var (
	_ swb.Notebook    = (*Notebook)(nil)
	_ swb.ContentView = (*Tab)(nil)
)

// unknownTitle is shown for tabs whose page has no title.
const unknownTitle = "Unknown"

// tabEvents receives the notebook's lifecycle notifications. *swb.Dispatcher
// satisfies it.
type tabEvents interface {
	NewTab(view swb.ContentView)
	TabSwitched(index int)
	PageChange()
}

// Tab is one page of the notebook. The shell does not render documents, so
// a tab is its location history and a title derived from the location.
type Tab struct {
	history []string
	pos     int
	title   string
	reloads int

	// changed is called after every navigation, including reloads.
	changed func(*Tab)
}

func newTab(changed func(*Tab)) *Tab {
	return &Tab{pos: -1, changed: changed}
}

func (t *Tab) URI() string {
	if t.pos < 0 {
		return ""
	}
	return t.history[t.pos]
}

func (t *Tab) Title() string {
	return t.title
}

// DisplayTitle is the tab strip label.
func (t *Tab) DisplayTitle() string {
	if t.title == "" {
		return unknownTitle
	}
	return t.title
}

func (t *Tab) LoadURI(uri string) {
	t.history = append(t.history[:t.pos+1], uri)
	t.pos = len(t.history) - 1
	t.navigated()
}

func (t *Tab) Reload() {
	if t.pos < 0 {
		return
	}
	t.reloads++
	t.navigated()
}

func (t *Tab) CanGoBack() bool {
	return t.pos > 0
}

func (t *Tab) CanGoForward() bool {
	return t.pos >= 0 && t.pos < len(t.history)-1
}

func (t *Tab) GoBack() {
	if !t.CanGoBack() {
		return
	}
	t.pos--
	t.navigated()
}

func (t *Tab) GoForward() {
	if !t.CanGoForward() {
		return
	}
	t.pos++
	t.navigated()
}

func (t *Tab) navigated() {
	t.title = titleFor(t.URI())
	if t.changed != nil {
		t.changed(t)
	}
}

// titleFor derives a page title from its location: the host name without
// a leading "www.", or nothing when the location has no host.
func titleFor(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Notebook is the tab container handed to plugins.
type Notebook struct {
	tabs      []*Tab
	current   int
	startPage string
	events    tabEvents
}

// NewNotebook creates an empty notebook. New tabs open startPage.
func NewNotebook(startPage string, events tabEvents) *Notebook {
	return &Notebook{current: -1, startPage: startPage, events: events}
}

func (n *Notebook) CurrentPage() int {
	return n.current
}

func (n *Notebook) PageCount() int {
	return len(n.tabs)
}

func (n *Notebook) View(index int) swb.ContentView {
	if index < 0 || index >= len(n.tabs) {
		return nil
	}
	return n.tabs[index]
}

// Tab returns the tab at index, or nil.
func (n *Notebook) Tab(index int) *Tab {
	if index < 0 || index >= len(n.tabs) {
		return nil
	}
	return n.tabs[index]
}

// OpenTab appends a tab navigated to uri (the start page when uri is
// empty), announces it to plugins and selects it.
func (n *Notebook) OpenTab(uri string) int {
	if uri == "" {
		uri = n.startPage
	}
	tab := newTab(n.tabChanged)
	n.tabs = append(n.tabs, tab)
	index := len(n.tabs) - 1

	tab.LoadURI(uri)
	n.events.NewTab(tab)
	n.Select(index)
	return index
}

// Select makes index the active tab. Selecting the active tab does nothing.
func (n *Notebook) Select(index int) {
	if index < 0 || index >= len(n.tabs) || index == n.current {
		return
	}
	n.current = index
	n.events.TabSwitched(index)
}

// Close removes the tab at index. When the active tab closes, its right
// neighbour becomes active, or the left one when it was the last.
func (n *Notebook) Close(index int) {
	if index < 0 || index >= len(n.tabs) {
		return
	}
	n.tabs = append(n.tabs[:index], n.tabs[index+1:]...)

	switch {
	case len(n.tabs) == 0:
		n.current = -1
	case index < n.current:
		// indices shifted; same tab stays active
		n.current--
	case index == n.current:
		next := index
		if next >= len(n.tabs) {
			next = len(n.tabs) - 1
		}
		n.current = -1
		n.Select(next)
	}
}

func (n *Notebook) tabChanged(t *Tab) {
	if cur := n.Tab(n.current); cur == t {
		n.events.PageChange()
	}
}
