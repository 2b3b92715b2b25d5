// notebook_test.go: tests for tabs, history and tab lifecycle events
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/swb"
)

type recordedEvents struct {
	events []string
}

func (r *recordedEvents) NewTab(view swb.ContentView) {
	r.events = append(r.events, "new:"+view.URI())
}

func (r *recordedEvents) TabSwitched(index int) {
	r.events = append(r.events, fmt.Sprintf("switch:%d", index))
}

func (r *recordedEvents) PageChange() {
	r.events = append(r.events, "page")
}

func (r *recordedEvents) take() []string {
	out := r.events
	r.events = nil
	return out
}

func TestTab_History(t *testing.T) {
	tab := newTab(nil)
	assert.Empty(t, tab.URI())
	assert.Equal(t, unknownTitle, tab.DisplayTitle())
	assert.False(t, tab.CanGoBack())
	assert.False(t, tab.CanGoForward())
	tab.Reload()
	assert.Zero(t, tab.reloads)

	tab.LoadURI("https://www.example.org/a")
	tab.LoadURI("https://docs.example.org/b")
	tab.LoadURI("about:blank")
	assert.Equal(t, "", tab.Title())
	assert.Equal(t, unknownTitle, tab.DisplayTitle())

	tab.GoBack()
	assert.Equal(t, "https://docs.example.org/b", tab.URI())
	assert.Equal(t, "docs.example.org", tab.Title())
	assert.True(t, tab.CanGoForward())

	tab.GoBack()
	assert.Equal(t, "example.org", tab.Title())
	assert.False(t, tab.CanGoBack())
	tab.GoBack()
	assert.Equal(t, "https://www.example.org/a", tab.URI())

	// navigating drops the forward history
	tab.LoadURI("https://other.example")
	assert.False(t, tab.CanGoForward())
	tab.GoBack()
	tab.GoForward()
	assert.Equal(t, "https://other.example", tab.URI())
}

func TestNotebook_OpenSelectClose(t *testing.T) {
	rec := &recordedEvents{}
	nb := NewNotebook("https://start.example", rec)
	assert.Equal(t, -1, nb.CurrentPage())
	assert.Nil(t, nb.View(0))
	assert.Nil(t, swb.CurrentView(nb))

	assert.Equal(t, 0, nb.OpenTab(""))
	assert.Equal(t, []string{"new:https://start.example", "switch:0"}, rec.take())

	assert.Equal(t, 1, nb.OpenTab("https://b.example"))
	assert.Equal(t, 2, nb.OpenTab("https://c.example"))
	rec.take()
	assert.Equal(t, 3, nb.PageCount())
	assert.Equal(t, 2, nb.CurrentPage())
	assert.Equal(t, "https://c.example", swb.CurrentView(nb).URI())

	nb.Select(2)
	assert.Empty(t, rec.take(), "selecting the active tab is a no-op")
	nb.Select(7)
	assert.Empty(t, rec.take())

	nb.Select(1)
	assert.Equal(t, []string{"switch:1"}, rec.take())

	// closing the active middle tab selects its right neighbour, now at the same index
	nb.Close(1)
	assert.Equal(t, []string{"switch:1"}, rec.take())
	assert.Equal(t, "https://c.example", swb.CurrentView(nb).URI())

	// closing a tab left of the active one keeps the same tab active
	nb.Close(0)
	assert.Empty(t, rec.take())
	assert.Equal(t, 0, nb.CurrentPage())
	assert.Equal(t, "https://c.example", swb.CurrentView(nb).URI())

	nb.Close(0)
	assert.Equal(t, -1, nb.CurrentPage())
	assert.Zero(t, nb.PageCount())
	nb.Close(0)
}

func TestNotebook_CloseLastSelectsLeft(t *testing.T) {
	rec := &recordedEvents{}
	nb := NewNotebook("about:blank", rec)
	nb.OpenTab("https://a.example")
	nb.OpenTab("https://b.example")
	rec.take()

	nb.Close(1)
	assert.Equal(t, []string{"switch:0"}, rec.take())
	assert.Equal(t, "https://a.example", swb.CurrentView(nb).URI())
}

func TestNotebook_PageChangeOnlyForActiveTab(t *testing.T) {
	rec := &recordedEvents{}
	nb := NewNotebook("about:blank", rec)
	nb.OpenTab("https://a.example")
	nb.OpenTab("https://b.example")
	rec.take()

	background := nb.View(0)
	require.NotNil(t, background)
	background.LoadURI("https://a.example/next")
	assert.Empty(t, rec.take())

	active := swb.CurrentView(nb)
	active.LoadURI("https://b.example/next")
	active.Reload()
	active.GoBack()
	assert.Equal(t, []string{"page", "page", "page"}, rec.take())
}

func TestTitleFor(t *testing.T) {
	cases := map[string]string{
		"https://www.duckduckgo.com/?q=go": "duckduckgo.com",
		"http://localhost:8080/":           "localhost",
		"about:blank":                      "",
		"not a url":                        "",
		"https://[::1]/":                   "::1",
	}
	for in, want := range cases {
		assert.Equal(t, want, titleFor(in), in)
	}
}
