// editor.go: In-place text editing of editable bar items
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/agilira/swb"
)

// lineEditor edits the text of one editable bar item. Enter submits,
// Escape cancels.
type lineEditor struct {
	item   swb.BarItem
	buf    []rune
	submit func(swb.BarItem, string) bool
	done   bool
}

func newLineEditor(item swb.BarItem, initial string, submit func(swb.BarItem, string) bool) *lineEditor {
	return &lineEditor{
		item:   item,
		buf:    []rune(initial),
		submit: submit,
	}
}

func (e *lineEditor) text() string {
	return string(e.buf)
}

func (e *lineEditor) handle(ev *tcell.EventKey) {
	key := convertKeyEvent(ev)
	switch {
	case key.Key == swb.KeyEnter:
		e.submit(e.item, e.text())
		e.done = true
	case key.Key == swb.KeyEscape:
		e.done = true
	case key.Key == swb.KeyBackspace:
		if len(e.buf) > 0 {
			e.buf = e.buf[:len(e.buf)-1]
		}
	case key.Key == swb.KeyRune && key.Modifiers.Has(swb.ModCtrl):
		if unicode.ToLower(key.Rune) == 'u' {
			e.buf = e.buf[:0]
		}
	case key.Key == swb.KeyRune:
		e.buf = append(e.buf, key.Rune)
	}
}
