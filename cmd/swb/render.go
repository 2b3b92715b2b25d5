// render.go: Drawing the navigation bar, tab strip and page area
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/agilira/swb"
)

var (
	styleBar       = tcell.StyleDefault.Reverse(true)
	styleTab       = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleActiveTab = tcell.StyleDefault.Bold(true).Underline(true)
	styleEditing   = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleDim       = tcell.StyleDefault.Dim(true)
)

// labelWidth is the natural width of a bar item: its label in brackets.
func labelWidth(label string) int {
	return uniseg.StringWidth(label) + 2
}

func (a *App) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()

	a.drawBar(width)
	a.drawTabs(width)
	a.drawPage(width, height)

	if a.status != "" && height > bodyRow {
		drawText(a.screen, 0, height-1, width, a.status, styleDim)
	}
	a.screen.Show()
}

func (a *App) drawBar(width int) {
	fill(a.screen, 0, barRow, width, styleBar)
	labels := make(map[string]string, a.bar.Len())
	a.placements = a.bar.Arrange(width, barSpacing, func(item swb.BarItem) int {
		label := a.dispatcher.Label(item)
		labels[item.Plugin] = label
		return labelWidth(label)
	})

	for _, p := range a.placements {
		label := labels[p.Item.Plugin]
		style := styleBar
		if a.editor != nil && a.editor.item.Plugin == p.Item.Plugin {
			label = a.editor.text()
			style = styleEditing
		}
		// the bracketed label is drawn in ContentWidth; a filling item
		// pads its label to the whole slot
		inner := p.ContentWidth - 2
		if inner < 0 {
			inner = 0
		}
		fill(a.screen, p.X, barRow, p.ContentWidth, style)
		drawText(a.screen, p.X, barRow, 1, "[", style)
		drawText(a.screen, p.X+1, barRow, inner, label, style)
		drawText(a.screen, p.X+1+inner, barRow, 1, "]", style)
	}
}

func (a *App) drawTabs(width int) {
	a.tabHits = a.tabHits[:0]
	x := 0
	for i := 0; i < a.notebook.PageCount(); i++ {
		tab := a.notebook.Tab(i)
		style := styleTab
		if i == a.notebook.CurrentPage() {
			style = styleActiveTab
		}
		label := " " + tab.DisplayTitle() + " "
		w := uniseg.StringWidth(label)
		drawText(a.screen, x, tabRow, width-x, label, style)
		a.tabHits = append(a.tabHits, tabHit{x0: x, x1: x + w, index: i})
		x += w
		drawText(a.screen, x, tabRow, width-x, "x", style)
		a.tabHits = append(a.tabHits, tabHit{x0: x, x1: x + 1, index: i, close: true})
		x += 2
	}
	drawText(a.screen, x, tabRow, width-x, "+", styleTab)
	a.tabHits = append(a.tabHits, tabHit{x0: x, x1: x + 1, add: true})
}

func (a *App) drawPage(width, height int) {
	tab := a.notebook.Tab(a.notebook.CurrentPage())
	if tab == nil || height <= bodyRow {
		drawText(a.screen, 0, bodyRow, width, "No open tabs. Ctrl+T opens one.", styleDim)
		return
	}
	drawText(a.screen, 0, bodyRow, width, tab.URI(), tcell.StyleDefault.Bold(true))
	nav := fmt.Sprintf("back: %t  forward: %t  reloads: %d", tab.CanGoBack(), tab.CanGoForward(), tab.reloads)
	drawText(a.screen, 0, bodyRow+1, width, nav, styleDim)
}

// drawText writes text from (x, y), clipped to limit columns. It returns the
// number of columns used.
func drawText(s tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	used := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		w := g.Width()
		if used+w > limit {
			break
		}
		s.SetContent(x+used, y, runes[0], runes[1:], style)
		used += w
	}
	return used
}

// fill paints n blank cells from (x, y).
func fill(s tcell.Screen, x, y, n int, style tcell.Style) {
	for i := 0; i < n; i++ {
		s.SetContent(x+i, y, ' ', nil, style)
	}
}
