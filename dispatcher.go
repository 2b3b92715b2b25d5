// dispatcher.go: Fan-out of host events to registered plugins
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"reflect"
	"strconv"
)

// Dispatcher delivers host events to every plugin in registration order.
// Each callback runs under panic recovery, so one plugin cannot stop
// delivery to the ones after it.
type Dispatcher struct {
	plugins []Plugin
	names   []string
	logger  Logger
}

// NewDispatcher creates a dispatcher over the registry's current contents.
// A nil registry gives a dispatcher with no plugins.
func NewDispatcher(registry *Registry, logger Logger) *Dispatcher {
	d := &Dispatcher{logger: NewLogger(logger)}
	if registry == nil {
		return d
	}
	for _, p := range registry.plugins {
		d.plugins = append(d.plugins, p)
		d.names = append(d.names, p.Name)
	}
	return d
}

// NewDispatcherFor creates a dispatcher over arbitrary Plugin values,
// named by position.
func NewDispatcherFor(logger Logger, plugins ...Plugin) *Dispatcher {
	d := &Dispatcher{logger: NewLogger(logger), plugins: plugins}
	for i, p := range plugins {
		name := ""
		if lp, ok := p.(*LoadedPlugin); ok {
			name = lp.Name
		}
		if name == "" {
			name = "plugin#" + strconv.Itoa(i)
		}
		d.names = append(d.names, name)
	}
	return d
}

// Len returns the number of plugins events are delivered to.
func (d *Dispatcher) Len() int {
	return len(d.plugins)
}

func (d *Dispatcher) each(entry EntryPoint, fn func(Plugin)) {
	for i, p := range d.plugins {
		invokeRecovered(logRecovery(d.logger, d.names[i], entry), func() { fn(p) })
	}
}

// KeyPress delivers a key event.
func (d *Dispatcher) KeyPress(ev KeyEvent) {
	d.each(EntryOnKeyPress, func(p Plugin) { p.OnKeyPress(ev) })
}

// ButtonPress delivers a pointer button event.
func (d *Dispatcher) ButtonPress(ev ButtonEvent) {
	d.each(EntryOnBtnPress, func(p Plugin) { p.OnBtnPress(ev) })
}

// PageChange tells plugins the active tab's location changed.
func (d *Dispatcher) PageChange() {
	d.each(EntryOnPageChange, func(p Plugin) { p.OnPageChange() })
}

// TabSwitched tells plugins the active tab is now index.
func (d *Dispatcher) TabSwitched(index int) {
	d.each(EntryOnTabSwitched, func(p Plugin) { p.OnTabSwitched(index) })
}

// NewTab hands a freshly created content view to every plugin.
func (d *Dispatcher) NewTab(view ContentView) {
	d.each(EntryOnNewTab, func(p Plugin) { p.OnNewTab(view) })
}

// BarItem is one plugin widget placed in the navigation bar.
type BarItem struct {
	Plugin string
	Widget Widget
	Expand bool
	Fill   bool
}

// BarLayout is the navigation bar content. Start items are laid out from
// the left edge in order; End items from the right edge in order, so
// End[0] is the rightmost.
type BarLayout struct {
	Start []BarItem
	End   []BarItem
}

// Len returns the total number of items.
func (b BarLayout) Len() int {
	return len(b.Start) + len(b.End)
}

// BuildBar asks every plugin for its bar item. Plugins returning nil run in
// the background and get no slot; a plugin whose callback panics is also
// left out.
func (d *Dispatcher) BuildBar(nb Notebook) BarLayout {
	var layout BarLayout
	for i, p := range d.plugins {
		var (
			item  BarItem
			start bool
		)
		panicked := invokeRecovered(logRecovery(d.logger, d.names[i], EntryCreateBarItem), func() {
			item.Widget = p.CreateBarItem(nb)
			if isNilWidget(item.Widget) {
				item.Widget = nil
				return
			}
			start = p.IsPackStart()
			item.Expand = p.IsPackExpand()
			item.Fill = p.IsPackFill()
		})
		if panicked || item.Widget == nil {
			continue
		}
		item.Plugin = d.names[i]
		if start {
			layout.Start = append(layout.Start, item)
		} else {
			layout.End = append(layout.End, item)
		}
	}
	d.logger.Debug("Built navigation bar", "start", len(layout.Start), "end", len(layout.End))
	return layout
}

// isNilWidget reports whether w is nil or an interface holding a nil
// pointer, as returned by `var b *button; return b`.
func isNilWidget(w Widget) bool {
	if w == nil {
		return true
	}
	v := reflect.ValueOf(w)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// Placement is the horizontal extent given to one bar item. Width is the
// allocated slot; ContentWidth is what the widget draws in, equal to Width
// when the item fills.
type Placement struct {
	Item         BarItem
	X            int
	Width        int
	ContentWidth int
}

// Arrange places the bar's items inside total columns, separated by
// spacing. natural reports each widget's preferred width. Spare columns
// are shared between expanding items, the leftmost taking any remainder;
// when there is no room, items keep their natural width and may overflow.
// Placements are returned left to right.
func (b BarLayout) Arrange(total, spacing int, natural func(BarItem) int) []Placement {
	n := b.Len()
	if n == 0 {
		return nil
	}

	ordered := make([]BarItem, 0, n)
	ordered = append(ordered, b.Start...)
	for i := len(b.End) - 1; i >= 0; i-- {
		ordered = append(ordered, b.End[i])
	}

	widths := make([]int, n)
	used := spacing * (n - 1)
	expanders := 0
	for i, item := range ordered {
		widths[i] = natural(item)
		used += widths[i]
		if item.Expand {
			expanders++
		}
	}

	extra := total - used
	if extra < 0 {
		extra = 0
	}

	out := make([]Placement, n)
	shares := make([]int, n)
	if expanders > 0 {
		share, rem := extra/expanders, extra%expanders
		for i, item := range ordered {
			if !item.Expand {
				continue
			}
			shares[i] = share
			if rem > 0 {
				shares[i]++
				rem--
			}
		}
	}

	// End items hug the right edge when nothing expands.
	endOffset := 0
	if expanders == 0 {
		endOffset = extra
	}

	x := 0
	for i, item := range ordered {
		if i == len(b.Start) {
			x += endOffset
		}
		slot := widths[i] + shares[i]
		content := widths[i]
		if item.Fill {
			content = slot
		}
		out[i] = Placement{Item: item, X: x, Width: slot, ContentWidth: content}
		x += slot + spacing
	}
	return out
}

// Widget callbacks are not contract entry points but are recovered the same way.
const (
	widgetLabel    EntryPoint = "widget.label"
	widgetActivate EntryPoint = "widget.activate"
	widgetSubmit   EntryPoint = "widget.submit"
)

// Label returns the item's label, or "" when the widget panicked.
func (d *Dispatcher) Label(item BarItem) (label string) {
	invokeRecovered(logRecovery(d.logger, item.Plugin, widgetLabel), func() {
		label = item.Widget.Label()
	})
	return label
}

// Activate invokes the item's widget, as when it is clicked. It reports
// false when the widget panicked.
func (d *Dispatcher) Activate(item BarItem) bool {
	return !invokeRecovered(logRecovery(d.logger, item.Plugin, widgetActivate), item.Widget.Activate)
}

// Submit hands edited text to an editable item. It reports false when the
// item is not editable or panicked.
func (d *Dispatcher) Submit(item BarItem, text string) bool {
	editable, ok := item.Widget.(Editable)
	if !ok {
		return false
	}
	return !invokeRecovered(logRecovery(d.logger, item.Plugin, widgetSubmit), func() { editable.Submit(text) })
}
