// events.go: Translation of terminal input into plugin events
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/agilira/swb"
)

// convertKeyEvent converts a tcell key event. Control letters arrive from
// some terminals as dedicated keys (KeyCtrlA..KeyCtrlZ) and from others as
// runes with ModCtrl; both become KeyRune with the lower-case letter and
// ModCtrl set.
func convertKeyEvent(ev *tcell.EventKey) swb.KeyEvent {
	out := swb.KeyEvent{Modifiers: convertMod(ev.Modifiers())}

	k := ev.Key()
	switch k {
	case tcell.KeyRune:
		out.Key = swb.KeyRune
		out.Rune = ev.Rune()
		return out
	case tcell.KeyEnter:
		out.Key = swb.KeyEnter
		return out
	case tcell.KeyTab:
		out.Key = swb.KeyTab
		return out
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		out.Key = swb.KeyBackspace
		return out
	case tcell.KeyEscape:
		out.Key = swb.KeyEscape
		return out
	}

	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		out.Key = swb.KeyRune
		out.Rune = 'a' + rune(k-tcell.KeyCtrlA)
		out.Modifiers |= swb.ModCtrl
		return out
	}

	out.Key = convertKey(k)
	return out
}

func convertKey(k tcell.Key) swb.Key {
	switch k {
	case tcell.KeyDelete:
		return swb.KeyDelete
	case tcell.KeyInsert:
		return swb.KeyInsert
	case tcell.KeyHome:
		return swb.KeyHome
	case tcell.KeyEnd:
		return swb.KeyEnd
	case tcell.KeyPgUp:
		return swb.KeyPageUp
	case tcell.KeyPgDn:
		return swb.KeyPageDown
	case tcell.KeyUp:
		return swb.KeyUp
	case tcell.KeyDown:
		return swb.KeyDown
	case tcell.KeyLeft:
		return swb.KeyLeft
	case tcell.KeyRight:
		return swb.KeyRight
	case tcell.KeyF1:
		return swb.KeyF1
	case tcell.KeyF2:
		return swb.KeyF2
	case tcell.KeyF3:
		return swb.KeyF3
	case tcell.KeyF4:
		return swb.KeyF4
	case tcell.KeyF5:
		return swb.KeyF5
	case tcell.KeyF6:
		return swb.KeyF6
	case tcell.KeyF7:
		return swb.KeyF7
	case tcell.KeyF8:
		return swb.KeyF8
	case tcell.KeyF9:
		return swb.KeyF9
	case tcell.KeyF10:
		return swb.KeyF10
	case tcell.KeyF11:
		return swb.KeyF11
	case tcell.KeyF12:
		return swb.KeyF12
	default:
		return swb.KeyUnknown
	}
}

func convertMod(m tcell.ModMask) swb.Modifier {
	var result swb.Modifier
	if m&tcell.ModShift != 0 {
		result |= swb.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= swb.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= swb.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= swb.ModMeta
	}
	return result
}

// buttonMap lists tcell buttons with their X11 numbers. tcell numbers the
// secondary button 2 and the middle one 3; X11 has them the other way round.
var buttonMap = []struct {
	mask   tcell.ButtonMask
	button int
}{
	{tcell.Button1, swb.ButtonPrimary},
	{tcell.Button3, swb.ButtonMiddle},
	{tcell.Button2, swb.ButtonSecondary},
	{tcell.Button4, swb.ButtonBack},
	{tcell.Button5, swb.ButtonForward},
}

// mouseTracker turns tcell's button state reports into press events.
type mouseTracker struct {
	held tcell.ButtonMask
}

// presses returns a ButtonEvent for every button down in ev that was not
// down in the previous report.
func (m *mouseTracker) presses(ev *tcell.EventMouse) []swb.ButtonEvent {
	buttons := ev.Buttons()
	pressed := buttons &^ m.held
	m.held = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3 | tcell.Button4 | tcell.Button5)

	if pressed == 0 {
		return nil
	}
	x, y := ev.Position()
	mods := convertMod(ev.Modifiers())

	var out []swb.ButtonEvent
	for _, b := range buttonMap {
		if pressed&b.mask != 0 {
			out = append(out, swb.ButtonEvent{Button: b.button, X: x, Y: y, Modifiers: mods})
		}
	}
	return out
}
