// contract.go: Plugin binary contract and the host types plugins see
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

// HostMajorVersion is the contract revision this host implements. A plugin
// whose on_load reports a different major version is rejected.
const HostMajorVersion = 1

// EntryPoint names one callable a plugin module must export.
type EntryPoint string

// Entry points of contract major version 1.
const (
	EntryOnLoad        EntryPoint = "on_load"
	EntryOnUnload      EntryPoint = "on_unload"
	EntryCreateBarItem EntryPoint = "create_bar_item"
	EntryIsPackStart   EntryPoint = "is_pack_start"
	EntryIsPackExpand  EntryPoint = "is_pack_expand"
	EntryIsPackFill    EntryPoint = "is_pack_fill"
	EntryOnKeyPress    EntryPoint = "on_key_press"
	EntryOnBtnPress    EntryPoint = "on_btn_press"
	EntryOnPageChange  EntryPoint = "on_page_change"
	EntryOnNewTab      EntryPoint = "on_new_tab"
	EntryOnTabSwitched EntryPoint = "on_tab_switched"
)

// requiredEntryPoints is the resolution order. It must not change within a
// major version.
var requiredEntryPoints = [...]EntryPoint{
	EntryOnLoad,
	EntryOnUnload,
	EntryCreateBarItem,
	EntryIsPackStart,
	EntryIsPackExpand,
	EntryIsPackFill,
	EntryOnKeyPress,
	EntryOnBtnPress,
	EntryOnPageChange,
	EntryOnNewTab,
	EntryOnTabSwitched,
}

var goSymbols = map[EntryPoint]string{
	EntryOnLoad:        "OnLoad",
	EntryOnUnload:      "OnUnload",
	EntryCreateBarItem: "CreateBarItem",
	EntryIsPackStart:   "IsPackStart",
	EntryIsPackExpand:  "IsPackExpand",
	EntryIsPackFill:    "IsPackFill",
	EntryOnKeyPress:    "OnKeyPress",
	EntryOnBtnPress:    "OnBtnPress",
	EntryOnPageChange:  "OnPageChange",
	EntryOnNewTab:      "OnNewTab",
	EntryOnTabSwitched: "OnTabSwitched",
}

// RequiredEntryPoints returns every entry point in resolution order.
func RequiredEntryPoints() []EntryPoint {
	out := make([]EntryPoint, len(requiredEntryPoints))
	copy(out, requiredEntryPoints[:])
	return out
}

// GoSymbol is the exported identifier a Go plugin uses for the entry point.
func (e EntryPoint) GoSymbol() string {
	return goSymbols[e]
}

// CSymbol is the symbol name a C ABI module exports for the entry point.
func (e EntryPoint) CSymbol() string {
	return "plugin__" + string(e)
}

// Plugin is the capability set every loaded plugin provides. *LoadedPlugin
// implements it for dynamically loaded modules; statically linked plugins
// implement it directly and are registered through StaticOpener.
type Plugin interface {
	// OnLoad runs once after resolution and returns the plugin's major version.
	OnLoad() int
	// OnUnload runs once at shutdown.
	OnUnload()

	// CreateBarItem returns the plugin's navigation bar widget, or nil for
	// background plugins.
	CreateBarItem(nb Notebook) Widget
	IsPackStart() bool
	IsPackExpand() bool
	IsPackFill() bool

	OnKeyPress(ev KeyEvent)
	OnBtnPress(ev ButtonEvent)
	OnPageChange()
	OnNewTab(view ContentView)
	OnTabSwitched(index int)
}

// BasePlugin provides no-op callbacks. Embed it in a statically linked
// plugin and override what you need.
type BasePlugin struct{}

func (BasePlugin) OnLoad() int                   { return HostMajorVersion }
func (BasePlugin) OnUnload()                     {}
func (BasePlugin) CreateBarItem(Notebook) Widget { return nil }
func (BasePlugin) IsPackStart() bool             { return true }
func (BasePlugin) IsPackExpand() bool            { return false }
func (BasePlugin) IsPackFill() bool              { return false }
func (BasePlugin) OnKeyPress(KeyEvent)           {}
func (BasePlugin) OnBtnPress(ButtonEvent)        {}
func (BasePlugin) OnPageChange()                 {}
func (BasePlugin) OnNewTab(ContentView)          {}
func (BasePlugin) OnTabSwitched(int)             {}

// Widget is an item in the shared navigation bar.
type Widget interface {
	// Label is the text the bar renders for the item.
	Label() string
	// Activate is invoked when the item is clicked.
	Activate()
}

// Editable is implemented by bar items that accept text, such as an address
// entry. The host shows Label as the initial text while editing.
type Editable interface {
	Widget
	// Submit receives the edited text when the user presses Enter.
	Submit(text string)
}

// ContentView is one tab's content. The host does not render pages; a view
// tracks its location and history.
type ContentView interface {
	URI() string
	Title() string
	LoadURI(uri string)
	Reload()
	CanGoBack() bool
	CanGoForward() bool
	GoBack()
	GoForward()
}

// Notebook is the tab container handed to plugins when the bar is built.
type Notebook interface {
	CurrentPage() int
	PageCount() int
	// View returns the content of page index, or nil when out of range.
	View(index int) ContentView
	// OpenTab appends a tab showing uri, selects it and returns its index.
	OpenTab(uri string) int
}

// CurrentView returns the active tab's content, or nil.
func CurrentView(nb Notebook) ContentView {
	if nb == nil {
		return nil
	}
	return nb.View(nb.CurrentPage())
}

// Key identifies a non-printable key. Printable input arrives as KeyRune.
type Key int

const (
	KeyUnknown Key = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
	KeyDelete
	KeyInsert
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyRune:      "rune",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyEscape:    "escape",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyF1:        "f1",
	KeyF2:        "f2",
	KeyF3:        "f3",
	KeyF4:        "f4",
	KeyF5:        "f5",
	KeyF6:        "f6",
	KeyF7:        "f7",
	KeyF8:        "f8",
	KeyF9:        "f9",
	KeyF10:       "f10",
	KeyF11:       "f11",
	KeyF12:       "f12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether all bits of m2 are set.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}

// KeyEvent is delivered to on_key_press.
type KeyEvent struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
}

// Pointer buttons use X11 numbering, which is what existing plugins match on.
const (
	ButtonPrimary   = 1
	ButtonMiddle    = 2
	ButtonSecondary = 3
	ButtonBack      = 8
	ButtonForward   = 9
)

// ButtonEvent is delivered to on_btn_press.
type ButtonEvent struct {
	Button    int
	X, Y      int
	Modifiers Modifier
}
