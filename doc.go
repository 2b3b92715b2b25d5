// Package swb implements the plugin subsystem of a minimal tabbed browser
// shell. The host itself is little more than a window, a tab container and
// an empty navigation bar; everything else (back buttons, reload, content
// filters) comes from plugins loaded at startup.
//
// Startup follows a fixed sequence:
//
//  1. The locator resolves the configuration plugin directory
//     ($XDG_CONFIG_HOME/swb/plugins, $HOME/.config/swb/plugins or
//     %APPDATA%/swb/plugins) and lists module files there and in the
//     working directory.
//  2. plugins.txt, read from the configuration directory or else the
//     working directory, names the plugins to load, one file name per line,
//     in dispatch order.
//  3. The loader opens each module and resolves all eleven entry points.
//     A module missing any of them is closed and skipped.
//  4. The registry calls on_load and keeps the plugin only when it reports
//     HostMajorVersion.
//
// Basic usage:
//
//	cfg, _, _ := swb.LoadHostConfig(nil)
//	registry, plan := swb.StartPlugins(ctx, cfg, nil, logger)
//	defer registry.Shutdown()
//
//	dispatcher := swb.NewDispatcher(registry, logger)
//	bar := dispatcher.BuildBar(notebook)
//	...
//	dispatcher.KeyPress(swb.KeyEvent{Key: swb.KeyF5})
//
// Plugins come in three kinds. Go plugins are built with
// -buildmode=plugin and export OnLoad, OnUnload and the rest as package
// level functions. C ABI shared objects export plugin__on_load and friends
// and are enabled with module_abi: c. Lua scripts define global functions
// on_load, on_unload and so on and are enabled with script_plugins: true.
//
// A failing plugin never stops the browser: every locator and loader error
// is logged and the plugin is skipped. Dispatch happens on the UI loop only
// and a panicking callback is recovered without affecting the other
// plugins.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package swb
