// locator.go: Plugin directory resolution, candidate enumeration and load order
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultManifestName is the load-order manifest file name.
const DefaultManifestName = "plugins.txt"

// pluginSubdir is appended to the platform configuration root.
var pluginSubdir = filepath.Join("swb", "plugins")

// Env looks up an environment variable. os.Getenv satisfies it.
type Env func(key string) string

// Origin records which directory a candidate was found in.
type Origin int

const (
	OriginLocal Origin = iota
	OriginConfig
)

func (o Origin) String() string {
	switch o {
	case OriginConfig:
		return "config"
	case OriginLocal:
		return "local"
	default:
		return "unknown"
	}
}

// PluginDescriptor is a discovered, not yet loaded module file.
type PluginDescriptor struct {
	Name   string
	Dir    string
	Origin Origin
}

// Path is the file path the loader should open.
func (d PluginDescriptor) Path() string {
	return modulePath(d.Dir, d.Name)
}

// CandidateSet maps module file names to their descriptors for one directory.
type CandidateSet map[string]PluginDescriptor

// Has reports whether name was found.
func (c CandidateSet) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Names returns the candidate names sorted.
func (c CandidateSet) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PluginOrder is the ordered list of plugin names from the manifest. It
// decides both which plugins load and their dispatch order.
type PluginOrder struct {
	Names []string
	// Source is the manifest the names were read from, empty when none was found.
	Source string
}

// Len returns the number of names.
func (o PluginOrder) Len() int {
	return len(o.Names)
}

// PlatformModuleSuffix returns the dynamic-module suffix of the running OS.
func PlatformModuleSuffix() string {
	return moduleSuffixFor(runtime.GOOS)
}

func moduleSuffixFor(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// ConfigRoot returns the platform application-data root: %APPDATA% on
// Windows, $XDG_CONFIG_HOME or $HOME/.config elsewhere.
func ConfigRoot(env Env) (string, bool) {
	return configRootFor(runtime.GOOS, env)
}

func configRootFor(goos string, env Env) (string, bool) {
	if env == nil {
		env = os.Getenv
	}
	if goos == "windows" {
		if dir := env("APPDATA"); dir != "" {
			return dir, true
		}
		return "", false
	}
	if dir := env("XDG_CONFIG_HOME"); dir != "" {
		return dir, true
	}
	if home := env("HOME"); home != "" {
		return filepath.Join(home, ".config"), true
	}
	return "", false
}

// PluginDirectory returns the user configuration plugin directory. The
// second result is false when no configuration root can be determined;
// callers then fall back to local plugins only.
//
// Plugins may call this to find a place for their own data.
func PluginDirectory(env Env) (string, bool) {
	return pluginDirectoryFor(runtime.GOOS, env)
}

func pluginDirectoryFor(goos string, env Env) (string, bool) {
	root, ok := configRootFor(goos, env)
	if !ok {
		return "", false
	}
	return filepath.Join(root, pluginSubdir), true
}

// DefaultPatterns returns the file patterns accepted as plugin modules.
func DefaultPatterns(scripts bool) []string {
	patterns := []string{"*" + PlatformModuleSuffix()}
	if scripts {
		patterns = append(patterns, "*"+LuaScriptSuffix)
	}
	return patterns
}

// EnumerateCandidates lists module files in dir matching any of patterns.
//
// Regular files, symlinks and entries whose type the filesystem does not
// report are all accepted; directories, devices, pipes and sockets are not.
// A directory that cannot be read yields an empty set and an
// EnumerationFailed error, which callers report and otherwise ignore.
func EnumerateCandidates(dir string, origin Origin, patterns []string, logger Logger) (CandidateSet, error) {
	logger = NewLogger(logger)
	set := make(CandidateSet)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return set, NewEnumerationFailedError(dir, err)
	}

	for _, entry := range entries {
		if !isModuleFileType(entry.Type()) {
			continue
		}
		name := entry.Name()
		if !matchesAny(patterns, name) {
			continue
		}
		logger.Info("Found plugin", "path", filepath.Join(dir, name), "origin", origin.String())
		set[name] = PluginDescriptor{Name: name, Dir: dir, Origin: origin}
	}
	return set, nil
}

func isModuleFileType(mode fs.FileMode) bool {
	if mode&fs.ModeSymlink != 0 || mode&fs.ModeIrregular != 0 {
		return true
	}
	return mode.Type() == 0
}

func matchesAny(patterns []string, name string) bool {
	// a bare suffix such as ".so" is not a module name
	if filepath.Ext(name) == name {
		return false
	}
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ReadPluginOrder reads the load-order manifest from the first directory in
// dirs that has one. dirs is in preference order: the configuration plugin
// directory, then the local directory.
//
// Lines are literal module file names; only the line terminator is
// stripped and empty lines are ignored. When no manifest can be opened the
// order is empty and a ManifestMissing error is returned for reporting.
func ReadPluginOrder(manifestName string, dirs []string, logger Logger) (PluginOrder, error) {
	logger = NewLogger(logger)
	if manifestName == "" {
		manifestName = DefaultManifestName
	}

	searched := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		path := filepath.Join(dir, manifestName)
		searched = append(searched, path)

		f, err := os.Open(path) // #nosec G304 -- manifest paths come from the locator
		if err != nil {
			logger.Debug("Plugin manifest not available", "path", path, "error", err)
			continue
		}

		names, readErr := parseManifest(f)
		_ = f.Close()

		order := PluginOrder{Names: names, Source: path}
		for i, name := range names {
			logger.Info("Will load plugin", "index", i+1, "plugin", name)
		}
		if readErr != nil {
			return order, NewManifestReadError(path, readErr)
		}
		return order, nil
	}

	return PluginOrder{}, NewManifestMissingError(searched)
}

func parseManifest(r io.Reader) ([]string, error) {
	var names []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			names = append(names, line)
		}
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, err
		}
	}
}

// modulePath joins dir and name, keeping a "./" prefix for the working
// directory so the dynamic linker does not search its library path.
func modulePath(dir, name string) string {
	p := filepath.Join(dir, name)
	if filepath.IsAbs(p) || filepath.VolumeName(p) != "" {
		return p
	}
	dotSlash := "." + string(filepath.Separator)
	if strings.HasPrefix(p, dotSlash) || strings.HasPrefix(p, ".."+string(filepath.Separator)) {
		return p
	}
	return dotSlash + p
}
