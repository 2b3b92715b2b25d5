// registry.go: Ordered plugin registry and resolution policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"context"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// LoadOutcome classifies what happened to one manifest entry.
type LoadOutcome string

const (
	OutcomeLoaded   LoadOutcome = "loaded"
	OutcomeNotFound LoadOutcome = "not_found"
	OutcomeFailed   LoadOutcome = "failed"
	// OutcomeSkipped marks entries left unprocessed because loading was cancelled.
	OutcomeSkipped LoadOutcome = "skipped"
)

// LoadResult is the per-name record of a registry load.
type LoadResult struct {
	Name     string           `json:"name"`
	Outcome  LoadOutcome      `json:"outcome"`
	Origin   Origin           `json:"-"`
	Path     string           `json:"path,omitempty"`
	Code     errors.ErrorCode `json:"code,omitempty"`
	Err      error            `json:"-"`
	Duration time.Duration    `json:"duration"`
}

// Registry is the ordered set of loaded plugins. It is filled once at
// startup and is read-only afterwards; dispatch order is registration order.
//
// Registry is not safe for concurrent use. All access happens on the UI loop.
type Registry struct {
	loader  *Loader
	logger  Logger
	plugins []*LoadedPlugin
	results []LoadResult
	closed  bool
}

// NewRegistry creates an empty registry whose plugins are loaded and
// unloaded through loader.
func NewRegistry(loader *Loader, logger Logger) *Registry {
	if loader == nil {
		loader = NewLoader(WithLoaderLogger(logger))
	}
	return &Registry{
		loader: loader,
		logger: NewLogger(logger),
	}
}

// LoadRegistry builds a registry from the manifest order and the two
// candidate sets. It never fails: every plugin-level problem is logged and
// recorded in the report, and the plugin is skipped.
func LoadRegistry(ctx context.Context, order PluginOrder, configSet, localSet CandidateSet, loader *Loader, logger Logger) *Registry {
	r := NewRegistry(loader, logger)
	r.LoadAll(ctx, order, configSet, localSet)
	return r
}

// LoadAll resolves and loads every name in order. A name found in
// configSet is loaded from the configuration directory even when localSet
// also has it. Cancelling ctx stops loading before the next name.
func (r *Registry) LoadAll(ctx context.Context, order PluginOrder, configSet, localSet CandidateSet) {
	for i, name := range order.Names {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Plugin loading cancelled", "remaining", len(order.Names)-i, "error", err)
			for _, rest := range order.Names[i:] {
				r.results = append(r.results, LoadResult{Name: rest, Outcome: OutcomeSkipped})
			}
			return
		}
		r.loadOne(name, configSet, localSet)
	}
}

// Resolve picks the descriptor name should load from: the configuration
// directory first, then the local one.
func Resolve(name string, configSet, localSet CandidateSet) (PluginDescriptor, bool) {
	if d, ok := configSet[name]; ok {
		return d, true
	}
	if d, ok := localSet[name]; ok {
		return d, true
	}
	return PluginDescriptor{}, false
}

func (r *Registry) loadOne(name string, configSet, localSet CandidateSet) {
	start := timecache.CachedTime()

	desc, ok := Resolve(name, configSet, localSet)
	if !ok {
		err := NewPluginNotFoundError(name, searchedDirs(configSet, localSet))
		r.logger.Warn("Couldn't find plugin in config dir or local dir", "plugin", name)
		r.record(LoadResult{Name: name, Outcome: OutcomeNotFound, Code: err.ErrorCode(), Err: err})
		return
	}

	log := r.logger.With("plugin", name, "origin", desc.Origin.String())
	result := LoadResult{Name: name, Origin: desc.Origin, Path: desc.Path()}

	plugin, err := r.loader.Load(desc.Path())
	if err == nil {
		plugin.Origin = desc.Origin
		err = r.gate(plugin)
	}
	result.Duration = timecache.CachedTime().Sub(start)

	if err != nil {
		log.Warn("Failed to load plugin", "path", result.Path, "error", err)
		result.Outcome = OutcomeFailed
		result.Code = ErrorCodeOf(err)
		result.Err = err
		r.record(result)
		return
	}

	r.plugins = append(r.plugins, plugin)
	result.Outcome = OutcomeLoaded
	r.record(result)
	log.Info("Loaded plugin", "path", result.Path, "index", len(r.plugins)-1)
}

// gate runs on_load once and rejects plugins reporting another major version.
func (r *Registry) gate(p *LoadedPlugin) error {
	var reported int
	var recovered any
	panicked := invokeRecovered(func(v any, stack []byte) {
		recovered = v
		logRecovery(r.logger, p.Name, EntryOnLoad)(v, stack)
	}, func() {
		reported = p.onLoad()
	})
	if panicked {
		if err := r.loader.release(p); err != nil {
			r.logger.Warn("Failed to release plugin module", "plugin", p.Name, "error", err)
		}
		return NewPluginPanickedError(p.Name, EntryOnLoad, recovered)
	}

	if reported != HostMajorVersion {
		if err := r.loader.Unload(p); err != nil {
			r.logger.Warn("Failed to release plugin module", "plugin", p.Name, "error", err)
		}
		return NewVersionMismatchError(p.Name, reported, HostMajorVersion)
	}

	p.Version = reported
	p.LoadedAt = timecache.CachedTime()
	return nil
}

func (r *Registry) record(result LoadResult) {
	r.results = append(r.results, result)
}

func searchedDirs(sets ...CandidateSet) []string {
	var dirs []string
	for _, set := range sets {
		for _, d := range set {
			dirs = append(dirs, d.Dir)
			break
		}
	}
	return dirs
}

// Len returns the number of loaded plugins.
func (r *Registry) Len() int {
	return len(r.plugins)
}

// At returns the plugin at registration index i.
func (r *Registry) At(i int) *LoadedPlugin {
	return r.plugins[i]
}

// Plugins returns the loaded plugins in registration order.
func (r *Registry) Plugins() []*LoadedPlugin {
	out := make([]*LoadedPlugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Names returns the loaded plugin names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name
	}
	return names
}

// Report returns one result per manifest entry processed, in manifest order.
func (r *Registry) Report() []LoadResult {
	out := make([]LoadResult, len(r.results))
	copy(out, r.results)
	return out
}

// Shutdown unloads every plugin once. Later calls do nothing. Close
// failures are logged and the remaining plugins are still unloaded.
func (r *Registry) Shutdown() {
	if r.closed {
		return
	}
	r.closed = true
	for _, p := range r.plugins {
		if err := r.loader.Unload(p); err != nil {
			r.logger.Warn("Failed to unload plugin", "plugin", p.Name, "error", err)
			continue
		}
		r.logger.Debug("Unloaded plugin", "plugin", p.Name)
	}
}
