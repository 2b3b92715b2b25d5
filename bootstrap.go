// bootstrap.go: Startup sequence tying the locator, loader and registry together
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"context"
)

// LocalPluginDir is the fallback plugin directory, relative to the working
// directory.
const LocalPluginDir = "."

// LoadPlan is everything the locator found before any module is opened.
type LoadPlan struct {
	// ConfigDir is the configuration plugin directory; empty when the
	// platform variables are unset.
	ConfigDir string
	LocalDir  string
	Order     PluginOrder
	ConfigSet CandidateSet
	LocalSet  CandidateSet

	// Warnings are the non-fatal locator errors (missing directory,
	// unreadable directory, missing manifest).
	Warnings []error
}

// ManifestDirs returns the directories searched for the manifest, in
// preference order.
func (p LoadPlan) ManifestDirs() []string {
	var dirs []string
	if p.ConfigDir != "" {
		dirs = append(dirs, p.ConfigDir)
	}
	return append(dirs, p.LocalDir)
}

// PlanLoad runs the locator: it resolves the configuration plugin
// directory, enumerates both directories and reads the manifest. Every
// failure is recorded as a warning; the plan is always usable.
func PlanLoad(env Env, localDir, manifestName string, patterns []string, logger Logger) LoadPlan {
	logger = NewLogger(logger)
	if localDir == "" {
		localDir = LocalPluginDir
	}
	plan := LoadPlan{
		LocalDir:  localDir,
		ConfigSet: CandidateSet{},
	}

	if dir, ok := PluginDirectory(env); ok {
		plan.ConfigDir = dir
		set, err := EnumerateCandidates(dir, OriginConfig, patterns, logger)
		plan.ConfigSet = set
		if err != nil {
			logger.Warn("Couldn't open plugins config directory", "directory", dir, "error", err)
			plan.Warnings = append(plan.Warnings, err)
		}
	} else {
		err := NewDirectoryUnavailableError("XDG_CONFIG_HOME", "HOME", "APPDATA")
		logger.Debug("No plugin config directory", "error", err)
		plan.Warnings = append(plan.Warnings, err)
	}

	set, err := EnumerateCandidates(localDir, OriginLocal, patterns, logger)
	plan.LocalSet = set
	if err != nil {
		logger.Warn("Couldn't open plugins local directory", "directory", localDir, "error", err)
		plan.Warnings = append(plan.Warnings, err)
	}

	order, err := ReadPluginOrder(manifestName, plan.ManifestDirs(), logger)
	plan.Order = order
	if err != nil {
		logger.Warn("Couldn't read plugin manifest", "error", err)
		plan.Warnings = append(plan.Warnings, err)
	}
	return plan
}

// StartPlugins plans and loads the plugins for cfg. The returned registry
// is never nil; with nothing to load it is empty. An unusable allowlist is
// reported among the plan warnings. A nil logger falls back to the one
// carried by ctx.
func StartPlugins(ctx context.Context, cfg HostConfig, env Env, logger Logger) (*Registry, LoadPlan) {
	if logger == nil {
		logger = LoggerFromContext(ctx)
	}
	verifier, verr := NewVerifierFor(cfg.Security, env, logger)
	if verr != nil {
		NewLogger(logger).Warn("Couldn't load plugin allowlist", "policy", string(cfg.Security.Policy), "error", verr)
	}
	opts := append(cfg.LoaderOptions(), WithLoaderLogger(logger), WithVerifier(verifier))
	loader := NewLoader(opts...)
	plan := PlanLoad(env, LocalPluginDir, cfg.ManifestName, loader.Patterns(), logger)
	if verr != nil {
		plan.Warnings = append(plan.Warnings, verr)
	}
	registry := LoadRegistry(ctx, plan.Order, plan.ConfigSet, plan.LocalSet, loader, logger)
	return registry, plan
}

// ResolvedPaths returns the module file of every manifest entry that
// resolves to a candidate, in manifest order. Unresolved names are skipped.
func (p LoadPlan) ResolvedPaths() []string {
	var paths []string
	for _, name := range p.Order.Names {
		if desc, ok := Resolve(name, p.ConfigSet, p.LocalSet); ok {
			paths = append(paths, desc.Path())
		}
	}
	return paths
}
