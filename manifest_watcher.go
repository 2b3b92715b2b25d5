// manifest_watcher.go: Change notices for the plugins.txt manifests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
)

// ManifestChange describes one observed change to a watched plugin path.
type ManifestChange struct {
	Path    string
	ModTime time.Time
	Created bool
	Deleted bool
}

// ManifestWatcher polls the load-order manifests with argus and reports
// changes. It never touches the registry: plugins load once per process,
// so a change only produces a "restart to apply" notice.
type ManifestWatcher struct {
	watcher  *argus.Watcher
	paths    []string
	logger   Logger
	onChange func(ManifestChange)

	mu       sync.Mutex
	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewManifestWatcher watches manifestName inside each of dirs. onChange
// runs on the watcher's goroutine and may be nil.
func NewManifestWatcher(dirs []string, manifestName string, pollInterval time.Duration, logger Logger, onChange func(ManifestChange)) *ManifestWatcher {
	internalLogger := NewLogger(logger)
	if manifestName == "" {
		manifestName = DefaultManifestName
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Join(dir, manifestName))
	}

	w := argus.New(argus.Config{
		PollInterval:         pollInterval,
		CacheTTL:             pollInterval / 2,
		MaxWatchedFiles:      len(paths) + 1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, path string) {
			internalLogger.Debug("Manifest watch error", "path", path, "error", err)
		},
	})

	return &ManifestWatcher{
		watcher:  w,
		paths:    paths,
		logger:   internalLogger,
		onChange: onChange,
	}
}

// Paths returns the watched manifest paths.
func (mw *ManifestWatcher) Paths() []string {
	out := make([]string, len(mw.paths))
	copy(out, mw.paths)
	return out
}

// Start begins polling. A stopped watcher cannot be restarted.
func (mw *ManifestWatcher) Start() error {
	if mw.stopped.Load() {
		return NewConfigWatcherError("manifest watcher has been stopped", fmt.Errorf("cannot restart"))
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	if !mw.running.CompareAndSwap(false, true) {
		return NewConfigWatcherError("manifest watcher is already running", fmt.Errorf("already running"))
	}

	for _, path := range mw.paths {
		if err := mw.watcher.Watch(path, mw.handle); err != nil {
			mw.running.Store(false)
			return NewConfigWatcherError("failed to watch manifest", err)
		}
	}
	if err := mw.watcher.Start(); err != nil {
		mw.running.Store(false)
		return NewConfigWatcherError("failed to start manifest watcher", err)
	}

	mw.logger.Debug("Manifest watcher started", "paths", mw.paths)
	return nil
}

// Stop ends polling. It is safe to call more than once.
func (mw *ManifestWatcher) Stop() error {
	var stopErr error
	mw.stopOnce.Do(func() {
		mw.mu.Lock()
		defer mw.mu.Unlock()

		mw.stopped.Store(true)
		if !mw.running.CompareAndSwap(true, false) {
			return
		}
		if err := mw.watcher.Stop(); err != nil {
			stopErr = NewConfigWatcherError("failed to stop manifest watcher", err)
			return
		}
		mw.logger.Debug("Manifest watcher stopped")
	})
	return stopErr
}

// IsRunning reports whether the watcher is polling.
func (mw *ManifestWatcher) IsRunning() bool {
	return mw.running.Load()
}

func (mw *ManifestWatcher) handle(event argus.ChangeEvent) {
	change := ManifestChange{
		Path:    event.Path,
		ModTime: event.ModTime,
		Created: event.IsCreate,
		Deleted: event.IsDelete,
	}
	mw.logger.Info("Plugin manifest changed; restart to apply",
		"path", event.Path,
		"created", event.IsCreate,
		"deleted", event.IsDelete)
	if mw.onChange != nil {
		mw.onChange(change)
	}
}
