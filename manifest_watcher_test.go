// manifest_watcher_test.go: tests for manifest change notices
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifestWatcher_Paths(t *testing.T) {
	mw := NewManifestWatcher([]string{"/cfg", "."}, "", 0, nil, nil)
	assert.Equal(t, []string{filepath.Join("/cfg", DefaultManifestName), DefaultManifestName}, mw.Paths())
	assert.False(t, mw.IsRunning())
}

func TestManifestWatcher_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, DefaultManifestName, "a.so\n")

	mw := NewManifestWatcher([]string{dir}, DefaultManifestName, 100*time.Millisecond, nil, nil)
	require.NoError(t, mw.Start())
	assert.True(t, mw.IsRunning())

	err := mw.Start()
	require.Error(t, err)
	assert.True(t, HasErrorCode(err, ErrCodeConfigWatcherError))

	require.NoError(t, mw.Stop())
	assert.False(t, mw.IsRunning())
	require.NoError(t, mw.Stop())

	assert.Error(t, mw.Start(), "a stopped watcher cannot restart")
}

func TestManifestWatcher_StopWithoutStart(t *testing.T) {
	mw := NewManifestWatcher([]string{t.TempDir()}, DefaultManifestName, time.Second, nil, nil)
	assert.NoError(t, mw.Stop())
	assert.Error(t, mw.Start())
}

func TestManifestWatcher_ReportsChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultManifestName, "a.so\n")

	logger := NewTestLogger()
	changes := make(chan ManifestChange, 8)
	mw := NewManifestWatcher([]string{dir}, DefaultManifestName, 100*time.Millisecond, logger, func(c ManifestChange) {
		changes <- c
	})
	require.NoError(t, mw.Start())
	t.Cleanup(func() { _ = mw.Stop() })

	// let the first poll record the initial state
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("a.so\nb.so\n"), 0o600))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case c := <-changes:
		assert.Equal(t, path, c.Path)
		assert.False(t, c.Deleted)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	assert.True(t, logger.HasMessage("INFO", "Plugin manifest changed; restart to apply"))
}
