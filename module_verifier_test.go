// module_verifier_test.go: tests for allowlist verification of module files
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func allowlistFor(entries ...AllowlistEntry) *PluginAllowlist {
	a := &PluginAllowlist{Version: "1", HashAlgorithm: HashAlgorithmSHA256, Plugins: map[string]AllowlistEntry{}}
	for _, e := range entries {
		a.Plugins[e.Name] = e
	}
	return a
}

func TestHashFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "navbar.so", "hello")

	sum, err := HashFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, helloSHA256, sum)

	_, err = HashFile(path, "md5")
	assert.True(t, HasErrorCode(err, ErrCodeHashValidationError))

	_, err = HashFile(filepath.Join(t.TempDir(), "missing.so"), HashAlgorithmSHA256)
	assert.True(t, HasErrorCode(err, ErrCodeHashValidationError))
}

func TestModuleVerifier_Policies(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "navbar.so", "hello")
	tampered := writeFile(t, dir, "backbtn.so", "patched")
	unknown := writeFile(t, dir, "stranger.so", "hello")

	allowlist := allowlistFor(
		AllowlistEntry{Name: "navbar.so", Hash: strings.ToUpper(helloSHA256)},
		AllowlistEntry{Name: "backbtn.so", Hash: helloSHA256},
	)

	tests := []struct {
		policy  SecurityPolicy
		path    string
		wantErr bool
		kind    string
	}{
		{PolicyStrict, good, false, ""},
		{PolicyStrict, tampered, true, "hash_mismatch"},
		{PolicyStrict, unknown, true, "not_allowlisted"},
		{PolicyPermissive, tampered, false, "hash_mismatch"},
		{PolicyPermissive, unknown, false, "not_allowlisted"},
		{PolicyDisabled, unknown, false, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+filepath.Base(tt.path), func(t *testing.T) {
			logger := NewTestLogger()
			v := NewModuleVerifier(tt.policy, allowlist, logger)

			err := v.Verify(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasErrorCode(err, ErrCodeModuleRejected))
			} else {
				assert.NoError(t, err)
			}

			warned := logger.CountMessages("WARN", "Plugin module failed verification")
			if tt.kind == "" {
				assert.Zero(t, warned)
				return
			}
			require.Equal(t, 1, warned)
			for _, msg := range logger.Messages() {
				if msg.Message == "Plugin module failed verification" {
					assert.Equal(t, tt.kind, argsMap(msg.Args)["violation"])
				}
			}
		})
	}
}

func TestModuleVerifier_FileSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "navbar.so", "hello")

	allowlist := allowlistFor(AllowlistEntry{Name: "navbar.so", Hash: helloSHA256, MaxFileSize: 4})
	err := NewModuleVerifier(PolicyStrict, allowlist, nil).Verify(path)
	require.Error(t, err)

	allowlist = allowlistFor(AllowlistEntry{Name: "navbar.so", Hash: helloSHA256})
	allowlist.MaxFileSize = 4
	assert.Error(t, NewModuleVerifier(PolicyStrict, allowlist, nil).Verify(path))

	allowlist.MaxFileSize = 5
	assert.NoError(t, NewModuleVerifier(PolicyStrict, allowlist, nil).Verify(path))
}

func TestModuleVerifier_Stats(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "navbar.so", "hello")
	bad := writeFile(t, dir, "backbtn.so", "other")

	v := NewModuleVerifier(PolicyStrict, allowlistFor(
		AllowlistEntry{Name: "navbar.so", Hash: helloSHA256},
		AllowlistEntry{Name: "backbtn.so", Hash: helloSHA256},
	), nil)
	_ = v.Verify(good)
	_ = v.Verify(bad)
	_ = v.Verify(filepath.Join(dir, "absent.so"))

	assert.Equal(t, VerifierStats{Verified: 3, Authorized: 1, Rejected: 2, HashMismatches: 1}, v.Stats())
	assert.Equal(t, PolicyStrict, v.Policy())
}

func TestModuleVerifier_NilAllowlistAuthorizesNothing(t *testing.T) {
	path := writeFile(t, t.TempDir(), "navbar.so", "hello")
	assert.Error(t, NewModuleVerifier(PolicyStrict, nil, nil).Verify(path))
}

func TestLoadAllowlist(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "valid.json", `{"version":"1","plugins":{"navbar.so":{"hash":"`+helloSHA256+`"}}}`)
		a, err := LoadAllowlist(path)
		require.NoError(t, err)
		assert.Equal(t, HashAlgorithmSHA256, a.HashAlgorithm)
		assert.Equal(t, "navbar.so", a.Plugins["navbar.so"].Name)
		assert.Equal(t, []string{"navbar.so"}, a.Names())
	})

	invalid := map[string]string{
		"syntax.json":    `{"plugins":`,
		"noplugins.json": `{"version":"1"}`,
		"mismatch.json":  `{"plugins":{"navbar.so":{"name":"other.so","hash":"ab"}}}`,
		"nohash.json":    `{"plugins":{"navbar.so":{"name":"navbar.so"}}}`,
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := LoadAllowlist(writeFile(t, dir, name, content))
			require.Error(t, err)
			assert.True(t, HasErrorCode(err, ErrCodeAllowlistError))
		})
	}

	_, err := LoadAllowlist(filepath.Join(dir, "missing.json"))
	assert.True(t, HasErrorCode(err, ErrCodeAllowlistError))
}

func TestNewAllowlist_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "navbar.so", "hello"),
		writeFile(t, dir, "adblock.lua", "return 1"),
	}

	a, err := NewAllowlist(paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"adblock.lua", "navbar.so"}, a.Names())
	assert.Equal(t, helloSHA256, a.Plugins["navbar.so"].Hash)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	path := filepath.Join(dir, DefaultAllowlistName)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	loaded, err := LoadAllowlist(path)
	require.NoError(t, err)
	v := NewModuleVerifier(PolicyStrict, loaded, nil)
	for _, p := range paths {
		assert.NoError(t, v.Verify(p))
	}

	_, err = NewAllowlist([]string{filepath.Join(dir, "missing.so")})
	assert.Error(t, err)
}

func TestNewVerifierFor(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		v, err := NewVerifierFor(DefaultSecurityConfig(), envOf(nil), nil)
		assert.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("default allowlist in config dir", func(t *testing.T) {
		dir, env := configHome(t)
		writeFile(t, dir, DefaultAllowlistName, `{"plugins":{"navbar.so":{"hash":"`+helloSHA256+`"}}}`)

		v, err := NewVerifierFor(SecurityConfig{Policy: PolicyStrict}, env, nil)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.NoError(t, v.Verify(writeFile(t, t.TempDir(), "navbar.so", "hello")))
	})

	t.Run("unusable allowlist still enforces", func(t *testing.T) {
		_, env := configHome(t)
		v, err := NewVerifierFor(SecurityConfig{Policy: PolicyStrict}, env, nil)
		require.Error(t, err)
		require.NotNil(t, v)
		assert.Error(t, v.Verify(writeFile(t, t.TempDir(), "navbar.so", "hello")))
	})

	t.Run("no config root", func(t *testing.T) {
		v, err := NewVerifierFor(SecurityConfig{Policy: PolicyPermissive}, envOf(nil), nil)
		assert.True(t, HasErrorCode(err, ErrCodeAllowlistError))
		require.NotNil(t, v)
	})
}

func TestLoader_VerifierRejectsBeforeOpen(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "navbar.so", "tampered")

	opener := NewStaticOpener()
	opener.Register("navbar.so", newRecordingPlugin("navbar", &eventLog{}))
	verifier := NewModuleVerifier(PolicyStrict, allowlistFor(AllowlistEntry{Name: "navbar.so", Hash: helloSHA256}), nil)
	loader := NewLoader(WithOpener(".so", opener), WithVerifier(verifier))

	p, err := loader.Load(path)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, HasErrorCode(err, ErrCodeModuleRejected))
	assert.Zero(t, opener.OpenCount("navbar.so"))

	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	p, err = loader.Load(path)
	require.NoError(t, err)
	assert.NoError(t, loader.Unload(p))
}
