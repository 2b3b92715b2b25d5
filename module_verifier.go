// module_verifier.go: Allowlist verification of plugin module files
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// DefaultAllowlistName is the allowlist file looked up in the configuration
// directory when SecurityConfig.AllowlistFile is empty.
const DefaultAllowlistName = "allowlist.json"

// SecurityPolicy decides what happens to a module that fails verification.
type SecurityPolicy string

const (
	// PolicyDisabled skips verification entirely.
	PolicyDisabled SecurityPolicy = "disabled"
	// PolicyPermissive logs violations and loads the module anyway.
	PolicyPermissive SecurityPolicy = "permissive"
	// PolicyStrict refuses to open modules that fail verification.
	PolicyStrict SecurityPolicy = "strict"
)

// Valid reports whether p is a known policy.
func (p SecurityPolicy) Valid() bool {
	switch p {
	case PolicyDisabled, PolicyPermissive, PolicyStrict:
		return true
	default:
		return false
	}
}

// HashAlgorithm names a file digest.
type HashAlgorithm string

const HashAlgorithmSHA256 HashAlgorithm = "sha256"

// SecurityConfig enables module verification.
type SecurityConfig struct {
	Policy SecurityPolicy `json:"policy" yaml:"policy" envconfig:"POLICY"`

	// AllowlistFile defaults to <config dir>/allowlist.json.
	AllowlistFile string `json:"allowlist_file" yaml:"allowlist_file" envconfig:"ALLOWLIST_FILE"`
}

// DefaultSecurityConfig returns verification disabled.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{Policy: PolicyDisabled}
}

// AllowlistEntry authorizes one module file by name and digest.
type AllowlistEntry struct {
	Name        string        `json:"name"`
	Algorithm   HashAlgorithm `json:"algorithm,omitempty"`
	Hash        string        `json:"hash"`
	MaxFileSize int64         `json:"max_file_size,omitempty"`
	Description string        `json:"description,omitempty"`
	AddedAt     time.Time     `json:"added_at"`
}

// PluginAllowlist is the on-disk allowlist, keyed by module file name.
type PluginAllowlist struct {
	Version       string                    `json:"version"`
	UpdatedAt     time.Time                 `json:"updated_at"`
	HashAlgorithm HashAlgorithm             `json:"hash_algorithm"`
	MaxFileSize   int64                     `json:"max_file_size,omitempty"`
	Plugins       map[string]AllowlistEntry `json:"plugins"`
}

// Violation is one reason a module failed verification.
type Violation struct {
	Type     string
	Plugin   string
	Reason   string
	Expected string
	Actual   string
}

// VerifierStats counts verification outcomes.
type VerifierStats struct {
	Verified       int64
	Authorized     int64
	Rejected       int64
	HashMismatches int64
}

// ModuleVerifier checks module files against an allowlist before the
// loader opens them.
type ModuleVerifier struct {
	policy    SecurityPolicy
	allowlist *PluginAllowlist
	logger    Logger

	mu    sync.Mutex
	stats VerifierStats
}

// NewModuleVerifier creates a verifier. A nil allowlist authorizes nothing.
func NewModuleVerifier(policy SecurityPolicy, allowlist *PluginAllowlist, logger Logger) *ModuleVerifier {
	if allowlist == nil {
		allowlist = &PluginAllowlist{HashAlgorithm: HashAlgorithmSHA256, Plugins: map[string]AllowlistEntry{}}
	}
	return &ModuleVerifier{
		policy:    policy,
		allowlist: allowlist,
		logger:    NewLogger(logger),
	}
}

// NewVerifierFor builds the verifier cfg asks for, or nil when verification
// is disabled. When the allowlist cannot be loaded the verifier starts with
// an empty one and the error is returned for reporting: under the strict
// policy every module is then rejected.
func NewVerifierFor(cfg SecurityConfig, env Env, logger Logger) (*ModuleVerifier, error) {
	if cfg.Policy == "" || cfg.Policy == PolicyDisabled {
		return nil, nil
	}
	path := cfg.AllowlistFile
	if path == "" {
		dir, ok := ConfigDirectory(env)
		if !ok {
			return NewModuleVerifier(cfg.Policy, nil, logger), NewAllowlistError("no configuration directory for the allowlist", nil)
		}
		path = filepath.Join(dir, DefaultAllowlistName)
	}
	allowlist, err := LoadAllowlist(path)
	if err != nil {
		return NewModuleVerifier(cfg.Policy, nil, logger), err
	}
	NewLogger(logger).Info("Plugin allowlist loaded", "file", path, "plugins", len(allowlist.Plugins), "policy", string(cfg.Policy))
	return NewModuleVerifier(cfg.Policy, allowlist, logger), nil
}

// Policy returns the enforcement mode.
func (v *ModuleVerifier) Policy() SecurityPolicy {
	return v.policy
}

// Stats returns a snapshot of the counters.
func (v *ModuleVerifier) Stats() VerifierStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Verify checks the module at path. Under the strict policy a violation
// returns a ModuleRejected error; under the permissive one it is only logged.
func (v *ModuleVerifier) Verify(path string) error {
	if v.policy == PolicyDisabled {
		return nil
	}

	violations := v.check(path)

	v.mu.Lock()
	v.stats.Verified++
	for _, viol := range violations {
		if viol.Type == "hash_mismatch" {
			v.stats.HashMismatches++
		}
	}
	if len(violations) == 0 {
		v.stats.Authorized++
	} else if v.policy == PolicyStrict {
		v.stats.Rejected++
	}
	v.mu.Unlock()

	if len(violations) == 0 {
		v.logger.Debug("Plugin module verified", "path", path)
		return nil
	}
	for _, viol := range violations {
		v.logger.Warn("Plugin module failed verification",
			"path", path,
			"violation", viol.Type,
			"reason", viol.Reason,
			"expected", viol.Expected,
			"actual", viol.Actual,
			"policy", string(v.policy))
	}
	if v.policy == PolicyStrict {
		return NewModuleRejectedError(path, violations[0].Type, violations[0].Reason)
	}
	return nil
}

func (v *ModuleVerifier) check(path string) []Violation {
	name := filepath.Base(path)
	entry, ok := v.allowlist.Plugins[name]
	if !ok {
		return []Violation{{Type: "not_allowlisted", Plugin: name, Reason: "module is not in the allowlist"}}
	}

	info, err := os.Stat(path)
	if err != nil {
		return []Violation{{Type: "unreadable", Plugin: name, Reason: err.Error()}}
	}

	var violations []Violation
	maxSize := entry.MaxFileSize
	if maxSize == 0 {
		maxSize = v.allowlist.MaxFileSize
	}
	if maxSize > 0 && info.Size() > maxSize {
		violations = append(violations, Violation{
			Type:     "file_size_exceeded",
			Plugin:   name,
			Reason:   fmt.Sprintf("module is %d bytes, limit is %d", info.Size(), maxSize),
			Expected: fmt.Sprint(maxSize),
			Actual:   fmt.Sprint(info.Size()),
		})
	}

	algorithm := entry.Algorithm
	if algorithm == "" {
		algorithm = v.allowlist.HashAlgorithm
	}
	actual, err := HashFile(path, algorithm)
	if err != nil {
		return append(violations, Violation{Type: "hash_failed", Plugin: name, Reason: err.Error()})
	}
	if !strings.EqualFold(actual, entry.Hash) {
		violations = append(violations, Violation{
			Type:     "hash_mismatch",
			Plugin:   name,
			Reason:   "module digest does not match the allowlist",
			Expected: entry.Hash,
			Actual:   actual,
		})
	}
	return violations
}

// HashFile returns the hex digest of the file at path.
func HashFile(path string, algorithm HashAlgorithm) (string, error) {
	if algorithm == "" {
		algorithm = HashAlgorithmSHA256
	}
	if algorithm != HashAlgorithmSHA256 {
		return "", NewHashValidationError(path, fmt.Errorf("unsupported hash algorithm %q", algorithm))
	}

	f, err := os.Open(path) // #nosec G304 -- module paths come from the locator
	if err != nil {
		return "", NewHashValidationError(path, err)
	}
	defer func() { _ = f.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", NewHashValidationError(path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// LoadAllowlist reads and validates an allowlist file.
func LoadAllowlist(path string) (*PluginAllowlist, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- allowlist path is operator configuration
	if err != nil {
		return nil, NewAllowlistError("failed to read allowlist file", err)
	}

	var allowlist PluginAllowlist
	if err := json.Unmarshal(data, &allowlist); err != nil {
		return nil, NewAllowlistError("failed to parse allowlist JSON", err)
	}
	if err := validateAllowlist(&allowlist); err != nil {
		return nil, NewAllowlistError("invalid allowlist structure", err)
	}
	return &allowlist, nil
}

func validateAllowlist(allowlist *PluginAllowlist) error {
	if allowlist.Plugins == nil {
		return fmt.Errorf("allowlist must contain a plugins map")
	}
	if allowlist.HashAlgorithm == "" {
		allowlist.HashAlgorithm = HashAlgorithmSHA256
	}
	for name, entry := range allowlist.Plugins {
		if entry.Name == "" {
			entry.Name = name
		}
		if entry.Name != name {
			return fmt.Errorf("plugin name mismatch: key %s != name %s", name, entry.Name)
		}
		if entry.Hash == "" {
			return fmt.Errorf("plugin %s missing hash", name)
		}
		allowlist.Plugins[name] = entry
	}
	return nil
}

// NewAllowlist hashes every file in paths into a fresh allowlist. Later
// paths with the same file name replace earlier ones.
func NewAllowlist(paths []string) (*PluginAllowlist, error) {
	now := timecache.CachedTime()
	allowlist := &PluginAllowlist{
		Version:       "1",
		UpdatedAt:     now,
		HashAlgorithm: HashAlgorithmSHA256,
		Plugins:       make(map[string]AllowlistEntry, len(paths)),
	}
	for _, path := range paths {
		sum, err := HashFile(path, HashAlgorithmSHA256)
		if err != nil {
			return nil, err
		}
		name := filepath.Base(path)
		allowlist.Plugins[name] = AllowlistEntry{Name: name, Hash: sum, AddedAt: now}
	}
	return allowlist, nil
}

// Names returns the allowlisted module names, sorted.
func (a *PluginAllowlist) Names() []string {
	names := make([]string, 0, len(a.Plugins))
	for name := range a.Plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
