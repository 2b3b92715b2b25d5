// config.go: Host configuration loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agilira/argus"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SWB_LOG_LEVEL.
const EnvPrefix = "SWB"

// Module ABIs for files carrying the platform dynamic-module suffix.
const (
	ModuleABIGo = "go"
	ModuleABIC  = "c"
)

// configFileNames are tried in order under <config root>/swb.
var configFileNames = []string{"config.yaml", "config.yml", "config.json", "config.toml"}

// Duration is a time.Duration that reads "250ms"-style strings from every
// configuration source.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		return d.Decode(val)
	case float64:
		*d = Duration(time.Duration(val))
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.Decode(s)
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// HostConfig is the browser host's configuration.
type HostConfig struct {
	// StartPage is loaded into every new tab.
	StartPage string `json:"start_page" yaml:"start_page" envconfig:"START_PAGE"`

	// Title is the window title prefix.
	Title string `json:"title" yaml:"title" envconfig:"TITLE"`

	// ModuleABI selects the backend for platform dynamic modules: "go" for
	// Go plugins, "c" for C ABI shared objects.
	ModuleABI string `json:"module_abi" yaml:"module_abi" envconfig:"MODULE_ABI"`

	// ScriptPlugins enables .lua plugin scripts.
	ScriptPlugins bool `json:"script_plugins" yaml:"script_plugins" envconfig:"SCRIPT_PLUGINS"`

	ManifestName string `json:"manifest_name" yaml:"manifest_name" envconfig:"MANIFEST_NAME"`

	// WatchManifest logs a notice when plugins.txt changes in the config or
	// local plugin directory while the browser runs. Changes apply on restart.
	WatchManifest        bool     `json:"watch_manifest" yaml:"watch_manifest" envconfig:"WATCH_MANIFEST"`
	ManifestPollInterval Duration `json:"manifest_poll_interval" yaml:"manifest_poll_interval" envconfig:"MANIFEST_POLL_INTERVAL"`

	Log LogConfig `json:"log" yaml:"log" envconfig:"LOG"`

	// Security enables allowlist verification of module files.
	Security SecurityConfig `json:"security" yaml:"security" envconfig:"SECURITY"`
}

// DefaultHostConfig returns the built-in configuration.
func DefaultHostConfig() HostConfig {
	return HostConfig{
		StartPage:            "https://duckduckgo.com",
		Title:                "swb",
		ModuleABI:            ModuleABIGo,
		ManifestName:         DefaultManifestName,
		ManifestPollInterval: Duration(2 * time.Second),
		Log:                  DefaultLogConfig(),
		Security:             DefaultSecurityConfig(),
	}
}

// Validate checks the configuration for values the host cannot use.
func (c HostConfig) Validate() error {
	switch c.ModuleABI {
	case ModuleABIGo, ModuleABIC:
	default:
		return NewConfigValidationError(fmt.Sprintf("module_abi must be %q or %q, got %q", ModuleABIGo, ModuleABIC, c.ModuleABI), nil)
	}
	if c.ManifestName == "" || strings.ContainsAny(c.ManifestName, `/\`) {
		return NewConfigValidationError(fmt.Sprintf("manifest_name must be a plain file name, got %q", c.ManifestName), nil)
	}
	if c.WatchManifest && c.ManifestPollInterval.Std() < 100*time.Millisecond {
		return NewConfigValidationError("manifest_poll_interval must be at least 100ms", nil)
	}
	if c.Security.Policy != "" && !c.Security.Policy.Valid() {
		return NewConfigValidationError(fmt.Sprintf("security.policy must be disabled, permissive or strict, got %q", c.Security.Policy), nil)
	}
	if _, err := parseLogLevel(c.Log.Level); err != nil {
		return NewConfigValidationError("invalid log level", err)
	}
	return nil
}

// ConfigDirectory returns <config root>/swb, where the host configuration
// file lives.
func ConfigDirectory(env Env) (string, bool) {
	root, ok := ConfigRoot(env)
	if !ok {
		return "", false
	}
	return filepath.Join(root, "swb"), true
}

// FindConfigFile returns the first host configuration file present in dir.
func FindConfigFile(dir string) (string, bool) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// LoadHostConfig builds the host configuration: defaults, then the first
// configuration file found in the config directory, then SWB_* environment
// overrides. It always returns a usable configuration; when the file or the
// overrides are invalid the defaults are returned with the error, for the
// caller to report.
func LoadHostConfig(env Env) (HostConfig, string, error) {
	defaults := DefaultHostConfig()

	var path string
	cfg := defaults
	if dir, ok := ConfigDirectory(env); ok {
		if found, ok := FindConfigFile(dir); ok {
			path = found
			loaded, err := LoadHostConfigFile(found)
			if err != nil {
				return defaults, path, err
			}
			cfg = loaded
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return defaults, path, NewConfigValidationError("invalid environment override", err)
	}
	if err := cfg.Validate(); err != nil {
		return defaults, path, err
	}
	return cfg, path, nil
}

// LoadHostConfigFile reads one configuration file over the defaults. The
// format follows the file extension.
func LoadHostConfigFile(path string) (HostConfig, error) {
	cfg := DefaultHostConfig()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from FindConfigFile or the operator
	if err != nil {
		return cfg, NewConfigFileError(path, err)
	}

	format := argus.DetectFormat(path)
	if err := parseHostConfig(data, format, &cfg); err != nil {
		return DefaultHostConfig(), NewConfigParseError(path, err)
	}
	return cfg, nil
}

// parseHostConfig decodes YAML with yaml.v3 and everything else through
// argus, bound onto the struct via JSON.
func parseHostConfig(data []byte, format argus.ConfigFormat, cfg *HostConfig) error {
	if format == argus.FormatYAML {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
		return nil
	}

	configMap, err := argus.ParseConfig(data, format)
	if err != nil {
		return err
	}
	return bindHostConfig(configMap, cfg)
}

func bindHostConfig(configMap map[string]interface{}, cfg *HostConfig) error {
	if configMap == nil {
		return fmt.Errorf("configuration map is nil")
	}
	jsonBytes, err := json.Marshal(configMap)
	if err != nil {
		return fmt.Errorf("failed to marshal config map to JSON: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// LoaderOptions returns the module backends the configuration enables.
func (c HostConfig) LoaderOptions() []LoaderOption {
	var dynamic ModuleOpener = GoPluginOpener{}
	if c.ModuleABI == ModuleABIC {
		dynamic = NativeOpener{}
	}
	opts := []LoaderOption{WithOpener(PlatformModuleSuffix(), dynamic)}
	if c.ScriptPlugins {
		opts = append(opts, WithOpener(LuaScriptSuffix, LuaOpener{}))
	}
	return opts
}
