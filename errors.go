// errors.go: structured error definitions for the plugin host
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package swb

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for the plugin host
const (
	// Locator errors (1000-1099)
	ErrCodeDirectoryUnavailable = "SWB_1001"
	ErrCodeEnumerationFailed    = "SWB_1002"
	ErrCodeManifestMissing      = "SWB_1003"
	ErrCodeManifestRead         = "SWB_1004"

	// Loader errors (1100-1199)
	ErrCodeModuleOpenFailed  = "SWB_1101"
	ErrCodeMissingSymbol     = "SWB_1102"
	ErrCodeSymbolSignature   = "SWB_1103"
	ErrCodeVersionMismatch   = "SWB_1104"
	ErrCodePluginPanicked    = "SWB_1105"
	ErrCodeModuleCloseFailed = "SWB_1106"
	ErrCodeModuleRejected    = "SWB_1107"

	// Resolution errors (1200-1299)
	ErrCodePluginNotFound    = "SWB_1201"
	ErrCodeUnsupportedModule = "SWB_1202"

	// Configuration errors (1700-1799)
	ErrCodeConfigParseError      = "CONFIG_1702"
	ErrCodeConfigValidationError = "CONFIG_1703"
	ErrCodeConfigWatcherError    = "CONFIG_1704"
	ErrCodeConfigFileError       = "CONFIG_1706"

	// Security errors (1800-1899)
	ErrCodeAllowlistError      = "SECURITY_1802"
	ErrCodeHashValidationError = "SECURITY_1803"
)

// Locator error constructors

func NewDirectoryUnavailableError(variables ...string) *errors.Error {
	return errors.New(ErrCodeDirectoryUnavailable, "Plugin directory unavailable").
		WithUserMessage("No configuration root is set; only local plugins will be considered").
		WithContext("variables", variables).
		WithSeverity("info")
}

func NewEnumerationFailedError(dir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeEnumerationFailed, "Plugin enumeration failed").
		WithUserMessage("Cannot read the plugin directory").
		WithContext("directory", dir).
		WithSeverity("warning")
}

func NewManifestMissingError(searched []string) *errors.Error {
	return errors.New(ErrCodeManifestMissing, "Plugin manifest missing").
		WithUserMessage("Couldn't open plugins.txt; no plugins will be loaded").
		WithContext("searched", searched).
		WithSeverity("warning")
}

func NewManifestReadError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeManifestRead, "Plugin manifest read failed").
		WithUserMessage("The plugin manifest could not be read completely").
		WithContext("path", path).
		WithSeverity("warning")
}

// Loader error constructors

func NewModuleOpenFailedError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeModuleOpenFailed, "Module open failed").
		WithUserMessage("The plugin module could not be opened").
		WithContext("path", path).
		WithSeverity("warning")
}

func NewMissingSymbolError(path string, entry EntryPoint, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeMissingSymbol, "Missing symbol").
			WithUserMessage("The plugin does not export a required entry point").
			WithContext("path", path).
			WithContext("symbol", string(entry)).
			WithSeverity("warning")
	}
	return errors.Wrap(cause, ErrCodeMissingSymbol, "Missing symbol").
		WithUserMessage("The plugin does not export a required entry point").
		WithContext("path", path).
		WithContext("symbol", string(entry)).
		WithSeverity("warning")
}

func NewSymbolSignatureError(path string, entry EntryPoint, got string) *errors.Error {
	return errors.New(ErrCodeSymbolSignature, "Symbol has wrong signature").
		WithUserMessage("The plugin exports an entry point with an incompatible signature").
		WithContext("path", path).
		WithContext("symbol", string(entry)).
		WithContext("got", got).
		WithSeverity("warning")
}

func NewVersionMismatchError(name string, reported, expected int) *errors.Error {
	return errors.New(ErrCodeVersionMismatch, "Plugin version mismatch").
		WithUserMessage("The plugin was built for a different contract major version").
		WithContext("plugin_name", name).
		WithContext("reported", reported).
		WithContext("expected", expected).
		WithSeverity("warning")
}

func NewPluginPanickedError(name string, entry EntryPoint, recovered any) *errors.Error {
	return errors.New(ErrCodePluginPanicked, "Plugin panicked").
		WithUserMessage("The plugin failed while running a lifecycle callback").
		WithContext("plugin_name", name).
		WithContext("symbol", string(entry)).
		WithContext("panic", recovered).
		WithSeverity("warning")
}

func NewModuleCloseFailedError(name string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeModuleCloseFailed, "Module close failed").
		WithUserMessage("The plugin module could not be released").
		WithContext("plugin_name", name).
		WithSeverity("warning")
}

func NewModuleRejectedError(path, violation, reason string) *errors.Error {
	return errors.New(ErrCodeModuleRejected, "Module rejected by allowlist").
		WithUserMessage("The plugin module is not authorized to load").
		WithContext("path", path).
		WithContext("violation", violation).
		WithContext("reason", reason).
		WithSeverity("warning")
}

// Resolution error constructors

func NewPluginNotFoundError(name string, searched []string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithUserMessage("The plugin named in plugins.txt was not found in any plugin directory").
		WithContext("plugin_name", name).
		WithContext("searched", searched).
		WithSeverity("warning")
}

func NewUnsupportedModuleError(path string) *errors.Error {
	return errors.New(ErrCodeUnsupportedModule, "Unsupported module type").
		WithUserMessage("No module backend handles this file type").
		WithContext("path", path).
		WithSeverity("warning")
}

// Configuration error constructors

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse the host configuration file").
		WithContext("path", path).
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeConfigValidationError, message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.Wrap(cause, ErrCodeConfigValidationError, message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

func NewConfigWatcherError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcherError, message).
		WithUserMessage("Manifest watching failed").
		WithSeverity("warning")
}

func NewConfigFileError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigFileError, "Configuration file error").
		WithUserMessage("Failed to read the host configuration file").
		WithContext("path", path).
		WithSeverity("error")
}

// Security error constructors

func NewAllowlistError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeAllowlistError, "Allowlist error: "+message).
			WithUserMessage("The plugin allowlist could not be used").
			WithSeverity("warning")
	}
	return errors.Wrap(cause, ErrCodeAllowlistError, "Allowlist error: "+message).
		WithUserMessage("The plugin allowlist could not be used").
		WithSeverity("warning")
}

func NewHashValidationError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHashValidationError, "Hash validation error").
		WithUserMessage("The plugin module could not be hashed").
		WithContext("path", path).
		WithSeverity("warning")
}

// ErrorCodeOf returns the structured code carried by err, or "".
func ErrorCodeOf(err error) errors.ErrorCode {
	var coded *errors.Error
	if stderrors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}

// HasErrorCode reports whether err carries code.
func HasErrorCode(err error, code string) bool {
	return err != nil && ErrorCodeOf(err) == errors.ErrorCode(code)
}

// IsMissingSymbol reports whether err is a MissingSymbol failure.
func IsMissingSymbol(err error) bool {
	return HasErrorCode(err, ErrCodeMissingSymbol)
}

// IsVersionMismatch reports whether err is a VersionMismatch failure.
func IsVersionMismatch(err error) bool {
	return HasErrorCode(err, ErrCodeVersionMismatch)
}

// IsPluginNotFound reports whether err is a PluginNotFound failure.
func IsPluginNotFound(err error) bool {
	return HasErrorCode(err, ErrCodePluginNotFound)
}
