// Package errors implements the error-kind taxonomy shared across the
// core. Every fallible core operation returns one of these types (or wraps
// one), so a CLI boundary can convert any failure into an exit code and a
// single stderr message without inspecting the core's internals.
package errors

import "fmt"

// ConfigMissingError is returned when no config file exists at the
// requested path.
type ConfigMissingError struct {
	Path string
}

func NewConfigMissingError(path string) *ConfigMissingError {
	return &ConfigMissingError{Path: path}
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("No config file found at %s. Did you mean to create one?", e.Path)
}

// ConfigParseError wraps a malformed-configuration parse failure. The
// parser's own message is relayed unchanged.
type ConfigParseError struct {
	Cause error
}

func NewConfigParseError(cause error) *ConfigParseError {
	return &ConfigParseError{Cause: cause}
}

func (e *ConfigParseError) Error() string { return e.Cause.Error() }
func (e *ConfigParseError) Unwrap() error { return e.Cause }

// ConfigShapeError covers structural violations: wrong value type for a
// known key, two plugin keys set, a leftover non-primitive top-level
// property.
type ConfigShapeError struct {
	Message string
}

func NewConfigShapeError(format string, args ...interface{}) *ConfigShapeError {
	return &ConfigShapeError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigShapeError) Error() string { return e.Message }

// ConfigSemanticError is raised when the count of configuration resolution
// diagnostics is greater than zero.
type ConfigSemanticError struct {
	Count int
}

func NewConfigSemanticError(count int) *ConfigSemanticError {
	return &ConfigSemanticError{Count: count}
}

func (e *ConfigSemanticError) Error() string {
	return fmt.Sprintf("had %d config diagnostic(s)", e.Count)
}

// PluginDownloadError names the URL a download failed for.
type PluginDownloadError struct {
	URL   string
	Cause error
}

func NewPluginDownloadError(url string, cause error) *PluginDownloadError {
	return &PluginDownloadError{URL: url, Cause: cause}
}

func (e *PluginDownloadError) Error() string {
	return fmt.Sprintf("error downloading plugin at url %s: %s", e.URL, e.Cause)
}
func (e *PluginDownloadError) Unwrap() error { return e.Cause }

// PluginCompileError names the URL a compile step failed for.
type PluginCompileError struct {
	URL   string
	Cause error
}

func NewPluginCompileError(url string, cause error) *PluginCompileError {
	return &PluginCompileError{URL: url, Cause: cause}
}

func (e *PluginCompileError) Error() string {
	return fmt.Sprintf("error compiling plugin at url %s: %s", e.URL, e.Cause)
}
func (e *PluginCompileError) Unwrap() error { return e.Cause }

// PluginLoadError names the URL a runtime load/ABI-handshake failure
// occurred for (e.g. an unsupported schema version, a missing export).
type PluginLoadError struct {
	URL   string
	Cause error
}

func NewPluginLoadError(url string, cause error) *PluginLoadError {
	return &PluginLoadError{URL: url, Cause: cause}
}

func (e *PluginLoadError) Error() string {
	return fmt.Sprintf("error loading plugin at url %s: %s", e.URL, e.Cause)
}
func (e *PluginLoadError) Unwrap() error { return e.Cause }

// PluginInitDiagnosticError is raised when a plugin's own config
// diagnostics are non-empty. The individual diagnostics should already have
// been logged, prefixed by plugin name, before this is returned.
type PluginInitDiagnosticError struct {
	PluginName string
	Count      int
}

func NewPluginInitDiagnosticError(pluginName string, count int) *PluginInitDiagnosticError {
	return &PluginInitDiagnosticError{PluginName: pluginName, Count: count}
}

func (e *PluginInitDiagnosticError) Error() string {
	return fmt.Sprintf("had %d config diagnostic(s) for %s", e.Count, e.PluginName)
}

// PluginRuntimeError wraps a panic or non-zero error channel during
// format, carrying the file path that was being formatted.
type PluginRuntimeError struct {
	Path  string
	Cause error
}

func NewPluginRuntimeError(path string, cause error) *PluginRuntimeError {
	return &PluginRuntimeError{Path: path, Cause: cause}
}

func (e *PluginRuntimeError) Error() string {
	return fmt.Sprintf("error formatting %s: %s", e.Path, e.Cause)
}
func (e *PluginRuntimeError) Unwrap() error { return e.Cause }

// PluginVersionError is raised when a resolved plugin's self-reported
// version fails to satisfy the minVersion configured for it.
type PluginVersionError struct {
	PluginName string
	Have       string
	Want       string
}

func NewPluginVersionError(pluginName, have, want string) *PluginVersionError {
	return &PluginVersionError{PluginName: pluginName, Have: have, Want: want}
}

func (e *PluginVersionError) Error() string {
	return fmt.Sprintf("plugin %s version %s does not satisfy minVersion %s", e.PluginName, e.Have, e.Want)
}

// CheckMismatchError is raised when check mode finds un-formatted files.
type CheckMismatchError struct {
	Count int
}

func NewCheckMismatchError(count int) *CheckMismatchError {
	return &CheckMismatchError{Count: count}
}

func (e *CheckMismatchError) Error() string {
	return fmt.Sprintf("Found %d not formatted file(s).", e.Count)
}

// AggregateErrorsError is the sum of plugin-reported errors during a run.
type AggregateErrorsError struct {
	Count int
}

func NewAggregateErrorsError(count int) *AggregateErrorsError {
	return &AggregateErrorsError{Count: count}
}

func (e *AggregateErrorsError) Error() string {
	return fmt.Sprintf("Had %d error(s) formatting.", e.Count)
}
