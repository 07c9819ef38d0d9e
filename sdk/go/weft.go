// Package weft is the guest-side SDK for writing a weft formatting plugin
// in Go, compiled with GOOS=wasip1 GOARCH=wasm. It implements the guest
// half of the byte-transfer protocol the host drives from
// internal/infrastructure/wasm/transfer.go: a fixed-size window buffer in
// the guest's own linear memory, plus the five low-level exports
// (get_wasm_memory_buffer, get_wasm_memory_buffer_size, clear_shared_bytes,
// add_to_shared_bytes_from_buffer, set_buffer_with_shared_bytes) the host
// uses to move arbitrarily sized payloads through it one window at a time.
//
// No corpus example plugin speaks this protocol (the teacher's guest SDK
// wraps a packed-ptr+length allocate/deallocate ABI instead); this package
// is built fresh against the host's transfer.go and the wire operations
// named in spec §4.C (get_plugin_schema_version, get_plugin_info,
// set_global_config, set_plugin_config, get_resolved_config,
// get_config_diagnostics, set_file_path, format, get_formatted_text,
// get_error_text), cross-checked against
// original_source/crates/dprint/src/plugins/wasm/functions.rs for the
// low-level primitive names and original_source/crates/pluginapi (schema
// version, diagnostics) for field shapes.
package weft

import (
	"encoding/json"
	"unsafe"
)

const windowSize = 64 * 1024

var window [windowSize]byte

// shared is the guest-local staging area clear_shared_bytes/
// add_to_shared_bytes_from_buffer/set_buffer_with_shared_bytes operate on.
var shared []byte

// shared cursor for set_buffer_with_shared_bytes: the host asks for a
// [offset, offset+length) slice of shared to be copied into window.
var filePath string
var fileText string
var formattedText string
var errorText string
var globalConfigJSON []byte
var pluginConfigJSON []byte
var configDiagnosticsJSON []byte
var resolvedConfigJSON []byte

// Diagnostic is one configuration problem reported via
// get_config_diagnostics, serialized the way the host's Handle.Initialize
// expects (a JSON array of {"message": "..."} objects).
type Diagnostic struct {
	Message string `json:"message"`
}

// FormatFunc formats text at path under the bound global and plugin
// configuration, returning the formatted text (identical to text if
// nothing changed) or an error to surface as a format-time diagnostic.
type FormatFunc func(path, text string) (string, error)

// ConfigBindFunc resolves raw global+plugin JSON config into the plugin's
// own resolved-config view and any diagnostics, mirroring the Config
// Binder's per-plugin contract (spec §4.F): the host forwards its own
// resolved global/plugin JSON verbatim, and the plugin may further
// validate/default its own keys and report problems.
type ConfigBindFunc func(global, pluginConfig json.RawMessage) (resolved json.RawMessage, diagnostics []Diagnostic)

// Plugin is the guest's declaration of itself: identity plus the two
// callbacks the host drives via the wire protocol.
type Plugin struct {
	Name           string
	Version        string
	ConfigKeys     []string
	FileExtensions []string
	Bind           ConfigBindFunc
	Format         FormatFunc
}

var registered *Plugin

// Register binds p as the plugin the exported functions below dispatch
// to. Call it from the guest's package init.
func Register(p Plugin) {
	registered = &p
}

//go:wasmexport get_plugin_schema_version
func getPluginSchemaVersion() uint32 { return 1 }

//go:wasmexport get_wasm_memory_buffer
func getWasmMemoryBuffer() uint32 {
	return uint32(uintptr(unsafe.Pointer(&window[0])))
}

//go:wasmexport get_wasm_memory_buffer_size
func getWasmMemoryBufferSize() uint32 { return windowSize }

//go:wasmexport clear_shared_bytes
func clearSharedBytes(capacityHint uint32) {
	shared = make([]byte, 0, capacityHint)
}

//go:wasmexport add_to_shared_bytes_from_buffer
func addToSharedBytesFromBuffer(length uint32) {
	shared = append(shared, window[:length]...)
}

//go:wasmexport set_buffer_with_shared_bytes
func setBufferWithSharedBytes(offset, length uint32) {
	copy(window[:length], shared[offset:offset+length])
}

//go:wasmexport get_plugin_info
func getPluginInfo() uint32 {
	info := struct {
		Name           string   `json:"name"`
		Version        string   `json:"version"`
		ConfigKeys     []string `json:"configKeys"`
		FileExtensions []string `json:"fileExtensions"`
	}{
		Name:           registered.Name,
		Version:        registered.Version,
		ConfigKeys:     registered.ConfigKeys,
		FileExtensions: registered.FileExtensions,
	}
	data, err := json.Marshal(info)
	if err != nil {
		data = []byte(`{}`)
	}
	return stage(data)
}

//go:wasmexport set_global_config
func setGlobalConfig() {
	globalConfigJSON = append([]byte{}, shared...)
	rebind()
}

//go:wasmexport set_plugin_config
func setPluginConfig() {
	pluginConfigJSON = append([]byte{}, shared...)
	rebind()
}

func rebind() {
	if registered == nil || registered.Bind == nil || globalConfigJSON == nil || pluginConfigJSON == nil {
		return
	}
	resolved, diagnostics := registered.Bind(globalConfigJSON, pluginConfigJSON)
	if resolved != nil {
		resolvedConfigJSON = resolved
	} else {
		resolvedConfigJSON = pluginConfigJSON
	}
	if data, err := json.Marshal(diagnostics); err == nil {
		configDiagnosticsJSON = data
	} else {
		configDiagnosticsJSON = []byte(`[]`)
	}
}

//go:wasmexport get_resolved_config
func getResolvedConfig() uint32 {
	if resolvedConfigJSON == nil {
		resolvedConfigJSON = []byte(`{}`)
	}
	return stage(resolvedConfigJSON)
}

//go:wasmexport get_config_diagnostics
func getConfigDiagnostics() uint32 {
	if configDiagnosticsJSON == nil {
		configDiagnosticsJSON = []byte(`[]`)
	}
	return stage(configDiagnosticsJSON)
}

//go:wasmexport set_file_path
func setFilePath() {
	filePath = string(shared)
}

// format status values mirror internal/infrastructure/wasm/handle.go's
// formatStatus constants on the host side.
const (
	statusUnchanged uint32 = 0
	statusChanged   uint32 = 1
	statusError     uint32 = 2
)

//go:wasmexport format
func format() uint32 {
	fileText = string(shared)

	if registered == nil || registered.Format == nil {
		errorText = "plugin did not register a Format function"
		return statusError
	}

	out, err := registered.Format(filePath, fileText)
	if err != nil {
		errorText = err.Error()
		return statusError
	}
	if out == fileText {
		return statusUnchanged
	}
	formattedText = out
	return statusChanged
}

//go:wasmexport get_formatted_text
func getFormattedText() uint32 { return stage([]byte(formattedText)) }

//go:wasmexport get_error_text
func getErrorText() uint32 { return stage([]byte(errorText)) }

// stage copies data into shared so the host's receive() can drain it
// through set_buffer_with_shared_bytes, and returns its length as the
// getter's announced payload size.
func stage(data []byte) uint32 {
	shared = data
	return uint32(len(data))
}
