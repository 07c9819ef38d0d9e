package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/weftfmt/weft/internal/domain/config"
	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/values"
	"github.com/weftfmt/weft/internal/domain/work"
)

const currentSchemaVersion = 1

// formatStatus mirrors spec §4.C's three-valued format() return.
type formatStatus = uint8

const (
	formatUnchanged formatStatus = 0
	formatChanged   formatStatus = 1
	formatError     formatStatus = 2
)

// Handle is the Plugin Handle (spec §4.D): Unloaded → Loaded → Initialized →
// Disposed. Loaded carries a cached PluginInfo queried from a throwaway
// instance; Initialized carries a live module instance pinned to the
// goroutine that calls Format (module instances are single-threaded per
// spec §4.D, matching wazero's own per-instance non-reentrancy).
type Handle struct {
	runtime wazero.Runtime
	module  wazero.CompiledModule
	logger  Logger

	mu       sync.Mutex
	info     plugin.Info
	instance api.Module
	transfer *transfer
}

var _ work.Handle = (*Handle)(nil)

// loadInfo instantiates a throwaway instance to check the schema version
// and fetch PluginInfo, then discards it — the Loaded state carries only
// the cached Info, not a live instance.
func (h *Handle) loadInfo(ctx context.Context) error {
	instance, err := h.runtime.InstantiateModule(ctx, h.module, newModuleConfig())
	if err != nil {
		return fmt.Errorf("instantiating plugin to query info: %w", err)
	}
	defer instance.Close(ctx)

	versionFn := instance.ExportedFunction("get_plugin_schema_version")
	if versionFn == nil {
		return fmt.Errorf("plugin does not export get_plugin_schema_version")
	}
	results, err := versionFn.Call(ctx)
	if err != nil {
		return fmt.Errorf("calling get_plugin_schema_version: %w", err)
	}
	if version := uint32(results[0]); version != currentSchemaVersion {
		return fmt.Errorf("unsupported plugin schema version %d (expected %d)", version, currentSchemaVersion)
	}

	t, err := newTransfer(ctx, instance)
	if err != nil {
		return err
	}

	data, err := t.receive(ctx, "get_plugin_info")
	if err != nil {
		return fmt.Errorf("fetching plugin info: %w", err)
	}

	var raw struct {
		Name           string   `json:"name"`
		Version        string   `json:"version"`
		ConfigKeys     []string `json:"configKeys"`
		FileExtensions []string `json:"fileExtensions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing plugin info: %w", err)
	}

	name, err := values.NewPluginName(raw.Name)
	if err != nil {
		return fmt.Errorf("invalid plugin name: %w", err)
	}

	h.info = plugin.Info{
		Name:           name,
		Version:        raw.Version,
		ConfigKeys:     raw.ConfigKeys,
		FileExtensions: raw.FileExtensions,
	}
	return nil
}

// Info returns the cached PluginInfo; never fails after construction.
func (h *Handle) Info() plugin.Info {
	return h.info
}

// Initialize transitions Loaded → Initialized: instantiates a live module,
// sends global then plugin config, then checks config diagnostics.
func (h *Handle) Initialize(global config.GlobalConfiguration, local config.PluginConfig) error {
	ctx := context.Background()

	h.mu.Lock()
	defer h.mu.Unlock()

	instance, err := h.runtime.InstantiateModule(ctx, h.module, newModuleConfig())
	if err != nil {
		return fmt.Errorf("instantiating plugin %s: %w", h.info.Name, err)
	}

	t, err := newTransfer(ctx, instance)
	if err != nil {
		instance.Close(ctx)
		return err
	}

	globalJSON, err := json.Marshal(global)
	if err != nil {
		instance.Close(ctx)
		return err
	}
	if err := t.send(ctx, "set_global_config", globalJSON); err != nil {
		instance.Close(ctx)
		return fmt.Errorf("sending global config to %s: %w", h.info.Name, err)
	}

	localJSON, err := json.Marshal(local)
	if err != nil {
		instance.Close(ctx)
		return err
	}
	if err := t.send(ctx, "set_plugin_config", localJSON); err != nil {
		instance.Close(ctx)
		return fmt.Errorf("sending plugin config to %s: %w", h.info.Name, err)
	}

	diagnosticsJSON, err := t.receive(ctx, "get_config_diagnostics")
	if err != nil {
		instance.Close(ctx)
		return fmt.Errorf("fetching config diagnostics from %s: %w", h.info.Name, err)
	}

	var diagnostics []struct {
		Message string `json:"message"`
	}
	if len(diagnosticsJSON) > 0 {
		if err := json.Unmarshal(diagnosticsJSON, &diagnostics); err != nil {
			instance.Close(ctx)
			return fmt.Errorf("parsing config diagnostics from %s: %w", h.info.Name, err)
		}
	}

	h.instance = instance
	h.transfer = t

	if len(diagnostics) > 0 {
		if h.logger != nil {
			for _, d := range diagnostics {
				h.logger.LogError(fmt.Sprintf("[%s]: %s", h.info.Name, d.Message))
			}
		}
		return domainerrors.NewPluginInitDiagnosticError(h.info.Name.String(), len(diagnostics))
	}
	return nil
}

// ResolvedConfig returns the plugin's post-resolution config as JSON.
func (h *Handle) ResolvedConfig() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.transfer == nil {
		return "", fmt.Errorf("plugin %s is not initialized", h.info.Name)
	}
	ctx := context.Background()
	data, err := h.transfer.receive(ctx, "get_resolved_config")
	if err != nil {
		return "", fmt.Errorf("fetching resolved config from %s: %w", h.info.Name, err)
	}
	return string(data), nil
}

// Format runs the core inner loop: send path then text, invoke format(),
// interpret the three-valued status.
func (h *Handle) Format(path, text string) (plugin.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.transfer == nil || h.instance == nil {
		return plugin.Outcome{}, fmt.Errorf("plugin %s is not initialized", h.info.Name)
	}
	ctx := context.Background()
	t := h.transfer

	if err := t.send(ctx, "set_file_path", []byte(path)); err != nil {
		return plugin.Outcome{}, fmt.Errorf("sending file path to %s: %w", h.info.Name, err)
	}

	// format() has no dedicated setter of its own: it is both the consumer
	// of the just-staged text and the value-returning operation that runs
	// formatting, so the text is staged directly rather than through send's
	// setter-calling convention.
	if err := h.stageText(ctx, text); err != nil {
		return plugin.Outcome{}, fmt.Errorf("sending file text to %s: %w", h.info.Name, err)
	}

	formatFn := h.instance.ExportedFunction("format")
	if formatFn == nil {
		return plugin.Outcome{}, fmt.Errorf("plugin %s does not export format", h.info.Name)
	}
	results, err := formatFn.Call(ctx)
	if err != nil {
		return plugin.Outcome{}, fmt.Errorf("calling format on %s: %w", h.info.Name, err)
	}
	status := formatStatus(results[0])

	switch status {
	case formatUnchanged:
		return plugin.Outcome{Kind: plugin.Unchanged}, nil
	case formatChanged:
		data, err := t.receive(ctx, "get_formatted_text")
		if err != nil {
			return plugin.Outcome{}, fmt.Errorf("fetching formatted text from %s: %w", h.info.Name, err)
		}
		return plugin.Outcome{Kind: plugin.Formatted, Text: string(data)}, nil
	case formatError:
		data, err := t.receive(ctx, "get_error_text")
		if err != nil {
			return plugin.Outcome{}, fmt.Errorf("fetching error text from %s: %w", h.info.Name, err)
		}
		return plugin.Outcome{Kind: plugin.Error, Error: string(data)}, nil
	default:
		return plugin.Outcome{}, fmt.Errorf("plugin %s returned unknown format status %d", h.info.Name, status)
	}
}

// stageText writes text into the guest's shared bytes without invoking a
// setter export, since format() itself plays that role.
func (h *Handle) stageText(ctx context.Context, text string) error {
	data := []byte(text)
	t := h.transfer
	if _, err := t.clearSharedBytes.Call(ctx, uint64(len(data))); err != nil {
		return fmt.Errorf("calling clear_shared_bytes: %w", err)
	}
	for offset := 0; offset < len(data); offset += int(t.windowSize) {
		end := offset + int(t.windowSize)
		if end > len(data) {
			end = len(data)
		}
		chunk := data[offset:end]
		if !t.instance.Memory().Write(t.windowPtr, chunk) {
			return fmt.Errorf("writing %d bytes to guest window", len(chunk))
		}
		if _, err := t.addToSharedBytes.Call(ctx, uint64(len(chunk))); err != nil {
			return fmt.Errorf("calling add_to_shared_bytes_from_buffer: %w", err)
		}
	}
	return nil
}

// Close disposes the Handle, closing its live instance if initialized.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.instance == nil {
		return nil
	}
	ctx := context.Background()
	err := h.instance.Close(ctx)
	h.instance = nil
	h.transfer = nil
	return err
}
