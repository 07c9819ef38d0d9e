// Package work defines the unit of work the Dispatcher produces and the
// Pipeline Driver consumes.
package work

import (
	"github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/plugin"
)

// Handle is the subset of a plugin handle's behavior the Pipeline Driver
// needs, expressed as an interface so the driver can be tested against a
// fake without a real WASM runtime. Concrete implementations live in
// internal/infrastructure/wasm.
type Handle interface {
	// Info returns the cached PluginInfo; never fails after construction.
	Info() plugin.Info
	// Initialize transitions Loaded -> Initialized.
	Initialize(global config.GlobalConfiguration, local config.PluginConfig) error
	// ResolvedConfig returns the plugin's post-resolution config as JSON.
	ResolvedConfig() (string, error)
	// Format is the core inner loop: format path's text.
	Format(path, text string) (plugin.Outcome, error)
	Close() error
}

// Unit is one plugin's full batch of files for a single run. Created by the
// Dispatcher, consumed exactly once by the Pipeline Driver.
type Unit struct {
	Handle       Handle
	PluginConfig config.PluginConfig
	FilePaths    []string
}
