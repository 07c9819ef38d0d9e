// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the application layer depends on but doesn't implement.
package ports

import (
	"context"
	"io"

	"github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/work"
)

// PluginCache is the Plugin Cache's public contract (spec §4.B).
type PluginCache interface {
	// Resolve returns the on-disk path of url's compiled artifact,
	// downloading and compiling it on a manifest miss.
	Resolve(ctx context.Context, url string) (string, error)
	// Forget removes url's entry and best-effort deletes its file.
	Forget(url string) error
}

// Runtime loads a compiled plugin artifact's bytes into a ready-to-
// initialize Handle (spec §4.C/§4.D).
type Runtime interface {
	Load(ctx context.Context, wasmBytes []byte) (work.Handle, error)
	Close(ctx context.Context) error
}

// PluginInfoProvider is implemented by anything that can describe itself
// before being initialized — used by the Plugin Resolver and Dispatcher,
// which need Info but must not call Initialize early.
type PluginInfoProvider interface {
	Info() plugin.Info
}

// ConfigBinder is the Config Binder's public contract (spec §4.F).
type ConfigBinder interface {
	Bind(raw config.Map, infos []plugin.Info) (config.GlobalConfiguration, []config.PluginConfig, error)
}

// Closer is a common interface for resources that need cleanup.
type Closer interface {
	io.Closer
}
