// Package wasm is the Plugin Runtime and Plugin Handle (spec §4.C/§4.D): a
// wazero-hosted executor for the guest ABI described in spec §4.C, reached
// through the byte-transfer protocol in transfer.go.
//
// Grounded on the teacher's internal/infrastructure/wasm/runtime.go for the
// compile-once/instantiate-per-call shape (a compilation cache shared across
// a process, WASI preview1 bootstrap, ModuleConfig wiring for wall/nano time
// and a random source) — but the guest ABI itself is this spec's own
// (get_plugin_info/set_file_path/format/...), not the teacher's
// describe/observe ABI, so plugin.go's memory marshaling is not reused; only
// its module lifecycle idiom is.
package wasm

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/weftfmt/weft/internal/domain/work"
)

var globalCache = wazero.NewCompilationCache()

// CloseGlobalCache releases the process-wide compilation cache. Only needed
// by long-running processes; a one-shot CLI invocation can skip it.
func CloseGlobalCache(ctx context.Context) error {
	return globalCache.Close(ctx)
}

// Logger is the logging subset of ports.Environment the Plugin Runtime
// needs, to log each config diagnostic a Handle surfaces during
// Initialize (spec §4.D: "log each [diagnostic] with the plugin's name as
// prefix"). Named distinctly from ports.Environment so this package
// doesn't need to import the application layer.
type Logger interface {
	LogError(text string)
}

// Runtime is the Plugin Runtime (spec §4.C).
type Runtime struct {
	runtime wazero.Runtime
	logger  Logger
	mu      sync.Mutex
}

// NewRuntime constructs a Runtime with a pure-Go wazero engine, a shared
// compilation cache, and WASI preview1 instantiated for clock/random access.
// logger may be nil, in which case Handles built from this Runtime skip
// per-diagnostic logging.
func NewRuntime(ctx context.Context, logger Logger) (*Runtime, error) {
	config := wazero.NewRuntimeConfig().WithCompilationCache(globalCache)
	r := wazero.NewRuntimeWithConfig(ctx, config)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("instantiating WASI: %w", err)
	}

	return &Runtime{runtime: r, logger: logger}, nil
}

// Load compiles wasmBytes and returns a Plugin Handle in the Loaded state
// (spec §4.D): its PluginInfo has already been fetched from a throwaway
// instance, and the schema version has been checked against 1.
func (r *Runtime) Load(ctx context.Context, wasmBytes []byte) (work.Handle, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compiling plugin module: %w", err)
	}

	h := &Handle{runtime: r.runtime, module: compiled, logger: r.logger}
	if err := h.loadInfo(ctx); err != nil {
		return nil, err
	}
	return h, nil
}

// Close closes the underlying wazero runtime, invalidating every Handle it
// compiled.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Compile validates raw as a well-formed WASM module without keeping it
// resident, for use as the Plugin Cache's CompileFunc (cache.CompileFunc):
// a plugin is rejected at download time, not at first format() call, if it
// fails to parse. The cached artifact form is the validated raw bytes
// themselves; recompiling into a Handle happens on every Runtime.Load.
func Compile(ctx context.Context, raw []byte) ([]byte, error) {
	config := wazero.NewRuntimeConfig().WithCompilationCache(globalCache)
	r := wazero.NewRuntimeWithConfig(ctx, config)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("validating plugin module: %w", err)
	}
	defer compiled.Close(ctx)

	return raw, nil
}

// newModuleConfig builds the ModuleConfig shared by both the throwaway
// info-query instance and the long-lived initialized instance: WASI clock
// and randomness, stdout/stderr passed through (a plugin's own diagnostics,
// not the host's), no filesystem or network access — formatting plugins
// need none, unlike the teacher's capability-driven host-function set.
func newModuleConfig() wazero.ModuleConfig {
	return wazero.NewModuleConfig().
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader).
		WithStdout(io.Discard).
		WithStderr(os.Stderr)
}
