// Package container is the composition root: it builds every adapter and
// application service weft needs and exposes them through narrow accessor
// methods, the way the teacher's internal/infrastructure/container.go wires
// its use case graph.
package container

import (
	"context"
	"log/slog"

	"github.com/weftfmt/weft/internal/application/ports"
	"github.com/weftfmt/weft/internal/application/services"
	"github.com/weftfmt/weft/internal/infrastructure/cache"
	"github.com/weftfmt/weft/internal/infrastructure/environment"
	"github.com/weftfmt/weft/internal/infrastructure/integrity"
	"github.com/weftfmt/weft/internal/infrastructure/redact"
	"github.com/weftfmt/weft/internal/infrastructure/wasm"
)

// Container holds every dependency a weft command needs.
type Container struct {
	env       ports.Environment
	cache     *cache.Cache
	runtime   *wasm.Runtime
	resolver  *services.Resolver
	binder    *services.ConfigBinder
	dispatch  *services.Dispatcher
	logger    *slog.Logger
	ociPuller bool
}

// Options configure the container.
type Options struct {
	Logger        *slog.Logger
	AppName       string
	UseOCI        bool
	SchemaDir     string
	StatForSize   bool
	RequireSigner string // cosign public key ref; empty disables signature verification
}

// New builds a Container: the real Environment, a manifest-backed Plugin
// Cache rooted at the environment's cache dir, a wazero Plugin Runtime, and
// the Resolver/ConfigBinder/Dispatcher application services wired to them.
// The Pipeline Driver is constructed per-invocation by New's caller (it
// additionally needs the bound GlobalConfiguration, which isn't known until
// the config file is loaded), so it is not built here.
func New(ctx context.Context, opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var env ports.Environment = environment.NewReal(opts.Logger, opts.AppName)

	if scrubber, err := redact.New(); err == nil {
		env = redact.Wrap(env, scrubber)
	} else {
		opts.Logger.Warn("redaction disabled: failed to build scrubber", "error", err)
	}

	compile := func(raw []byte) ([]byte, error) {
		return wasm.Compile(ctx, raw)
	}
	pluginCache, err := cache.New(env, compile)
	if err != nil {
		return nil, err
	}
	if opts.UseOCI {
		pluginCache = pluginCache.WithOCIRegistry(cache.NewOCIRegistry())
	}

	runtime, err := wasm.NewRuntime(ctx, env)
	if err != nil {
		return nil, err
	}

	resolver := services.NewResolver(pluginCache, env, runtime)
	if opts.RequireSigner != "" {
		resolver.Verifier = integrity.New(opts.RequireSigner, env.Download)
	}
	binder := services.NewConfigBinder(env)
	if opts.SchemaDir != "" {
		schemas, err := loadPluginSchemas(opts.SchemaDir)
		if err != nil {
			return nil, err
		}
		binder.Schemas = schemas
	}

	var stat services.StatFunc
	if opts.StatForSize {
		stat = func(path string) (int64, error) {
			data, err := env.ReadFileBytes(path)
			if err != nil {
				return 0, err
			}
			return int64(len(data)), nil
		}
	}
	dispatcher := services.NewDispatcher(stat)

	return &Container{
		env:       env,
		cache:     pluginCache,
		runtime:   runtime,
		resolver:  resolver,
		binder:    binder,
		dispatch:  dispatcher,
		logger:    opts.Logger,
		ociPuller: opts.UseOCI,
	}, nil
}

// Environment returns the Environment port.
func (c *Container) Environment() ports.Environment { return c.env }

// Cache returns the Plugin Cache.
func (c *Container) Cache() *cache.Cache { return c.cache }

// Runtime returns the Plugin Runtime.
func (c *Container) Runtime() *wasm.Runtime { return c.runtime }

// Resolver returns the Plugin Resolver.
func (c *Container) Resolver() *services.Resolver { return c.resolver }

// ConfigBinder returns the Config Binder.
func (c *Container) ConfigBinder() *services.ConfigBinder { return c.binder }

// Dispatcher returns the Dispatcher.
func (c *Container) Dispatcher() *services.Dispatcher { return c.dispatch }

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Close releases the Plugin Runtime's wazero engine, invalidating every
// Handle it compiled.
func (c *Container) Close(ctx context.Context) error {
	return c.runtime.Close(ctx)
}
