// Package services holds the application-layer use cases: the Plugin
// Resolver, Config Binder, Dispatcher, and Pipeline Driver.
package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
	"github.com/weftfmt/weft/internal/domain/work"
)

// Resolver is the Plugin Resolver (spec §4.E): given a list of URLs, for
// each URL in order, ask the Plugin Cache for the compiled artifact path,
// read the bytes (on read error: forget the URL in the cache, retry once),
// construct a Plugin Handle in Loaded state. Duplicate URLs are resolved
// once, memoized by URL.
type Resolver struct {
	cache    PluginCache
	env      Environment
	runtime  Runtime
	Verifier SignatureVerifier

	group singleflight.Group
}

// PluginCache is the subset of ports.PluginCache the Resolver needs.
type PluginCache interface {
	Resolve(ctx context.Context, url string) (string, error)
	Forget(url string) error
}

// Environment is the subset of ports.Environment the Resolver needs.
type Environment interface {
	ReadFileBytes(path string) ([]byte, error)
}

// Runtime is the subset of ports.Runtime the Resolver needs.
type Runtime interface {
	Load(ctx context.Context, wasmBytes []byte) (work.Handle, error)
}

// SignatureVerifier optionally gates resolution on a valid plugin
// signature. Nil by default: a DOMAIN STACK addition beyond spec §4.E's
// base algorithm, wiring sigstore/cosign for operators who opt in via
// --require-signing.
type SignatureVerifier interface {
	Verify(ctx context.Context, url string, data []byte) error
}

// NewResolver constructs a Resolver.
func NewResolver(cache PluginCache, env Environment, runtime Runtime) *Resolver {
	return &Resolver{cache: cache, env: env, runtime: runtime}
}

// Resolve resolves every url in order, returning one Handle per url in the
// same order. Duplicate urls share a single underlying resolution. On any
// per-URL error the whole resolve fails with a message naming the URL.
func (r *Resolver) Resolve(ctx context.Context, urls []string) ([]work.Handle, error) {
	handles := make([]work.Handle, len(urls))
	seen := make(map[string]work.Handle, len(urls))

	for i, url := range urls {
		if h, ok := seen[url]; ok {
			handles[i] = h
			continue
		}

		result, err, _ := r.group.Do(url, func() (interface{}, error) {
			return r.resolveOne(ctx, url)
		})
		if err != nil {
			return nil, err
		}

		h := result.(work.Handle)
		handles[i] = h
		seen[url] = h
	}

	return handles, nil
}

func (r *Resolver) resolveOne(ctx context.Context, url string) (work.Handle, error) {
	path, err := r.cache.Resolve(ctx, url)
	if err != nil {
		return nil, domainerrors.NewPluginDownloadError(url, err)
	}

	data, err := r.env.ReadFileBytes(path)
	if err != nil {
		// Read error: forget the URL in the cache and retry once.
		_ = r.cache.Forget(url)
		path, err = r.cache.Resolve(ctx, url)
		if err != nil {
			return nil, domainerrors.NewPluginLoadError(url, err)
		}
		data, err = r.env.ReadFileBytes(path)
		if err != nil {
			return nil, domainerrors.NewPluginLoadError(url, fmt.Errorf("re-reading plugin bytes: %w", err))
		}
	}

	if r.Verifier != nil {
		if err := r.Verifier.Verify(ctx, url, data); err != nil {
			_ = r.cache.Forget(url)
			return nil, domainerrors.NewPluginLoadError(url, err)
		}
	}

	handle, err := r.runtime.Load(ctx, data)
	if err != nil {
		return nil, domainerrors.NewPluginLoadError(url, err)
	}

	return handle, nil
}
