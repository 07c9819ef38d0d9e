package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/values"
	"github.com/weftfmt/weft/internal/domain/work"
)

type fakeCache struct {
	paths     map[string]string
	forgotten map[string]int
	resolveCh int32
}

func newFakeCache(paths map[string]string) *fakeCache {
	return &fakeCache{paths: paths, forgotten: map[string]int{}}
}
func (c *fakeCache) Resolve(_ context.Context, url string) (string, error) {
	atomic.AddInt32(&c.resolveCh, 1)
	path, ok := c.paths[url]
	if !ok {
		return "", fmt.Errorf("no cache entry for %s", url)
	}
	return path, nil
}
func (c *fakeCache) Forget(url string) error {
	c.forgotten[url]++
	return nil
}

type fakeReadEnv struct {
	bytes map[string][]byte
}

func (e *fakeReadEnv) ReadFileBytes(path string) ([]byte, error) {
	data, ok := e.bytes[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return data, nil
}

type fakeRuntime struct {
	loaded []string
}

func (r *fakeRuntime) Load(_ context.Context, wasmBytes []byte) (work.Handle, error) {
	r.loaded = append(r.loaded, string(wasmBytes))
	return &fakeHandle{info: plugin.Info{Name: values.MustNewPluginName(string(wasmBytes))}}, nil
}

func Test_Resolver_Resolve_dedupesDuplicateURLs(t *testing.T) {
	cache := newFakeCache(map[string]string{"plugin-a": "/cache/a.wasm"})
	env := &fakeReadEnv{bytes: map[string][]byte{"/cache/a.wasm": []byte("a")}}
	runtime := &fakeRuntime{}

	r := NewResolver(cache, env, runtime)
	handles, err := r.Resolve(context.Background(), []string{"plugin-a", "plugin-a"})

	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Same(t, handles[0], handles[1])
	assert.Len(t, runtime.loaded, 1)
}

func Test_Resolver_Resolve_readErrorForgetsAndRetriesOnce(t *testing.T) {
	cache := newFakeCache(map[string]string{"plugin-a": "/cache/missing.wasm"})
	env := &fakeReadEnv{bytes: map[string][]byte{}}
	runtime := &fakeRuntime{}

	r := NewResolver(cache, env, runtime)
	_, err := r.Resolve(context.Background(), []string{"plugin-a"})

	require.Error(t, err)
	assert.Equal(t, 1, cache.forgotten["plugin-a"])
}

func Test_Resolver_Resolve_cacheMissFailsWithURLInError(t *testing.T) {
	cache := newFakeCache(map[string]string{})
	env := &fakeReadEnv{}
	runtime := &fakeRuntime{}

	r := NewResolver(cache, env, runtime)
	_, err := r.Resolve(context.Background(), []string{"plugin-missing"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin-missing")
}

type rejectingVerifier struct{ err error }

func (v *rejectingVerifier) Verify(context.Context, string, []byte) error { return v.err }

func Test_Resolver_Resolve_signatureVerificationFailureForgetsCacheEntry(t *testing.T) {
	cache := newFakeCache(map[string]string{"plugin-a": "/cache/a.wasm"})
	env := &fakeReadEnv{bytes: map[string][]byte{"/cache/a.wasm": []byte("a")}}
	runtime := &fakeRuntime{}

	r := NewResolver(cache, env, runtime)
	r.Verifier = &rejectingVerifier{err: fmt.Errorf("signature mismatch")}

	_, err := r.Resolve(context.Background(), []string{"plugin-a"})

	require.Error(t, err)
	assert.Equal(t, 1, cache.forgotten["plugin-a"])
	assert.Empty(t, runtime.loaded)
}

func Test_Resolver_Resolve_signatureVerificationPassThrough(t *testing.T) {
	cache := newFakeCache(map[string]string{"plugin-a": "/cache/a.wasm"})
	env := &fakeReadEnv{bytes: map[string][]byte{"/cache/a.wasm": []byte("a")}}
	runtime := &fakeRuntime{}

	r := NewResolver(cache, env, runtime)
	r.Verifier = &rejectingVerifier{err: nil}

	handles, err := r.Resolve(context.Background(), []string{"plugin-a"})

	require.NoError(t, err)
	require.Len(t, handles, 1)
}
