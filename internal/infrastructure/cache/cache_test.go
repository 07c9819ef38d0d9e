package cache

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEnv struct {
	files     map[string]string
	bytes     map[string][]byte
	downloads map[string][]byte
	dir       string
}

func newMemEnv() *memEnv {
	return &memEnv{
		files:     map[string]string{},
		bytes:     map[string][]byte{},
		downloads: map[string][]byte{},
		dir:       "/cache",
	}
}

func (m *memEnv) ReadFile(path string) (string, error) {
	text, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("not found: %s", path)
	}
	return text, nil
}
func (m *memEnv) WriteFile(path, text string) error {
	m.files[path] = text
	return nil
}
func (m *memEnv) WriteFileBytes(path string, data []byte) error {
	m.bytes[path] = data
	return nil
}
func (m *memEnv) RemoveFile(path string) error {
	delete(m.bytes, path)
	delete(m.files, path)
	return nil
}
func (m *memEnv) Download(_ context.Context, url string) ([]byte, error) {
	data, ok := m.downloads[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return data, nil
}
func (m *memEnv) LogInfo(string)  {}
func (m *memEnv) LogError(string) {}
func (m *memEnv) CacheDir() (string, error) {
	return m.dir, nil
}

func identityCompile(raw []byte) ([]byte, error) { return raw, nil }

func Test_Cache_Resolve_downloadsCompilesAndPersistsOnMiss(t *testing.T) {
	env := newMemEnv()
	env.downloads["https://example.com/plugins/ts.wasm"] = []byte("wasm-bytes")

	c, err := New(env, identityCompile)
	require.NoError(t, err)

	path, err := c.Resolve(context.Background(), "https://example.com/plugins/ts.wasm")
	require.NoError(t, err)
	assert.Equal(t, "/cache/ts.compiled_wasm", path)
	assert.Equal(t, []byte("wasm-bytes"), env.bytes[path])
	assert.Contains(t, env.files, "/cache/cache-manifest.json")
}

func Test_Cache_Resolve_manifestHitSkipsDownload(t *testing.T) {
	env := newMemEnv()
	env.downloads["https://example.com/plugins/ts.wasm"] = []byte("wasm-bytes")

	c, err := New(env, identityCompile)
	require.NoError(t, err)
	_, err = c.Resolve(context.Background(), "https://example.com/plugins/ts.wasm")
	require.NoError(t, err)

	delete(env.downloads, "https://example.com/plugins/ts.wasm")
	path, err := c.Resolve(context.Background(), "https://example.com/plugins/ts.wasm")
	require.NoError(t, err)
	assert.Equal(t, "/cache/ts.compiled_wasm", path)
}

func Test_Cache_Resolve_collidingStemsGetSuffixed(t *testing.T) {
	env := newMemEnv()
	env.downloads["https://a.example.com/ts.wasm"] = []byte("a")
	env.downloads["https://b.example.com/ts.wasm"] = []byte("b")

	c, err := New(env, identityCompile)
	require.NoError(t, err)

	p1, err := c.Resolve(context.Background(), "https://a.example.com/ts.wasm")
	require.NoError(t, err)
	p2, err := c.Resolve(context.Background(), "https://b.example.com/ts.wasm")
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Equal(t, "/cache/ts.compiled_wasm", p1)
	assert.Equal(t, "/cache/ts_2.compiled_wasm", p2)
}

func Test_Cache_New_corruptManifestRecoversToEmpty(t *testing.T) {
	env := newMemEnv()
	env.files["/cache/cache-manifest.json"] = "{not json"

	c, err := New(env, identityCompile)
	require.NoError(t, err)
	assert.Empty(t, c.Entries())
}

func Test_Cache_Forget_removesEntryAndFile(t *testing.T) {
	env := newMemEnv()
	env.downloads["https://example.com/plugins/ts.wasm"] = []byte("wasm-bytes")

	c, err := New(env, identityCompile)
	require.NoError(t, err)
	path, err := c.Resolve(context.Background(), "https://example.com/plugins/ts.wasm")
	require.NoError(t, err)

	require.NoError(t, c.Forget("https://example.com/plugins/ts.wasm"))
	assert.Empty(t, c.Entries())
	assert.NotContains(t, env.bytes, path)
}

func Test_Cache_Forget_missingURLIsNotAnError(t *testing.T) {
	c, err := New(newMemEnv(), identityCompile)
	require.NoError(t, err)
	assert.NoError(t, c.Forget("https://nowhere.example.com/x.wasm"))
}

func Test_Cache_Clear_forgetsEveryEntry(t *testing.T) {
	env := newMemEnv()
	env.downloads["https://a.example.com/x.wasm"] = []byte("a")
	env.downloads["https://b.example.com/y.wasm"] = []byte("b")

	c, err := New(env, identityCompile)
	require.NoError(t, err)
	_, err = c.Resolve(context.Background(), "https://a.example.com/x.wasm")
	require.NoError(t, err)
	_, err = c.Resolve(context.Background(), "https://b.example.com/y.wasm")
	require.NoError(t, err)

	require.Len(t, c.Entries(), 2)
	require.NoError(t, c.Clear())
	assert.Empty(t, c.Entries())
}
