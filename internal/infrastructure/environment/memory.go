package environment

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Memory is an in-memory Environment Port test double, grounded on
// original_source's test_environment.rs (add_remote_file,
// get_logged_errors): a fake with real backing state rather than a mocking
// framework, matching how the corpus tests an environment-shaped port.
type Memory struct {
	mu sync.Mutex

	files      map[string][]byte
	remote     map[string][]byte
	loggedInfo []string
	loggedErr  []string
	cacheDir   string
}

// NewMemory constructs an empty Memory environment whose cache directory is
// a fixed virtual path, matching the Rust TestEnvironment's "/cache".
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string][]byte),
		remote:   make(map[string][]byte),
		cacheDir: "/cache",
	}
}

// AddFile seeds a file's content, as if it had been written to disk before
// the test began.
func (m *Memory) AddFile(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(content)
}

// AddRemoteFile seeds a "downloadable" URL's bytes.
func (m *Memory) AddRemoteFile(url string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remote[url] = content
}

// LoggedInfo returns every line logged to the info stream, in order.
func (m *Memory) LoggedInfo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loggedInfo))
	copy(out, m.loggedInfo)
	return out
}

// LoggedErrors returns every line logged to the error stream, in order.
func (m *Memory) LoggedErrors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loggedErr))
	copy(out, m.loggedErr)
	return out
}

func (m *Memory) ReadFile(path string) (string, error) {
	b, err := m.ReadFileBytes(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (m *Memory) ReadFileBytes(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) WriteFile(path string, text string) error {
	return m.WriteFileBytes(path, []byte(text))
}

func (m *Memory) WriteFileBytes(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(data))
	copy(out, data)
	m.files[path] = out
	return nil
}

func (m *Memory) RemoveFile(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) RemoveDir(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range m.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	return nil
}

func (m *Memory) PathExists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

// Glob matches the in-memory file set against the given include/exclude
// patterns, using the same doublestar matcher as Real so test behavior
// mirrors production behavior.
func (m *Memory) Glob(patterns []string) ([]string, error) {
	m.mu.Lock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, strings.TrimPrefix(p, "/"))
	}
	m.mu.Unlock()
	sort.Strings(paths)

	var includes, excludes []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, strings.TrimPrefix(p, "!"))
		} else {
			includes = append(includes, p)
		}
	}

	matched := make(map[string]bool)
	var ordered []string
	for _, pattern := range includes {
		for _, p := range paths {
			ok, err := doublestar.Match(pattern, p)
			if err != nil {
				return nil, err
			}
			if ok && !matched[p] {
				matched[p] = true
				ordered = append(ordered, "/"+p)
			}
		}
	}

	if len(excludes) == 0 {
		return ordered, nil
	}

	excluded := make(map[string]bool)
	for _, pattern := range excludes {
		for _, p := range paths {
			ok, err := doublestar.Match(pattern, p)
			if err == nil && ok {
				excluded["/"+p] = true
			}
		}
	}

	result := ordered[:0]
	for _, p := range ordered {
		if !excluded[p] {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *Memory) Download(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.remote[url]
	if !ok {
		return nil, fmt.Errorf("error downloading: %s. status: 404 Not Found", url)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) LogInfo(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedInfo = append(m.loggedInfo, text)
}

func (m *Memory) LogError(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loggedErr = append(m.loggedErr, text)
}

func (m *Memory) CacheDir() (string, error) {
	return m.cacheDir, nil
}
