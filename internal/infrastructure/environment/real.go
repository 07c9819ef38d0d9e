// Package environment provides the two conforming Environment Port
// implementations spec §4.A calls for: Real (OS-backed) and Memory
// (in-memory, for tests).
package environment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Real is the OS-backed Environment Port implementation, grounded on
// original_source's real_environment.rs: a mutex serializes the two log
// streams exactly as that file's output_lock does, translated here into
// Go's log/slog the way the teacher (reglet-dev-reglet) builds its handler
// in cmd/reglet/root.go.
type Real struct {
	logger  *slog.Logger
	mu      sync.Mutex
	client  *http.Client
	appName string
}

// NewReal constructs a Real environment. appName names the subdirectory
// under the platform cache directory (e.g. "weft").
func NewReal(logger *slog.Logger, appName string) *Real {
	return &Real{
		logger:  logger,
		client:  &http.Client{Timeout: 2 * time.Minute},
		appName: appName,
	}
}

func (r *Real) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Real) ReadFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *Real) WriteFile(path string, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

func (r *Real) WriteFileBytes(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func (r *Real) RemoveFile(path string) error {
	return os.Remove(path)
}

func (r *Real) RemoveDir(path string) error {
	return os.RemoveAll(path)
}

func (r *Real) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Glob expands an ordered list of include/exclude patterns, a "!" prefix
// denoting exclusion, over the current working directory. doublestar has no
// native exclusion syntax, so includes and excludes are matched separately
// and the excluded set is subtracted.
func (r *Real) Glob(patterns []string) ([]string, error) {
	var includes, excludes []string
	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			excludes = append(excludes, strings.TrimPrefix(p, "!"))
		} else {
			includes = append(includes, p)
		}
	}

	fsys := os.DirFS(".")
	seen := make(map[string]bool)
	var ordered []string
	for _, pattern := range includes {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error parsing file pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ordered = append(ordered, m)
			}
		}
	}

	if len(excludes) == 0 {
		return ordered, nil
	}

	excluded := make(map[string]bool)
	for _, pattern := range excludes {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("error parsing exclude pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			excluded[m] = true
		}
	}

	result := ordered[:0]
	for _, m := range ordered {
		if !excluded[m] {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *Real) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error downloading: %s. status: %s", url, resp.Status)
	}

	r.LogInfo(fmt.Sprintf("Downloading %s", url))
	return io.ReadAll(resp.Body)
}

func (r *Real) LogInfo(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info(text)
}

func (r *Real) LogError(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Error(text)
}

func (r *Real) CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("error getting cache directory: %w", err)
	}
	dir := filepath.Join(base, r.appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating cache directory: %w", err)
	}
	return dir, nil
}
