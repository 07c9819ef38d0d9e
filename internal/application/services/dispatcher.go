package services

import (
	"path/filepath"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/work"
)

// FileMeta is the small per-file context a selector expression evaluates
// against, supplementing plain extension matching (spec §4.G's bucketing
// rule is always applied first; a selector can only further narrow it).
type FileMeta struct {
	Path string
	Ext  string
	Size int64
}

// StatFunc resolves a file's size for selector evaluation. When nil,
// selectors see Size == 0.
type StatFunc func(path string) (int64, error)

// Dispatcher is the Dispatcher (spec §4.G): given resolved file paths and a
// list of ready-to-init handles, build one WorkUnit per plugin whose bucket
// is non-empty.
type Dispatcher struct {
	stat StatFunc
	// Selectors optionally maps a plugin name to a compiled expr-lang
	// expression over FileMeta; a file bucketed to that plugin by extension
	// is dropped from its WorkUnit if the expression evaluates false.
	Selectors map[string]*vm.Program
}

// NewDispatcher constructs a Dispatcher. stat may be nil if no selector
// inspects file size.
func NewDispatcher(stat StatFunc) *Dispatcher {
	return &Dispatcher{stat: stat}
}

// CompileSelector compiles a boolean expr-lang expression against FileMeta,
// for use in Selectors.
func CompileSelector(expression string) (*vm.Program, error) {
	return expr.Compile(expression, expr.Env(FileMeta{}), expr.AsBool())
}

// handleConfig pairs a handle with its resolved PluginConfig, the input the
// Dispatcher is given per spec §4.G.
type handleConfig struct {
	handle work.Handle
	config config.PluginConfig
}

// Dispatch buckets files by lowercase extension, selecting the FIRST plugin
// (in input order) whose file_extensions contains that extension. Files
// without a matching plugin are silently dropped. Plugins with zero matched
// files produce no WorkUnit.
func (d *Dispatcher) Dispatch(files []string, handles []work.Handle, pluginConfigs []config.PluginConfig) []work.Unit {
	pairs := make([]handleConfig, len(handles))
	for i := range handles {
		pairs[i] = handleConfig{handle: handles[i], config: pluginConfigs[i]}
	}

	buckets := make([][]string, len(pairs))
	for _, f := range files {
		ext := lowercaseExt(f)
		if ext == "" {
			continue
		}
		idx := d.firstMatch(pairs, ext)
		if idx < 0 {
			continue
		}
		if d.passesSelector(pairs[idx].handle, f) {
			buckets[idx] = append(buckets[idx], f)
		}
	}

	var units []work.Unit
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		units = append(units, work.Unit{
			Handle:       pairs[i].handle,
			PluginConfig: pairs[i].config,
			FilePaths:    bucket,
		})
	}
	return units
}

func (d *Dispatcher) firstMatch(pairs []handleConfig, ext string) int {
	for i, p := range pairs {
		if p.handle.Info().HasExtension(ext) {
			return i
		}
	}
	return -1
}

func (d *Dispatcher) passesSelector(h work.Handle, path string) bool {
	if d.Selectors == nil {
		return true
	}
	program, ok := d.Selectors[h.Info().Name.String()]
	if !ok {
		return true
	}
	var size int64
	if d.stat != nil {
		if s, err := d.stat(path); err == nil {
			size = s
		}
	}
	meta := FileMeta{Path: path, Ext: lowercaseExt(path), Size: size}
	result, err := expr.Run(program, meta)
	if err != nil {
		return true
	}
	ok2, _ := result.(bool)
	return ok2
}

func lowercaseExt(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
