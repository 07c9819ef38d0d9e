package services

import (
	"testing"

	"github.com/expr-lang/expr/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/values"
	"github.com/weftfmt/weft/internal/domain/work"
)

type fakeHandle struct {
	info plugin.Info
}

func (f *fakeHandle) Info() plugin.Info { return f.info }
func (f *fakeHandle) Initialize(config.GlobalConfiguration, config.PluginConfig) error {
	return nil
}
func (f *fakeHandle) ResolvedConfig() (string, error) { return "{}", nil }
func (f *fakeHandle) Format(_, text string) (plugin.Outcome, error) {
	return plugin.Outcome{Kind: plugin.Unchanged, Text: text}, nil
}
func (f *fakeHandle) Close() error { return nil }

func newFakeHandle(name string, exts ...string) *fakeHandle {
	return &fakeHandle{info: plugin.Info{
		Name:           values.MustNewPluginName(name),
		FileExtensions: exts,
	}}
}

func Test_Dispatcher_Dispatch_bucketsByFirstMatchingPlugin(t *testing.T) {
	ts := newFakeHandle("ts", "ts", "tsx")
	md := newFakeHandle("markdown", "md")

	d := NewDispatcher(nil)
	units := d.Dispatch(
		[]string{"a.ts", "b.MD", "c.go", "d.tsx"},
		[]work.Handle{ts, md},
		[]config.PluginConfig{{}, {}},
	)

	require.Len(t, units, 2)
	assert.Equal(t, "ts", units[0].Handle.Info().Name.String())
	assert.ElementsMatch(t, []string{"a.ts", "d.tsx"}, units[0].FilePaths)
	assert.Equal(t, "markdown", units[1].Handle.Info().Name.String())
	assert.Equal(t, []string{"b.MD"}, units[1].FilePaths)
}

func Test_Dispatcher_Dispatch_firstPluginWins(t *testing.T) {
	first := newFakeHandle("first", "ts")
	second := newFakeHandle("second", "ts")

	d := NewDispatcher(nil)
	units := d.Dispatch([]string{"a.ts"}, []work.Handle{first, second}, []config.PluginConfig{{}, {}})

	require.Len(t, units, 1)
	assert.Equal(t, "first", units[0].Handle.Info().Name.String())
}

func Test_Dispatcher_Dispatch_emptyBucketProducesNoUnit(t *testing.T) {
	ts := newFakeHandle("ts", "ts")

	d := NewDispatcher(nil)
	units := d.Dispatch([]string{"a.go"}, []work.Handle{ts}, []config.PluginConfig{{}})

	assert.Empty(t, units)
}

func Test_Dispatcher_Dispatch_selectorNarrowsBucket(t *testing.T) {
	ts := newFakeHandle("ts", "ts")
	program, err := CompileSelector(`Size < 100`)
	require.NoError(t, err)

	d := NewDispatcher(func(path string) (int64, error) {
		if path == "big.ts" {
			return 1000, nil
		}
		return 10, nil
	})
	d.Selectors = map[string]*vm.Program{"ts": program}

	units := d.Dispatch([]string{"small.ts", "big.ts"}, []work.Handle{ts}, []config.PluginConfig{{}})

	require.Len(t, units, 1)
	assert.Equal(t, []string{"small.ts"}, units[0].FilePaths)
}
