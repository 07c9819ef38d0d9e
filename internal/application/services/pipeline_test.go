package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/values"
	"github.com/weftfmt/weft/internal/domain/work"
)

// scriptedHandle drives a fixed Outcome per Format call, in order, for
// exercising the Pipeline Driver's mismatch/write/error branches without a
// real WASM runtime.
type scriptedHandle struct {
	name        string
	outcomes    map[string]plugin.Outcome
	formatErr   map[string]error
	initErr     error
	closeCalled bool
}

func (s *scriptedHandle) Info() plugin.Info {
	return plugin.Info{Name: values.MustNewPluginName(s.name)}
}
func (s *scriptedHandle) Initialize(config.GlobalConfiguration, config.PluginConfig) error {
	return s.initErr
}
func (s *scriptedHandle) ResolvedConfig() (string, error) { return "{}", nil }
func (s *scriptedHandle) Format(path, text string) (plugin.Outcome, error) {
	if err, ok := s.formatErr[path]; ok {
		return plugin.Outcome{}, err
	}
	if o, ok := s.outcomes[path]; ok {
		return o, nil
	}
	return plugin.Outcome{Kind: plugin.Unchanged, Text: text}, nil
}
func (s *scriptedHandle) Close() error {
	s.closeCalled = true
	return nil
}

type memFileIO struct {
	files   map[string]string
	written map[string]string
}

func newMemFileIO(files map[string]string) *memFileIO {
	return &memFileIO{files: files, written: map[string]string{}}
}
func (m *memFileIO) ReadFile(path string) (string, error) {
	text, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return text, nil
}
func (m *memFileIO) WriteFile(path, text string) error {
	m.written[path] = text
	return nil
}
func (m *memFileIO) LogInfo(string)  {}
func (m *memFileIO) LogError(string) {}

type recordingReporter struct {
	findings []Finding
}

func (r *recordingReporter) Report(f Finding) { r.findings = append(r.findings, f) }

func Test_Pipeline_Run_writeModeRewritesChangedFiles(t *testing.T) {
	handle := &scriptedHandle{
		name: "trimspace",
		outcomes: map[string]plugin.Outcome{
			"a.txt": {Kind: plugin.Formatted, Text: "trimmed\n"},
		},
	}
	env := newMemFileIO(map[string]string{"a.txt": "trimmed \n"})

	p := NewPipeline(env, config.GlobalConfiguration{})
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"a.txt"}}}, Write)

	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.Formatted())
	assert.EqualValues(t, 0, counters.Mismatch())
	assert.EqualValues(t, 0, counters.Errors())
	assert.Equal(t, "trimmed\n", env.written["a.txt"])
	assert.True(t, handle.closeCalled)
}

func Test_Pipeline_Run_checkModeReportsMismatchWithoutWriting(t *testing.T) {
	handle := &scriptedHandle{
		name: "trimspace",
		outcomes: map[string]plugin.Outcome{
			"a.txt": {Kind: plugin.Formatted, Text: "trimmed\n"},
		},
	}
	env := newMemFileIO(map[string]string{"a.txt": "trimmed \n"})
	reporter := &recordingReporter{}

	p := NewPipeline(env, config.GlobalConfiguration{})
	p.Reporter = reporter
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"a.txt"}}}, Check)

	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.Mismatch())
	assert.Empty(t, env.written)
	require.Len(t, reporter.findings, 1)
	assert.Equal(t, "a.txt", reporter.findings[0].Path)
	assert.False(t, reporter.findings[0].IsError)

	require.Error(t, p.Conclude(Check, counters))
}

func Test_Pipeline_Run_identicalTextIsNotCountedAsMismatch(t *testing.T) {
	handle := &scriptedHandle{
		name: "trimspace",
		outcomes: map[string]plugin.Outcome{
			"a.txt": {Kind: plugin.Formatted, Text: "same\n"},
		},
	}
	env := newMemFileIO(map[string]string{"a.txt": "same\n"})

	p := NewPipeline(env, config.GlobalConfiguration{})
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"a.txt"}}}, Check)

	require.NoError(t, err)
	assert.EqualValues(t, 0, counters.Mismatch())
	assert.NoError(t, p.Conclude(Check, counters))
}

func Test_Pipeline_Run_pluginErrorIsCountedAndReported(t *testing.T) {
	handle := &scriptedHandle{
		name: "trimspace",
		outcomes: map[string]plugin.Outcome{
			"bad.txt": {Kind: plugin.Error, Error: "unexpected token"},
		},
	}
	env := newMemFileIO(map[string]string{"bad.txt": "{{"})
	reporter := &recordingReporter{}

	p := NewPipeline(env, config.GlobalConfiguration{})
	p.Reporter = reporter
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"bad.txt"}}}, Write)

	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.Errors())
	require.Len(t, reporter.findings, 1)
	assert.True(t, reporter.findings[0].IsError)
	require.Error(t, p.Conclude(Write, counters))
}

func Test_Pipeline_Run_initializeErrorCountsAsErrorWithoutPanicking(t *testing.T) {
	handle := &scriptedHandle{name: "trimspace", initErr: fmt.Errorf("bad config")}
	env := newMemFileIO(map[string]string{"a.txt": "x"})

	p := NewPipeline(env, config.GlobalConfiguration{})
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"a.txt"}}}, Write)

	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.Errors())
}

// panicHandle always panics inside Format, to exercise runWorker's panic
// recovery boundary (spec §5).
type panicHandle struct{ scriptedHandle }

func (p *panicHandle) Format(path, text string) (plugin.Outcome, error) {
	panic("boom")
}

func Test_Pipeline_Run_panicDuringFormatIsRecoveredAndCounted(t *testing.T) {
	handle := &panicHandle{scriptedHandle: scriptedHandle{name: "trimspace"}}
	env := newMemFileIO(map[string]string{"a.txt": "x"})

	p := NewPipeline(env, config.GlobalConfiguration{})
	counters, err := p.Run(context.Background(), []work.Unit{{Handle: handle, FilePaths: []string{"a.txt"}}}, Write)

	require.NoError(t, err)
	assert.EqualValues(t, 1, counters.Errors())
}
