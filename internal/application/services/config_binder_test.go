package services

import (
	"bytes"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainconfig "github.com/weftfmt/weft/internal/domain/config"
	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/values"
)

// compileTestSchema mirrors the compiler idiom container.loadPluginSchemas
// uses in production: AddResource then Compile.
func compileTestSchema(t *testing.T, schemaJSON string) *jsonschema.Schema {
	t.Helper()
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	require.NoError(t, compiler.AddResource("schema.json", bytes.NewReader([]byte(schemaJSON))))
	schema, err := compiler.Compile("schema.json")
	require.NoError(t, err)
	return schema
}

type silentEnv struct{}

func (silentEnv) LogInfo(string)  {}
func (silentEnv) LogError(string) {}

func tsInfo(version string) plugin.Info {
	return plugin.Info{
		Name:           values.MustNewPluginName("typescript"),
		Version:        version,
		ConfigKeys:     []string{"typescript"},
		FileExtensions: []string{"ts"},
	}
}

func Test_ConfigBinder_Bind_minPluginVersionsSatisfied(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	raw := domainconfig.Map{
		"minPluginVersions": map[string]interface{}{
			"typescript": ">=1.0.0",
		},
	}

	_, _, err := b.Bind(raw, []plugin.Info{tsInfo("1.2.0")})

	require.NoError(t, err)
}

func Test_ConfigBinder_Bind_minPluginVersionsUnsatisfiedReturnsPluginVersionError(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	raw := domainconfig.Map{
		"minPluginVersions": map[string]interface{}{
			"typescript": ">=2.0.0",
		},
	}

	_, _, err := b.Bind(raw, []plugin.Info{tsInfo("1.2.0")})

	require.Error(t, err)
	var verErr *domainerrors.PluginVersionError
	require.ErrorAs(t, err, &verErr)
	assert.Equal(t, "typescript", verErr.PluginName)
}

func Test_ConfigBinder_Bind_minPluginVersionsKeyRemovedFromGlobal(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	raw := domainconfig.Map{
		"minPluginVersions": map[string]interface{}{
			"typescript": ">=1.0.0",
		},
		"lineWidth": float64(80),
	}

	global, _, err := b.Bind(raw, []plugin.Info{tsInfo("1.2.0")})

	require.NoError(t, err)
	_, ok := global["minPluginVersions"]
	assert.False(t, ok)
	assert.Equal(t, "80", global["lineWidth"])
}

func Test_ConfigBinder_Bind_minPluginVersionsMalformedConstraintIsConfigShapeError(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	raw := domainconfig.Map{
		"minPluginVersions": map[string]interface{}{
			"typescript": "not a constraint",
		},
	}

	_, _, err := b.Bind(raw, []plugin.Info{tsInfo("1.2.0")})

	require.Error(t, err)
	var shapeErr *domainerrors.ConfigShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func Test_ConfigBinder_Bind_schemaViolationReturnsConfigSemanticError(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	b.Schemas = map[string]*jsonschema.Schema{
		"typescript": compileTestSchema(t, `{
			"type": "object",
			"properties": {"indentWidth": {"type": "integer", "minimum": 1}},
			"additionalProperties": false
		}`),
	}
	raw := domainconfig.Map{
		"typescript": map[string]interface{}{"unknown": "oops"},
	}

	_, _, err := b.Bind(raw, []plugin.Info{tsInfo("1.0.0")})

	require.Error(t, err)
	var semErr *domainerrors.ConfigSemanticError
	assert.ErrorAs(t, err, &semErr)
}

func Test_ConfigBinder_Bind_schemaSatisfiedProducesNoDiagnostics(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	b.Schemas = map[string]*jsonschema.Schema{
		"typescript": compileTestSchema(t, `{
			"type": "object",
			"properties": {"indentWidth": {"type": "integer", "minimum": 1}},
			"additionalProperties": false
		}`),
	}
	raw := domainconfig.Map{
		"typescript": map[string]interface{}{"indentWidth": float64(2)},
	}

	_, pluginConfigs, err := b.Bind(raw, []plugin.Info{tsInfo("1.0.0")})

	require.NoError(t, err)
	assert.Equal(t, "2", pluginConfigs[0]["indentWidth"])
}

func Test_ConfigBinder_Bind_noMinVersionsIsUnaffected(t *testing.T) {
	b := NewConfigBinder(silentEnv{})
	raw := domainconfig.Map{}

	_, _, err := b.Bind(raw, []plugin.Info{tsInfo("not-a-semver-string")})

	require.NoError(t, err)
}
