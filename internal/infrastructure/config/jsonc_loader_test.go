package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_stripJSONComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line comment", "{\"a\": 1 // trailing\n}", "{\"a\": 1 \n}"},
		{"block comment", "{\"a\": /* inline */ 1}", "{\"a\":  1}"},
		{"slash inside string untouched", `{"a": "http://example.com"}`, `{"a": "http://example.com"}`},
		{"comment marker inside string untouched", `{"a": "// not a comment"}`, `{"a": "// not a comment"}`},
		{"escaped quote inside string", `{"a": "she said \"hi\" // ok"}`, `{"a": "she said \"hi\" // ok"}`},
		{"no comments", `{"a": 1}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stripJSONComments([]byte(tt.input))))
		})
	}
}

func Test_Load_parsesJSONCConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weft.jsonc")
	contents := `{
  // formatting config
  "includes": ["**/*.ts"],
  "excludes": ["**/*.gen.ts"], /* generated files */
  "plugins": ["https://example.com/ts.wasm"]
}`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	m, err := Load(path)
	require.NoError(t, err)

	includes, ok := m["includes"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"**/*.ts"}, includes)
}

func Test_Load_missingFileReturnsConfigMissingError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.jsonc"))
	require.Error(t, err)
}

func Test_Load_malformedJSONReturnsConfigParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weft.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
