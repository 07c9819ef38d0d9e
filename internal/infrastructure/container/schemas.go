package container

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaFileSuffix names a per-plugin JSON Schema file under SchemaDir:
// typescript.schema.json applies to the "typescript" plugin.
const schemaFileSuffix = ".schema.json"

// loadPluginSchemas compiles every "<pluginName>.schema.json" file under
// dir into the map ConfigBinder.Schemas consumes, following the compiler
// idiom from the teacher's internal/config/validation.go SchemaCompiler
// (AddResource + Compile, one compiler per schema to keep draft/resource
// names from colliding across plugins).
func loadPluginSchemas(dir string) (map[string]*jsonschema.Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading schema directory %s: %w", dir, err)
	}

	schemas := make(map[string]*jsonschema.Schema)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), schemaFileSuffix) {
			continue
		}
		pluginName := strings.TrimSuffix(entry.Name(), schemaFileSuffix)

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading schema for %s: %w", pluginName, err)
		}

		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("adding schema resource for %s: %w", pluginName, err)
		}
		schema, err := compiler.Compile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", pluginName, err)
		}
		schemas[pluginName] = schema
	}
	return schemas, nil
}
