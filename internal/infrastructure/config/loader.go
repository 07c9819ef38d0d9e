// Package config loads the JSON-with-comments configuration document
// described in spec §6 into the raw config.Map the Config Binder consumes.
//
// JSONC search: none of the example repos or other_examples/ files import a
// JSONC/HuJSON/JSON5 library (grep -rli "jsonc\|hujson\|json5" --include=go.mod
// across the whole pack returned zero matches), so this adapter strips
// comments by hand and delegates to encoding/json — see DESIGN.md's "JSONC
// search" entry. The path-traversal-safe open pattern (os.OpenRoot scoped to
// the config file's directory) is grounded on the teacher's
// internal/infrastructure/config/profile_loader.go.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"os"

	domainconfig "github.com/weftfmt/weft/internal/domain/config"
	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
)

// Load reads, strips comments from, and parses the config file at path.
func Load(path string) (domainconfig.Map, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, domainerrors.NewConfigMissingError(path)
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		return nil, domainerrors.NewConfigMissingError(path)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var m domainconfig.Map
	if err := json.Unmarshal(stripJSONComments(raw), &m); err != nil {
		return nil, domainerrors.NewConfigParseError(err)
	}
	return m, nil
}

// stripJSONComments removes // line comments and /* block */ comments that
// fall outside JSON string literals, leaving valid JSON for encoding/json.
func stripJSONComments(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			i--
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && !(data[i] == '*' && data[i+1] == '/') {
				i++
			}
			i++
		default:
			out = append(out, c)
		}
	}
	return out
}
