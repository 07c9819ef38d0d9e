// Command jsonfmt is a reference weft plugin that re-indents JSON
// documents with a configurable indent width, rejecting malformed JSON as
// a format-time error rather than a silent no-op.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	weft "github.com/weftfmt/weft/sdk/go"
)

func init() {
	weft.Register(weft.Plugin{
		Name:           "jsonfmt",
		Version:        "0.1.0",
		ConfigKeys:     []string{"indentWidth"},
		FileExtensions: []string{"json", "jsonc"},
		Bind:           bindConfig,
		Format:         format,
	})
}

type pluginConfig struct {
	IndentWidth int `json:"indentWidth"`
}

var indent = "  "

func bindConfig(global, local json.RawMessage) (json.RawMessage, []weft.Diagnostic) {
	cfg := pluginConfig{IndentWidth: 2}
	if len(local) > 0 {
		if err := json.Unmarshal(local, &cfg); err != nil {
			return nil, []weft.Diagnostic{{Message: fmt.Sprintf("invalid config: %s", err)}}
		}
	}
	if cfg.IndentWidth < 0 || cfg.IndentWidth > 16 {
		return nil, []weft.Diagnostic{{Message: "indentWidth must be between 0 and 16"}}
	}
	indent = strings.Repeat(" ", cfg.IndentWidth)
	resolved, _ := json.Marshal(cfg)
	return resolved, nil
}

func format(path string, text string) (string, error) {
	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return "", fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("%s: re-encoding JSON: %w", path, err)
	}
	return buf.String(), nil
}
