// Command trimspace is a reference weft plugin: it strips trailing
// whitespace from every line, collapses runs of blank lines beyond a
// configurable limit, and ensures the file ends with exactly one newline.
// It exists to exercise the full guest-side SDK (internal/sdk/go) and the
// host's byte-transfer protocol end to end with a formatter simple enough
// to read in one sitting.
package main

import (
	"encoding/json"
	"fmt"
	"strings"

	weft "github.com/weftfmt/weft/sdk/go"
)

func init() {
	weft.Register(weft.Plugin{
		Name:           "trimspace",
		Version:        "0.1.0",
		ConfigKeys:     []string{"maxConsecutiveBlankLines"},
		FileExtensions: []string{"txt", "md"},
		Bind:           bindConfig,
		Format:         format,
	})
}

type pluginConfig struct {
	MaxConsecutiveBlankLines int `json:"maxConsecutiveBlankLines"`
}

func bindConfig(global, local json.RawMessage) (json.RawMessage, []weft.Diagnostic) {
	cfg := pluginConfig{MaxConsecutiveBlankLines: 1}
	if len(local) > 0 {
		if err := json.Unmarshal(local, &cfg); err != nil {
			return nil, []weft.Diagnostic{{Message: fmt.Sprintf("invalid config: %s", err)}}
		}
	}
	if cfg.MaxConsecutiveBlankLines < 0 {
		return nil, []weft.Diagnostic{{Message: "maxConsecutiveBlankLines must be >= 0"}}
	}
	resolvedMaxBlankLines = cfg.MaxConsecutiveBlankLines
	resolved, _ := json.Marshal(cfg)
	return resolved, nil
}

func format(_ string, text string) (string, error) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if line == "" {
			blanks++
			if blanks > resolvedMaxBlankLines {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}

	result := strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n"
	return result, nil
}

// resolvedMaxBlankLines is set by bindConfig's caller via rebind; kept as a
// package var since format only receives path+text per spec §4.C, not the
// resolved config (the host never re-sends config on format, matching the
// wire protocol's one-time set_global_config/set_plugin_config sequence).
var resolvedMaxBlankLines = 1
