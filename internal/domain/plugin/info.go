// Package plugin holds the data shapes a loaded formatting plugin exposes to
// the rest of the core, independent of how the plugin is actually hosted.
package plugin

import "github.com/weftfmt/weft/internal/domain/values"

// Info is a plugin's self-description, returned once from the guest and
// cached for the lifetime of its Handle. Immutable after load.
type Info struct {
	Name            values.PluginName `json:"name"`
	Version         string            `json:"version"`
	ConfigKeys      []string          `json:"configKeys"`
	FileExtensions  []string          `json:"fileExtensions"`
}

// HasExtension reports whether ext (already lowercased, no leading dot) is
// one of the extensions this plugin claims.
func (i Info) HasExtension(ext string) bool {
	for _, e := range i.FileExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// OutcomeKind is the three-valued result of a single format call.
type OutcomeKind int

const (
	Unchanged OutcomeKind = iota
	Formatted
	Error
)

// Outcome is the result of formatting one file with one plugin.
type Outcome struct {
	Kind  OutcomeKind
	Text  string // populated when Kind == Formatted
	Error string // populated when Kind == Error
}
