package redact

import "github.com/weftfmt/weft/internal/application/ports"

// Environment wraps a ports.Environment and scrubs its LogInfo/LogError
// calls, so plugin-originated diagnostics never leak a secret-shaped value
// the plugin itself was just configured with. Every other method (ReadFile,
// Glob, Download, ...) passes straight through via embedding.
type Environment struct {
	ports.Environment
	scrubber *Scrubber
}

// Wrap decorates env's logging calls with scrubbing.
func Wrap(env ports.Environment, scrubber *Scrubber) *Environment {
	return &Environment{Environment: env, scrubber: scrubber}
}

func (e *Environment) LogInfo(text string) {
	e.Environment.LogInfo(e.scrubber.Scrub(text))
}

func (e *Environment) LogError(text string) {
	e.Environment.LogError(e.scrubber.Scrub(text))
}
