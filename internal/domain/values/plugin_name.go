// Package values holds small validated value objects shared across the
// domain and application layers.
package values

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PluginName is a non-empty plugin identifier. It is a value object rather
// than a bare string so that "a plugin name" can't silently be an empty or
// whitespace-only string anywhere it's threaded through the core.
type PluginName struct {
	value string
}

// NewPluginName validates and wraps name.
func NewPluginName(name string) (PluginName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PluginName{}, fmt.Errorf("plugin name cannot be empty")
	}
	return PluginName{value: name}, nil
}

// MustNewPluginName creates a PluginName or panics; reserved for literals in
// tests and fixtures where the value is known to be valid.
func MustNewPluginName(name string) PluginName {
	pn, err := NewPluginName(name)
	if err != nil {
		panic(err)
	}
	return pn
}

// String returns the string representation.
func (p PluginName) String() string {
	return p.value
}

// IsEmpty returns true if this is the zero value.
func (p PluginName) IsEmpty() bool {
	return p.value == ""
}

// Equals checks if two plugin names are equal.
func (p PluginName) Equals(other PluginName) bool {
	return p.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (p PluginName) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *PluginName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	name, err := NewPluginName(s)
	if err != nil {
		return err
	}
	*p = name
	return nil
}
