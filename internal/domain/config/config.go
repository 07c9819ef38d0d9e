// Package config holds the plain configuration shapes passed between the
// Config Binder and the rest of the core. Both are literally "a mapping
// from string keys to primitive-typed string values" per spec, so no
// wrapper struct is introduced beyond a named type for readability.
package config

// GlobalConfiguration is what remains of the top-level config map after
// projectType, includes, excludes, plugins, and every plugin's own
// sub-object have been removed. Passed unchanged into every plugin.
type GlobalConfiguration map[string]string

// PluginConfig is the sub-object harvested for a single plugin, keyed by
// one of its config_keys.
type PluginConfig map[string]string

// Map is the raw, not-yet-partitioned configuration document: primitive
// string values, string-list values (includes/excludes/plugins), and
// nested string-map values (per-plugin sub-objects) all live at the top
// level of the same map.
type Map map[string]interface{}
