package services

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	domainconfig "github.com/weftfmt/weft/internal/domain/config"
	domainerrors "github.com/weftfmt/weft/internal/domain/errors"
	"github.com/weftfmt/weft/internal/domain/plugin"
)

// reservedTopLevelKeys are removed from the raw config map before the
// remainder is partitioned between plugins and the GlobalConfiguration.
var reservedTopLevelKeys = []string{"projectType", "includes", "excludes", "plugins", "minPluginVersions"}

// Diagnostic is one config-resolution diagnostic, logged and counted by the
// Config Binder.
type Diagnostic struct {
	Plugin  string
	Message string
}

// ConfigBinder implements spec §4.F: split the raw config map into a
// GlobalConfiguration and, per plugin, a PluginConfig.
type ConfigBinder struct {
	env Environment2

	// Schemas, if non-nil, maps a plugin name to a compiled JSON Schema its
	// harvested PluginConfig is validated against — a DOMAIN STACK addition
	// beyond spec §4.F, additive only: a plugin with no schema here behaves
	// exactly per the base algorithm.
	Schemas map[string]*jsonschema.Schema
}

// Environment2 is the logging subset of ports.Environment the Config
// Binder needs (named distinctly from services.Environment, which is the
// Resolver's narrower file-reading subset).
type Environment2 interface {
	LogInfo(text string)
	LogError(text string)
}

// NewConfigBinder constructs a ConfigBinder.
func NewConfigBinder(env Environment2) *ConfigBinder {
	return &ConfigBinder{env: env}
}

// Bind partitions raw per spec §4.F's five-step algorithm.
func (b *ConfigBinder) Bind(raw domainconfig.Map, infos []plugin.Info) (domainconfig.GlobalConfiguration, []domainconfig.PluginConfig, error) {
	work := make(domainconfig.Map, len(raw))
	for k, v := range raw {
		work[k] = v
	}

	// Step 1: remove projectType, warning (not failing) if absent/unrecognized.
	if _, ok := work["projectType"]; !ok {
		b.env.LogInfo("warning: no 'projectType' specified in configuration")
	}
	delete(work, "projectType")

	// Step 2: remove includes/excludes/plugins for glob/resolver pipelines,
	// and an optional minPluginVersions map (plugin name -> semver
	// constraint, e.g. ">=1.2.0") enforced against each Handle's reported
	// Info.Version below.
	delete(work, "includes")
	delete(work, "excludes")
	delete(work, "plugins")
	minVersions, err := extractMinVersions(work["minPluginVersions"])
	if err != nil {
		return nil, nil, domainerrors.NewConfigShapeError("minPluginVersions: %s", err)
	}
	delete(work, "minPluginVersions")

	// Step 3: for each handle, scan its config_keys in order.
	pluginConfigs := make([]domainconfig.PluginConfig, len(infos))
	for i, info := range infos {
		if constraint, ok := minVersions[info.Name.String()]; ok {
			if err := checkMinVersion(info, constraint); err != nil {
				return nil, nil, err
			}
		}

		var matchedKey string
		matchCount := 0
		for _, key := range info.ConfigKeys {
			if _, ok := work[key]; ok {
				matchCount++
				if matchCount == 1 {
					matchedKey = key
				}
			}
		}
		if matchCount > 1 {
			return nil, nil, domainerrors.NewConfigShapeError(
				"cannot specify both %s and another config key for %s", matchedKey, info.Name.String())
		}
		if matchCount == 1 {
			raw, ok := work[matchedKey].(map[string]interface{})
			if !ok {
				return nil, nil, domainerrors.NewConfigShapeError(
					"expected the configuration property %q to be an object", matchedKey)
			}
			pc, err := toPluginConfig(raw)
			if err != nil {
				return nil, nil, domainerrors.NewConfigShapeError(
					"invalid configuration for %s: %s", info.Name.String(), err)
			}
			pluginConfigs[i] = pc
			delete(work, matchedKey)

			if schema, ok := b.Schemas[info.Name.String()]; ok && schema != nil {
				diags := validateAgainstSchema(schema, raw)
				for _, d := range diags {
					b.env.LogError(fmt.Sprintf("[%s]: %s", info.Name.String(), d))
				}
				if len(diags) > 0 {
					return nil, nil, domainerrors.NewConfigSemanticError(len(diags))
				}
			}
		} else {
			pluginConfigs[i] = domainconfig.PluginConfig{}
		}
	}

	// Step 4: what remains must be entirely primitive string values.
	global := make(domainconfig.GlobalConfiguration, len(work))
	keys := make([]string, 0, len(work))
	for k := range work {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok := asPrimitiveString(work[k])
		if !ok {
			return nil, nil, domainerrors.NewConfigShapeError("unexpected object property %q", k)
		}
		global[k] = s
	}

	// Step 5: resolution diagnostics would be surfaced here by a plugin's
	// own get_config_diagnostics call once initialized; the Config Binder
	// itself has no further diagnostics to raise once steps 1-4 succeed.
	return global, pluginConfigs, nil
}

func toPluginConfig(raw map[string]interface{}) (domainconfig.PluginConfig, error) {
	pc := make(domainconfig.PluginConfig, len(raw))
	for k, v := range raw {
		s, ok := asPrimitiveString(v)
		if !ok {
			return nil, fmt.Errorf("property %q must be a primitive value", k)
		}
		pc[k] = s
	}
	return pc, nil
}

func asPrimitiveString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	case float64:
		return fmt.Sprintf("%g", t), true
	default:
		return "", false
	}
}

// extractMinVersions reads the optional minPluginVersions object into a
// plugin-name -> constraint-string map. A missing key yields an empty map.
func extractMinVersions(raw interface{}) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an object mapping plugin name to a version constraint")
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("constraint for %q must be a string", k)
		}
		out[k] = s
	}
	return out, nil
}

// checkMinVersion enforces a semver constraint against a plugin's
// self-reported Info.Version, using the same library the teacher reaches
// for wherever it parses or orders version strings.
func checkMinVersion(info plugin.Info, constraintStr string) error {
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return domainerrors.NewConfigShapeError(
			"minPluginVersions: invalid constraint %q for %s: %s", constraintStr, info.Name.String(), err)
	}
	have, err := semver.NewVersion(info.Version)
	if err != nil {
		return domainerrors.NewPluginVersionError(info.Name.String(), info.Version, constraintStr)
	}
	if !constraint.Check(have) {
		return domainerrors.NewPluginVersionError(info.Name.String(), info.Version, constraintStr)
	}
	return nil
}

func validateAgainstSchema(schema *jsonschema.Schema, raw map[string]interface{}) []string {
	if err := schema.Validate(raw); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			var diags []string
			for _, cause := range ve.Causes {
				diags = append(diags, cause.Error())
			}
			if len(diags) == 0 {
				diags = append(diags, ve.Error())
			}
			return diags
		}
		return []string{err.Error()}
	}
	return nil
}
