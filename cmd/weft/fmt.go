package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/weftfmt/weft/internal/application/services"
	domainconfig "github.com/weftfmt/weft/internal/domain/config"
	"github.com/weftfmt/weft/internal/domain/plugin"
	"github.com/weftfmt/weft/internal/domain/work"
	"github.com/weftfmt/weft/internal/infrastructure/config"
	"github.com/weftfmt/weft/internal/infrastructure/output"
)

func init() {
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newCheckCmd())
}

func newFmtCmd() *cobra.Command {
	opts := DefaultCommonOptions()
	var sarifPath string
	var outputResolvedConfig bool

	cmd := &cobra.Command{
		Use:     "fmt [patterns...]",
		Aliases: []string{"format"},
		Short:   "Format files in place",
		Long: `Load the configuration file, resolve every configured plugin, and
format every matched file, rewriting any file a plugin reports as changed.`,
		Example: `  weft fmt
  weft fmt src/**/*.ts`,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			return runFormat(ctx, services.Write, args, sarifPath, outputResolvedConfig, opts.AllowNodeModules)
		}),
	}

	opts.RegisterFlags(cmd)
	addCommonFlags(cmd)
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "write a SARIF report of mismatched/errored files to this path")
	cmd.Flags().BoolVar(&outputResolvedConfig, "output-resolved-config", false,
		"print the resolved global and per-plugin configuration as JSON and exit without formatting")
	return cmd
}

func newCheckCmd() *cobra.Command {
	opts := DefaultCommonOptions()
	var sarifPath string
	var outputResolvedConfig bool

	cmd := &cobra.Command{
		Use:   "check [patterns...]",
		Short: "Verify files are formatted without writing",
		Long: `Load the configuration file, resolve every configured plugin, and
report any matched file a plugin would change, without rewriting it. Exits
non-zero when any file is not formatted.`,
		Example: `  weft check
  weft check src/**/*.ts`,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			if err := opts.ValidateFlags(); err != nil {
				return err
			}
			return runFormat(ctx, services.Check, args, sarifPath, outputResolvedConfig, opts.AllowNodeModules)
		}),
	}

	opts.RegisterFlags(cmd)
	addCommonFlags(cmd)
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "write a SARIF report of mismatched/errored files to this path")
	cmd.Flags().BoolVar(&outputResolvedConfig, "output-resolved-config", false,
		"print the resolved global and per-plugin configuration as JSON and exit without formatting")
	return cmd
}

// resolvedConfigEnvelope is the JSON shape printed by --output-resolved-config,
// tagged with a UUID run-correlation ID distinct from the request ID
// logged for this CLI invocation.
type resolvedConfigEnvelope struct {
	RunID         string                                `json:"runId"`
	Global        domainconfig.GlobalConfiguration       `json:"global"`
	PluginConfigs map[string]domainconfig.PluginConfig   `json:"pluginConfigs"`
}

// runFormat is the shared fmt/check pipeline: load config, resolve
// plugins, bind config, glob files, dispatch, and run the Pipeline Driver.
func runFormat(cmdCtx *CommandContext, mode services.Mode, patternArgs []string, sarifPath string, outputResolvedConfig bool, allowNodeModules bool) error {
	ctx := cmdCtx.Context
	c := cmdCtx.Container

	raw, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	includes, excludes, pluginURLs, err := extractConfigLists(raw)
	if err != nil {
		return err
	}
	if len(patternArgs) > 0 {
		includes = patternArgs
	}

	handles, err := c.Resolver().Resolve(ctx, pluginURLs)
	if err != nil {
		return err
	}
	defer closeHandles(handles)

	infos := make([]plugin.Info, len(handles))
	for i, h := range handles {
		infos[i] = h.Info()
	}

	global, pluginConfigs, err := c.ConfigBinder().Bind(raw, infos)
	if err != nil {
		return err
	}

	if outputResolvedConfig {
		return printResolvedConfig(global, infos, pluginConfigs)
	}

	patterns := buildGlobPatterns(includes, excludes, allowNodeModules)
	files, err := c.Environment().Glob(patterns)
	if err != nil {
		return fmt.Errorf("globbing files: %w", err)
	}

	units := c.Dispatcher().Dispatch(files, handles, pluginConfigs)

	pipeline := services.NewPipeline(c.Environment(), global)

	var reporter *output.SARIFReporter
	if sarifPath != "" {
		reporter = output.NewSARIFReporter()
		pipeline.Reporter = reporter
	}

	counters, runErr := pipeline.Run(ctx, units, mode)

	if reporter != nil {
		if writeErr := writeSARIFReport(reporter, sarifPath); writeErr != nil {
			return writeErr
		}
	}

	if runErr != nil {
		return runErr
	}

	return pipeline.Conclude(mode, counters)
}

// printResolvedConfig writes the --output-resolved-config envelope to
// stdout: the bound GlobalConfiguration plus every plugin's resolved
// PluginConfig, stamped with a fresh run-correlation UUID.
func printResolvedConfig(global domainconfig.GlobalConfiguration, infos []plugin.Info, pluginConfigs []domainconfig.PluginConfig) error {
	byName := make(map[string]domainconfig.PluginConfig, len(infos))
	for i, info := range infos {
		byName[info.Name.String()] = pluginConfigs[i]
	}
	envelope := resolvedConfigEnvelope{
		RunID:         uuid.New().String(),
		Global:        global,
		PluginConfigs: byName,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope)
}

func writeSARIFReport(reporter *output.SARIFReporter, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating SARIF output %s: %w", path, err)
	}
	defer file.Close()
	return reporter.WriteTo(file)
}

// closeHandles disposes every resolved plugin Handle, best-effort, after a
// run completes or fails.
func closeHandles(handles []work.Handle) {
	for _, h := range handles {
		_ = h.Close()
	}
}

// buildGlobPatterns assembles the ordered include/exclude pattern list fed
// to the Environment Port's Glob, per spec §4.H's node-modules policy:
// unless allowNodeModules overrides it, the pattern list is augmented with
// an exclusion of node_modules so a plugin is never pointed at vendored
// dependency trees by default.
func buildGlobPatterns(includes, excludes []string, allowNodeModules bool) []string {
	patterns := append(append([]string{}, includes...), negate(excludes)...)
	if !allowNodeModules {
		patterns = append(patterns, "!**/node_modules")
	}
	return patterns
}

func negate(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = "!" + p
	}
	return out
}

func extractConfigLists(raw domainconfig.Map) (includes, excludes, plugins []string, err error) {
	includes, err = stringList(raw, "includes")
	if err != nil {
		return nil, nil, nil, err
	}
	excludes, err = stringList(raw, "excludes")
	if err != nil {
		return nil, nil, nil, err
	}
	plugins, err = stringList(raw, "plugins")
	if err != nil {
		return nil, nil, nil, err
	}
	return includes, excludes, plugins, nil
}

func stringList(raw domainconfig.Map, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected %q to be an array", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected every element of %q to be a string", key)
		}
		out = append(out, s)
	}
	return out, nil
}
