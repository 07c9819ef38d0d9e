package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/weftfmt/weft/internal/infrastructure/environment"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new weft.jsonc configuration",
	Long:  `Interactively build a starter weft.jsonc: include/exclude globs and plugin URLs.`,
	Example: `  weft init
  weft init --no-interactive --plugin https://plugins.dprint.dev/typescript-0.1.0.wasm`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSlice("includes", []string{"**/*"}, "include glob patterns")
	initCmd.Flags().StringSlice("excludes", []string{"**/node_modules", "**/target"}, "exclude glob patterns")
	initCmd.Flags().StringSlice("plugin", nil, "plugin source URL (repeatable)")
	initCmd.Flags().String("output", "weft.jsonc", "config file path to write")
	initCmd.Flags().Bool("no-interactive", false, "disable interactive prompts")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	includes, _ := cmd.Flags().GetStringSlice("includes")
	excludes, _ := cmd.Flags().GetStringSlice("excludes")
	plugins, _ := cmd.Flags().GetStringSlice("plugin")
	outputPath, _ := cmd.Flags().GetString("output")
	noInteractive, _ := cmd.Flags().GetBool("no-interactive")

	if !noInteractive {
		var includesCSV = strings.Join(includes, ", ")
		var excludesCSV = strings.Join(excludes, ", ")
		var pluginsCSV = strings.Join(plugins, ", ")

		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Include patterns (comma-separated)").
					Value(&includesCSV),
				huh.NewInput().
					Title("Exclude patterns (comma-separated)").
					Value(&excludesCSV),
				huh.NewInput().
					Title("Plugin URLs (comma-separated)").
					Value(&pluginsCSV),
			),
		).Run()
		if err != nil {
			return err
		}

		includes = splitCSV(includesCSV)
		excludes = splitCSV(excludesCSV)
		plugins = splitCSV(pluginsCSV)
	}

	doc := renderConfig(includes, excludes, plugins)

	env := environment.NewReal(slog.Default(), "weft")
	if err := env.WriteFile(outputPath, doc); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func renderConfig(includes, excludes, plugins []string) string {
	var b strings.Builder
	b.WriteString("{\n")
	b.WriteString("  // Generated by `weft init`.\n")
	b.WriteString("  \"includes\": ")
	writeJSONStringArray(&b, includes)
	b.WriteString(",\n")
	b.WriteString("  \"excludes\": ")
	writeJSONStringArray(&b, excludes)
	b.WriteString(",\n")
	b.WriteString("  \"plugins\": ")
	writeJSONStringArray(&b, plugins)
	b.WriteString("\n}\n")
	return b.String()
}

func writeJSONStringArray(b *strings.Builder, items []string) {
	b.WriteString("[")
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%q", item)
	}
	b.WriteString("]")
}
