package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile           string
	logLevel          string
	quiet             bool
	requireSigningKey string
	schemaDir         string
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "A pluggable source code formatter",
	Long: `weft formats source code by dispatching files to WebAssembly plugins
according to a weft.jsonc configuration file. Each plugin runs in its own
sandboxed WASM instance and is resolved, cached, and invoked in parallel
per file extension.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "weft.jsonc", "configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all log output (equivalent to --log-level=error)")
	rootCmd.PersistentFlags().StringVar(&requireSigningKey, "require-signing", "", "cosign public key ref plugins must be signed with; empty disables verification")
	rootCmd.PersistentFlags().StringVar(&schemaDir, "schema-dir", "", "directory of <plugin-name>.schema.json files to validate plugin configs against; empty disables schema diagnostics")
}

// initConfig binds WEFT_-prefixed environment variables over viper, for
// ambient settings (e.g. cache directory overrides) that aren't part of
// the formatting config document itself.
func initConfig() {
	viper.SetEnvPrefix("weft")
	viper.AutomaticEnv()
}

func setupLogging() {
	level := parseLogLevel(logLevel)

	if quiet {
		level = slog.LevelError + 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
