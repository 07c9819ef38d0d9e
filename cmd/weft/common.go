package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CommonOptions contains flags shared across the fmt/check commands.
type CommonOptions struct {
	Verbose          bool
	Quiet            bool
	AllowNodeModules bool
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "quiet output (errors only)")
	cmd.Flags().BoolVar(&opts.AllowNodeModules, "allow-node-modules", false,
		"do not automatically exclude node_modules from the glob patterns")
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	if opts.Verbose && opts.Quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}
	return nil
}
