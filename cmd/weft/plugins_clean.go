package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	pluginsCmd.AddCommand(newPluginsCleanCmd())
}

func newPluginsCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clean",
		Short:   "Remove every cached plugin",
		Long:    `Forget every plugin source URL in the manifest and delete its compiled artifact.`,
		Example: `  weft plugins clean`,
		Args:    cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			count := len(ctx.Container.Cache().Entries())
			if err := ctx.Container.Cache().Clear(); err != nil {
				return fmt.Errorf("failed to clear plugin cache: %w", err)
			}
			fmt.Printf("Removed %d cached plugin(s).\n", count)
			return nil
		}),
	}

	addCommonFlags(cmd)
	return cmd
}
