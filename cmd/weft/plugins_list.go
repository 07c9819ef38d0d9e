package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	pluginsCmd.AddCommand(newPluginsListCmd())
}

func newPluginsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List cached plugins",
		Long:    `List every plugin source URL currently resolved in the local cache.`,
		Example: `  weft plugins list`,
		Args:    cobra.NoArgs,
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			entries := ctx.Container.Cache().Entries()

			if len(entries) == 0 {
				fmt.Println("No plugins found in cache.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "URL\tFILE"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(w, "%s\t%s\n", e.URL, e.FileName); err != nil {
					return fmt.Errorf("failed to write plugin entry: %w", err)
				}
			}
			return w.Flush()
		}),
	}

	addCommonFlags(cmd)
	return cmd
}
