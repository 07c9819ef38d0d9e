package main

import (
	"github.com/spf13/cobra"
)

// pluginsCmd represents the plugins command.
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Manage the plugin cache",
	Long:  `List and clear the locally cached compiled plugin artifacts.`,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
