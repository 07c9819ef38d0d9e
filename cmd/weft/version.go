package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftfmt/weft/internal/version"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of weft",
	Long:  `Print the version, Git commit hash, build date, and platform of weft.`,
	Run: func(_ *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Printf("weft version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
