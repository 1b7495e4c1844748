package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/codestream/runtime/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
