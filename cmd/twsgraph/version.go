package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/twsgraph"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of twsgraph",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "twsgraph version %s\n", strings.TrimSpace(twsgraph.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
