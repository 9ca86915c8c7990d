package main

import (
	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <node-id> [files|dir]",
	Short: "Show the details of a job",
	Long: `Builds the graph and prints the fields of one node and its external
dependencies as markdown. The node may be given by id (JOB or NET/JOB) or by
name, case-insensitively.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.RunInspect(cmd.Context(), cli.InspectOptions{
			Globals:     globals(cmd),
			LoadOptions: loadOptions(cmd, args[1:]),
			BuildFlags:  buildFlags(cmd),
			Node:        args[0],
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addBuildFlags(inspectCmd)
}
