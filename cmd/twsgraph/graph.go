package main

import (
	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [files|dir]",
	Short: "Build the dependency graph of a network",
	Long: `Loads the network exports and prints the dependency graph as JSON
(default) or as a Mermaid flowchart (--format mermaid).

Inputs are the CSV files of --dir, a directory argument, or explicit file
paths. Files are assigned to roles by name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		focus, _ := cmd.Flags().GetString("focus")
		format, _ := cmd.Flags().GetString("format")
		return cli.RunGraph(cmd.Context(), cli.GraphOptions{
			Globals:     globals(cmd),
			LoadOptions: loadOptions(cmd, args),
			BuildFlags:  buildFlags(cmd),
			Focus:       focus,
			Format:      format,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addBuildFlags(graphCmd)
	graphCmd.Flags().String("focus", "", "Keep only the jobs connected to this job")
	graphCmd.Flags().StringP("format", "f", "json", "Output format: json or mermaid")
}
