package main

import (
	"fmt"
	"os"

	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "twsgraph",
	Short: "twsgraph turns batch scheduler exports into dependency graphs",
	Long: `twsgraph reads the CSV exports of a scheduler network (operations,
internal relations, external predecessors and successors, operator
instructions and detail files of other networks) and builds the graph of
job dependencies, as JSON or Mermaid, on the command line or over HTTP/MCP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globals reads the persistent flags.
func globals(cmd *cobra.Command) cli.Globals {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	dir, _ := cmd.Flags().GetString("dir")
	return cli.Globals{ConfigPath: configPath, Debug: debug, Dir: dir}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./twsgraph.yaml when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log pipeline events at debug level")
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the network exports")
}
