package main

import (
	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

// addBuildFlags registers the graph build flags shared by graph and inspect.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("exclude", nil, "Job names to leave out (repeatable or comma separated)")
	cmd.Flags().StringSlice("type", nil, "Operation types to keep (default all)")
	cmd.Flags().Bool("include-unknown", false, "Also keep operations without a type when --type is set")
	cmd.Flags().String("mode", "full", "Graph mode: full or external-predecessors-only")
	cmd.Flags().String("net", "", "Network name, overriding the one in the operations file name")
	cmd.Flags().StringSlice("additional", nil, "Detail files of other networks, whatever their name")
}

func buildFlags(cmd *cobra.Command) cli.BuildFlags {
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	types, _ := cmd.Flags().GetStringSlice("type")
	includeUnknown, _ := cmd.Flags().GetBool("include-unknown")
	mode, _ := cmd.Flags().GetString("mode")
	net, _ := cmd.Flags().GetString("net")
	return cli.BuildFlags{
		Exclude:        exclude,
		Types:          types,
		IncludeUnknown: includeUnknown,
		Mode:           mode,
		Net:            net,
	}
}

// loadOptions resolves positional arguments against --dir and --additional.
func loadOptions(cmd *cobra.Command, args []string) cli.LoadOptions {
	dir, _ := cmd.Flags().GetString("dir")
	opts := cli.ResolveInputs(dir, args)
	if cmd.Flags().Lookup("additional") != nil {
		opts.Additional, _ = cmd.Flags().GetStringSlice("additional")
	}
	return opts
}
