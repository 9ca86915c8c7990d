package main

import (
	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [files|dir]",
	Short: "List the jobs, operation types and external networks of a network",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.RunCatalog(cmd.Context(), cli.CatalogOptions{
			Globals:     globals(cmd),
			LoadOptions: loadOptions(cmd, args),
			JSON:        asJSON,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().Bool("json", false, "Print as JSON")
	catalogCmd.Flags().StringSlice("additional", nil, "Detail files of other networks, whatever their name")
}
