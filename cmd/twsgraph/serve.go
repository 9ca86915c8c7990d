package main

import (
	"context"

	"github.com/aretw0/twsgraph/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API. Workspaces are kept in memory, or in Redis when
server.redis.addr is configured so that several replicas can share them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.RunServe(ctx, cli.ServeOptions{
			Globals: globals(cmd),
			Port:    port,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default server.port)")
}
