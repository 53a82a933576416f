package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcptestbench/mcptestbench/pkg/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the testbench as an MCP server over stdio",
	Long: `Serve the testbench's own tools (list_plugins, run_bench) over the
Model Context Protocol on stdin/stdout, for use from IDE agents.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return mcpserver.New().RunStdio(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
