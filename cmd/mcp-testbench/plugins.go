package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcptestbench/mcptestbench/pkg/engine"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the registered test plugins",
	Run: func(cmd *cobra.Command, _ []string) {
		for _, p := range engine.DefaultRegistry().Plugins() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", p.Name(), p.Description())
		}
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
