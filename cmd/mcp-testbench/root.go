package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/exitcode"
)

// exitError carries a semantic exit code up to main without cobra printing
// a usage message for it.
type exitError struct {
	code exitcode.Code
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code exitcode.Code, err error) error {
	return &exitError{code: code, err: err}
}

var rootCmd = &cobra.Command{
	Use:   "mcp-testbench",
	Short: "Security testing for MCP servers",
	Long: `mcp-testbench runs a fixed set of security test plugins (protocol
fuzzing, injection probing, known-CVE scanning) against an MCP server
reached over HTTP or spawned locally and driven over stdio, then grades
the results.`,
	Version: defaults.Version,
	// Errors from subcommands are handled by the caller with semantic exit
	// codes; cobra should not add a usage dump on top.
	SilenceUsage:  true,
	SilenceErrors: false,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "mcp-testbench %s\n", defaults.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
