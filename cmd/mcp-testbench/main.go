// Command mcp-testbench runs security test plugins against MCP servers
// reached over HTTP or spawned locally and driven over stdio.
package main

import (
	"errors"
	"os"

	"github.com/mcptestbench/mcptestbench/pkg/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code.Int())
		}
		os.Exit(exitcode.Configuration.Int())
	}
}
