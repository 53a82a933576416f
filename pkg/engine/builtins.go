package engine

import (
	"github.com/mcptestbench/mcptestbench/pkg/cvescan"
	"github.com/mcptestbench/mcptestbench/pkg/fuzzer"
	"github.com/mcptestbench/mcptestbench/pkg/injection"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
)

// DefaultRegistry returns the built-in plugin set in its fixed discovery
// order. The order is the aggregate's insertion order; plugins themselves
// must not depend on it.
func DefaultRegistry() *plugin.Registry {
	return plugin.NewRegistry(
		cvescan.New(),
		fuzzer.New(),
		injection.New(),
	)
}
