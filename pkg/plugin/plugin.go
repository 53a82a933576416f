// Package plugin defines the test plugin contract and the ordered registry
// the engine discovers plugins from.
//
// A plugin is a stateless unit of test logic: it receives a live transport,
// issues any number of probes through it, and returns a structured Result.
// Plugins are mutually independent: they must not assume ordering relative
// to other plugins or share mutable state, and must not retain the
// transport beyond the Run call.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

// Plugin is the contract every test unit implements.
type Plugin interface {
	// Name returns the stable identifier used as the aggregate key.
	Name() string

	// Description returns a short human-readable summary.
	Description() string

	// Run executes the plugin against a live transport. A returned error is
	// converted by the engine into an error Result for this plugin only;
	// it never aborts the run.
	Run(ctx context.Context, t transport.Transport) (Result, error)
}

// Registry holds the available plugins in registration order. Registration
// order is the only sequencing contract: the engine runs plugins and keys
// the aggregate in exactly this order. Each plugin is handed to the
// registry explicitly at startup.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
}

// NewRegistry creates a registry pre-populated with the given plugins.
// Duplicate names panic: a registry with ambiguous keys cannot produce a
// deterministic aggregate.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{byName: make(map[string]Plugin)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register appends a plugin. Rejects empty and duplicate names.
func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin has empty name (%T)", p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}
	r.byName[name] = p
	r.plugins = append(r.plugins, p)
	return nil
}

// Plugins returns the registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.plugins))
	for i, p := range r.plugins {
		names[i] = p.Name()
	}
	return names
}
