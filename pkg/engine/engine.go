// Package engine orchestrates a test run: it owns transport selection and
// the target process lifecycle, runs every registered plugin sequentially
// against the shared transport, isolates per-plugin failures, and produces
// the aggregate result.
//
// Per run the engine moves through Idle -> TransportAcquired -> Running ->
// Draining -> Closed. Draining is entered on every exit path, including
// cancellation and plugin panics; a teardown problem never masks the
// already-collected results.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

// Engine runs all registered plugins against one target.
type Engine struct {
	target   Target
	registry *plugin.Registry

	warmup       time.Duration
	httpTimeout  time.Duration
	stdioTimeout time.Duration
	log          *slog.Logger
}

// Option customizes an engine.
type Option func(*Engine)

// WithRegistry substitutes the plugin registry (default: the built-in set).
func WithRegistry(r *plugin.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithWarmup overrides the post-spawn grace period before the first
// request (default 1s). Used by tests to keep runs fast.
func WithWarmup(d time.Duration) Option {
	return func(e *Engine) { e.warmup = d }
}

// WithHTTPTimeout overrides the HTTP transport's default request timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(e *Engine) { e.httpTimeout = d }
}

// WithStdioReadTimeout overrides the stdio transport's read deadline.
func WithStdioReadTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stdioTimeout = d }
}

// WithLogger sets the structured logger (default slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New constructs an engine for the given target. The target descriptor is
// validated here and never mutated afterwards.
func New(target Target, opts ...Option) (*Engine, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		target:       target,
		warmup:       defaults.StdioWarmup,
		httpTimeout:  defaults.HTTPTimeout,
		stdioTimeout: defaults.StdioReadTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e, nil
}

// Registry returns the plugin registry the engine runs from.
func (e *Engine) Registry() *plugin.Registry { return e.registry }

// Target returns the immutable target descriptor.
func (e *Engine) Target() Target { return e.target }

// Run executes every registered plugin, in registration order, against one
// shared transport. A plugin failure becomes that plugin's error result;
// only a transport setup failure aborts the run, since no meaningful
// per-plugin results can exist without a transport. Cancellation between
// plugins stops issuing new ones; teardown still runs.
func (e *Engine) Run(ctx context.Context) (*Aggregate, error) {
	tr, err := e.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring transport: %w", err)
	}
	defer func() {
		if cerr := tr.Close(); cerr != nil {
			e.log.Warn("transport teardown failed", "error", cerr)
		}
	}()

	agg := NewAggregate(uuid.NewString())
	e.log.Info("run started", "run_id", agg.RunID, "target", e.target.String(), "plugins", e.registry.Len())

	for _, p := range e.registry.Plugins() {
		if ctx.Err() != nil {
			e.log.Warn("run cancelled", "run_id", agg.RunID, "completed", agg.Len())
			break
		}
		res := e.runPlugin(ctx, p, tr)
		agg.add(p.Name(), res)
		if res.Failed() {
			e.log.Warn("plugin failed", "plugin", p.Name(), "error", res.Error)
		} else {
			e.log.Info("plugin completed", "plugin", p.Name(), "risk", res.Risk.String())
		}
	}

	return agg, nil
}

// runPlugin executes one plugin and converts errors and panics into an
// error result for that plugin only. A single plugin's failure must never
// abort the run.
func (e *Engine) runPlugin(ctx context.Context, p plugin.Plugin, tr transport.Transport) (res plugin.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = plugin.Result{Error: fmt.Sprintf("plugin panicked: %v", r)}
		}
	}()

	result, err := p.Run(ctx, tr)
	if err != nil {
		return plugin.ErrorResult(err)
	}
	return result
}

// acquire builds the transport for the target. For stdio targets the child
// is spawned and given a fixed warm-up grace before the first request.
func (e *Engine) acquire(ctx context.Context) (transport.Transport, error) {
	if !e.target.IsStdio() {
		return transport.NewHTTP(e.target.BaseURL(), transport.WithHTTPTimeout(e.httpTimeout)), nil
	}

	tr, err := transport.SpawnStdio(e.target.SpawnCmd(), transport.WithReadTimeout(e.stdioTimeout))
	if err != nil {
		return nil, err
	}

	if e.warmup > 0 {
		timer := time.NewTimer(e.warmup)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			// Cancelled before the first request: tear the child down and
			// surface the cancellation as a setup failure.
			_ = tr.Close()
			return nil, ctx.Err()
		}
	}
	return tr, nil
}
