// Package defaults provides canonical default values for the entire codebase.
// This is the single source of truth for timeouts and runtime defaults.
//
// Usage:
//
//	client.Timeout = defaults.HTTPTimeout
//	transport.ReadTimeout = defaults.StdioReadTimeout
//
// Do not hardcode values like `Timeout: 30 * time.Second` anywhere.
// Reference the appropriate constant from this package instead.
package defaults

import "time"

// Version is the current mcp-testbench version.
const Version = "0.3.1"

// UserAgent identifies bench probe traffic to targets.
const UserAgent = "mcp-testbench/" + Version

// ============================================================================
// TIMEOUTS
// ============================================================================

const (
	// HTTPTimeout is the total request timeout for the HTTP transport (30s).
	HTTPTimeout = 30 * time.Second

	// StdioReadTimeout bounds a single response-line read from a spawned
	// target's stdout (5s).
	StdioReadTimeout = 5 * time.Second

	// StdioWarmup is the grace period between spawning a stdio target and
	// the first request, letting the target initialize (1s).
	StdioWarmup = 1 * time.Second

	// StdioStopGrace is how long a stdio target gets to exit after SIGTERM
	// before it is force-killed (5s).
	StdioStopGrace = 5 * time.Second

	// FuzzTimeout is the per-probe timeout used by the fuzzer corpus (3s).
	FuzzTimeout = 3 * time.Second

	// ProbeTimeout is the per-probe timeout used by injection tests (5s).
	ProbeTimeout = 5 * time.Second

	// HealthTimeout bounds a container health-check wait loop (30s).
	HealthTimeout = 30 * time.Second

	// HealthInterval is the delay between health-check attempts (1s).
	HealthInterval = 1 * time.Second
)

// ============================================================================
// LIMITS
// ============================================================================

const (
	// MaxResponseBody caps how much of a target's HTTP response body is read (1 MiB).
	MaxResponseBody = 1 << 20

	// MaxResponseLine caps a single stdio response line (4 MiB). Lines beyond
	// this are treated as a transport failure rather than growing unbounded.
	MaxResponseLine = 4 << 20

	// MaxStderrCapture caps how much target stderr is retained for
	// diagnostics (64 KiB).
	MaxStderrCapture = 64 << 10
)

// ContentTypeJSON is the request content type for all probe traffic.
const ContentTypeJSON = "application/json"
