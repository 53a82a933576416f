package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Target validation errors.
var (
	ErrNoTarget   = errors.New("target: neither base URL nor spawn command set")
	ErrBothTarget = errors.New("target: base URL and spawn command are mutually exclusive")
)

// Target describes the system under test: exactly one of an HTTP base
// address or a spawn command. Immutable once the engine is constructed.
type Target struct {
	baseURL  string
	spawnCmd []string
}

// HTTPTarget describes a target reachable at an HTTP/HTTPS base address.
func HTTPTarget(baseURL string) Target {
	return Target{baseURL: baseURL}
}

// StdioTarget describes a target spawned locally from argv tokens and
// driven over its standard streams.
func StdioTarget(argv ...string) Target {
	cmd := make([]string, len(argv))
	copy(cmd, argv)
	return Target{spawnCmd: cmd}
}

// Validate enforces the exactly-one invariant.
func (t Target) Validate() error {
	switch {
	case t.baseURL == "" && len(t.spawnCmd) == 0:
		return ErrNoTarget
	case t.baseURL != "" && len(t.spawnCmd) > 0:
		return ErrBothTarget
	case t.baseURL != "" && !strings.Contains(t.baseURL, "://"):
		return fmt.Errorf("target: base URL %q has no scheme", t.baseURL)
	}
	return nil
}

// IsStdio reports whether the target is driven over standard streams.
func (t Target) IsStdio() bool { return len(t.spawnCmd) > 0 }

// BaseURL returns the HTTP base address, empty for stdio targets.
func (t Target) BaseURL() string { return t.baseURL }

// SpawnCmd returns a copy of the argv tokens, nil for HTTP targets.
func (t Target) SpawnCmd() []string {
	if t.spawnCmd == nil {
		return nil
	}
	cmd := make([]string, len(t.spawnCmd))
	copy(cmd, t.spawnCmd)
	return cmd
}

// String renders the target for logs.
func (t Target) String() string {
	if t.IsStdio() {
		return "stdio: " + strings.Join(t.spawnCmd, " ")
	}
	return "http: " + t.baseURL
}
