// Package transport provides a uniform request/response capability over
// either an HTTP MCP endpoint or a locally spawned process speaking
// line-delimited JSON-RPC on its standard streams.
//
// Plugins drive targets exclusively through the Transport interface and
// never learn which variant they hold. Both variants resolve every probe
// to a Response: target crashes, timeouts and malformed output become
// classified Response values, not errors.
package transport

import (
	"context"
	"time"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
)

// Transport is the uniform request/response capability shared by the HTTP
// and stdio variants. Implementations are safe for sequential use by a
// single owner; the engine owns the transport for the duration of a run
// and is solely responsible for calling Close.
type Transport interface {
	// Request issues one JSON-RPC call and resolves it to a Response.
	// Target-side faults (crash, timeout, malformed output) are returned
	// as classified Responses with a nil error. A non-nil error indicates
	// a caller-side problem such as unmarshalable params.
	Request(ctx context.Context, method string, params any, opts ...RequestOption) (*Response, error)

	// Get is a convenience probe for transports that expose no distinct
	// verb semantics. It is a Request with method "ping" over stdio and a
	// plain GET of the base address over HTTP.
	Get(ctx context.Context) (*Response, error)

	// Close releases the transport. For the stdio variant this terminates
	// the child process: stdin is closed first, then SIGTERM, then SIGKILL
	// after a bounded grace period. Close is idempotent and best-effort;
	// teardown problems never mask already-collected results.
	Close() error
}

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	timeout time.Duration
	rawBody []byte
	rawSet  bool
}

// WithTimeout overrides the transport's default timeout for one request.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// WithRawBody replaces the serialized JSON-RPC envelope with raw bytes.
// The HTTP variant posts the bytes verbatim; the stdio variant writes them
// as one newline-terminated line. This is how the fuzzer delivers
// intentionally invalid payloads through either variant. Raw bodies must
// not contain newlines when targeting a stdio transport.
func WithRawBody(body []byte) RequestOption {
	return func(o *requestOptions) {
		o.rawBody = body
		o.rawSet = true
	}
}

func applyOptions(fallback time.Duration, opts []RequestOption) requestOptions {
	o := requestOptions{timeout: fallback}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = defaults.HTTPTimeout
	}
	return o
}

// envelope is the outbound JSON-RPC 2.0 request shape.
type envelope struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

func newEnvelope(id int64, method string, params any) envelope {
	if params == nil {
		params = map[string]any{}
	}
	return envelope{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}
