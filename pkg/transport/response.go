package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind classifies a Response by how it was produced. The stdio variant
// synthesizes kinds from the decoded response line; the HTTP variant
// derives them from the real status code. A single exhaustively-matched
// tag replaces ad hoc per-failure response shapes.
type Kind int

const (
	// KindOK is a well-formed success response (status 200).
	KindOK Kind = iota
	// KindProtocolError is a well-formed protocol-level error: the target
	// handled a bad input gracefully (status 400). Not a crash.
	KindProtocolError
	// KindMalformed is well-formed JSON that matches neither the result nor
	// the error shape, or an HTTP 5xx. Treated as a target defect (status 500).
	KindMalformed
	// KindTimeout is a probe the target never answered within its deadline
	// (status 504).
	KindTimeout
	// KindTransportFailure covers decode errors, closed pipes and dead
	// processes (status 500).
	KindTransportFailure
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindProtocolError:
		return "protocol_error"
	case KindMalformed:
		return "malformed"
	case KindTimeout:
		return "timeout"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Response is the uniform outcome of one probe. Immutable once constructed.
// Synthetic for the stdio variant; passed through unmodified for HTTP.
type Response struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// expectedStatuses are the codes a probing plugin considers ordinary.
// Anything else counts as unexpected target behavior.
var expectedStatuses = map[int]bool{
	200: true, 400: true, 404: true, 405: true, 500: true, 504: true,
}

// IsCrash reports whether the response reflects a target-side fault.
func (r *Response) IsCrash() bool { return r.StatusCode == 500 }

// IsTimeout reports whether the target failed to answer in time.
func (r *Response) IsTimeout() bool { return r.StatusCode == 504 }

// IsUnexpected reports whether the status code falls outside the set a
// probing plugin considers ordinary ({200, 400, 404, 405, 500, 504}).
func (r *Response) IsUnexpected() bool { return !expectedStatuses[r.StatusCode] }

// Header returns the first value for the given header key, case-insensitively.
func (r *Response) Header(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// classifyLine maps one decoded stdout line to a synthetic Response.
// The policy encodes the crash-vs-error distinction every plugin depends on:
//
//	jsonrpc + error keys  -> 400 (handled protocol error, not a crash)
//	result key            -> 200
//	any other valid JSON  -> 500 (malformed response, treated as a crash)
//
// Note the first rule deliberately treats every jsonrpc error as "handled"
// even when the error code signals a server-side fault; see DESIGN.md.
func classifyLine(line []byte) *Response {
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(line, &decoded); err != nil {
		return failureResponse(fmt.Errorf("decoding response line: %w", err))
	}
	_, hasJSONRPC := decoded["jsonrpc"]
	_, hasError := decoded["error"]
	_, hasResult := decoded["result"]

	switch {
	case hasJSONRPC && hasError:
		return &Response{Kind: KindProtocolError, StatusCode: 400, Body: line, Headers: http.Header{}}
	case hasResult:
		return &Response{Kind: KindOK, StatusCode: 200, Body: line, Headers: http.Header{}}
	default:
		return &Response{Kind: KindMalformed, StatusCode: 500, Body: line, Headers: http.Header{}}
	}
}

// timeoutResponse is the synthetic 504 returned when a read deadline expires.
func timeoutResponse() *Response {
	return &Response{
		Kind:       KindTimeout,
		StatusCode: 504,
		Body:       []byte(`{"error":"timeout"}`),
		Headers:    http.Header{},
	}
}

// failureResponse is the synthetic 500 covering decode errors, closed pipes
// and dead processes.
func failureResponse(err error) *Response {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &Response{
		Kind:       KindTransportFailure,
		StatusCode: 500,
		Body:       body,
		Headers:    http.Header{},
	}
}

// kindFromStatus derives a Kind for real HTTP responses so both variants
// expose the same classification surface.
func kindFromStatus(code int) Kind {
	switch {
	case code >= 200 && code < 300:
		return KindOK
	case code == 504:
		return KindTimeout
	case code >= 500:
		return KindMalformed
	default:
		return KindProtocolError
	}
}
