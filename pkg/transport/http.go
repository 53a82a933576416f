package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
)

// HTTP drives an MCP target over plain HTTP/HTTPS. Each Request posts one
// JSON-RPC envelope to the base address; the real status code, headers and
// body pass through unmodified. Network-level faults are resolved to
// classified Responses so plugins apply identical status-code heuristics
// over either variant.
type HTTP struct {
	base    string
	client  *http.Client
	timeout time.Duration
	nextID  atomic.Int64
}

// HTTPOption customizes an HTTP transport.
type HTTPOption func(*HTTP)

// WithHTTPTimeout sets the default per-request timeout (default 30s).
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(t *HTTP) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying client, e.g. for tests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTP) { t.client = c }
}

// NewHTTP creates an HTTP transport bound to the given base address.
// The client pools connections, skips TLS verification (probe traffic is
// routinely pointed at self-signed local targets) and never follows
// redirects, so plugins see the target's first answer.
func NewHTTP(baseURL string, opts ...HTTPOption) *HTTP {
	t := &HTTP{
		base:    strings.TrimRight(baseURL, "/"),
		timeout: defaults.HTTPTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.client == nil {
		t.client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return t
}

// Request posts one probe to the base address. Caller-side construction
// failures return an error; everything the target does, including refusing
// the connection, comes back as a Response.
func (t *HTTP) Request(ctx context.Context, method string, params any, opts ...RequestOption) (*Response, error) {
	o := applyOptions(t.timeout, opts)

	var body []byte
	if o.rawSet {
		body = o.rawBody
	} else {
		b, err := json.Marshal(newEnvelope(t.nextID.Add(1), method, params))
		if err != nil {
			return nil, fmt.Errorf("marshaling request envelope: %w", err)
		}
		body = b
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.base+"/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", defaults.ContentTypeJSON)
	req.Header.Set("User-Agent", defaults.UserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return resolveHTTPError(err), nil
	}
	return drainResponse(resp), nil
}

// Get probes the base address with a plain GET, giving plugins a look at
// the target's headers and default body.
func (t *HTTP) Get(ctx context.Context) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.base+"/", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", defaults.UserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return resolveHTTPError(err), nil
	}
	return drainResponse(resp), nil
}

// Close releases pooled connections.
func (t *HTTP) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// drainResponse reads a capped body and freezes the real response.
func drainResponse(resp *http.Response) *Response {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, defaults.MaxResponseBody))
	if err != nil {
		body = []byte(fmt.Sprintf(`{"error":%q}`, "reading body: "+err.Error()))
	}
	return &Response{
		Kind:       kindFromStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header.Clone(),
	}
}

// resolveHTTPError folds network errors into the shared taxonomy: deadline
// expiry becomes the 504 timeout response, everything else the 500
// transport-failure response. Faults are data for plugins, not control flow.
func resolveHTTPError(err error) *Response {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return timeoutResponse()
	}
	return failureResponse(err)
}
