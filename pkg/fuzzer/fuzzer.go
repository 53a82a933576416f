// Package fuzzer probes MCP protocol conformance with a fixed corpus of
// malformed inputs: broken JSON, type-confused fields, oversized strings,
// deep nesting, embedded control characters. Responses are classified
// purely by status code, so the same heuristics hold over HTTP and stdio.
package fuzzer

import (
	"context"
	"strings"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

// Case is one malformed probe. Payload bytes are delivered verbatim as the
// request body; the corpus is fixed so runs are reproducible.
type Case struct {
	Name    string
	Payload string
}

// Corpus returns the fuzz corpus. Deterministic: same cases, same order,
// every call.
func Corpus() []Case {
	return []Case{
		// Protocol conformance
		{Name: "Empty Payload", Payload: ""},
		{Name: "Invalid JSON", Payload: "{invalid json"},
		{Name: "Null Payload", Payload: "null"},
		{Name: "Array Instead of Object", Payload: "[]"},
		{Name: "Missing Method", Payload: `{"jsonrpc": "2.0", "id": 1}`},
		{Name: "Invalid Method Type", Payload: `{"jsonrpc": "2.0", "method": 123, "id": 1}`},
		{Name: "Missing JSONRPC Version", Payload: `{"method": "tools/list", "id": 1}`},
		{Name: "Invalid JSONRPC Version", Payload: `{"jsonrpc": "3.0", "method": "tools/list", "id": 1}`},

		// Oversized payloads
		{Name: "Huge String", Payload: `{"jsonrpc": "2.0", "method": "test", "params": {"data": "` + strings.Repeat("A", 100000) + `"}, "id": 1}`},
		{Name: "Deeply Nested", Payload: strings.Repeat(`{"a":`, 1000) + "1" + strings.Repeat("}", 1000)},

		// Special characters
		{Name: "Unicode Exploit", Payload: "{\"jsonrpc\": \"2.0\", \"method\": \"\\u0000\\u0001\\u0002\", \"id\": 1}"},
		{Name: "Null Bytes", Payload: "{\"jsonrpc\": \"2.0\", \"method\": \"test\x00\", \"id\": 1}"},

		// Type confusion
		{Name: "String ID Instead of Number", Payload: `{"jsonrpc": "2.0", "method": "tools/list", "id": "not_a_number"}`},
		{Name: "Params as String", Payload: `{"jsonrpc": "2.0", "method": "tools/list", "params": "not_an_object", "id": 1}`},
	}
}

// caseResult records the per-test outcome nested inside the plugin result.
type caseResult struct {
	TestName     string `json:"test_name"`
	StatusCode   int    `json:"status_code"`
	Crash        bool   `json:"crash"`
	Timeout      bool   `json:"timeout"`
	Unexpected   bool   `json:"unexpected"`
	ResponseSize int    `json:"response_size"`
}

// Fuzzer is the protocol-conformance plugin.
type Fuzzer struct{}

// New creates the fuzzer plugin.
func New() *Fuzzer { return &Fuzzer{} }

func (f *Fuzzer) Name() string { return "Fuzzer" }

func (f *Fuzzer) Description() string {
	return "Fuzzes MCP endpoints with malformed inputs and counts crashes, timeouts and unexpected responses"
}

// Run sends every corpus case through the transport and aggregates counts.
// Classification: 500 = crash, 504 = timeout, anything outside
// {200, 400, 404, 405, 500, 504} = unexpected.
func (f *Fuzzer) Run(ctx context.Context, t transport.Transport) (plugin.Result, error) {
	corpus := Corpus()

	var (
		results    = make([]caseResult, 0, len(corpus))
		crashes    int
		timeouts   int
		unexpected int
	)

	for _, c := range corpus {
		resp, err := t.Request(ctx, "", nil,
			transport.WithRawBody([]byte(c.Payload)),
			transport.WithTimeout(defaults.FuzzTimeout),
		)
		if err != nil {
			return plugin.Result{}, err
		}

		cr := caseResult{
			TestName:     c.Name,
			StatusCode:   resp.StatusCode,
			Crash:        resp.IsCrash(),
			Timeout:      resp.IsTimeout(),
			Unexpected:   resp.IsUnexpected(),
			ResponseSize: len(resp.Body),
		}
		if cr.Crash {
			crashes++
		}
		if cr.Timeout {
			timeouts++
		}
		if cr.Unexpected {
			unexpected++
		}
		results = append(results, cr)
	}

	totalIssues := crashes + timeouts + unexpected

	return plugin.Result{
		Status: "completed",
		Risk:   riskFor(totalIssues),
		Extra: map[string]any{
			"tests_run":            len(corpus),
			"crashes":              crashes,
			"timeouts":             timeouts,
			"unexpected_responses": unexpected,
			"total_issues":         totalIssues,
			"test_results":         results,
		},
	}, nil
}

// riskFor thresholds the total issue count into a risk level.
func riskFor(totalIssues int) plugin.RiskLevel {
	switch {
	case totalIssues > 5:
		return plugin.RiskHigh
	case totalIssues > 2:
		return plugin.RiskMedium
	default:
		return plugin.RiskLow
	}
}
