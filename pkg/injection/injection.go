// Package injection probes MCP method handlers with payloads targeting
// tool poisoning, command/SQL injection, path traversal and markup
// injection. A probe is flagged vulnerable when the target answers with a
// server error or leaks known sensitive markers in the response body.
package injection

import (
	"context"
	"strings"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

// Probe is one injection attempt: a structured method/params pair sent as a
// well-formed JSON-RPC call, so the attack rides inside valid protocol.
type Probe struct {
	Name        string
	Description string
	Method      string
	Params      map[string]any
}

// Probes returns the fixed injection corpus in a stable order.
func Probes() []Probe {
	return []Probe{
		{
			Name:        "Tool Override",
			Description: "Attempts to override tool definitions via prototype pollution",
			Method:      "tools/list",
			Params:      map[string]any{"__proto__": map[string]any{"malicious": true}},
		},
		{
			Name:        "Command Injection",
			Description: "Tests for command injection in tool execution",
			Method:      "tools/call",
			Params: map[string]any{
				"name":      "exec",
				"arguments": map[string]any{"command": "; cat /etc/passwd"},
			},
		},
		{
			Name:        "Path Traversal",
			Description: "Tests for path traversal in resource access",
			Method:      "resources/read",
			Params:      map[string]any{"uri": "file://../../etc/passwd"},
		},
		{
			Name:        "SQL Injection",
			Description: "Tests for SQL injection vulnerabilities",
			Method:      "tools/call",
			Params: map[string]any{
				"arguments": map[string]any{"query": "SELECT * FROM users WHERE id=1 OR 1=1--"},
			},
		},
		{
			Name:        "XSS Payload",
			Description: "Tests for XSS vulnerabilities in prompt handling",
			Method:      "prompts/get",
			Params:      map[string]any{"name": "<script>alert('XSS')</script>"},
		},
	}
}

// leakMarkers are response substrings that indicate leaked sensitive data
// or verbose backend errors. Matched case-insensitively.
var leakMarkers = []string{"root:", "/etc/passwd", "syntax error", "sql"}

// probeResult is the per-test record nested inside the plugin result.
type probeResult struct {
	TestName    string   `json:"test_name"`
	Description string   `json:"description"`
	Vulnerable  bool     `json:"vulnerable"`
	StatusCode  int      `json:"status_code"`
	Indicators  []string `json:"indicators"`
}

// Prober is the injection-testing plugin.
type Prober struct{}

// New creates the injection prober.
func New() *Prober { return &Prober{} }

func (p *Prober) Name() string { return "PromptInjection" }

func (p *Prober) Description() string {
	return "Probes for tool poisoning, command/SQL injection, path traversal and markup injection"
}

// Run sends every probe and derives a risk level from the vulnerability count.
func (p *Prober) Run(ctx context.Context, t transport.Transport) (plugin.Result, error) {
	probes := Probes()

	results := make([]probeResult, 0, len(probes))
	vulnerabilities := 0

	for _, probe := range probes {
		resp, err := t.Request(ctx, probe.Method, probe.Params,
			transport.WithTimeout(defaults.ProbeTimeout),
		)
		if err != nil {
			return plugin.Result{}, err
		}

		pr := probeResult{
			TestName:    probe.Name,
			Description: probe.Description,
			StatusCode:  resp.StatusCode,
			Indicators:  []string{},
		}

		if resp.IsCrash() {
			pr.Indicators = append(pr.Indicators, "Server error triggered")
			pr.Vulnerable = true
		}

		body := strings.ToLower(string(resp.Body))
		for _, marker := range leakMarkers {
			if strings.Contains(body, marker) {
				pr.Indicators = append(pr.Indicators, "Sensitive data or error leaked")
				pr.Vulnerable = true
				break
			}
		}

		// A processed payload is worth surfacing even when nothing leaked.
		if resp.StatusCode == 200 && len(resp.Body) > 0 {
			pr.Indicators = append(pr.Indicators, "Payload may have been processed")
		}

		if pr.Vulnerable {
			vulnerabilities++
		}
		results = append(results, pr)
	}

	return plugin.Result{
		Status: "completed",
		Risk:   riskFor(vulnerabilities),
		Extra: map[string]any{
			"tests_run":             len(probes),
			"vulnerabilities_found": vulnerabilities,
			"test_results":          results,
		},
	}, nil
}

// riskFor thresholds the vulnerability count into a risk level.
func riskFor(vulnerabilities int) plugin.RiskLevel {
	switch {
	case vulnerabilities > 2:
		return plugin.RiskHigh
	case vulnerabilities > 0:
		return plugin.RiskMedium
	default:
		return plugin.RiskLow
	}
}
