// Package cvescan matches target responses against a static table of
// indicator strings for known MCP-ecosystem CVEs. Any match is an instant
// CRITICAL classification.
package cvescan

import (
	"context"
	"strings"

	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

// Advisory describes one known CVE and the response content that betrays
// a vulnerable deployment.
type Advisory struct {
	ID          string
	CVSS        float64
	Description string
	Severity    string
	Indicators  []string
}

// Advisories returns the known-CVE table in a stable order.
func Advisories() []Advisory {
	return []Advisory{
		{
			ID:          "CVE-2025-6514",
			CVSS:        9.6,
			Description: "Critical RCE in mcp-remote",
			Severity:    "CRITICAL",
			Indicators:  []string{"/remote/", "mcp-remote"},
		},
		{
			ID:          "CVE-2025-49596",
			CVSS:        9.4,
			Description: "RCE in MCP Inspector",
			Severity:    "CRITICAL",
			Indicators:  []string{"mcp-inspector", "/inspector/"},
		},
	}
}

// Match is one confirmed advisory hit, reported under the reserved
// "vulnerabilities" key the scorer inspects for critical CVSS values.
type Match struct {
	CVEID       string  `json:"cve_id"`
	CVSS        float64 `json:"cvss"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
}

// Scanner is the known-CVE plugin.
type Scanner struct{}

// New creates the CVE scanner.
func New() *Scanner { return &Scanner{} }

func (s *Scanner) Name() string { return "CVEScanner" }

func (s *Scanner) Description() string {
	return "Matches response content against indicator strings for known MCP CVEs"
}

// Run issues a single identification probe and checks body and headers
// against every advisory's indicators.
func (s *Scanner) Run(ctx context.Context, t transport.Transport) (plugin.Result, error) {
	resp, err := t.Get(ctx)
	if err != nil {
		return plugin.Result{}, err
	}

	if resp.IsTimeout() {
		return plugin.Result{
			Status: "timeout",
			Error:  "server did not respond in time",
		}, nil
	}
	if resp.Kind == transport.KindTransportFailure {
		return plugin.Result{
			Status: "error",
			Error:  string(resp.Body),
		}, nil
	}

	body := strings.ToLower(string(resp.Body))
	headerValues := make([]string, 0, len(resp.Headers))
	for _, values := range resp.Headers {
		for _, v := range values {
			headerValues = append(headerValues, strings.ToLower(v))
		}
	}

	matches := []Match{}
	for _, adv := range Advisories() {
		for _, indicator := range adv.Indicators {
			if matchesContent(strings.ToLower(indicator), body, headerValues) {
				matches = append(matches, Match{
					CVEID:       adv.ID,
					CVSS:        adv.CVSS,
					Description: adv.Description,
					Severity:    adv.Severity,
				})
				break
			}
		}
	}

	risk := plugin.RiskNone
	if len(matches) > 0 {
		risk = plugin.RiskCritical
	}

	return plugin.Result{
		Status: "completed",
		Risk:   risk,
		Extra: map[string]any{
			"vulnerabilities_found": len(matches),
			"vulnerabilities":       matches,
			"server_info": map[string]string{
				"server_header": strings.ToLower(resp.Header("Server")),
				"x_powered_by":  strings.ToLower(resp.Header("X-Powered-By")),
			},
		},
	}, nil
}

// matchesContent reports whether the indicator occurs in the body or in any
// header value.
func matchesContent(indicator, body string, headerValues []string) bool {
	if strings.Contains(body, indicator) {
		return true
	}
	for _, v := range headerValues {
		if strings.Contains(v, indicator) {
			return true
		}
	}
	return false
}
