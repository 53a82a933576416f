package scoring_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
)

// aggFromJSON builds an aggregate from its wire form, the same shape a
// reloaded report has.
func aggFromJSON(t *testing.T, doc string) *engine.Aggregate {
	t.Helper()
	agg := engine.NewAggregate("")
	require.NoError(t, json.Unmarshal([]byte(doc), agg))
	return agg
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantLetter string
		wantValue  int
	}{
		{
			name:       "empty run is a perfect A",
			doc:        `{"plugins":{}}`,
			wantLetter: "A",
			wantValue:  100,
		},
		{
			name: "clean plugins keep the full score",
			doc: `{"plugins":{
				"CVEScanner":{"status":"completed","risk_level":"NONE","vulnerabilities_found":0},
				"Fuzzer":{"status":"completed","crashes":0,"timeouts":0}
			}}`,
			wantLetter: "A",
			wantValue:  100,
		},
		{
			name:       "plugin error costs a flat twenty",
			doc:        `{"plugins":{"Fuzzer":{"error":"spawn failed"}}}`,
			wantLetter: "B",
			wantValue:  80,
		},
		{
			name: "error result contributes nothing else",
			doc: `{"plugins":{
				"Fuzzer":{"error":"boom","crashes":9,"risk_level":"CRITICAL"}
			}}`,
			wantLetter: "B",
			wantValue:  80,
		},
		{
			name: "critical CVSS is an instant F",
			doc: `{"plugins":{
				"CVEScanner":{
					"status":"completed",
					"vulnerabilities_found":1,
					"vulnerabilities":[{"cve_id":"CVE-2025-6514","cvss":9.6}]
				}
			}}`,
			wantLetter: "F",
			wantValue:  0,
		},
		{
			name: "non-critical CVEs cost fifteen each",
			doc: `{"plugins":{
				"CVEScanner":{
					"status":"completed",
					"vulnerabilities_found":2,
					"vulnerabilities":[{"cvss":5.0},{"cvss":6.1}]
				}
			}}`,
			wantLetter: "C",
			wantValue:  70,
		},
		{
			name: "crashes, timeouts and risk stack",
			doc: `{"plugins":{
				"Fuzzer":{"status":"completed","crashes":3,"timeouts":2,"risk_level":"HIGH"}
			}}`,
			wantLetter: "D",
			wantValue:  40,
		},
		{
			name: "risk level low barely dents the score",
			doc: `{"plugins":{
				"Fuzzer":{"status":"completed","risk_level":"LOW"}
			}}`,
			wantLetter: "A",
			wantValue:  95,
		},
		{
			name: "critical risk without a CVE is not an instant F",
			doc: `{"plugins":{
				"PromptInjection":{"status":"completed","risk_level":"CRITICAL"}
			}}`,
			wantLetter: "C",
			wantValue:  70,
		},
		{
			name: "badly broken target lands in F",
			doc: `{"plugins":{
				"Fuzzer":{"status":"completed","crashes":14,"timeouts":0,"risk_level":"HIGH"},
				"PromptInjection":{"status":"completed","risk_level":"HIGH"}
			}}`,
			wantLetter: "F",
			wantValue:  -80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := scoring.Grade(aggFromJSON(t, tt.doc))
			assert.Equal(t, tt.wantLetter, score.Letter)
			assert.Equal(t, tt.wantValue, score.Value)
		})
	}
}

func TestGradeBandBoundaries(t *testing.T) {
	// One plugin error (-20) plus risk penalties walk the score across
	// every band edge.
	tests := []struct {
		doc    string
		letter string
	}{
		{`{"plugins":{"p":{"status":"completed","risk_level":"MEDIUM"}}}`, "A"},
		{`{"plugins":{"p":{"status":"completed","risk_level":"HIGH"}}}`, "B"},
		{`{"plugins":{"p":{"status":"completed","crashes":4}}}`, "C"},
		{`{"plugins":{"p":{"status":"completed","crashes":6}}}`, "D"},
		{`{"plugins":{"p":{"status":"completed","crashes":7}}}`, "F"},
	}
	for _, tt := range tests {
		score := scoring.Grade(aggFromJSON(t, tt.doc))
		assert.Equal(t, tt.letter, score.Letter, "doc %s scored %d", tt.doc, score.Value)
	}
}

func TestScoreColors(t *testing.T) {
	colors := map[string]string{
		"A": "brightgreen",
		"B": "green",
		"C": "yellow",
		"D": "orange",
		"F": "red",
	}
	for letter, color := range colors {
		var doc string
		switch letter {
		case "A":
			doc = `{"plugins":{}}`
		case "B":
			doc = `{"plugins":{"p":{"error":"x"}}}`
		case "C":
			doc = `{"plugins":{"p":{"status":"completed","crashes":4}}}`
		case "D":
			doc = `{"plugins":{"p":{"status":"completed","crashes":6}}}`
		case "F":
			doc = `{"plugins":{"p":{"status":"completed","crashes":10}}}`
		}
		score := scoring.Grade(aggFromJSON(t, doc))
		require.Equal(t, letter, score.Letter)
		assert.Equal(t, color, score.Color)
	}
}
