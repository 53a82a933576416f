// Package scoring reduces an aggregate result to a letter grade.
//
// The model is penalty-based: a run starts at 100 and every plugin's
// findings subtract from it. A critical CVE (CVSS >= 9.0) is an instant F
// regardless of the remaining score.
package scoring

import (
	"encoding/json"

	"github.com/mcptestbench/mcptestbench/pkg/engine"
)

// Score is the reduced verdict for one run.
type Score struct {
	// Letter is the grade: A, B, C, D or F.
	Letter string `json:"letter"`
	// Value is the numeric score the letter was banded from (<= 100, may go
	// negative on badly broken targets).
	Value int `json:"value"`
	// Color is the badge color matching the letter.
	Color string `json:"color"`
}

// Penalty weights.
const (
	penaltyPluginError = 20
	penaltyPerCVE      = 15
	penaltyPerCrash    = 10
	penaltyPerTimeout  = 5
	criticalCVSSCutoff = 9.0
	perfectScore       = 100
)

// riskPenalties maps a plugin's reported risk level to its score cost.
var riskPenalties = map[string]int{
	"CRITICAL": 30,
	"HIGH":     20,
	"MEDIUM":   10,
	"LOW":      5,
	"NONE":     0,
}

// badgeColors maps letters to shields.io color names.
var badgeColors = map[string]string{
	"A": "brightgreen",
	"B": "green",
	"C": "yellow",
	"D": "orange",
	"F": "red",
}

// Grade computes the letter grade for a finalized aggregate.
func Grade(agg *engine.Aggregate) Score {
	score := perfectScore

	for _, entry := range agg.Entries() {
		res := flatten(entry.Result)

		// Plugin execution errors cost a flat penalty and nothing else:
		// a failed plugin produced no findings to weigh.
		if s, _ := res["error"].(string); s != "" {
			score -= penaltyPluginError
			continue
		}

		if count, ok := asInt(res["vulnerabilities_found"]); ok && count > 0 {
			for _, v := range asSlice(res["vulnerabilities"]) {
				vuln, _ := v.(map[string]any)
				if cvss, ok := asFloat(vuln["cvss"]); ok && cvss >= criticalCVSSCutoff {
					return letter("F", 0)
				}
			}
			score -= count * penaltyPerCVE
		}

		if crashes, ok := asInt(res["crashes"]); ok {
			score -= crashes * penaltyPerCrash
			timeouts, _ := asInt(res["timeouts"])
			score -= timeouts * penaltyPerTimeout
		}

		if risk, _ := res["risk_level"].(string); risk != "" {
			score -= riskPenalties[risk]
		}
	}

	switch {
	case score >= 90:
		return letter("A", score)
	case score >= 75:
		return letter("B", score)
	case score >= 60:
		return letter("C", score)
	case score >= 40:
		return letter("D", score)
	default:
		return letter("F", score)
	}
}

func letter(grade string, value int) Score {
	return Score{Letter: grade, Value: value, Color: badgeColors[grade]}
}

// flatten round-trips a plugin result through its wire form so the grading
// logic sees one generic mapping whether the result was produced in-process
// (typed Extra values) or reloaded from a report file.
func flatten(res any) map[string]any {
	data, err := json.Marshal(res)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
