// Package report persists a run's aggregate result as a JSON report plus a
// markdown security badge.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
)

// File names written into the output directory.
const (
	ReportFile = "mcp_testbench_report.json"
	BadgeFile  = "SECURITY_BADGE.md"
)

// shieldsURL is the badge image template: letter grade and color fill the
// placeholders.
const shieldsURL = "https://img.shields.io/badge/Security-%s-%s"

// Artifacts holds the paths of everything a run persisted.
type Artifacts struct {
	ReportPath string
	BadgePath  string
	Score      scoring.Score
}

// Badge renders the markdown badge line for a score.
func Badge(score scoring.Score) string {
	return fmt.Sprintf("![MCP Security Score](%s)", fmt.Sprintf(shieldsURL, score.Letter, score.Color))
}

// Write grades the aggregate and persists the JSON report (the aggregate
// verbatim, indented) and the badge markdown into dir, creating it if
// needed.
func Write(agg *engine.Aggregate, dir string) (*Artifacts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling aggregate: %w", err)
	}

	reportPath := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}

	score := scoring.Grade(agg)
	badgePath := filepath.Join(dir, BadgeFile)
	if err := os.WriteFile(badgePath, []byte(Badge(score)+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing badge: %w", err)
	}

	return &Artifacts{
		ReportPath: reportPath,
		BadgePath:  badgePath,
		Score:      score,
	}, nil
}

// Load reads a previously written report back into an aggregate.
func Load(path string) (*engine.Aggregate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	agg := engine.NewAggregate("")
	if err := json.Unmarshal(data, agg); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return agg, nil
}
