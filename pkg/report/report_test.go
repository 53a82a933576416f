package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/report"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
)

func sampleAggregate(t *testing.T) *engine.Aggregate {
	t.Helper()
	agg := engine.NewAggregate("run-test")
	require.NoError(t, json.Unmarshal([]byte(`{
		"run_id": "run-test",
		"plugins": {
			"CVEScanner": {"status":"completed","risk_level":"NONE","vulnerabilities_found":0},
			"Fuzzer": {"status":"completed","crashes":0,"timeouts":0,"risk_level":"LOW"}
		}
	}`), agg))
	return agg
}

func TestWriteCreatesArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")

	artifacts, err := report.Write(sampleAggregate(t), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, report.ReportFile), artifacts.ReportPath)
	assert.Equal(t, filepath.Join(dir, report.BadgeFile), artifacts.BadgePath)
	assert.Equal(t, "A", artifacts.Score.Letter)

	data, err := os.ReadFile(artifacts.ReportPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), `"run_id":"run-test"`)

	badge, err := os.ReadFile(artifacts.BadgePath)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(badge), "\n"))
}

func TestReportPreservesPluginOrder(t *testing.T) {
	dir := t.TempDir()
	artifacts, err := report.Write(sampleAggregate(t), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(artifacts.ReportPath)
	require.NoError(t, err)

	s := string(data)
	assert.True(t, strings.Index(s, "CVEScanner") < strings.Index(s, "Fuzzer"))
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := sampleAggregate(t)

	artifacts, err := report.Write(in, dir)
	require.NoError(t, err)

	out, err := report.Load(artifacts.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, "run-test", out.RunID)
	assert.Equal(t, in.Names(), out.Names())

	// The reloaded aggregate grades identically to the in-process one.
	assert.Equal(t, scoring.Grade(in), scoring.Grade(out))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := report.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading report")
}

func TestBadgeFormat(t *testing.T) {
	badge := report.Badge(scoring.Score{Letter: "B", Color: "green"})
	assert.Equal(t, "![MCP Security Score](https://img.shields.io/badge/Security-B-green)", badge)
}
