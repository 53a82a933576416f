// Package ui renders the banner and human-readable run summaries.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
)

var (
	uiMu        sync.RWMutex
	silentMode  bool
	noColorMode bool
)

// SetSilent suppresses all banner and summary output.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent reports whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output for the whole process.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	nameStyle  = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// riskStyles maps risk levels to severity colors.
var riskStyles = map[plugin.RiskLevel]lipgloss.Style{
	plugin.RiskCritical: errStyle,
	plugin.RiskHigh:     errStyle,
	plugin.RiskMedium:   warnStyle,
	plugin.RiskLow:      okStyle,
	plugin.RiskNone:     okStyle,
}

// PrintBanner writes the startup banner.
func PrintBanner(w io.Writer) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, titleStyle.Render("MCP TESTBENCH")+" "+frameStyle.Render("v"+defaults.Version))
	fmt.Fprintln(w, frameStyle.Render("security testing for MCP servers"))
	fmt.Fprintln(w)
}

// PrintSummary writes a per-plugin breakdown of the aggregate plus the
// final grade.
func PrintSummary(w io.Writer, agg *engine.Aggregate, score scoring.Score) {
	if IsSilent() {
		return
	}

	fmt.Fprintln(w, frameStyle.Render("═══ SECURITY TEST RESULTS ═══"))

	for _, entry := range agg.Entries() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, nameStyle.Render(entry.Name))

		res := entry.Result
		if res.Failed() {
			fmt.Fprintf(w, "  %s %s\n", errStyle.Render("ERROR:"), res.Error)
			continue
		}
		if res.Status != "" {
			fmt.Fprintf(w, "  status: %s\n", res.Status)
		}
		for _, key := range []string{"vulnerabilities_found", "crashes", "timeouts", "unexpected_responses"} {
			if v, ok := res.Extra[key]; ok {
				fmt.Fprintf(w, "  %s: %v\n", key, v)
			}
		}
		if res.Risk != plugin.RiskUnset {
			style, ok := riskStyles[res.Risk]
			if !ok {
				style = nameStyle
			}
			fmt.Fprintf(w, "  risk level: %s\n", style.Render(res.Risk.String()))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s (score %d)\n",
		nameStyle.Render("Grade:"), gradeStyle(score).Render(score.Letter), score.Value)
}

func gradeStyle(score scoring.Score) lipgloss.Style {
	switch score.Letter {
	case "A", "B":
		return okStyle
	case "C":
		return warnStyle
	default:
		return errStyle
	}
}
