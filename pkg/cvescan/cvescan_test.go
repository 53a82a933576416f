package cvescan_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcptestbench/mcptestbench/pkg/cvescan"
	"github.com/mcptestbench/mcptestbench/pkg/plugin"
	"github.com/mcptestbench/mcptestbench/pkg/transport"
)

func scan(t *testing.T, handler http.HandlerFunc) plugin.Result {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tr := transport.NewHTTP(srv.URL)
	t.Cleanup(func() { tr.Close() })

	res, err := cvescan.New().Run(context.Background(), tr)
	require.NoError(t, err)
	return res
}

func TestAdvisoriesAreStable(t *testing.T) {
	advs := cvescan.Advisories()
	require.NotEmpty(t, advs)
	for _, adv := range advs {
		assert.NotEmpty(t, adv.ID)
		assert.NotEmpty(t, adv.Indicators)
		assert.Greater(t, adv.CVSS, 0.0)
	}
}

func TestCleanTarget(t *testing.T) {
	res := scan(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "nginx/1.25")
		w.Write([]byte(`{"name":"time-mcp","version":"1.0.0"}`))
	})

	assert.Equal(t, "completed", res.Status)
	assert.Equal(t, plugin.RiskNone, res.Risk)
	assert.Equal(t, 0, res.Extra["vulnerabilities_found"])

	info, ok := res.Extra["server_info"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "nginx/1.25", info["server_header"])
}

func TestBodyIndicatorIsCritical(t *testing.T) {
	res := scan(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"proxy":"mcp-remote v0.3"}`))
	})

	assert.Equal(t, plugin.RiskCritical, res.Risk)
	assert.Equal(t, 1, res.Extra["vulnerabilities_found"])

	matches, ok := res.Extra["vulnerabilities"].([]cvescan.Match)
	require.True(t, ok)
	require.Len(t, matches, 1)
	assert.Equal(t, "CVE-2025-6514", matches[0].CVEID)
	assert.InDelta(t, 9.6, matches[0].CVSS, 0.01)
}

func TestHeaderIndicatorIsCritical(t *testing.T) {
	res := scan(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Powered-By", "MCP-Inspector/0.14")
		w.Write([]byte(`{}`))
	})

	assert.Equal(t, plugin.RiskCritical, res.Risk)

	matches := res.Extra["vulnerabilities"].([]cvescan.Match)
	require.Len(t, matches, 1)
	assert.Equal(t, "CVE-2025-49596", matches[0].CVEID)
}

func TestEachAdvisoryMatchesAtMostOnce(t *testing.T) {
	// Both indicators of one advisory present must yield a single match.
	res := scan(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`served at /remote/ by mcp-remote`))
	})

	matches := res.Extra["vulnerabilities"].([]cvescan.Match)
	assert.Len(t, matches, 1)
}

func TestTimeoutReportsTimeoutStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	tr := transport.NewHTTP(srv.URL, transport.WithHTTPTimeout(100*time.Millisecond))
	t.Cleanup(func() { tr.Close() })

	res, err := cvescan.New().Run(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, "timeout", res.Status)
	assert.True(t, res.Failed())
}

func TestUnreachableTargetReportsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	tr := transport.NewHTTP(addr)
	t.Cleanup(func() { tr.Close() })

	res, err := cvescan.New().Run(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, "error", res.Status)
	assert.True(t, res.Failed())
}
