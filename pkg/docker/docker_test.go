package docker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeManager replaces the docker CLI with a recording stub.
func fakeManager(output string, err error) (*Manager, *[][]string) {
	var calls [][]string
	m := NewManager()
	m.runCmd = func(_ context.Context, args ...string) (string, error) {
		calls = append(calls, args)
		return output, err
	}
	return m, &calls
}

func TestBuildArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"build", "-t", "mcp-testbench-runner", "-f", "Dockerfile", "."},
		buildArgs("mcp-testbench-runner", "Dockerfile"))
}

func TestRunArgs(t *testing.T) {
	t.Run("forwarded", func(t *testing.T) {
		args := runArgs("img", "/srv/target", "2", "2g", 8000, false)
		assert.Contains(t, args, "-p")
		assert.Contains(t, args, "8000:8000")
		assert.NotContains(t, args, "--network")
		assert.Contains(t, args, "/srv/target:/app")
	})

	t.Run("isolated", func(t *testing.T) {
		args := runArgs("img", "/srv/target", "2", "2g", 8000, true)
		assert.Contains(t, args, "--network")
		assert.Contains(t, args, "none")
		assert.NotContains(t, args, "-p")
	})

	t.Run("resource limits", func(t *testing.T) {
		args := runArgs("img", "/srv/target", "4", "8g", 8000, false)
		assert.Contains(t, args, "--cpus")
		assert.Contains(t, args, "4")
		assert.Contains(t, args, "--memory")
		assert.Contains(t, args, "8g")
	})
}

func TestBuildImage(t *testing.T) {
	m, calls := fakeManager("", nil)
	require.NoError(t, m.BuildImage(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, "build", (*calls)[0][0])
}

func TestBuildImageFailure(t *testing.T) {
	m, _ := fakeManager("", errors.New("daemon not running"))
	err := m.BuildImage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "building image")
}

func TestRunAndStopContainer(t *testing.T) {
	m, calls := fakeManager("abc123def456\n", nil)

	id, err := m.RunContainer(context.Background(), "/srv/target", false)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", id)
	assert.Equal(t, "abc123def456", m.ContainerID())

	require.NoError(t, m.StopContainer(context.Background()))
	assert.Empty(t, m.ContainerID())

	// Second stop is a no-op.
	require.NoError(t, m.StopContainer(context.Background()))

	var stops int
	for _, c := range *calls {
		if c[0] == "stop" {
			stops++
			assert.Equal(t, "abc123def456", c[1])
		}
	}
	assert.Equal(t, 1, stops)
}

func TestExecRequiresRunningContainer(t *testing.T) {
	m, _ := fakeManager("", nil)
	_, err := m.Exec(context.Background(), "ls")
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestExec(t *testing.T) {
	m, calls := fakeManager("ok\n", nil)
	_, err := m.RunContainer(context.Background(), "/srv/target", true)
	require.NoError(t, err)

	out, err := m.Exec(context.Background(), "cat", "/etc/hostname")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	last := (*calls)[len(*calls)-1]
	assert.Equal(t, []string{"exec", "ok", "cat", "/etc/hostname"}, last)
}

func TestHealthCheck(t *testing.T) {
	// Answer 503 twice, then 200.
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	m := NewManager()
	m.Port = port

	assert.True(t, m.HealthCheck(context.Background(), "/health", 10*time.Second))
	assert.GreaterOrEqual(t, hits, 3)
}

func TestHealthCheckTimesOut(t *testing.T) {
	m := NewManager()
	m.Port = 1 // nothing listens here

	start := time.Now()
	ok := m.HealthCheck(context.Background(), "/health", 100*time.Millisecond)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHealthCheckHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager()
	m.Port = 1
	assert.False(t, m.HealthCheck(ctx, "/health", 30*time.Second))
}
