// Package docker drives the external container runtime used for isolated
// testing: build an image, start a container exposing the target, wait for
// health, stop it. The engine and transports never touch this package; only
// the Docker-backed orchestration path does, and it then talks to the
// exposed endpoint through the ordinary HTTP transport.
package docker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
)

// ErrNotRunning is returned when an operation requires a started container.
var ErrNotRunning = errors.New("docker: container not started")

// Manager builds and runs the isolated test container via the docker CLI.
type Manager struct {
	// Image is the tag the runner image is built as.
	Image string
	// Dockerfile is the path of the Dockerfile to build from.
	Dockerfile string
	// CPU and Memory are the container resource limits.
	CPU    string
	Memory string
	// Port is the host port the non-isolated mode forwards to.
	Port int

	containerID string
	runCmd      func(ctx context.Context, args ...string) (string, error)
	httpClient  *http.Client
}

// NewManager creates a manager with the default image name and limits.
func NewManager() *Manager {
	return &Manager{
		Image:      "mcp-testbench-runner",
		Dockerfile: "Dockerfile",
		CPU:        "2",
		Memory:     "2g",
		Port:       8000,
		runCmd:     runDocker,
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
}

// ContainerID returns the running container's id, empty when stopped.
func (m *Manager) ContainerID() string { return m.containerID }

// BuildImage builds the runner image from the configured Dockerfile.
func (m *Manager) BuildImage(ctx context.Context) error {
	_, err := m.runCmd(ctx, buildArgs(m.Image, m.Dockerfile)...)
	if err != nil {
		return fmt.Errorf("building image %s: %w", m.Image, err)
	}
	return nil
}

// RunContainer starts the container with the target directory mounted at
// /app. Isolated mode runs with no network at all; otherwise the service
// port is forwarded to the host so the HTTP transport can reach it.
// Returns the container id.
func (m *Manager) RunContainer(ctx context.Context, targetPath string, isolated bool) (string, error) {
	out, err := m.runCmd(ctx, runArgs(m.Image, targetPath, m.CPU, m.Memory, m.Port, isolated)...)
	if err != nil {
		return "", fmt.Errorf("starting container: %w", err)
	}
	m.containerID = strings.TrimSpace(out)
	return m.containerID, nil
}

// StopContainer stops the running container, if any. Safe to call twice.
func (m *Manager) StopContainer(ctx context.Context) error {
	if m.containerID == "" {
		return nil
	}
	id := m.containerID
	m.containerID = ""
	if _, err := m.runCmd(ctx, "stop", id); err != nil {
		return fmt.Errorf("stopping container %s: %w", id, err)
	}
	return nil
}

// Exec runs a command inside the running container and returns its stdout.
func (m *Manager) Exec(ctx context.Context, argv ...string) (string, error) {
	if m.containerID == "" {
		return "", ErrNotRunning
	}
	args := append([]string{"exec", m.containerID}, argv...)
	out, err := m.runCmd(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("exec in container: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HealthCheck polls the forwarded endpoint until it answers 200 or the
// timeout elapses. Returns true on success.
func (m *Manager) HealthCheck(ctx context.Context, endpoint string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = defaults.HealthTimeout
	}
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://localhost:%d%s", m.Port, endpoint)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if m.probe(ctx, url) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(defaults.HealthInterval):
		}
	}
	return false
}

func (m *Manager) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// buildArgs assembles the docker build argv.
func buildArgs(image, dockerfile string) []string {
	return []string{"build", "-t", image, "-f", dockerfile, "."}
}

// runArgs assembles the docker run argv. Isolated mode uses --network none,
// which also blocks the container's outbound traffic.
func runArgs(image, targetPath, cpu, memory string, port int, isolated bool) []string {
	args := []string{"run", "-d", "--rm"}
	if isolated {
		args = append(args, "--network", "none")
	} else {
		args = append(args, "-p", fmt.Sprintf("%d:%d", port, port))
	}
	args = append(args,
		"--cpus", cpu,
		"--memory", memory,
		"-v", targetPath+":/app",
		"-w", "/app",
		image,
	)
	return args
}

// runDocker shells out to the docker CLI and returns combined output.
func runDocker(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docker %s: %w (output: %s)", args[0], err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
