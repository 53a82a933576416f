// Package config holds run configuration with optional YAML file loading.
// CLI flags override file values; file values override defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
)

// Duration wraps time.Duration so YAML files can spell timeouts as "10s"
// or "2m". Bare integers are taken as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs int64
	if err := value.Decode(&secs); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(time.Duration(secs) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full run configuration.
type Config struct {
	// Target is the HTTP/HTTPS base address of the server under test.
	Target string `yaml:"target"`

	// StdioCommand is the argv of a local server to spawn and drive over
	// its standard streams. Mutually exclusive with Target.
	StdioCommand []string `yaml:"stdio_command"`

	// OutputDir is where the JSON report and badge are written.
	OutputDir string `yaml:"output_dir"`

	// HTTPTimeout is the per-request timeout for the HTTP transport.
	HTTPTimeout Duration `yaml:"http_timeout"`

	// StdioReadTimeout bounds each response-line read from a spawned target.
	StdioReadTimeout Duration `yaml:"stdio_read_timeout"`

	// Warmup is the post-spawn grace period before the first request.
	Warmup Duration `yaml:"warmup"`

	// Docker enables the container-isolated orchestration path.
	Docker bool `yaml:"docker"`

	// DockerPath is the target directory mounted into the container.
	DockerPath string `yaml:"docker_path"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`

	// Silent suppresses banner and summary output.
	Silent bool `yaml:"silent"`

	// NoColor disables colored output.
	NoColor bool `yaml:"no_color"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		OutputDir:        "./mcp_testbench_report",
		HTTPTimeout:      Duration(defaults.HTTPTimeout),
		StdioReadTimeout: Duration(defaults.StdioReadTimeout),
		Warmup:           Duration(defaults.StdioWarmup),
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the mode invariants before a run.
func (c *Config) Validate() error {
	modes := 0
	if c.Target != "" {
		modes++
	}
	if len(c.StdioCommand) > 0 {
		modes++
	}
	if c.Docker {
		if c.DockerPath == "" {
			return errors.New("config: docker mode requires a docker path")
		}
		modes++
	}
	switch {
	case modes == 0:
		return errors.New("config: one of target, stdio command or docker mode is required")
	case modes > 1:
		return errors.New("config: target, stdio command and docker mode are mutually exclusive")
	}
	if c.OutputDir == "" {
		return errors.New("config: output directory is required")
	}
	return nil
}
