package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcptestbench/mcptestbench/pkg/config"
	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/docker"
	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/exitcode"
	"github.com/mcptestbench/mcptestbench/pkg/report"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
	"github.com/mcptestbench/mcptestbench/pkg/ui"
)

var runFlags struct {
	stdio      string
	output     string
	configFile string
	docker     bool
	dockerPath string
	verbose    bool
	silent     bool
	noColor    bool
}

var runCmd = &cobra.Command{
	Use:   "run [target-url]",
	Short: "Run all security test plugins against a target",
	Long: `Run every registered plugin against the target and write a JSON report
plus a security badge.

The target is either a base URL of a running MCP server, a local command
spawned and driven over stdio, or a directory tested inside an isolated
container.`,
	Example: `  # Test a running HTTP MCP server
  mcp-testbench run http://localhost:8000

  # Spawn a stdio MCP server and test it
  mcp-testbench run --stdio "npx time-mcp"

  # Container-isolated testing
  mcp-testbench run --docker --docker-path ./my-mcp-server

  # Custom output directory
  mcp-testbench run http://localhost:8000 --output ./reports`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBench,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.stdio, "stdio", "", `spawn command for a stdio MCP server (split on whitespace, e.g. "npx time-mcp")`)
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "", "output directory for reports (default ./mcp_testbench_report)")
	runCmd.Flags().StringVar(&runFlags.configFile, "config", "", "YAML config file; flags override file values")
	runCmd.Flags().BoolVar(&runFlags.docker, "docker", false, "run the target inside an isolated container (requires --docker-path)")
	runCmd.Flags().StringVar(&runFlags.dockerPath, "docker-path", "", "MCP server directory to mount into the container")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "verbose output")
	runCmd.Flags().BoolVar(&runFlags.silent, "silent", false, "suppress banner and summary output")
	runCmd.Flags().BoolVar(&runFlags.noColor, "no-color", false, "disable colored output")
	rootCmd.AddCommand(runCmd)
}

// buildConfig merges defaults, the optional config file, and flags.
func buildConfig(args []string) (*config.Config, error) {
	cfg := config.Default()
	if runFlags.configFile != "" {
		loaded, err := config.Load(runFlags.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(args) == 1 {
		cfg.Target = args[0]
	}
	if runFlags.stdio != "" {
		cfg.StdioCommand = strings.Fields(runFlags.stdio)
	}
	if runFlags.output != "" {
		cfg.OutputDir = runFlags.output
	}
	if runFlags.docker {
		cfg.Docker = true
	}
	if runFlags.dockerPath != "" {
		cfg.DockerPath = runFlags.dockerPath
	}
	cfg.Verbose = cfg.Verbose || runFlags.verbose
	cfg.Silent = cfg.Silent || runFlags.silent
	cfg.NoColor = cfg.NoColor || runFlags.noColor

	return cfg, cfg.Validate()
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return exitWith(exitcode.Configuration, err)
	}

	ui.SetSilent(cfg.Silent)
	ui.SetNoColor(cfg.NoColor)

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintBanner(cmd.OutOrStdout())

	agg, err := execute(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitWith(exitcode.Interrupted, err)
		}
		return exitWith(exitcode.Target, err)
	}

	score := scoring.Grade(agg)
	artifacts, err := report.Write(agg, cfg.OutputDir)
	if err != nil {
		return exitWith(exitcode.Configuration, err)
	}

	ui.PrintSummary(cmd.OutOrStdout(), agg, score)
	if !cfg.Silent {
		fmt.Fprintf(cmd.OutOrStdout(), "\nReport: %s\nBadge:  %s\n", artifacts.ReportPath, artifacts.BadgePath)
	}

	if code := exitcode.ForGrade(score.Letter); code != exitcode.Success {
		return exitWith(code, fmt.Errorf("grade %s: issues found", score.Letter))
	}
	return nil
}

// execute builds the engine for the configured mode and runs it. The Docker
// path starts the container, waits for health, and then tests the exposed
// endpoint through the ordinary HTTP transport.
func execute(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Aggregate, error) {
	if cfg.Docker {
		return executeDocker(ctx, cfg, logger)
	}

	var target engine.Target
	if len(cfg.StdioCommand) > 0 {
		target = engine.StdioTarget(cfg.StdioCommand...)
	} else {
		target = engine.HTTPTarget(cfg.Target)
	}

	eng, err := engine.New(target,
		engine.WithLogger(logger),
		engine.WithHTTPTimeout(cfg.HTTPTimeout.Std()),
		engine.WithStdioReadTimeout(cfg.StdioReadTimeout.Std()),
		engine.WithWarmup(cfg.Warmup.Std()),
	)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

func executeDocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Aggregate, error) {
	mgr := docker.NewManager()

	logger.Info("building container image", "image", mgr.Image)
	if err := mgr.BuildImage(ctx); err != nil {
		return nil, err
	}

	// Port forwarding is required so the bench can reach the target from
	// the host; full --network none isolation would also block the probes.
	id, err := mgr.RunContainer(ctx, cfg.DockerPath, false)
	if err != nil {
		return nil, err
	}
	logger.Info("container started", "id", shortID(id))
	defer func() {
		if err := mgr.StopContainer(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("stopping container failed", "error", err)
		}
	}()

	if !mgr.HealthCheck(ctx, "/health", defaults.HealthTimeout) {
		logger.Warn("health check failed, continuing anyway")
	}

	eng, err := engine.New(
		engine.HTTPTarget(fmt.Sprintf("http://localhost:%d", mgr.Port)),
		engine.WithLogger(logger),
		engine.WithHTTPTimeout(cfg.HTTPTimeout.Std()),
	)
	if err != nil {
		return nil, err
	}
	return eng.Run(ctx)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
