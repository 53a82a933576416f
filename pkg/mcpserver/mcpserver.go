// Package mcpserver exposes the testbench itself over the Model Context
// Protocol, so IDE agents can inventory plugins and launch runs as tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcptestbench/mcptestbench/pkg/defaults"
	"github.com/mcptestbench/mcptestbench/pkg/engine"
	"github.com/mcptestbench/mcptestbench/pkg/scoring"
)

// Server wraps the MCP server with testbench tools.
type Server struct {
	mcp *mcp.Server
}

// New creates an MCP server with all testbench tools registered.
func New() *Server {
	s := &Server{}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "mcp-testbench",
			Title:   "MCP Testbench",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: "Security testing for MCP servers: list the available " +
				"test plugins with list_plugins, then run the full bench against " +
				"an HTTP endpoint or a local stdio command with run_bench.",
		},
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for direct access (e.g. testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// RunStdio serves the bench over stdio transport, the primary mode for IDE
// integrations.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.addListPluginsTool()
	s.addRunBenchTool()
}

// ---------------------------------------------------------------------------
// list_plugins
// ---------------------------------------------------------------------------

type pluginInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) addListPluginsTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:        "list_plugins",
			Title:       "List Test Plugins",
			Description: "Inventory the built-in security test plugins without sending any traffic. Read-only, instant.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				Title:          "List Test Plugins",
			},
		},
		s.handleListPlugins,
	)
}

func (s *Server) handleListPlugins(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	registry := engine.DefaultRegistry()
	infos := make([]pluginInfo, 0, registry.Len())
	for _, p := range registry.Plugins() {
		infos = append(infos, pluginInfo{Name: p.Name(), Description: p.Description()})
	}
	return jsonResult(map[string]any{"plugins": infos})
}

// ---------------------------------------------------------------------------
// run_bench
// ---------------------------------------------------------------------------

type runBenchArgs struct {
	Target       string   `json:"target"`
	StdioCommand []string `json:"stdio_command"`
}

type runBenchResult struct {
	Grade     string            `json:"grade"`
	Score     int               `json:"score"`
	Aggregate *engine.Aggregate `json:"aggregate"`
}

func (s *Server) addRunBenchTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "run_bench",
			Title: "Run Security Bench",
			Description: `Run every security test plugin against an MCP server and return the aggregate findings plus a letter grade.

Provide exactly one of:
• "target": HTTP/HTTPS base address of a running server
• "stdio_command": argv of a local server to spawn and drive over stdio

Sends malformed and malicious probe traffic. Only point this at servers you are authorized to test.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"target": map[string]any{
						"type":        "string",
						"description": "HTTP base address, e.g. http://localhost:8000",
						"format":      "uri",
					},
					"stdio_command": map[string]any{
						"type":        "array",
						"description": "Spawn command argv, e.g. [\"npx\", \"time-mcp\"]",
						"items":       map[string]any{"type": "string"},
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   false,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(true),
				Title:          "Run Security Bench",
			},
		},
		s.handleRunBench,
	)
}

func (s *Server) handleRunBench(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args runBenchArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'target' (string) or 'stdio_command' (string array).", err)), nil
	}

	var target engine.Target
	switch {
	case args.Target != "" && len(args.StdioCommand) > 0:
		return errorResult("provide either 'target' or 'stdio_command', not both"), nil
	case args.Target != "":
		target = engine.HTTPTarget(args.Target)
	case len(args.StdioCommand) > 0:
		target = engine.StdioTarget(args.StdioCommand...)
	default:
		return errorResult("one of 'target' or 'stdio_command' is required"), nil
	}

	eng, err := engine.New(target)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid target: %v", err)), nil
	}
	agg, err := eng.Run(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("run failed: %v. Verify the target is reachable or the command is spawnable.", err)), nil
	}

	score := scoring.Grade(agg)
	return jsonResult(runBenchResult{
		Grade:     score.Letter,
		Score:     score.Value,
		Aggregate: agg,
	})
}

// ---------------------------------------------------------------------------
// Helpers: result builders
// ---------------------------------------------------------------------------

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError result so the agent can self-correct
// instead of hitting a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, dst)
}

// boolPtr returns a pointer to b, for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }
