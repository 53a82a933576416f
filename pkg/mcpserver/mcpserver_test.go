package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callToolRequest(t *testing.T, args any) *mcp.CallToolRequest {
	t.Helper()
	argBytes, err := json.Marshal(args)
	require.NoError(t, err)
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Arguments: json.RawMessage(argBytes),
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func TestNewRegistersServer(t *testing.T) {
	s := New()
	require.NotNil(t, s.MCPServer())
}

func TestHandleListPlugins(t *testing.T) {
	s := &Server{}
	result, err := s.handleListPlugins(context.Background(), callToolRequest(t, map[string]any{}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Plugins []pluginInfo `json:"plugins"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))

	names := make([]string, 0, len(out.Plugins))
	for _, p := range out.Plugins {
		names = append(names, p.Name)
		assert.NotEmpty(t, p.Description)
	}
	assert.Equal(t, []string{"CVEScanner", "Fuzzer", "PromptInjection"}, names)
}

func TestHandleRunBenchArgumentValidation(t *testing.T) {
	s := &Server{}

	t.Run("no target", func(t *testing.T) {
		result, err := s.handleRunBench(context.Background(), callToolRequest(t, map[string]any{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "required")
	})

	t.Run("both targets", func(t *testing.T) {
		result, err := s.handleRunBench(context.Background(), callToolRequest(t, map[string]any{
			"target":        "http://localhost:8000",
			"stdio_command": []string{"npx", "time-mcp"},
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "not both")
	})

	t.Run("malformed arguments", func(t *testing.T) {
		req := &mcp.CallToolRequest{
			Params: &mcp.CallToolParamsRaw{
				Arguments: json.RawMessage(`{"target": 42}`),
			},
		}
		result, err := s.handleRunBench(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "invalid arguments")
	})

	t.Run("schemeless target", func(t *testing.T) {
		result, err := s.handleRunBench(context.Background(), callToolRequest(t, map[string]any{
			"target": "localhost:8000",
		}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "invalid target")
	})
}

func TestHandleRunBenchUnspawnableCommand(t *testing.T) {
	s := &Server{}
	result, err := s.handleRunBench(context.Background(), callToolRequest(t, map[string]any{
		"stdio_command": []string{"/nonexistent/mcp-server"},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "run failed")
}

func TestParseArgsEmptyArguments(t *testing.T) {
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}}
	var args runBenchArgs
	require.NoError(t, parseArgs(req, &args))
	assert.Empty(t, args.Target)
}

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, resultText(t, result))
	assert.False(t, result.IsError)
}

func TestErrorResult(t *testing.T) {
	result := errorResult("something broke")
	assert.True(t, result.IsError)
	assert.Equal(t, "something broke", resultText(t, result))
}
