package protocol

import (
	"context"
	"log/slog"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

func newTestSession(t *testing.T) (*Session, *pipeTransport) {
	t.Helper()

	server := mcp.NewSDKServer("calc", "1.2.0")
	server.AddTool(
		mcp.NewTool("add", "Add two numbers", mcp.SimpleSchema(map[string]string{"a": "float64", "b": "float64"})),
		func(_ context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
			args, err := mcp.ParseArguments(req)
			if err != nil {
				return nil, err
			}

			a, _ := args["a"].(float64)
			b, _ := args["b"].(float64)

			if a+b == 3 {
				return mcp.TextResult("3"), nil
			}

			return mcp.ErrorResult("unexpected sum"), nil
		},
	)

	options := &config.Options{
		MCPServers: map[string]mcp.ServerConfig{
			"calc":   &mcp.SDKServerConfig{Name: "calc", Instance: server},
			"remote": &mcp.HTTPServer{URL: "https://example.com/mcp"},
		},
	}

	transport := newPipeTransport()
	log := slog.New(slog.DiscardHandler)
	controller := NewController(log, transport)
	session := NewSession(log, controller, options)
	session.RegisterHandlers()
	controller.Start(t.Context())
	t.Cleanup(controller.Stop)

	return session, transport
}

func mcpRequest(id, server string, message map[string]any) map[string]any {
	return map[string]any{
		"type":       TypeControlRequest,
		"request_id": id,
		"request": map[string]any{
			"subtype":     "mcp_message",
			"server_name": server,
			"message":     message,
		},
	}
}

func mcpResponse(t *testing.T, frame map[string]any) map[string]any {
	t.Helper()

	body, ok := frame["response"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "success", body["subtype"])

	payload, ok := body["response"].(map[string]any)
	require.True(t, ok)

	rpc, ok := payload["mcp_response"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "2.0", rpc["jsonrpc"])

	return rpc
}

func TestSession_Initialize(t *testing.T) {
	t.Parallel()

	session, transport := newTestSession(t)
	require.Nil(t, session.InitializationResult())

	done := make(chan error, 1)

	go func() { done <- session.Initialize(t.Context()) }()

	frame := transport.next(t)
	require.Equal(t, map[string]any{"subtype": "initialize", "hooks": nil}, frame["request"])

	transport.inbound <- successFor(frame, map[string]any{"commands": []any{"/help"}})
	require.NoError(t, <-done)

	result := session.InitializationResult()
	require.Equal(t, []any{"/help"}, result["commands"])

	result["commands"] = nil
	require.NotNil(t, session.InitializationResult()["commands"])
}

func TestSession_InitializeTimeoutFromEnv(t *testing.T) {
	t.Setenv(EnvInitializeTimeout, "7")
	require.Equal(t, 7*time.Second, initializeTimeout())

	t.Setenv(EnvInitializeTimeout, "soon")
	require.Equal(t, defaultInitializeTimeout, initializeTimeout())
}

func TestSession_SDKServerNames(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	require.Equal(t, []string{"calc"}, session.SDKServerNames())

	empty := NewSession(slog.New(slog.DiscardHandler), nil, nil)
	require.Empty(t, empty.SDKServerNames())
}

func TestSession_MCPMessages(t *testing.T) {
	t.Parallel()

	_, transport := newTestSession(t)

	t.Run("initialize", func(t *testing.T) {
		transport.inbound <- mcpRequest("m1", "calc", map[string]any{
			"jsonrpc": "2.0", "id": float64(1), "method": "initialize",
		})

		rpc := mcpResponse(t, transport.next(t))
		require.Equal(t, float64(1), rpc["id"])

		result := rpc["result"].(map[string]any)
		require.Equal(t, mcpProtocolVersion, result["protocolVersion"])
		require.Equal(t, map[string]any{"name": "calc", "version": "1.2.0"}, result["serverInfo"])
	})

	t.Run("notifications/initialized", func(t *testing.T) {
		transport.inbound <- mcpRequest("m2", "calc", map[string]any{
			"jsonrpc": "2.0", "method": "notifications/initialized",
		})

		rpc := mcpResponse(t, transport.next(t))
		require.Equal(t, map[string]any{}, rpc["result"])
	})

	t.Run("tools/list", func(t *testing.T) {
		transport.inbound <- mcpRequest("m3", "calc", map[string]any{
			"jsonrpc": "2.0", "id": "list", "method": "tools/list",
		})

		rpc := mcpResponse(t, transport.next(t))
		tools := rpc["result"].(map[string]any)["tools"].([]map[string]any)
		require.Len(t, tools, 1)
		require.Equal(t, "add", tools[0]["name"])
		require.NotNil(t, tools[0]["inputSchema"])
	})

	t.Run("tools/call", func(t *testing.T) {
		transport.inbound <- mcpRequest("m4", "calc", map[string]any{
			"jsonrpc": "2.0",
			"id":      float64(4),
			"method":  "tools/call",
			"params": map[string]any{
				"name":      "add",
				"arguments": map[string]any{"a": float64(1), "b": float64(2)},
			},
		})

		rpc := mcpResponse(t, transport.next(t))
		result := rpc["result"].(map[string]any)
		require.Nil(t, result["is_error"])

		content := result["content"].([]map[string]any)
		require.Len(t, content, 1)
		require.Equal(t, "3", content[0]["text"])
	})

	t.Run("tools/call without name", func(t *testing.T) {
		transport.inbound <- mcpRequest("m5", "calc", map[string]any{
			"jsonrpc": "2.0", "id": float64(5), "method": "tools/call", "params": map[string]any{},
		})

		rpc := mcpResponse(t, transport.next(t))
		require.Equal(t, codeInvalidParams, rpc["error"].(map[string]any)["code"])
	})

	t.Run("unknown method", func(t *testing.T) {
		transport.inbound <- mcpRequest("m6", "calc", map[string]any{
			"jsonrpc": "2.0", "id": float64(6), "method": "resources/list",
		})

		rpc := mcpResponse(t, transport.next(t))
		require.Equal(t, codeMethodNotFound, rpc["error"].(map[string]any)["code"])
	})

	t.Run("unknown server", func(t *testing.T) {
		transport.inbound <- mcpRequest("m7", "remote", map[string]any{
			"jsonrpc": "2.0", "id": float64(7), "method": "tools/list",
		})

		rpc := mcpResponse(t, transport.next(t))
		require.Equal(t, "MCP server not found: remote", rpc["error"].(map[string]any)["message"])
	})

	t.Run("missing message", func(t *testing.T) {
		transport.inbound <- map[string]any{
			"type":       TypeControlRequest,
			"request_id": "m8",
			"request":    map[string]any{"subtype": "mcp_message", "server_name": "calc"},
		}

		require.Equal(t, errorFrame("m8", "mcp_message request missing message"), transport.next(t))
	})
}
