package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

const (
	defaultInitializeTimeout = 60 * time.Second

	// EnvInitializeTimeout overrides the initialize timeout, in seconds.
	EnvInitializeTimeout = "CLAUDE_CODE_STREAM_CLOSE_TIMEOUT"

	mcpProtocolVersion = "2024-11-05"
)

// JSON-RPC error codes used in MCP replies.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Session answers the peer's control requests for one connection: it hosts
// the in-process MCP servers and performs the initialize handshake.
type Session struct {
	log        *slog.Logger
	controller *Controller
	servers    map[string]mcp.ServerInstance

	initMu     sync.RWMutex
	initResult map[string]any
}

// NewSession creates a session serving the in-process servers in options.
func NewSession(log *slog.Logger, controller *Controller, options *config.Options) *Session {
	s := &Session{
		log:        log.With("component", "session"),
		controller: controller,
	}

	if options != nil {
		s.servers = mcp.SDKServers(options.MCPServers)
	}

	return s
}

// RegisterHandlers installs the session's request handlers. Call it before
// the controller starts.
func (s *Session) RegisterHandlers() {
	s.controller.Handle("mcp_message", s.handleMCPMessage)
}

// Initialize performs the initialize handshake and keeps the peer's reply.
func (s *Session) Initialize(ctx context.Context) error {
	result, err := s.controller.Request(ctx, "initialize", map[string]any{"hooks": nil}, initializeTimeout())
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	s.initMu.Lock()
	s.initResult = result
	s.initMu.Unlock()

	s.log.Debug("Session initialized", "sdk_servers", len(s.servers))

	return nil
}

func initializeTimeout() time.Duration {
	if v := os.Getenv(EnvInitializeTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	return defaultInitializeTimeout
}

// InitializationResult returns a copy of the initialize reply, or nil
// before Initialize succeeds.
func (s *Session) InitializationResult() map[string]any {
	s.initMu.RLock()
	defer s.initMu.RUnlock()

	return maps.Clone(s.initResult)
}

// SDKServerNames lists the in-process servers, sorted.
func (s *Session) SDKServerNames() []string {
	return slices.Sorted(maps.Keys(s.servers))
}

// handleMCPMessage routes a JSON-RPC message to the named in-process server.
// Protocol failures are reported as JSON-RPC errors inside a successful
// control response.
func (s *Session) handleMCPMessage(ctx context.Context, req *Request) (map[string]any, error) {
	serverName, _ := req.Body["server_name"].(string)

	message, ok := req.Body["message"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("mcp_message request missing message")
	}

	id := message["id"]
	method, _ := message["method"].(string)

	server, ok := s.servers[serverName]
	if !ok {
		return rpcError(id, codeInvalidRequest, "MCP server not found: "+serverName), nil
	}

	s.log.Debug("Handling MCP message", "server", serverName, "method", method)

	switch method {
	case "initialize":
		return rpcResult(id, map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo": map[string]any{
				"name":    server.Name(),
				"version": server.Version(),
			},
		}), nil
	case "notifications/initialized":
		return rpcResult(id, map[string]any{}), nil
	case "tools/list":
		return rpcResult(id, map[string]any{"tools": server.ListTools()}), nil
	case "tools/call":
		return s.callTool(ctx, id, message, server), nil
	default:
		return rpcError(id, codeMethodNotFound, "Method not found: "+method), nil
	}
}

func (s *Session) callTool(ctx context.Context, id any, message map[string]any, server mcp.ServerInstance) map[string]any {
	params, _ := message["params"].(map[string]any)

	name, _ := params["name"].(string)
	if name == "" {
		return rpcError(id, codeInvalidParams, "Missing tool name in params")
	}

	arguments, _ := params["arguments"].(map[string]any)

	result, err := server.CallTool(ctx, name, arguments)
	if err != nil {
		return rpcError(id, codeInternalError, err.Error())
	}

	return rpcResult(id, result)
}

func rpcResult(id any, result map[string]any) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"result":  result,
		},
	}
}

func rpcError(id any, code int, message string) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
	}
}
