package claudecode

import "github.com/codegen-sh/claude-code-sdk-go/internal/mcp"

// CreateSdkMcpServer creates an in-process MCP server. Register it under the
// same name; the peer then sees its tools as mcp__<name>__<tool>.
//
//	calc := claudecode.CreateSdkMcpServer("calc", "1.0.0", add)
//
//	for msg, err := range claudecode.Query(ctx, "What is 2+3?",
//	    claudecode.WithMCPServers(map[string]claudecode.MCPServerConfig{"calc": calc}),
//	    claudecode.WithAllowedTools("mcp__calc__add"),
//	) {
//	    // ...
//	}
func CreateSdkMcpServer(name, version string, tools ...*SdkMcpTool) *MCPSdkServerConfig {
	server := mcp.NewSDKServer(name, version)

	for _, t := range tools {
		tool := mcp.NewTool(t.Name, t.Description, t.Schema)
		tool.Annotations = t.Annotations
		server.AddTool(tool, t.Handler)
	}

	return &MCPSdkServerConfig{Name: name, Instance: server}
}
