package claudecode

import (
	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
	"github.com/codegen-sh/claude-code-sdk-go/internal/message"
)

// ===== Options =====

// ClaudeCodeOptions configures a session. The zero value is usable.
type ClaudeCodeOptions = config.Options

// PermissionMode controls how the peer asks before using tools.
type PermissionMode = config.PermissionMode

const (
	// PermissionModeDefault prompts for dangerous tools.
	PermissionModeDefault = config.PermissionModeDefault
	// PermissionModeAcceptEdits auto-accepts file edits.
	PermissionModeAcceptEdits = config.PermissionModeAcceptEdits
	// PermissionModeBypassPermissions allows every tool without prompting.
	PermissionModeBypassPermissions = config.PermissionModeBypassPermissions
)

// ===== MCP servers =====

// MCPServerConfig describes one MCP server made available to the session.
type MCPServerConfig = mcp.ServerConfig

// MCPServerType names the kind of an MCP server.
type MCPServerType = mcp.ServerType

const (
	MCPServerTypeStdio = mcp.ServerTypeStdio
	MCPServerTypeSSE   = mcp.ServerTypeSSE
	MCPServerTypeHTTP  = mcp.ServerTypeHTTP
	MCPServerTypeSDK   = mcp.ServerTypeSDK
)

// McpStdioServerConfig launches an MCP server as a subprocess.
type McpStdioServerConfig = mcp.StdioServer

// McpSSEServerConfig connects to an MCP server over Server-Sent Events.
type McpSSEServerConfig = mcp.SSEServer

// McpHTTPServerConfig connects to an MCP server over HTTP.
type McpHTTPServerConfig = mcp.HTTPServer

// MCPSdkServerConfig hosts an MCP server in this process.
type MCPSdkServerConfig = mcp.SDKServerConfig

// MCPStatus is the reply to Client.GetMCPStatus.
type MCPStatus = mcp.Status

// MCPServerStatus is one entry of MCPStatus.
type MCPServerStatus = mcp.ServerStatus

// ===== Messages =====

// Message is one record of the conversation: *UserMessage,
// *AssistantMessage, *SystemMessage or *ResultMessage.
type Message = message.Message

type (
	UserMessage      = message.UserMessage
	AssistantMessage = message.AssistantMessage
	SystemMessage    = message.SystemMessage
	ResultMessage    = message.ResultMessage
)

// ===== Content blocks =====

// ContentBlock is one element of a message's content: *TextBlock,
// *ThinkingBlock, *ToolUseBlock or *ToolResultBlock.
type ContentBlock = message.ContentBlock

type (
	TextBlock       = message.TextBlock
	ThinkingBlock   = message.ThinkingBlock
	ToolUseBlock    = message.ToolUseBlock
	ToolResultBlock = message.ToolResultBlock
)
