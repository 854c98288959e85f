package config

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

// Options configures a Claude Code session. The zero value is usable.
type Options struct {
	// Logger receives SDK diagnostics. If nil, logging is disabled.
	Logger *slog.Logger

	// Cwd is the working directory of the peer.
	Cwd string

	// SystemPrompt replaces the default system prompt.
	SystemPrompt string

	// AppendSystemPrompt is appended to the default system prompt.
	AppendSystemPrompt string

	// PermissionMode controls tool permission prompting.
	// Legacy aliases "acceptAll" and "prompt" are accepted and normalized.
	PermissionMode PermissionMode

	// MCPServers maps server names to their descriptors.
	MCPServers map[string]mcp.ServerConfig

	// AllowedTools is a list of tools usable without prompting.
	AllowedTools []string

	// DisallowedTools is a list of tools that are blocked.
	DisallowedTools []string

	// MaxTurns limits the number of agentic turns. Zero means no limit.
	MaxTurns int

	// MaxThinkingTokens caps extended thinking. Zero uses the CLI default.
	MaxThinkingTokens int

	// Model selects the model, e.g. "claude-sonnet-4-5".
	Model string

	// PermissionPromptToolName names the MCP tool that answers permission prompts.
	PermissionPromptToolName string

	// ContinueConversation resumes the most recent conversation.
	ContinueConversation bool

	// Resume is a session ID to resume.
	Resume string

	// CliPath is the explicit path to the claude binary.
	CliPath string

	// Env adds environment variables to the peer process.
	Env map[string]string

	// Stderr receives each stderr line from the peer process.
	Stderr func(string)

	// MaxBufferSize caps a single inbound frame in bytes. Zero uses the default.
	MaxBufferSize int

	// Transport replaces the default subprocess transport.
	Transport Transport `json:"-" yaml:"-"`
}

// Clone returns a copy whose slices and maps are not shared with o.
// Server descriptors, the logger, and the transport are shared.
func (o *Options) Clone() *Options {
	if o == nil {
		return &Options{}
	}

	c := *o
	c.MCPServers = maps.Clone(o.MCPServers)
	c.AllowedTools = slices.Clone(o.AllowedTools)
	c.DisallowedTools = slices.Clone(o.DisallowedTools)
	c.Env = maps.Clone(o.Env)

	return &c
}

// Validate reports the first problem with o as an SDKError wrapping
// ErrInvalidOptions.
func (o *Options) Validate() error {
	if err := o.validate(); err != nil {
		return &errors.SDKError{
			Message: "validate options",
			Err:     fmt.Errorf("%w: %w", errors.ErrInvalidOptions, err),
		}
	}

	return nil
}

func (o *Options) validate() error {
	if !o.PermissionMode.Valid() {
		return fmt.Errorf("unknown permission mode %q", o.PermissionMode)
	}

	if o.MaxTurns < 0 {
		return fmt.Errorf("max turns must not be negative, got %d", o.MaxTurns)
	}

	if o.MaxThinkingTokens < 0 {
		return fmt.Errorf("max thinking tokens must not be negative, got %d", o.MaxThinkingTokens)
	}

	if o.MaxBufferSize < 0 {
		return fmt.Errorf("max buffer size must not be negative, got %d", o.MaxBufferSize)
	}

	return mcp.ValidateServers(o.MCPServers)
}

// RequestOptions flattens o into the options bag sent with each request.
// Keys are snake_case and zero values are omitted.
func (o *Options) RequestOptions() map[string]any {
	bag := make(map[string]any)

	setString := func(key, v string) {
		if v != "" {
			bag[key] = v
		}
	}

	setInt := func(key string, v int) {
		if v != 0 {
			bag[key] = v
		}
	}

	setList := func(key string, v []string) {
		if len(v) > 0 {
			bag[key] = slices.Clone(v)
		}
	}

	setString("cwd", o.Cwd)
	setString("system_prompt", o.SystemPrompt)
	setString("append_system_prompt", o.AppendSystemPrompt)
	setString("permission_mode", string(NormalizePermissionMode(o.PermissionMode)))
	setString("model", o.Model)
	setString("permission_prompt_tool_name", o.PermissionPromptToolName)
	setString("resume", o.Resume)
	setInt("max_turns", o.MaxTurns)
	setInt("max_thinking_tokens", o.MaxThinkingTokens)
	setList("allowed_tools", o.AllowedTools)
	setList("disallowed_tools", o.DisallowedTools)

	if o.ContinueConversation {
		bag["continue_conversation"] = true
	}

	if servers := mcp.Descriptors(o.MCPServers); servers != nil {
		bag["mcp_servers"] = servers
	}

	return bag
}
