package claudecode

import (
	"log/slog"
	"maps"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
)

// Option configures ClaudeCodeOptions.
type Option func(*ClaudeCodeOptions)

// applyOptions builds a fresh options value from opts. The result is owned
// by the caller and shares no slices or maps with any WithOptions base.
func applyOptions(opts []Option) *ClaudeCodeOptions {
	options := &ClaudeCodeOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options.Clone()
}

// LoadOptions reads a YAML options file. See WithOptions to use the result.
func LoadOptions(path string) (*ClaudeCodeOptions, error) {
	return config.LoadFile(path)
}

// WithOptions starts from a copy of base. Options applied after it override
// base field by field.
func WithOptions(base *ClaudeCodeOptions) Option {
	return func(o *ClaudeCodeOptions) {
		if base != nil {
			*o = *base.Clone()
		}
	}
}

// WithLogger sets the logger for SDK diagnostics. Without it, logging is off.
func WithLogger(logger *slog.Logger) Option {
	return func(o *ClaudeCodeOptions) {
		o.Logger = logger
	}
}

// WithCwd sets the working directory of the peer.
func WithCwd(cwd string) Option {
	return func(o *ClaudeCodeOptions) {
		o.Cwd = cwd
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *ClaudeCodeOptions) {
		o.SystemPrompt = prompt
	}
}

// WithAppendSystemPrompt appends text to the default system prompt.
func WithAppendSystemPrompt(prompt string) Option {
	return func(o *ClaudeCodeOptions) {
		o.AppendSystemPrompt = prompt
	}
}

// WithPermissionMode sets the permission mode.
func WithPermissionMode(mode PermissionMode) Option {
	return func(o *ClaudeCodeOptions) {
		o.PermissionMode = mode
	}
}

// WithMCPServers adds MCP servers, keyed by name. Later entries replace
// earlier ones with the same name.
func WithMCPServers(servers map[string]MCPServerConfig) Option {
	return func(o *ClaudeCodeOptions) {
		if o.MCPServers == nil {
			o.MCPServers = make(map[string]MCPServerConfig, len(servers))
		}

		maps.Copy(o.MCPServers, servers)
	}
}

// WithAllowedTools adds tools usable without prompting.
func WithAllowedTools(tools ...string) Option {
	return func(o *ClaudeCodeOptions) {
		o.AllowedTools = append(o.AllowedTools, tools...)
	}
}

// WithDisallowedTools adds tools the peer must not use.
func WithDisallowedTools(tools ...string) Option {
	return func(o *ClaudeCodeOptions) {
		o.DisallowedTools = append(o.DisallowedTools, tools...)
	}
}

// WithMaxTurns limits the number of agentic turns.
func WithMaxTurns(turns int) Option {
	return func(o *ClaudeCodeOptions) {
		o.MaxTurns = turns
	}
}

// WithMaxThinkingTokens caps extended thinking.
func WithMaxThinkingTokens(tokens int) Option {
	return func(o *ClaudeCodeOptions) {
		o.MaxThinkingTokens = tokens
	}
}

// WithModel selects the model.
func WithModel(model string) Option {
	return func(o *ClaudeCodeOptions) {
		o.Model = model
	}
}

// WithPermissionPromptToolName names the MCP tool that answers permission
// prompts.
func WithPermissionPromptToolName(name string) Option {
	return func(o *ClaudeCodeOptions) {
		o.PermissionPromptToolName = name
	}
}

// WithContinueConversation continues the most recent conversation.
func WithContinueConversation(resume bool) Option {
	return func(o *ClaudeCodeOptions) {
		o.ContinueConversation = resume
	}
}

// WithResume resumes the session with the given ID.
func WithResume(sessionID string) Option {
	return func(o *ClaudeCodeOptions) {
		o.Resume = sessionID
	}
}

// WithCliPath sets the claude executable to run instead of searching for it.
func WithCliPath(path string) Option {
	return func(o *ClaudeCodeOptions) {
		o.CliPath = path
	}
}

// WithEnv adds environment variables for the peer process.
func WithEnv(env map[string]string) Option {
	return func(o *ClaudeCodeOptions) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithStderr receives each stderr line of the peer process.
func WithStderr(handler func(string)) Option {
	return func(o *ClaudeCodeOptions) {
		o.Stderr = handler
	}
}

// WithMaxBufferSize caps a single inbound frame, in bytes.
func WithMaxBufferSize(size int) Option {
	return func(o *ClaudeCodeOptions) {
		o.MaxBufferSize = size
	}
}

// WithTransport replaces the default subprocess transport. A transport is
// single-use, so pass a fresh one to each Query or client.
func WithTransport(transport Transport) Option {
	return func(o *ClaudeCodeOptions) {
		o.Transport = transport
	}
}
