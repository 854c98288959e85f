package config

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

// File is the on-disk form of Options.
type File struct {
	Cwd                      string                `yaml:"cwd"`
	SystemPrompt             string                `yaml:"system_prompt"`
	AppendSystemPrompt       string                `yaml:"append_system_prompt"`
	PermissionMode           PermissionMode        `yaml:"permission_mode"`
	Model                    string                `yaml:"model"`
	MaxTurns                 int                   `yaml:"max_turns"`
	MaxThinkingTokens        int                   `yaml:"max_thinking_tokens"`
	AllowedTools             []string              `yaml:"allowed_tools"`
	DisallowedTools          []string              `yaml:"disallowed_tools"`
	PermissionPromptToolName string                `yaml:"permission_prompt_tool_name"`
	ContinueConversation     bool                  `yaml:"continue_conversation"`
	Resume                   string                `yaml:"resume"`
	CliPath                  string                `yaml:"cli_path"`
	Env                      map[string]string     `yaml:"env"`
	MaxBufferSize            int                   `yaml:"max_buffer_size"`
	MCPServers               map[string]FileServer `yaml:"mcp_servers"`
}

// FileServer is one MCP server entry in an options file. In-process servers
// cannot be declared in a file.
type FileServer struct {
	Type    mcp.ServerType    `yaml:"type"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

func (s FileServer) serverConfig() (mcp.ServerConfig, error) {
	switch s.Type {
	case "", mcp.ServerTypeStdio:
		return &mcp.StdioServer{Command: s.Command, Args: s.Args, Env: s.Env}, nil
	case mcp.ServerTypeSSE:
		return &mcp.SSEServer{URL: s.URL, Headers: s.Headers}, nil
	case mcp.ServerTypeHTTP:
		return &mcp.HTTPServer{URL: s.URL, Headers: s.Headers}, nil
	default:
		return nil, fmt.Errorf("unsupported server type %q", s.Type)
	}
}

// LoadFile reads and validates a YAML options file.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options file: %w", err)
	}

	return ParseFile(data)
}

// ParseFile parses YAML options and validates the result.
func ParseFile(data []byte) (*Options, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing options YAML: %w", err)
	}

	opts, err := f.Options()
	if err != nil {
		return nil, err
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// Options converts the file into Options.
func (f *File) Options() (*Options, error) {
	opts := &Options{
		Cwd:                      f.Cwd,
		SystemPrompt:             f.SystemPrompt,
		AppendSystemPrompt:       f.AppendSystemPrompt,
		PermissionMode:           NormalizePermissionMode(f.PermissionMode),
		Model:                    f.Model,
		MaxTurns:                 f.MaxTurns,
		MaxThinkingTokens:        f.MaxThinkingTokens,
		AllowedTools:             f.AllowedTools,
		DisallowedTools:          f.DisallowedTools,
		PermissionPromptToolName: f.PermissionPromptToolName,
		ContinueConversation:     f.ContinueConversation,
		Resume:                   f.Resume,
		CliPath:                  f.CliPath,
		Env:                      f.Env,
		MaxBufferSize:            f.MaxBufferSize,
	}

	if len(f.MCPServers) > 0 {
		opts.MCPServers = make(map[string]mcp.ServerConfig, len(f.MCPServers))

		for _, name := range slices.Sorted(maps.Keys(f.MCPServers)) {
			server, err := f.MCPServers[name].serverConfig()
			if err != nil {
				return nil, fmt.Errorf("mcp server %q: %w", name, err)
			}

			opts.MCPServers[name] = server
		}
	}

	return opts, nil
}
