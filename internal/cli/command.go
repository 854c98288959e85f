package cli

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/codegen-sh/claude-code-sdk-go/internal/config"
	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

// BuildArgs flattens options into CLI flags. The prompt is never placed on
// the command line; every turn is written to stdin as a stream-json record.
// It fails only when the MCP server descriptors cannot be encoded.
func BuildArgs(options *config.Options) ([]string, error) {
	args := []string{
		"--output-format", "stream-json",
		"--verbose",
	}

	if options.SystemPrompt != "" {
		args = append(args, "--system-prompt", options.SystemPrompt)
	}

	if options.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", options.AppendSystemPrompt)
	}

	if len(options.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(options.AllowedTools, ","))
	}

	if len(options.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(options.DisallowedTools, ","))
	}

	if options.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(options.MaxTurns))
	}

	if options.MaxThinkingTokens > 0 {
		args = append(args, "--max-thinking-tokens", strconv.Itoa(options.MaxThinkingTokens))
	}

	if options.Model != "" {
		args = append(args, "--model", options.Model)
	}

	if options.PermissionPromptToolName != "" {
		args = append(args, "--permission-prompt-tool", options.PermissionPromptToolName)
	}

	if options.PermissionMode != "" {
		args = append(args, "--permission-mode", string(config.NormalizePermissionMode(options.PermissionMode)))
	}

	if options.ContinueConversation {
		args = append(args, "--continue")
	}

	if options.Resume != "" {
		args = append(args, "--resume", options.Resume)
	}

	if servers := mcp.Descriptors(options.MCPServers); servers != nil {
		data, err := json.Marshal(map[string]any{"mcpServers": servers})
		if err != nil {
			return nil, &errors.SDKError{Message: "encode mcp config", Err: err}
		}

		args = append(args, "--mcp-config", string(data))
	}

	return append(args, "--input-format", "stream-json"), nil
}

// BuildEnvironment returns the process environment: the caller's, then the
// identity tag, then options.Env. Later entries win.
func BuildEnvironment(options *config.Options, id config.Identity) []string {
	env := os.Environ()
	env = append(env, id.Environ()...)

	for key, value := range options.Env {
		env = append(env, key+"="+value)
	}

	return env
}
