package claudecode

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	transport := newScriptedTransport()

	var stderrLines []string

	opts := applyOptions([]Option{
		WithLogger(logger),
		WithCwd("/work"),
		WithSystemPrompt("system"),
		WithAppendSystemPrompt("appended"),
		WithPermissionMode(PermissionModeBypassPermissions),
		WithAllowedTools("Read"),
		WithAllowedTools("Write"),
		WithDisallowedTools("Bash"),
		WithMaxTurns(3),
		WithMaxThinkingTokens(1000),
		WithModel("claude-sonnet-4-5"),
		WithPermissionPromptToolName("mcp__perm__ask"),
		WithContinueConversation(true),
		WithResume("session-1"),
		WithCliPath("/opt/claude"),
		WithEnv(map[string]string{"A": "1"}),
		WithEnv(map[string]string{"B": "2"}),
		WithStderr(func(line string) { stderrLines = append(stderrLines, line) }),
		WithMaxBufferSize(4096),
		WithTransport(transport),
	})

	require.Same(t, logger, opts.Logger)
	require.Equal(t, "/work", opts.Cwd)
	require.Equal(t, "system", opts.SystemPrompt)
	require.Equal(t, "appended", opts.AppendSystemPrompt)
	require.Equal(t, PermissionModeBypassPermissions, opts.PermissionMode)
	require.Equal(t, []string{"Read", "Write"}, opts.AllowedTools)
	require.Equal(t, []string{"Bash"}, opts.DisallowedTools)
	require.Equal(t, 3, opts.MaxTurns)
	require.Equal(t, 1000, opts.MaxThinkingTokens)
	require.Equal(t, "claude-sonnet-4-5", opts.Model)
	require.Equal(t, "mcp__perm__ask", opts.PermissionPromptToolName)
	require.True(t, opts.ContinueConversation)
	require.Equal(t, "session-1", opts.Resume)
	require.Equal(t, "/opt/claude", opts.CliPath)
	require.Equal(t, map[string]string{"A": "1", "B": "2"}, opts.Env)
	require.Equal(t, 4096, opts.MaxBufferSize)
	require.Same(t, transport, opts.Transport.(*scriptedTransport))

	opts.Stderr("line")
	require.Equal(t, []string{"line"}, stderrLines)
}

func TestWithOptions(t *testing.T) {
	t.Parallel()

	base := &ClaudeCodeOptions{
		Model:        "claude-haiku-4-5",
		MaxTurns:     2,
		AllowedTools: []string{"Read"},
	}

	opts := applyOptions([]Option{
		WithOptions(base),
		WithMaxTurns(5),
		WithAllowedTools("Grep"),
	})

	require.Equal(t, "claude-haiku-4-5", opts.Model)
	require.Equal(t, 5, opts.MaxTurns)
	require.Equal(t, []string{"Read", "Grep"}, opts.AllowedTools)

	require.Equal(t, 2, base.MaxTurns)
	require.Equal(t, []string{"Read"}, base.AllowedTools, "base must not be mutated")

	require.NotNil(t, applyOptions([]Option{WithOptions(nil)}))
}

func TestLoadOptions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "claude.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: claude-opus-4-1\nmax_turns: 7\n"), 0o600))

	base, err := LoadOptions(path)
	require.NoError(t, err)

	opts := applyOptions([]Option{WithOptions(base), WithCwd("/srv")})
	require.Equal(t, "claude-opus-4-1", opts.Model)
	require.Equal(t, 7, opts.MaxTurns)
	require.Equal(t, "/srv", opts.Cwd)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestApplyOptions_MCPServersMerge(t *testing.T) {
	t.Parallel()

	opts := applyOptions([]Option{
		WithMCPServers(map[string]MCPServerConfig{
			"a": &McpStdioServerConfig{Command: "one"},
			"b": &McpSSEServerConfig{URL: "https://b.example.com/sse"},
		}),
		WithMCPServers(map[string]MCPServerConfig{
			"a": &McpHTTPServerConfig{URL: "https://a.example.com/mcp"},
		}),
	})

	require.Len(t, opts.MCPServers, 2)
	require.Equal(t, MCPServerTypeHTTP, opts.MCPServers["a"].GetType())
	require.Equal(t, MCPServerTypeSSE, opts.MCPServers["b"].GetType())
}
