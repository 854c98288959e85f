package claudecode

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

// sdkToolServerName is the server WithSDKTools registers. The peer sees each
// tool as mcp__sdk__<name>.
const sdkToolServerName = "sdk"

// Tool is a function the model can call, served in-process.
type Tool interface {
	Name() string
	Description() string
	// InputSchema is a JSON Schema object describing the input.
	InputSchema() map[string]any
	Execute(ctx context.Context, input map[string]any) (map[string]any, error)
}

// ToolFunc is the body of a tool built with NewTool.
type ToolFunc func(ctx context.Context, input map[string]any) (map[string]any, error)

// NewTool builds a Tool from a function. The result map is returned to the
// model as JSON text; an error is returned as a failed tool result.
//
//	echo := claudecode.NewTool("echo", "Echo the input",
//	    map[string]any{
//	        "type":       "object",
//	        "properties": map[string]any{"text": map[string]any{"type": "string"}},
//	    },
//	    func(_ context.Context, input map[string]any) (map[string]any, error) {
//	        return map[string]any{"text": input["text"]}, nil
//	    },
//	)
func NewTool(name, description string, schema map[string]any, fn ToolFunc) Tool {
	return &funcTool{name: name, description: description, schema: schema, fn: fn}
}

type funcTool struct {
	name        string
	description string
	schema      map[string]any
	fn          ToolFunc
}

var _ Tool = (*funcTool)(nil)

func (t *funcTool) Name() string { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) InputSchema() map[string]any { return t.schema }

func (t *funcTool) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	return t.fn(ctx, input)
}

// WithSDKTools serves tools from an in-process MCP server named "sdk" and
// allows each of them. Sessions with in-process servers run over the control
// channel.
func WithSDKTools(tools ...Tool) Option {
	return func(o *ClaudeCodeOptions) {
		if len(tools) == 0 {
			return
		}

		if o.MCPServers == nil {
			o.MCPServers = make(map[string]MCPServerConfig, 1)
		}

		o.MCPServers[sdkToolServerName] = newToolServer(tools)

		for _, t := range tools {
			o.AllowedTools = append(o.AllowedTools, "mcp__"+sdkToolServerName+"__"+t.Name())
		}
	}
}

func newToolServer(tools []Tool) *MCPSdkServerConfig {
	server := mcp.NewSDKServer(sdkToolServerName, Version)

	for _, t := range tools {
		server.AddTool(
			mcp.NewTool(t.Name(), t.Description(), schemaFromMap(t.InputSchema())),
			toolHandler(t),
		)
	}

	return &MCPSdkServerConfig{Name: sdkToolServerName, Instance: server}
}

func toolHandler(t Tool) gomcp.ToolHandler {
	return func(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
		args, err := mcp.ParseArguments(req)
		if err != nil {
			return mcp.ErrorResult(err.Error()), nil
		}

		result, err := t.Execute(ctx, args)
		if err != nil {
			return mcp.ErrorResult(err.Error()), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return mcp.ErrorResult(fmt.Sprintf("encode %s result: %v", t.Name(), err)), nil
		}

		return mcp.TextResult(string(data)), nil
	}
}

// schemaFromMap decodes a JSON Schema object. An undecodable schema falls
// back to an unconstrained object.
func schemaFromMap(m map[string]any) *jsonschema.Schema {
	fallback := &jsonschema.Schema{Type: "object"}

	if m == nil {
		return fallback
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fallback
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return fallback
	}

	return &schema
}
