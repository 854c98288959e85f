package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var _ ServerInstance = (*SDKServer)(nil)

// SDKServer is a tool registry answering MCP requests routed over the control
// protocol. It reuses the go-sdk tool and result types but not its transports,
// since the CLI reaches it through the session rather than a socket.
type SDKServer struct {
	name    string
	version string

	mu    sync.RWMutex
	tools map[string]registeredTool
}

type registeredTool struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// NewSDKServer creates an empty server.
func NewSDKServer(name, version string) *SDKServer {
	return &SDKServer{
		name:    name,
		version: version,
		tools:   make(map[string]registeredTool),
	}
}

// AddTool registers a tool, replacing any tool with the same name.
func (s *SDKServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = registeredTool{tool: tool, handler: handler}
}

// Name implements ServerInstance.
func (s *SDKServer) Name() string { return s.name }

// Version implements ServerInstance.
func (s *SDKServer) Version() string { return s.version }

// ListTools implements ServerInstance. Tools are ordered by name.
func (s *SDKServer) ListTools() []map[string]any {
	s.mu.RLock()
	registered := make([]*mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		registered = append(registered, t.tool)
	}
	s.mu.RUnlock()

	slices.SortFunc(registered, func(a, b *mcp.Tool) int {
		return cmp.Compare(a.Name, b.Name)
	})

	out := make([]map[string]any, 0, len(registered))
	for _, tool := range registered {
		entry := map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
		}

		if schema, ok := toMap(tool.InputSchema); ok {
			entry["inputSchema"] = schema
		}

		if tool.Annotations != nil {
			if annotations, ok := toMap(tool.Annotations); ok {
				entry["annotations"] = annotations
			}
		}

		out = append(out, entry)
	}

	return out
}

// CallTool implements ServerInstance. Handler failures are reported inside the
// result with is_error set, never as a Go error, so the peer sees them as tool
// output.
func (s *SDKServer) CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	s.mu.RLock()
	t, ok := s.tools[name]
	s.mu.RUnlock()

	if !ok {
		return errorPayload("Tool not found: " + name), nil
	}

	args, err := json.Marshal(input)
	if err != nil {
		return errorPayload("Invalid tool input: " + err.Error()), nil
	}

	result, err := t.handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: args},
	})
	if err != nil {
		return errorPayload("Tool execution failed: " + err.Error()), nil
	}

	return resultPayload(result), nil
}

func errorPayload(text string) map[string]any {
	return map[string]any{
		"content":  []map[string]any{{"type": "text", "text": text}},
		"is_error": true,
	}
}

func resultPayload(result *mcp.CallToolResult) map[string]any {
	content := []map[string]any{}

	if result == nil {
		return map[string]any{"content": content}
	}

	for _, c := range result.Content {
		if block, ok := toMap(c); ok {
			content = append(content, block)
		}
	}

	payload := map[string]any{"content": content}
	if result.IsError {
		payload["is_error"] = true
	}

	return payload
}

// toMap round-trips v through JSON. go-sdk content types tag themselves with
// their "type" on marshal, which is the shape the CLI expects.
func toMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return nil, false
	}

	return m, true
}

// SimpleSchema builds an object schema from a property-to-type map such as
// {"path": "string", "limit": "int"}. Every property is required.
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(props)),
		Required:   make([]string, 0, len(props)),
	}

	for name, goType := range props {
		schema.Properties[name] = schemaForType(goType)
		schema.Required = append(schema.Required, name)
	}

	slices.Sort(schema.Required)

	return schema
}

func schemaForType(goType string) *jsonschema.Schema {
	if item, ok := strings.CutPrefix(goType, "[]"); ok && item != "" {
		return &jsonschema.Schema{Type: "array", Items: schemaForType(item)}
	}

	switch goType {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "integer":
		return &jsonschema.Schema{Type: "integer"}
	case "float", "float32", "float64", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}

// TextResult returns a successful result with a single text block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult returns a failed result with a single text block.
func ErrorResult(message string) *mcp.CallToolResult {
	result := TextResult(message)
	result.IsError = true

	return result
}

// NewTool creates an mcp.Tool.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	return &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
	}
}

// ParseArguments decodes the raw tool arguments. Missing arguments decode to
// an empty map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	args := map[string]any{}

	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return args, nil
	}

	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("parse tool arguments: %w", err)
	}

	return args, nil
}
