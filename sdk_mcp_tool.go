package claudecode

import (
	"github.com/google/jsonschema-go/jsonschema"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codegen-sh/claude-code-sdk-go/internal/mcp"
)

// MCP protocol types used by low-level tool handlers.
type (
	CallToolRequest    = gomcp.CallToolRequest
	CallToolResult     = gomcp.CallToolResult
	McpContent         = gomcp.Content
	McpTextContent     = gomcp.TextContent
	McpToolAnnotations = gomcp.ToolAnnotations

	// Schema is a JSON Schema for tool input.
	Schema = jsonschema.Schema
)

// SdkMcpToolHandler answers a call to an SdkMcpTool. Use ParseArguments to
// read the input and TextResult or ErrorResult to build the reply.
type SdkMcpToolHandler = gomcp.ToolHandler

// SdkMcpToolOption configures an SdkMcpTool.
type SdkMcpToolOption func(*SdkMcpTool)

// WithAnnotations attaches behavior hints, such as read-only, to a tool.
func WithAnnotations(annotations *McpToolAnnotations) SdkMcpToolOption {
	return func(t *SdkMcpTool) {
		t.Annotations = annotations
	}
}

// SdkMcpTool is a tool served by a server from CreateSdkMcpServer.
type SdkMcpTool struct {
	Name        string
	Description string
	Schema      *Schema
	Handler     SdkMcpToolHandler
	Annotations *McpToolAnnotations
}

// NewSdkMcpTool creates a tool.
//
//	add := claudecode.NewSdkMcpTool("add", "Add two numbers",
//	    claudecode.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(_ context.Context, req *claudecode.CallToolRequest) (*claudecode.CallToolResult, error) {
//	        args, err := claudecode.ParseArguments(req)
//	        if err != nil {
//	            return claudecode.ErrorResult(err.Error()), nil
//	        }
//
//	        return claudecode.TextResult(fmt.Sprint(args["a"].(float64) + args["b"].(float64))), nil
//	    },
//	)
func NewSdkMcpTool(
	name, description string,
	schema *Schema,
	handler SdkMcpToolHandler,
	opts ...SdkMcpToolOption,
) *SdkMcpTool {
	t := &SdkMcpTool{
		Name:        name,
		Description: description,
		Schema:      schema,
		Handler:     handler,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SimpleSchema builds an object schema from property types, e.g.
// {"path": "string", "limit": "int", "tags": "[]string"}. Every property is
// required.
func SimpleSchema(props map[string]string) *Schema {
	return mcp.SimpleSchema(props)
}

// TextResult returns a successful result holding text.
func TextResult(text string) *CallToolResult {
	return mcp.TextResult(text)
}

// ErrorResult returns a failed result holding message.
func ErrorResult(message string) *CallToolResult {
	return mcp.ErrorResult(message)
}

// ParseArguments decodes a tool call's arguments.
func ParseArguments(req *CallToolRequest) (map[string]any, error) {
	return mcp.ParseArguments(req)
}
