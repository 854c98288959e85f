// Package message provides the typed messages and content blocks of a Claude
// Code conversation.
package message

// Block type discriminators.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is one block of user or assistant content. The set of
// implementations is closed.
type ContentBlock interface {
	BlockType() string
	contentBlock()
}

var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ThinkingBlock)(nil)
	_ ContentBlock = (*ToolUseBlock)(nil)
	_ ContentBlock = (*ToolResultBlock)(nil)
)

// TextBlock contains plain text.
type TextBlock struct {
	Text string `json:"text"`
}

// BlockType implements ContentBlock.
func (*TextBlock) BlockType() string { return BlockTypeText }
func (*TextBlock) contentBlock() {}

// ThinkingBlock contains extended thinking output.
type ThinkingBlock struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

// BlockType implements ContentBlock.
func (*ThinkingBlock) BlockType() string { return BlockTypeThinking }
func (*ThinkingBlock) contentBlock() {}

// ToolUseBlock is a tool invocation requested by the assistant.
type ToolUseBlock struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// BlockType implements ContentBlock.
func (*ToolUseBlock) BlockType() string { return BlockTypeToolUse }
func (*ToolUseBlock) contentBlock() {}

// ToolResultBlock is the output of a tool invocation.
//
// Content is either a string or a list of raw block objects, exactly as the
// peer sent it, and nil when absent.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   any    `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// BlockType implements ContentBlock.
func (*ToolResultBlock) BlockType() string { return BlockTypeToolResult }
func (*ToolResultBlock) contentBlock() {}

// Text returns the textual part of the result: the string itself, or the
// concatenated text of any text blocks.
func (b *ToolResultBlock) Text() string {
	switch c := b.Content.(type) {
	case string:
		return c
	case []any:
		var text string

		for _, item := range c {
			block, ok := item.(map[string]any)
			if !ok || block["type"] != BlockTypeText {
				continue
			}

			if s, ok := block["text"].(string); ok {
				text += s
			}
		}

		return text
	default:
		return ""
	}
}
