package message

import (
	"fmt"
	"log/slog"

	"github.com/codegen-sh/claude-code-sdk-go/internal/errors"
)

// Parse converts a raw record into a typed Message.
//
// Decoding is total over the discriminator: a missing type, an unknown type,
// or an unknown content block fails with a MessageParseError carrying the
// record. Content is read from the nested "message" object when present and
// from the record itself otherwise.
func Parse(log *slog.Logger, data map[string]any) (Message, error) {
	log = log.With("component", "message_parser")

	msgType, ok := data["type"].(string)
	if !ok {
		log.Debug("Record missing 'type' field")

		return nil, parseError(data, fmt.Errorf("missing or invalid 'type' field"))
	}

	log.Debug("Parsing message", "message_type", msgType)

	var (
		msg Message
		err error
	)

	switch msgType {
	case TypeUser:
		msg, err = parseUser(data)
	case TypeAssistant:
		msg, err = parseAssistant(data)
	case TypeSystem:
		msg = parseSystem(data)
	case TypeResult:
		msg = parseResult(data)
	default:
		log.Debug("Unknown message type", "message_type", msgType)

		return nil, &errors.MessageParseError{
			Message: fmt.Sprintf("unknown message type %q", msgType),
			Err:     errors.ErrUnknownMessageType,
			Data:    data,
		}
	}

	if err != nil {
		return nil, parseError(data, err)
	}

	return msg, nil
}

func parseError(data map[string]any, err error) *errors.MessageParseError {
	return &errors.MessageParseError{
		Message: err.Error(),
		Err:     err,
		Data:    data,
	}
}

// body returns the object holding content: the nested "message" for the CLI
// wire format, or the record itself for the flattened format.
func body(data map[string]any) map[string]any {
	if nested, ok := data["message"].(map[string]any); ok {
		return nested
	}

	return data
}

func parseUser(data map[string]any) (*UserMessage, error) {
	msg := &UserMessage{
		UUID:            stringField(data, "uuid"),
		ParentToolUseID: stringField(data, "parent_tool_use_id"),
	}

	switch content := body(data)["content"].(type) {
	case string:
		msg.Content = []ContentBlock{&TextBlock{Text: content}}
	case []any:
		blocks, err := parseBlocks(content)
		if err != nil {
			return nil, fmt.Errorf("user message: %w", err)
		}

		msg.Content = blocks
	case nil:
	default:
		return nil, fmt.Errorf("user message: content must be a string or a list, got %T", content)
	}

	return msg, nil
}

func parseAssistant(data map[string]any) (*AssistantMessage, error) {
	b := body(data)

	msg := &AssistantMessage{
		Model:           stringField(b, "model"),
		ParentToolUseID: stringField(data, "parent_tool_use_id"),
	}

	switch content := b["content"].(type) {
	case []any:
		blocks, err := parseBlocks(content)
		if err != nil {
			return nil, fmt.Errorf("assistant message: %w", err)
		}

		msg.Content = blocks
	case nil:
	default:
		return nil, fmt.Errorf("assistant message: content must be a list, got %T", content)
	}

	return msg, nil
}

// parseSystem keeps a nested "data" object when the record has one, and
// otherwise every field besides the discriminators. The CLI sends init
// metadata at the top level.
func parseSystem(data map[string]any) *SystemMessage {
	msg := &SystemMessage{Subtype: stringField(data, "subtype")}

	if nested, ok := data["data"].(map[string]any); ok {
		msg.Data = nested

		return msg
	}

	msg.Data = make(map[string]any, len(data))

	for k, v := range data {
		if k != "type" && k != "subtype" {
			msg.Data[k] = v
		}
	}

	return msg
}

func parseResult(data map[string]any) *ResultMessage {
	msg := &ResultMessage{
		Subtype:       stringField(data, "subtype"),
		Status:        stringField(data, "status"),
		DurationMs:    intField(data, "duration_ms"),
		DurationAPIMs: intField(data, "duration_api_ms"),
		IsError:       boolField(data, "is_error"),
		NumTurns:      intField(data, "num_turns"),
		SessionID:     stringField(data, "session_id"),
		TotalCostUSD:  floatField(data, "total_cost_usd"),
		Result:        stringField(data, "result"),
	}

	if msg.Status == "" {
		msg.Status = msg.Subtype
	}

	if usage, ok := data["usage"].(map[string]any); ok {
		msg.Usage = usage
	}

	return msg
}

func parseBlocks(items []any) ([]ContentBlock, error) {
	blocks := make([]ContentBlock, 0, len(items))

	for i, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("content block %d: not an object", i)
		}

		block, err := parseBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

func parseBlock(data map[string]any) (ContentBlock, error) {
	blockType, _ := data["type"].(string)

	switch blockType {
	case BlockTypeText:
		return &TextBlock{Text: stringField(data, "text")}, nil
	case BlockTypeThinking:
		return &ThinkingBlock{
			Thinking:  stringField(data, "thinking"),
			Signature: stringField(data, "signature"),
		}, nil
	case BlockTypeToolUse:
		block := &ToolUseBlock{
			ID:   stringField(data, "id"),
			Name: stringField(data, "name"),
		}

		if input, ok := data["input"].(map[string]any); ok {
			block.Input = input
		}

		return block, nil
	case BlockTypeToolResult:
		return &ToolResultBlock{
			ToolUseID: stringField(data, "tool_use_id"),
			Content:   data["content"],
			IsError:   boolField(data, "is_error"),
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", errors.ErrUnknownContentBlock, blockType)
	}
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)

	return s
}

func boolField(data map[string]any, key string) bool {
	b, _ := data[key].(bool)

	return b
}

// intField accepts any JSON number. encoding/json decodes numbers into
// float64 when the target is any.
func intField(data map[string]any, key string) int {
	switch n := data[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func floatField(data map[string]any, key string) float64 {
	switch n := data[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
