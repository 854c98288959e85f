package message

// Message type discriminators.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
	TypeSystem    = "system"
	TypeResult    = "result"
)

// Message is one record of a conversation. The set of implementations is
// closed; use a type switch to handle each kind.
type Message interface {
	MessageType() string
	message()
}

var (
	_ Message = (*UserMessage)(nil)
	_ Message = (*AssistantMessage)(nil)
	_ Message = (*SystemMessage)(nil)
	_ Message = (*ResultMessage)(nil)
)

// UserMessage is a user turn, including tool results fed back to the model.
// String content is normalized to a single TextBlock.
type UserMessage struct {
	Content         []ContentBlock
	UUID            string
	ParentToolUseID string
}

// MessageType implements Message.
func (*UserMessage) MessageType() string { return TypeUser }
func (*UserMessage) message() {}

// AssistantMessage is a model turn.
type AssistantMessage struct {
	Content         []ContentBlock
	Model           string
	ParentToolUseID string
}

// MessageType implements Message.
func (*AssistantMessage) MessageType() string { return TypeAssistant }
func (*AssistantMessage) message() {}

// Text concatenates the message's text blocks.
func (m *AssistantMessage) Text() string {
	var text string

	for _, block := range m.Content {
		if tb, ok := block.(*TextBlock); ok {
			text += tb.Text
		}
	}

	return text
}

// SystemMessage carries session metadata such as the init record.
type SystemMessage struct {
	Subtype string
	Data    map[string]any
}

// MessageType implements Message.
func (*SystemMessage) MessageType() string { return TypeSystem }
func (*SystemMessage) message() {}

// ResultMessage ends a turn with its outcome, cost, and usage. Status is the
// record's status field, or its subtype when that is absent.
type ResultMessage struct {
	Subtype       string
	Status        string
	DurationMs    int
	DurationAPIMs int
	IsError       bool
	NumTurns      int
	SessionID     string
	TotalCostUSD  float64
	Usage         map[string]any
	Result        string
}

// MessageType implements Message.
func (*ResultMessage) MessageType() string { return TypeResult }
func (*ResultMessage) message() {}

// NewUserTurn builds the outbound record for one user prompt, in the
// stream-json input format the CLI reads.
func NewUserTurn(prompt, sessionID string) map[string]any {
	return map[string]any{
		"type": TypeUser,
		"message": map[string]any{
			"role":    TypeUser,
			"content": prompt,
		},
		"parent_tool_use_id": nil,
		"session_id":         sessionID,
	}
}
