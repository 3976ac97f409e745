package model

import "time"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message in the conversation
type Message struct {
	Role      string
	Content   string
	ToolCalls []ToolCall  // assistant messages that request tools
	Result    *ToolResult // set on RoleTool messages
	Timestamp time.Time
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string // provider call ID, generated when the provider has none
	Name      string
	Arguments map[string]any
}

// ToolResult is the outcome of one tool call, fed back to the model.
type ToolResult struct {
	CallID    string
	Name      string
	Content   string
	Failed    bool
	ErrorKind string // error class name when Failed
}

// NewToolMessage wraps a result as a history message.
func NewToolMessage(r ToolResult) Message {
	return Message{
		Role:      RoleTool,
		Content:   r.Content,
		Result:    &r,
		Timestamp: time.Now(),
	}
}
