// Package agent runs the conversation loop: it sends history and tool
// declarations to the model, executes requested tools, feeds their results
// back, and stops when the model answers with plain text.
package agent

import "toolchat/model"

// State is the loop's position within a turn.
type State int

const (
	AwaitingUserInput State = iota
	AwaitingModelResponse
	ExecutingTool
)

func (s State) String() string {
	switch s {
	case AwaitingUserInput:
		return "AwaitingUserInput"
	case AwaitingModelResponse:
		return "AwaitingModelResponse"
	case ExecutingTool:
		return "ExecutingTool"
	default:
		return "State(?)"
	}
}

// Conversation is the full in-memory session state. It is passed into and
// returned from each turn; nothing else holds history.
type Conversation struct {
	Messages []model.Message
	State    State
}

// NewConversation returns an empty conversation waiting for input.
func NewConversation() Conversation {
	return Conversation{State: AwaitingUserInput}
}

// LastReply returns the content of the most recent assistant message that
// carries text, or "" if there is none.
func (c Conversation) LastReply() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := c.Messages[i]
		if m.Role == model.RoleAssistant && m.Content != "" && len(m.ToolCalls) == 0 {
			return m.Content
		}
	}
	return ""
}
