package provider

import (
	"encoding/json"

	"github.com/ollama/ollama/api"

	"toolchat/model"
)

// ConvertToOllamaMessages converts history to Ollama messages.
//
// Assistant tool calls are replayed on the assistant message. Tool results
// keep the "tool" role; Ollama matches them to calls by order.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
		if msg.Role == model.RoleAssistant {
			result[i].ToolCalls = ConvertFromProviderToolCalls(msg.ToolCalls)
		}
		if msg.Role == model.RoleTool && msg.Result != nil {
			result[i].Content = msg.Result.Content
		}
	}
	return result
}

// ParseToolArguments parses a JSON arguments string into a map. Malformed
// JSON yields an empty map so the tool reports the missing arguments.
func ParseToolArguments(argsJSON string) map[string]any {
	args := make(map[string]any)
	if argsJSON == "" {
		return args
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		return make(map[string]any)
	}
	return args
}

// ConvertToProviderToolCalls converts Ollama tool calls to model.ToolCall.
// Returns nil for an empty input.
func ConvertToProviderToolCalls(ollamaCalls []api.ToolCall) []model.ToolCall {
	if len(ollamaCalls) == 0 {
		return nil
	}

	result := make([]model.ToolCall, len(ollamaCalls))
	for i, call := range ollamaCalls {
		result[i] = model.ToolCall{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}
	return result
}

// ConvertFromProviderToolCalls converts model.ToolCall to Ollama tool calls.
// Returns nil for an empty input.
func ConvertFromProviderToolCalls(providerCalls []model.ToolCall) []api.ToolCall {
	if len(providerCalls) == 0 {
		return nil
	}

	result := make([]api.ToolCall, len(providerCalls))
	for i, call := range providerCalls {
		result[i] = api.ToolCall{
			Function: api.ToolCallFunction{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		}
	}
	return result
}
