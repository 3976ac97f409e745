package testutil

import (
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/model"
)

// TestMessages returns a sample conversation with one tool round trip
func TestMessages() []model.Message {
	call := model.ToolCall{
		ID:        "toolu_01",
		Name:      "calculate_math_expression",
		Arguments: map[string]any{"expression": "2+3*4"},
	}
	return []model.Message{
		{
			Role:      model.RoleUser,
			Content:   "What is 2+3*4?",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleAssistant,
			Content:   "Let me calculate that.",
			ToolCalls: []model.ToolCall{call},
			Timestamp: time.Now(),
		},
		model.NewToolMessage(model.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: "2+3*4 = 14",
		}),
		{
			Role:      model.RoleAssistant,
			Content:   "The answer is 14.",
			Timestamp: time.Now(),
		},
	}
}

// SingleUserMessage returns a single user message for simple tests
func SingleUserMessage(content string) []model.Message {
	return []model.Message{
		{
			Role:      model.RoleUser,
			Content:   content,
			Timestamp: time.Now(),
		},
	}
}

// TestMCPTools returns sample tool declarations for testing
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		mcptypes.NewTool("get_weather_info",
			mcptypes.WithDescription("Get the current weather for a city"),
			mcptypes.WithString("city", mcptypes.Required(), mcptypes.Description("City name")),
		),
		mcptypes.NewTool("create_todo_item",
			mcptypes.WithDescription("Create a TODO item"),
			mcptypes.WithString("task", mcptypes.Required()),
			mcptypes.WithString("priority", mcptypes.Enum("high", "medium", "low"), mcptypes.DefaultString("medium")),
		),
	}
}

// SystemMessage returns a system message for testing
func SystemMessage(content string) model.Message {
	return model.Message{
		Role:      model.RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}
