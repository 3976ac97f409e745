package provider

import (
	"encoding/json"
	"testing"

	"toolchat/model"
	"toolchat/provider/testutil"
)

// parallelCalls is a history where the model asked for two tools at once.
func parallelCalls() []model.Message {
	weather := model.ToolCall{ID: "toolu_w", Name: "get_weather_info", Arguments: map[string]any{"city": "Kyoto"}}
	todo := model.ToolCall{ID: "toolu_t", Name: "create_todo_item", Arguments: map[string]any{"task": ""}}
	return []model.Message{
		testutil.SystemMessage("be brief"),
		{Role: model.RoleUser, Content: "京都の天気とTODO"},
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{weather, todo}},
		model.NewToolMessage(model.ToolResult{CallID: "toolu_w", Name: weather.Name, Content: "Weather for Kyoto"}),
		model.NewToolMessage(model.ToolResult{CallID: "toolu_t", Name: todo.Name, Content: "ToolArgumentError: task is empty", Failed: true, ErrorKind: "ToolArgumentError"}),
	}
}

func TestConvertToAnthropicMessages(t *testing.T) {
	messages, system := convertToAnthropicMessages(parallelCalls())

	if len(system) != 1 || system[0].Text != "be brief" {
		t.Fatalf("system = %+v", system)
	}

	// user, assistant(tool_use x2), user(tool_result x2)
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}

	assistant := messages[1]
	if assistant.Role != "assistant" {
		t.Errorf("role = %q, want assistant", assistant.Role)
	}
	if len(assistant.Content) != 2 {
		t.Fatalf("assistant blocks = %d, want 2 (no empty text block)", len(assistant.Content))
	}
	for i, id := range []string{"toolu_w", "toolu_t"} {
		use := assistant.Content[i].OfToolUse
		if use == nil || use.ID != id {
			t.Fatalf("block %d = %+v, want tool_use %s", i, assistant.Content[i], id)
		}
	}

	results := messages[2]
	if results.Role != "user" || len(results.Content) != 2 {
		t.Fatalf("tool results message = %+v", results)
	}
	first, second := results.Content[0].OfToolResult, results.Content[1].OfToolResult
	if first == nil || first.ToolUseID != "toolu_w" {
		t.Errorf("first result = %+v", first)
	}
	if second == nil || second.ToolUseID != "toolu_t" {
		t.Fatalf("second result = %+v", second)
	}
	if !second.IsError.Value {
		t.Error("failed tool result should carry is_error")
	}
}

func TestConvertToAnthropicMessagesTextBeforeToolUse(t *testing.T) {
	messages, _ := convertToAnthropicMessages(testutil.TestMessages())

	// user, assistant(text+tool_use), user(tool_result), assistant(text)
	if len(messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(messages))
	}

	blocks := messages[1].Content
	if len(blocks) != 2 || blocks[0].OfText == nil || blocks[1].OfToolUse == nil {
		t.Fatalf("assistant blocks = %+v", blocks)
	}

	data, err := json.Marshal(blocks[1].OfToolUse.Input)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"expression":"2+3*4"}` {
		t.Errorf("tool_use input = %s", data)
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	result := ConvertToOpenAIMessages(parallelCalls())

	// system, user, assistant, tool, tool
	if len(result) != 5 {
		t.Fatalf("messages = %d, want 5", len(result))
	}
	if result[0].OfSystem == nil || result[1].OfUser == nil {
		t.Fatalf("leading messages = %+v", result[:2])
	}

	assistant := result[2].OfAssistant
	if assistant == nil || len(assistant.ToolCalls) != 2 {
		t.Fatalf("assistant = %+v", assistant)
	}
	fn := assistant.ToolCalls[0].OfFunction
	if fn == nil || fn.ID != "toolu_w" || fn.Function.Name != "get_weather_info" {
		t.Fatalf("tool call = %+v", fn)
	}
	if fn.Function.Arguments != `{"city":"Kyoto"}` {
		t.Errorf("arguments = %s", fn.Function.Arguments)
	}

	for i, id := range []string{"toolu_w", "toolu_t"} {
		tool := result[3+i].OfTool
		if tool == nil || tool.ToolCallID != id {
			t.Errorf("tool message %d = %+v, want call id %s", i, tool, id)
		}
	}
}

func TestEncodeToolArguments(t *testing.T) {
	if got := encodeToolArguments(nil); got != "{}" {
		t.Errorf("nil arguments = %s", got)
	}
	if got := encodeToolArguments(map[string]any{"code": "print(1)"}); got != `{"code":"print(1)"}` {
		t.Errorf("arguments = %s", got)
	}
}

func TestBuildToolInstructions(t *testing.T) {
	got := buildToolInstructions(testutil.TestMCPTools())
	want := "TOOLS: get_weather_info, create_todo_item"
	if len(got) < len(want) || got[:len(want)] != want {
		t.Errorf("instructions start %q, want %q", got, want)
	}
}
