package provider

import (
	"testing"

	"github.com/ollama/ollama/api"

	"toolchat/model"
	"toolchat/provider/testutil"
)

func TestConvertToOllamaMessages(t *testing.T) {
	result := ConvertToOllamaMessages(testutil.TestMessages())

	if len(result) != 4 {
		t.Fatalf("length = %d, want 4", len(result))
	}

	wantRoles := []string{"user", "assistant", "tool", "assistant"}
	for i, msg := range result {
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d role = %q, want %q", i, msg.Role, wantRoles[i])
		}
	}

	calls := result[1].ToolCalls
	if len(calls) != 1 || calls[0].Function.Name != "calculate_math_expression" {
		t.Fatalf("assistant tool calls = %+v", calls)
	}
	if calls[0].Function.Arguments["expression"] != "2+3*4" {
		t.Errorf("arguments = %v", calls[0].Function.Arguments)
	}

	if result[2].Content != "2+3*4 = 14" {
		t.Errorf("tool content = %q", result[2].Content)
	}
	if len(result[3].ToolCalls) != 0 {
		t.Errorf("final assistant message has tool calls: %+v", result[3].ToolCalls)
	}
}

func TestConvertToolCallsNilSemantics(t *testing.T) {
	if got := ConvertToProviderToolCalls(nil); got != nil {
		t.Errorf("ConvertToProviderToolCalls(nil) = %v", got)
	}
	if got := ConvertToProviderToolCalls([]api.ToolCall{}); got != nil {
		t.Errorf("ConvertToProviderToolCalls(empty) = %v", got)
	}
	if got := ConvertFromProviderToolCalls(nil); got != nil {
		t.Errorf("ConvertFromProviderToolCalls(nil) = %v", got)
	}
	if got := ConvertFromProviderToolCalls([]model.ToolCall{}); got != nil {
		t.Errorf("ConvertFromProviderToolCalls(empty) = %v", got)
	}
}

func TestToolCallsRoundTrip(t *testing.T) {
	original := []model.ToolCall{
		{Name: "create_todo_item", Arguments: map[string]any{"task": "資料作成", "priority": "high"}},
		{Name: "calculate_math_expression", Arguments: map[string]any{"expression": "sqrt(16)"}},
	}

	result := ConvertToProviderToolCalls(ConvertFromProviderToolCalls(original))

	if len(result) != len(original) {
		t.Fatalf("length = %d, want %d", len(result), len(original))
	}
	for i := range result {
		if result[i].Name != original[i].Name {
			t.Errorf("call %d name = %q, want %q", i, result[i].Name, original[i].Name)
		}
		for k, v := range original[i].Arguments {
			if result[i].Arguments[k] != v {
				t.Errorf("call %d argument %s = %v, want %v", i, k, result[i].Arguments[k], v)
			}
		}
	}
}

func TestParseToolArguments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"object", `{"city":"Osaka"}`, map[string]any{"city": "Osaka"}},
		{"empty string", "", map[string]any{}},
		{"malformed", `{"city":`, map[string]any{}},
		{"json null", "null", map[string]any{}},
		{"not an object", `["a"]`, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseToolArguments(tt.in)
			if got == nil {
				t.Fatal("ParseToolArguments returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseToolArguments(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}
