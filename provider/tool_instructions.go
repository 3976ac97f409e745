package provider

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// buildToolInstructions returns the system block that tells the model when
// to reach for a tool. Every provider sends the same text; OpenRouter skips
// it for models that handle tools natively.
func buildToolInstructions(tools []mcptypes.Tool) string {
	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name)
	}

	return strings.Join([]string{
		"TOOLS: " + strings.Join(toolNames, ", "),
		"",
		"When the user asks for weather, arithmetic, a TODO item, or running Python code:",
		"1. Pick the matching tool",
		"2. Call it IMMEDIATELY with the arguments you can infer",
		"3. Ask only for a parameter you cannot infer (for example the city)",
		"",
		"After a tool result arrives, answer in the user's language using that result.",
		"If a tool reports an error, explain it briefly instead of retrying the same call.",
		"",
		"DO NOT:",
		"- List available tools",
		"- Do arithmetic in your head when calculate_math_expression can do it",
		"- Invent weather data or TODO IDs",
		"",
		"Example:",
		"User: '2+3*4は？'",
		"You: [call calculate_math_expression(expression='2+3*4')]",
	}, "\n")
}
