// Package provider implements model.Provider for each supported LLM API.
//
// The conversation loop only sees model.Message, model.ToolCall, and
// mcp-go tool declarations. Everything SDK specific (message shapes, tool
// formats, call IDs, streaming) is converted here.
//
// # Providers
//
//   - AnthropicProvider: Anthropic Messages API (default)
//   - OpenAIProvider: OpenAI Chat Completions
//   - OpenRouterProvider: OpenRouter, through the OpenAI SDK
//   - OllamaProvider: local Ollama server
//
// # History serialization
//
// Tool round trips are sent back faithfully. An assistant message with tool
// calls becomes tool_use blocks (Anthropic) or tool_calls (OpenAI), and each
// tool result becomes a tool_result block or a tool message carrying the
// originating call ID.
//
// # Usage
//
//	p, err := provider.NewProvider(provider.Config{
//	    Type:   provider.ProviderTypeAnthropic,
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    // handle error
//	}
//	err = p.ChatWithTools(ctx, messages, registry.Definitions(), callback)
package provider

import "time"

// Note: The Provider interface and StreamCallback are defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// DefaultTemperature is used when Config.Temperature is nil.
const DefaultTemperature = 0.7

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama

	Temperature *float64      // nil means DefaultTemperature
	MaxTokens   int64         // 0 means the provider default
	Timeout     time.Duration // per request; 0 leaves the SDK default
	MaxRetries  int           // SDK retries for transient failures
}

func (c Config) temperature() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}
