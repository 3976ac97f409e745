package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/ollama"
)

// Provider abstracts LLM provider implementations (Anthropic, OpenAI,
// OpenRouter, Ollama) using the provider-agnostic types of this package.
//
// The interface lives here rather than in the provider package so that
// provider implementations can import model without a cycle.
type Provider interface {
	// ChatWithTools sends messages with optional tool declarations and
	// streams text back via callback. Tool calls are delivered to the
	// callback once the response is complete.
	ChatWithTools(ctx context.Context, messages []Message, tools []mcptypes.Tool, callback StreamCallback) error

	// ListModels returns available models for this provider.
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)

	// GetModel returns the model name used for API calls.
	GetModel() string

	// GetDisplayName returns the model name formatted for display.
	// For OpenRouter this strips the vendor prefix.
	GetDisplayName() string

	// SetModel changes the active model (the REPL's /model command).
	SetModel(model string)

	// Ping checks if the provider is reachable. It is called once at startup.
	Ping(ctx context.Context) error
}

// StreamCallback is called for each chunk of streamed response.
type StreamCallback func(chunk string, toolCalls []ToolCall) error
