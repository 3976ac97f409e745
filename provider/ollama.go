package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"toolchat/config"
	"toolchat/mcp"
	"toolchat/model"
	"toolchat/ollama"
)

// OllamaProvider wraps ollama.Client to implement the Provider interface.
//
// Ollama does not assign tool call IDs. Calls come back without one and the
// conversation loop fills them in.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// BaseURL defaults to "http://localhost:11434" and Model to
// "llama3.1:latest". Returns an error if the URL is invalid.
func NewOllamaProvider(cfg Config) (*OllamaProvider, error) {
	client, err := ollama.NewClient(cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	client.SetTemperature(cfg.temperature())

	return &OllamaProvider{client: client}, nil
}

// ChatWithTools implements Provider.ChatWithTools.
//
// Text chunks are forwarded as they stream. Tool calls arriving on any chunk
// are held back and delivered together once the stream ends, matching the
// other providers.
func (p *OllamaProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	if len(tools) > 0 {
		messages = withToolInstructions(messages, tools)
		if config.DebugLog != nil && !p.client.SupportsToolCalling() {
			config.DebugLog.Printf("[Ollama] model %s is not known to support tool calling", p.client.GetModel())
		}
	}

	var ollamaTools []api.Tool
	if len(tools) > 0 {
		ollamaTools = mcp.ConvertMCPToolsToOllama(tools)
	}

	var pending []model.ToolCall
	err := p.client.ChatWithTools(ctx, ConvertToOllamaMessages(messages), ollamaTools, func(chunk string, calls []api.ToolCall) error {
		pending = append(pending, ConvertToProviderToolCalls(calls)...)
		if callback == nil || chunk == "" {
			return nil
		}
		return callback(chunk, nil)
	})
	if err != nil {
		return fmt.Errorf("Ollama chat error: %w", err)
	}

	if callback != nil && len(pending) > 0 {
		return callback("", pending)
	}
	return nil
}

// ListModels implements Provider.ListModels.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

// GetModel implements Provider.GetModel.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// GetDisplayName implements Provider.GetDisplayName. Ollama names carry no
// vendor prefix.
func (p *OllamaProvider) GetDisplayName() string {
	return p.client.GetModel()
}

// SetModel implements Provider.SetModel.
func (p *OllamaProvider) SetModel(model string) {
	p.client.SetModel(model)
}

// Ping implements Provider.Ping.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
