package provider

import (
	"context"
	"encoding/json"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"toolchat/config"
	"toolchat/mcp"
	"toolchat/model"
	"toolchat/ollama"
)

// OpenAIProvider implements the Provider interface using OpenAI's official API.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	baseURL     string
	maxTokens   int64
	temperature float64
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// BaseURL defaults to "https://api.openai.com/v1" and Model to
// "gpt-4o-mini". Returns an error if the API key is missing.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	return &OpenAIProvider{
		client:      openai.NewClient(openAIOptions(cfg)...),
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.temperature(),
	}, nil
}

func openAIOptions(cfg Config) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return opts
}

// ChatWithTools implements Provider.ChatWithTools with streaming support.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	if len(tools) > 0 {
		messages = withToolInstructions(messages, tools)
	}

	params := p.params(messages, tools)
	if err := streamChatCompletion(ctx, &p.client, params, callback); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}
	return nil
}

func (p *OpenAIProvider) params(messages []model.Message, tools []mcptypes.Tool) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:    ConvertToOpenAIMessages(messages),
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(p.temperature),
	}
	if p.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(p.maxTokens)
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertMCPToolsToOpenAIFormat(tools)
	}
	return params
}

// ListModels implements Provider.ListModels.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	modelsPage, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]ollama.ModelInfo, 0, len(modelsPage.Data))
	for _, m := range modelsPage.Data {
		result = append(result, ollama.ModelInfo{
			Name:         m.ID,
			InternalName: m.ID,
			Provider:     string(ProviderTypeOpenAI),
		})
	}
	return result, nil
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// GetDisplayName implements Provider.GetDisplayName.
func (p *OpenAIProvider) GetDisplayName() string {
	return p.model
}

// SetModel implements Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by attempting to list models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}

// withToolInstructions prepends the tool guidance as a system message.
func withToolInstructions(messages []model.Message, tools []mcptypes.Tool) []model.Message {
	instruction := model.Message{Role: model.RoleSystem, Content: buildToolInstructions(tools)}
	return append([]model.Message{instruction}, messages...)
}

// streamChatCompletion runs a streaming Chat Completions request shared by
// OpenAI and OpenRouter. Content deltas are forwarded as they arrive; tool
// calls are collected and delivered once the stream ends.
func streamChatCompletion(ctx context.Context, client *openai.Client, params openai.ChatCompletionNewParams, callback model.StreamCallback) error {
	stream := client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	var toolCalls []model.ToolCall

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok {
			toolCalls = append(toolCalls, model.ToolCall{
				ID:        tool.ID,
				Name:      tool.Name,
				Arguments: ParseToolArguments(tool.Arguments),
			})
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && callback != nil {
			if err := callback(chunk.Choices[0].Delta.Content, nil); err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return err
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[OpenAI] model=%s tool_calls=%d", params.Model, len(toolCalls))
	}
	if callback != nil && len(toolCalls) > 0 {
		return callback("", toolCalls)
	}
	return nil
}

// ConvertToOpenAIMessages converts history to Chat Completions messages.
//
// Assistant tool calls are replayed as tool_calls and every tool result is a
// tool message carrying the originating call ID.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))

		case model.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			result = append(result, openAIAssistantToolCalls(msg))

		case model.RoleTool:
			if msg.Result == nil {
				result = append(result, openai.UserMessage(msg.Content))
				continue
			}
			result = append(result, openai.ToolMessage(msg.Result.Content, msg.Result.CallID))

		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}

	return result
}

func openAIAssistantToolCalls(msg model.Message) openai.ChatCompletionMessageParamUnion {
	assistant := &openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(msg.Content),
		}
	}

	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: encodeToolArguments(call.Arguments),
				},
			},
		})
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
}

func encodeToolArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
