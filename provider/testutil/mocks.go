package testutil

import (
	"context"
	"errors"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/model"
	"toolchat/ollama"
)

// Response is one scripted model answer: streamed text chunks and tool calls
// delivered at the end of the stream. Err fails the call instead.
type Response struct {
	Chunks    []string
	ToolCalls []model.ToolCall
	Err       error
}

// Text is a Response with a single text chunk
func Text(s string) Response {
	return Response{Chunks: []string{s}}
}

// Calls is a Response that requests the given tools
func Calls(calls ...model.ToolCall) Response {
	return Response{ToolCalls: calls}
}

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	ChatWithToolsFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error
	ListModelsFunc    func(ctx context.Context) ([]ollama.ModelInfo, error)
	PingFunc          func(ctx context.Context) error

	// State
	currentModel string

	mu       sync.Mutex
	script   []Response
	requests [][]model.Message
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.ChatWithToolsFunc = mock.scriptedChatWithTools
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

// NewScriptedProvider returns a mock that answers successive ChatWithTools
// calls with the given responses, in order.
func NewScriptedProvider(responses ...Response) *MockProvider {
	mock := NewMockProvider("mock-model")
	mock.script = responses
	return mock
}

// Requests returns a copy of the message histories the mock received.
func (m *MockProvider) Requests() [][]model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]model.Message, len(m.requests))
	for i, r := range m.requests {
		out[i] = append([]model.Message(nil), r...)
	}
	return out
}

func (m *MockProvider) scriptedChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	m.mu.Lock()
	m.requests = append(m.requests, append([]model.Message(nil), messages...))
	if len(m.script) == 0 {
		m.mu.Unlock()
		// Default: mock response with tools available
		return callback("Mock response with tools", nil)
	}
	resp := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if resp.Err != nil {
		return resp.Err
	}
	for _, chunk := range resp.Chunks {
		if err := callback(chunk, nil); err != nil {
			return err
		}
	}
	if len(resp.ToolCalls) > 0 {
		return callback("", resp.ToolCalls)
	}
	return nil
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return []ollama.ModelInfo{
		{Name: "mock-model-1", Size: 1000},
		{Name: "mock-model-2", Size: 2000},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]ollama.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) GetDisplayName() string {
	// Mock provider returns same value as GetModel (no prefix stripping)
	return m.currentModel
}

func (m *MockProvider) SetModel(model string) {
	m.currentModel = model
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// ErrUnavailable is a canned transport failure for scripted responses.
var ErrUnavailable = errors.New("mock provider: service unavailable")
