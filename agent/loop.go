package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/config"
	"toolchat/model"
)

const (
	DefaultMaxToolRounds  = 10
	DefaultRequestTimeout = 120 * time.Second
)

// IncompleteReply is appended when a turn hits the round-trip limit.
const IncompleteReply = "Sorry, I could not complete this request: too many tool calls were needed. Please try rephrasing or splitting it up."

var (
	// ErrRoundTripLimit means the model kept requesting tools past MaxToolRounds.
	ErrRoundTripLimit = errors.New("tool round-trip limit reached")

	// ErrModelCall wraps any failure of the LLM call itself.
	ErrModelCall = errors.New("model call failed")
)

// Tools is the tool set the loop exposes to the model. *tools.Registry
// implements it.
type Tools interface {
	Definitions() []mcptypes.Tool
	Dispatch(ctx context.Context, call model.ToolCall) model.ToolResult
}

// Options tune a Loop. Zero values fall back to the defaults.
type Options struct {
	SystemPrompt   string
	MaxToolRounds  int
	RequestTimeout time.Duration

	// OnToolResult, if set, is called after each tool execution.
	OnToolResult func(call model.ToolCall, result model.ToolResult)
}

// Reply is what a finished turn shows the user.
type Reply struct {
	Text      string
	ToolCalls int // tools executed during the turn
	Rounds    int // model calls made during the turn
}

// Loop drives turns against one provider and tool set.
type Loop struct {
	provider model.Provider
	tools    Tools
	opts     Options
}

// NewLoop creates a loop.
func NewLoop(provider model.Provider, tools Tools, opts Options) *Loop {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = DefaultMaxToolRounds
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Loop{provider: provider, tools: tools, opts: opts}
}

// Turn processes one user input to completion and returns the updated
// conversation.
//
// If the model call fails, the returned conversation is conv unchanged (the
// user message is dropped) and the error wraps ErrModelCall. If the model
// keeps requesting tools beyond MaxToolRounds, IncompleteReply is appended
// and returned along with ErrRoundTripLimit. In every case the returned
// state is AwaitingUserInput.
func (l *Loop) Turn(ctx context.Context, conv Conversation, input string) (Conversation, Reply, error) {
	turnID := uuid.NewString()
	before := conv
	before.State = AwaitingUserInput

	next := Conversation{Messages: slices.Clone(conv.Messages)}
	next.Messages = append(next.Messages, model.Message{
		Role:      model.RoleUser,
		Content:   input,
		Timestamp: time.Now(),
	})

	var reply Reply
	defs := l.tools.Definitions()

	for {
		next.State = AwaitingModelResponse
		reply.Rounds++

		text, calls, err := l.complete(ctx, next.Messages, defs)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Agent] turn %s: model call %d failed: %v", turnID, reply.Rounds, err)
			}
			return before, Reply{}, fmt.Errorf("%w: %w", ErrModelCall, err)
		}

		if len(calls) == 0 {
			next.Messages = append(next.Messages, model.Message{
				Role:      model.RoleAssistant,
				Content:   text,
				Timestamp: time.Now(),
			})
			next.State = AwaitingUserInput
			reply.Text = text
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Agent] turn %s: done after %d model calls, %d tool calls", turnID, reply.Rounds, reply.ToolCalls)
			}
			return next, reply, nil
		}

		// The round that would exceed the limit is not executed.
		if reply.Rounds > l.opts.MaxToolRounds {
			next.Messages = append(next.Messages, model.Message{
				Role:      model.RoleAssistant,
				Content:   IncompleteReply,
				Timestamp: time.Now(),
			})
			next.State = AwaitingUserInput
			reply.Text = IncompleteReply
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Agent] turn %s: stopped after %d tool rounds", turnID, l.opts.MaxToolRounds)
			}
			return next, reply, ErrRoundTripLimit
		}

		next.Messages = append(next.Messages, model.Message{
			Role:      model.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
			Timestamp: time.Now(),
		})

		next.State = ExecutingTool
		for _, call := range calls {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Agent] turn %s: calling %s (id=%s)", turnID, call.Name, call.ID)
			}
			result := l.tools.Dispatch(ctx, call)
			next.Messages = append(next.Messages, model.NewToolMessage(result))
			reply.ToolCalls++
			if l.opts.OnToolResult != nil {
				l.opts.OnToolResult(call, result)
			}
		}
	}
}

// complete makes one model call and gathers the streamed text and the
// requested tool calls.
func (l *Loop) complete(ctx context.Context, history []model.Message, defs []mcptypes.Tool) (string, []model.ToolCall, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.RequestTimeout)
	defer cancel()

	messages := history
	if l.opts.SystemPrompt != "" {
		messages = append([]model.Message{{Role: model.RoleSystem, Content: l.opts.SystemPrompt}}, history...)
	}

	var (
		text  strings.Builder
		calls []model.ToolCall
	)
	err := l.provider.ChatWithTools(ctx, messages, defs, func(chunk string, toolCalls []model.ToolCall) error {
		text.WriteString(chunk)
		calls = append(calls, toolCalls...)
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	// Every call needs an ID so its result can be matched to it.
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
	return text.String(), calls, nil
}
