package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"toolchat/model"
	"toolchat/provider/testutil"
	"toolchat/sandbox"
	"toolchat/storage"
	"toolchat/tools"
)

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	store, err := storage.NewJSONTodoStore(filepath.Join(t.TempDir(), "todo_list.json"))
	if err != nil {
		t.Fatalf("NewJSONTodoStore() error = %v", err)
	}
	runner := sandbox.NewClient("https://sandbox.invalid/mcp", "us-west-2", time.Second)
	runner.Credentials = func() sandbox.Credentials { return sandbox.Credentials{} }
	return tools.NewRegistry(store, runner)
}

func toolCall(id, name string, args map[string]any) model.ToolCall {
	return model.ToolCall{ID: id, Name: name, Arguments: args}
}

func roles(msgs []model.Message) string {
	r := make([]string, len(msgs))
	for i, m := range msgs {
		r[i] = m.Role
	}
	return strings.Join(r, ",")
}

func TestTurnCalculateRoundTrip(t *testing.T) {
	mock := testutil.NewScriptedProvider(
		testutil.Calls(toolCall("c1", tools.NameCalculate, map[string]any{"expression": "2+3*4"})),
		testutil.Text("The answer is 14."),
	)
	loop := NewLoop(mock, newRegistry(t), Options{})

	conv, reply, err := loop.Turn(context.Background(), NewConversation(), "What is 2+3*4?")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}

	if reply.Text != "The answer is 14." {
		t.Errorf("reply = %q", reply.Text)
	}
	if strings.Contains(reply.Text, "2+3*4 = 14") {
		t.Error("reply leaks the raw tool payload")
	}
	if reply.ToolCalls != 1 || reply.Rounds != 2 {
		t.Errorf("reply = %+v, want 1 tool call over 2 rounds", reply)
	}
	if conv.State != AwaitingUserInput {
		t.Errorf("State = %v", conv.State)
	}

	if got := roles(conv.Messages); got != "user,assistant,tool,assistant" {
		t.Fatalf("roles = %s", got)
	}
	toolMsg := conv.Messages[2]
	if toolMsg.Result == nil || toolMsg.Result.CallID != "c1" || !strings.HasSuffix(toolMsg.Content, "= 14") {
		t.Errorf("tool message = %+v", toolMsg)
	}

	// The second model call must already see the result.
	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("model called %d times, want 2", len(reqs))
	}
	last := reqs[1][len(reqs[1])-1]
	if last.Role != model.RoleTool || !strings.Contains(last.Content, "14") {
		t.Errorf("second request ends with %+v, want the tool result", last)
	}
}

func TestTurnUnknownTool(t *testing.T) {
	mock := testutil.NewScriptedProvider(
		testutil.Calls(toolCall("c1", "launch_rockets", nil)),
		testutil.Text("I cannot do that."),
		testutil.Text("Hello again."),
	)
	loop := NewLoop(mock, newRegistry(t), Options{})

	conv, reply, err := loop.Turn(context.Background(), NewConversation(), "launch")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	result := conv.Messages[2].Result
	if result == nil || !result.Failed || result.ErrorKind != "DispatchError" {
		t.Fatalf("tool result = %+v, want failed DispatchError", result)
	}
	if reply.Text != "I cannot do that." {
		t.Errorf("reply = %q", reply.Text)
	}

	conv, reply, err = loop.Turn(context.Background(), conv, "hi")
	if err != nil || reply.Text != "Hello again." {
		t.Fatalf("follow-up turn = %q, %v", reply.Text, err)
	}
	if len(conv.Messages) != 6 {
		t.Errorf("len = %d, want 6", len(conv.Messages))
	}
}

func TestTurnMissingSandboxCredentials(t *testing.T) {
	mock := testutil.NewScriptedProvider(
		testutil.Calls(toolCall("c1", tools.NameExecutePython, map[string]any{"code": "print(1)"})),
		testutil.Text("The sandbox is not available."),
	)
	loop := NewLoop(mock, newRegistry(t), Options{})

	conv, _, err := loop.Turn(context.Background(), NewConversation(), "run print(1)")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	result := conv.Messages[2].Result
	if result == nil || !result.Failed || result.ErrorKind != "RemoteServiceError" {
		t.Fatalf("tool result = %+v, want failed RemoteServiceError", result)
	}
	if conv.State != AwaitingUserInput {
		t.Errorf("State = %v, want AwaitingUserInput", conv.State)
	}
}

func TestTurnModelFailureRollsBack(t *testing.T) {
	mock := testutil.NewScriptedProvider(
		testutil.Text("first answer"),
		testutil.Response{Err: testutil.ErrUnavailable},
		testutil.Text("recovered"),
	)
	loop := NewLoop(mock, newRegistry(t), Options{})

	conv, _, err := loop.Turn(context.Background(), NewConversation(), "one")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}

	failed, _, err := loop.Turn(context.Background(), conv, "two")
	if !errors.Is(err, ErrModelCall) || !errors.Is(err, testutil.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrModelCall wrapping ErrUnavailable", err)
	}
	if len(failed.Messages) != len(conv.Messages) || failed.State != AwaitingUserInput {
		t.Errorf("conversation not rolled back: %d messages, state %v", len(failed.Messages), failed.State)
	}

	_, reply, err := loop.Turn(context.Background(), failed, "two again")
	if err != nil || reply.Text != "recovered" {
		t.Errorf("retry turn = %q, %v", reply.Text, err)
	}
}

func TestTurnRoundTripLimit(t *testing.T) {
	calc := toolCall("", tools.NameCalculate, map[string]any{"expression": "1+1"})
	mock := testutil.NewScriptedProvider(
		testutil.Calls(calc),
		testutil.Calls(calc),
		testutil.Calls(calc),
		testutil.Text("never reached"),
	)
	loop := NewLoop(mock, newRegistry(t), Options{MaxToolRounds: 2})

	conv, reply, err := loop.Turn(context.Background(), NewConversation(), "loop forever")
	if !errors.Is(err, ErrRoundTripLimit) {
		t.Fatalf("error = %v, want ErrRoundTripLimit", err)
	}
	if reply.Text != IncompleteReply || conv.LastReply() != IncompleteReply {
		t.Errorf("reply = %q, last = %q", reply.Text, conv.LastReply())
	}
	if reply.ToolCalls != 2 {
		t.Errorf("executed %d tool calls, want 2", reply.ToolCalls)
	}
	if len(mock.Requests()) != 3 {
		t.Errorf("model called %d times, want 3", len(mock.Requests()))
	}
	if conv.State != AwaitingUserInput {
		t.Errorf("State = %v", conv.State)
	}
}

func TestTurnSystemPromptNotStored(t *testing.T) {
	mock := testutil.NewScriptedProvider(testutil.Text("hi"))
	loop := NewLoop(mock, newRegistry(t), Options{SystemPrompt: "Answer in Japanese."})

	conv, _, err := loop.Turn(context.Background(), NewConversation(), "hello")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	req := mock.Requests()[0]
	if req[0].Role != model.RoleSystem || req[0].Content != "Answer in Japanese." {
		t.Errorf("first request message = %+v, want system prompt", req[0])
	}
	for _, m := range conv.Messages {
		if m.Role == model.RoleSystem {
			t.Error("system prompt stored in history")
		}
	}
}

func TestTurnAssignsMissingCallIDs(t *testing.T) {
	mock := testutil.NewScriptedProvider(
		testutil.Calls(toolCall("", tools.NameWeather, map[string]any{"city": "Osaka"})),
		testutil.Text("Cloudy in Osaka."),
	)
	var seen []model.ToolResult
	loop := NewLoop(mock, newRegistry(t), Options{
		OnToolResult: func(_ model.ToolCall, r model.ToolResult) { seen = append(seen, r) },
	})

	conv, _, err := loop.Turn(context.Background(), NewConversation(), "weather in Osaka?")
	if err != nil {
		t.Fatalf("Turn() error = %v", err)
	}
	id := conv.Messages[1].ToolCalls[0].ID
	if id == "" {
		t.Fatal("tool call has no ID")
	}
	if conv.Messages[2].Result.CallID != id {
		t.Errorf("result CallID = %q, want %q", conv.Messages[2].Result.CallID, id)
	}
	if len(seen) != 1 || seen[0].Failed {
		t.Errorf("OnToolResult saw %+v", seen)
	}
}
