package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"toolchat/agent"
	"toolchat/model"
	"toolchat/ollama"
)

// fakeTurner answers every input with "echo: <input>" unless fail is set.
type fakeTurner struct {
	inputs []string
	fail   error
}

func (f *fakeTurner) Turn(_ context.Context, conv agent.Conversation, input string) (agent.Conversation, agent.Reply, error) {
	f.inputs = append(f.inputs, input)
	if f.fail != nil {
		return conv, agent.Reply{}, f.fail
	}
	reply := "echo: " + input
	conv.Messages = append(conv.Messages,
		model.Message{Role: model.RoleUser, Content: input},
		model.Message{Role: model.RoleAssistant, Content: reply},
	)
	return conv, agent.Reply{Text: reply, Rounds: 1}, nil
}

func newTestREPL(turner Turner, input string) (*REPL, *bytes.Buffer) {
	var out bytes.Buffer
	return NewREPL(turner, strings.NewReader(input), &out), &out
}

func TestREPLRunsTurnsUntilExitWord(t *testing.T) {
	turner := &fakeTurner{}
	repl, out := newTestREPL(turner, "東京の天気は？\n\n  EXIT  \nnever reached\n")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(turner.inputs) != 1 || turner.inputs[0] != "東京の天気は？" {
		t.Errorf("turn inputs = %q", turner.inputs)
	}

	got := out.String()
	for _, want := range []string{"echo: 東京の天気は？", "Type a message", "bye"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Error("non-terminal output should carry no escape codes")
	}
}

func TestREPLEndOfInput(t *testing.T) {
	turner := &fakeTurner{}
	repl, out := newTestREPL(turner, "2+2\n")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(turner.inputs) != 1 {
		t.Errorf("turn inputs = %q", turner.inputs)
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "bye") {
		t.Errorf("output should end with bye:\n%s", out.String())
	}
}

func TestREPLTurnErrorKeepsGoing(t *testing.T) {
	turner := &fakeTurner{fail: fmt.Errorf("%w: %w", agent.ErrModelCall, errors.New("503"))}
	repl, out := newTestREPL(turner, "first\nsecond\nquit\n")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(turner.inputs) != 2 {
		t.Errorf("turn inputs = %q, want both lines attempted", turner.inputs)
	}
	if n := strings.Count(out.String(), "error: model call failed: 503"); n != 2 {
		t.Errorf("printed %d errors:\n%s", n, out.String())
	}
	if len(repl.Conversation().Messages) != 0 {
		t.Errorf("failed turns should not grow the conversation")
	}
}

func TestREPLCopy(t *testing.T) {
	repl, out := newTestREPL(&fakeTurner{}, "")
	var copied string
	repl.Copy = func(text string) error {
		copied = text
		return nil
	}
	ctx := context.Background()

	repl.Handle(ctx, "/copy")
	if !strings.Contains(out.String(), "nothing to copy") {
		t.Errorf("copy before any reply:\n%s", out.String())
	}

	repl.Handle(ctx, "hello")
	repl.Handle(ctx, "/copy")
	if copied != "echo: hello" {
		t.Errorf("copied %q", copied)
	}

	repl.Copy = func(string) error { return errors.New("no clipboard utility") }
	repl.Handle(ctx, "/copy")
	if !strings.Contains(out.String(), "clipboard: no clipboard utility") {
		t.Errorf("clipboard failure not reported:\n%s", out.String())
	}
}

func TestREPLHistory(t *testing.T) {
	repl, _ := newTestREPL(&fakeTurner{}, "")
	ctx := context.Background()

	for _, line := range []string{"a", "a", "b", "/help", "", "a"} {
		repl.Handle(ctx, line)
	}

	want := []string{"a", "b", "a"}
	if strings.Join(repl.history, ",") != strings.Join(want, ",") {
		t.Errorf("history = %q, want %q", repl.history, want)
	}
}

func TestIsExitWord(t *testing.T) {
	tests := map[string]bool{
		"exit":    true,
		"QUIT":    true,
		" 終了 ":    true,
		"exit now": false,
		"":         false,
	}
	for in, want := range tests {
		if got := isExitWord(in); got != want {
			t.Errorf("isExitWord(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	got := suggestions([]string{"計算", "old", "new"})

	if got[0] != "new" || got[1] != "old" || got[2] != "計算" {
		t.Errorf("history should come first, newest first: %q", got)
	}
	if n := strings.Count(strings.Join(got, "\n"), "計算"); n != 1 {
		t.Errorf("duplicate suggestion: %q", got)
	}
	if len(got) != 2+len(Keywords) {
		t.Errorf("len = %d, want %d", len(got), 2+len(Keywords))
	}
}

func TestPromptModel(t *testing.T) {
	m := newPromptModel(Keywords)
	for _, r := range "天気" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(promptModel)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(promptModel)
	if !m.submitted || m.value != "天気" {
		t.Errorf("submitted=%v value=%q", m.submitted, m.value)
	}
	if cmd == nil {
		t.Error("enter should quit the prompt program")
	}
	if !strings.Contains(m.View(), "天気") {
		t.Errorf("submitted view = %q", m.View())
	}

	cancelled, _ := newPromptModel(nil).Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if !cancelled.(promptModel).cancelled {
		t.Error("ctrl-d on an empty line should cancel")
	}
}

func TestScanReaderEOF(t *testing.T) {
	r := NewLineReader(strings.NewReader("only line"), io.Discard)

	line, err := r.ReadLine(nil)
	if err != nil || line != "only line" {
		t.Fatalf("ReadLine() = %q, %v", line, err)
	}
	if _, err := r.ReadLine(nil); !errors.Is(err, io.EOF) {
		t.Errorf("second ReadLine() error = %v, want io.EOF", err)
	}
}

func TestToolReporter(t *testing.T) {
	var out bytes.Buffer
	report := ToolReporter(&out)

	report(
		model.ToolCall{Name: "calculate_math_expression", Arguments: map[string]any{"expression": "2+3*4"}},
		model.ToolResult{Content: "2+3*4 = 14"},
	)
	report(
		model.ToolCall{Name: "execute_python_code", Arguments: map[string]any{"code": "print(1)\nprint(2)"}},
		model.ToolResult{Failed: true, ErrorKind: "RemoteServiceError"},
	)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], "calculate_math_expression 2+3*4 [ok]") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "print(1) print(2) [RemoteServiceError]") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestRule(t *testing.T) {
	for _, label := range []string{"", "[code]", "東京"} {
		rule := Rule(label, 30)
		if w := displayWidth(rule); w != 30 {
			t.Errorf("Rule(%q, 30) width = %d", label, w)
		}
	}
	if got := Rule("too long for the rule", 5); got != "too long for the rule" {
		t.Errorf("narrow rule = %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := stripANSI(RenderMarkdown("**結果**: 14\n\nsee [docs](https://example.com/x)", 60))

	if !strings.Contains(out, "結果") || !strings.Contains(out, "14") {
		t.Errorf("rendered text missing content:\n%s", out)
	}
	if !strings.Contains(out, "https://example.com/x") || strings.Contains(out, "[docs]") {
		t.Errorf("links should render as bare URLs:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("東京都千代田区", 8); displayWidth(got) > 8 || !strings.HasSuffix(got, "…") {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 8); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}

type fakeModels struct {
	current string
	listErr error
}

func (f *fakeModels) ListModels(context.Context) ([]ollama.ModelInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []ollama.ModelInfo{
		{Name: "llama-3.3-70b-instruct", InternalName: "meta-llama/llama-3.3-70b-instruct"},
		{Name: "qwen3-coder", InternalName: "qwen/qwen3-coder"},
	}, nil
}

func (f *fakeModels) GetModel() string  { return f.current }
func (f *fakeModels) SetModel(m string) { f.current = m }

func TestREPLModelCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without a selector", func(t *testing.T) {
		repl, out := newTestREPL(&fakeTurner{}, "")
		repl.Handle(ctx, "/model")
		if !strings.Contains(out.String(), "not available") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("lists with current marked", func(t *testing.T) {
		turner := &fakeTurner{}
		repl, out := newTestREPL(turner, "")
		repl.Models = &fakeModels{current: "qwen/qwen3-coder"}

		repl.Handle(ctx, "/model")
		got := out.String()
		if !strings.Contains(got, "  meta-llama/llama-3.3-70b-instruct\n") || !strings.Contains(got, "* qwen/qwen3-coder\n") {
			t.Errorf("listing = %q", got)
		}
		if len(turner.inputs) != 0 {
			t.Error("/model should not start a turn")
		}
	})

	t.Run("switches model", func(t *testing.T) {
		models := &fakeModels{current: "a"}
		repl, out := newTestREPL(&fakeTurner{}, "")
		repl.Models = models

		repl.Handle(ctx, "/model   qwen/qwen3-coder ")
		if models.current != "qwen/qwen3-coder" {
			t.Errorf("current = %q", models.current)
		}
		if !strings.Contains(out.String(), "model set to qwen/qwen3-coder") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("list failure is reported", func(t *testing.T) {
		repl, out := newTestREPL(&fakeTurner{}, "")
		repl.Models = &fakeModels{listErr: errors.New("connection refused")}

		repl.Handle(ctx, "/model")
		if !strings.Contains(out.String(), "error: connection refused") {
			t.Errorf("output = %q", out.String())
		}
	})
}

func TestPlainReaderLongLine(t *testing.T) {
	long := "print(" + strings.Repeat("1+", 100*1024) + "1)"
	r := NewLineReader(strings.NewReader(long+"\r\nnext\n"), io.Discard)

	line, err := r.ReadLine(nil)
	if err != nil {
		t.Fatalf("ReadLine() error = %v", err)
	}
	if line != long {
		t.Errorf("long line length = %d, want %d", len(line), len(long))
	}
	if line, err := r.ReadLine(nil); err != nil || line != "next" {
		t.Errorf("second ReadLine() = %q, %v", line, err)
	}
}

func TestREPLLongPastedInput(t *testing.T) {
	turner := &fakeTurner{}
	code := strings.Repeat("x = 1; ", 20000)
	repl, _ := newTestREPL(turner, code+"\nquit\n")

	if err := repl.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(turner.inputs) != 1 || turner.inputs[0] != strings.TrimSpace(code) {
		t.Errorf("long input was not passed through whole")
	}
}
