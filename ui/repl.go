// Package ui is the line-oriented terminal front end: a prompt, rendered
// replies, and a few slash commands.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"toolchat/agent"
	"toolchat/config"
	"toolchat/model"
	"toolchat/ollama"
)

const defaultWidth = 80

// Turner runs one conversation turn. *agent.Loop implements it.
type Turner interface {
	Turn(ctx context.Context, conv agent.Conversation, input string) (agent.Conversation, agent.Reply, error)
}

// ModelSelector lists and switches the provider's models. model.Provider
// implements it.
type ModelSelector interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	GetModel() string
	SetModel(model string)
}

// REPL reads user input, runs turns, and prints replies until an exit
// word or end of input.
type REPL struct {
	turner Turner
	reader LineReader
	out    io.Writer

	conv    agent.Conversation
	history []string

	// Styled output (colors, markdown) is used only on a terminal.
	styled bool
	width  int

	// Copy writes text to the clipboard.
	Copy func(text string) error

	// Models backs the /model command; nil disables it.
	Models ModelSelector
}

// NewREPL wires a REPL to the given streams.
func NewREPL(turner Turner, in io.Reader, out io.Writer) *REPL {
	r := &REPL{
		turner: turner,
		reader: NewLineReader(in, out),
		out:    out,
		conv:   agent.NewConversation(),
		width:  defaultWidth,
		Copy:   clipboard.WriteAll,
	}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		r.styled = true
		r.width = terminalWidth()
	}
	return r
}

// Conversation returns the current conversation state.
func (r *REPL) Conversation() agent.Conversation {
	return r.conv
}

// Run loops until the user exits. It returns nil on a normal exit.
func (r *REPL) Run(ctx context.Context) error {
	r.printBanner()

	for {
		line, err := r.reader.ReadLine(r.history)
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
			r.println(r.paint(DimStyle, "bye"))
			return nil
		}
		if err != nil {
			return err
		}

		if !r.Handle(ctx, line) {
			r.println(r.paint(DimStyle, "bye"))
			return nil
		}
	}
}

// Handle processes one input line and reports whether the session
// continues.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)

	switch {
	case input == "":
		r.println(r.paint(DimStyle, "Type a message, /help for commands, or exit to quit."))
		return true
	case isExitWord(input):
		return false
	case input == "/help":
		r.printHelp()
		return true
	case input == "/copy":
		r.copyLastReply()
		return true
	case input == "/model" || strings.HasPrefix(input, "/model "):
		r.selectModel(ctx, strings.TrimSpace(strings.TrimPrefix(input, "/model")))
		return true
	}

	r.remember(input)
	r.runTurn(ctx, input)
	return true
}

func (r *REPL) runTurn(ctx context.Context, input string) {
	// Ctrl-C during a turn cancels only that turn.
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	conv, reply, err := r.turner.Turn(turnCtx, r.conv, input)
	r.conv = conv

	if reply.Text != "" {
		r.printReply(reply.Text)
	}
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[REPL] turn failed: %v", err)
		}
		r.println(r.paint(ErrorStyle, "error: ") + err.Error())
	}
}

func (r *REPL) remember(input string) {
	if n := len(r.history); n > 0 && r.history[n-1] == input {
		return
	}
	r.history = append(r.history, input)
}

func (r *REPL) copyLastReply() {
	text := r.conv.LastReply()
	if text == "" {
		r.println(r.paint(WarningStyle, "nothing to copy yet"))
		return
	}
	if err := r.Copy(text); err != nil {
		r.println(r.paint(ErrorStyle, "error: ") + fmt.Sprintf("clipboard: %v", err))
		return
	}
	r.println(r.paint(DimStyle, "copied last reply to clipboard"))
}

// selectModel lists the available models, or switches to name when given.
func (r *REPL) selectModel(ctx context.Context, name string) {
	if r.Models == nil {
		r.println(r.paint(WarningStyle, "model selection is not available"))
		return
	}

	if name != "" {
		r.Models.SetModel(name)
		if config.DebugLog != nil {
			config.DebugLog.Printf("[REPL] model switched to %s", name)
		}
		r.println(r.paint(DimStyle, "model set to "+name))
		return
	}

	models, err := r.Models.ListModels(ctx)
	if err != nil {
		r.println(r.paint(ErrorStyle, "error: ") + err.Error())
		return
	}
	current := r.Models.GetModel()
	for _, m := range models {
		marker := "  "
		if m.InternalName == current || m.Name == current {
			marker = "* "
		}
		id := m.InternalName
		if id == "" {
			id = m.Name
		}
		r.println(marker + id)
	}
	r.println(r.paint(DimStyle, "/model <name> switches models"))
}

func (r *REPL) printReply(text string) {
	if !r.styled {
		r.println(text)
		r.println("")
		return
	}
	r.println(AssistantStyle.Render("assistant"))
	r.println(RenderMarkdown(text, r.width))
	r.println("")
}

func (r *REPL) printBanner() {
	title := "toolchat"
	if r.styled {
		r.println(Rule(" "+TitleStyle.Render(title)+" ", min(r.width, 60)))
		r.println(FormatKeys("exit", "Quit", "/copy", "Copy last reply", "/help", "Help"))
		return
	}
	r.println(title + " (exit, quit, or 終了 to leave)")
}

func (r *REPL) printHelp() {
	lines := []string{
		"Ask in plain language. The assistant can:",
		"  • look up the weather for a city     (例: 東京の天気は？)",
		"  • evaluate arithmetic                (例: sqrt(2) * 10 を計算して)",
		"  • create a TODO item                 (例: 「資料作成」をTODOに追加、優先度high)",
		"  • run Python code in a sandbox       (例: Pythonで1から10の和を計算して)",
		"",
		"Commands: /copy copies the last reply, /model lists or switches models,",
		"/help shows this text. exit, quit, or 終了 ends the session.",
	}
	for _, line := range lines {
		r.println(r.paint(DimStyle, line))
	}
}

func (r *REPL) paint(style lipgloss.Style, s string) string {
	if !r.styled {
		return s
	}
	return style.Render(s)
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.out, s)
}

// terminalWidth reads COLUMNS, falling back to defaultWidth.
func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return defaultWidth
}

// ToolReporter returns a hook that prints one line per executed tool call.
// Pass it as agent.Options.OnToolResult.
func ToolReporter(out io.Writer) func(call model.ToolCall, result model.ToolResult) {
	styled := false
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		styled = true
	}

	return func(call model.ToolCall, result model.ToolResult) {
		status, style := "ok", DimStyle
		if result.Failed {
			status, style = result.ErrorKind, WarningStyle
		}

		line := fmt.Sprintf("  ⚙ %s %s", call.Name, truncate(summarizeArgs(call.Arguments), 48))
		line = fmt.Sprintf("%s [%s]", line, status)
		if styled {
			line = style.Render(line)
		}
		fmt.Fprintln(out, line)
	}
}

func summarizeArgs(args map[string]any) string {
	for _, key := range []string{"city", "expression", "task", "code"} {
		if v, ok := args[key].(string); ok {
			return strings.Join(strings.Fields(v), " ")
		}
	}
	return ""
}
