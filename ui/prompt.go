package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned by a LineReader when the user presses
// Ctrl-C or Ctrl-D at the prompt.
var ErrInterrupted = errors.New("input interrupted")

// Keywords are offered as completions before any history exists.
var Keywords = []string{"天気", "計算", "TODO", "Python", "exit", "quit", "終了"}

// LineReader reads one line of user input. It returns io.EOF when input
// ends and ErrInterrupted when the user cancels.
type LineReader interface {
	ReadLine(history []string) (string, error)
}

// NewLineReader picks the interactive prompt when in is a terminal and a
// plain line scanner otherwise, so the CLI can be piped.
func NewLineReader(in io.Reader, out io.Writer) LineReader {
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return &promptReader{in: in, out: out}
	}
	return &plainReader{reader: bufio.NewReader(in), out: out}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// plainReader reads newline-terminated lines of any length, so pasted code
// is not cut off.
type plainReader struct {
	reader *bufio.Reader
	out    io.Writer
}

func (r *plainReader) ReadLine(_ []string) (string, error) {
	fmt.Fprint(r.out, "> ")
	line, err := r.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(r.out)
		return "", err
	}
	// A final line without a newline is returned; io.EOF comes next call.
	return strings.TrimRight(line, "\r\n"), nil
}

// promptReader runs a one-line bubbletea program per input.
type promptReader struct {
	in  io.Reader
	out io.Writer
}

func (r *promptReader) ReadLine(history []string) (string, error) {
	m := newPromptModel(suggestions(history))
	final, err := tea.NewProgram(m, tea.WithInput(r.in), tea.WithOutput(r.out)).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}

	pm := final.(promptModel)
	if pm.cancelled {
		return "", ErrInterrupted
	}
	return pm.value, nil
}

// suggestions returns history newest first, then keywords, without duplicates.
func suggestions(history []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		add(history[i])
	}
	for _, k := range Keywords {
		add(k)
	}
	return out
}

type promptModel struct {
	input     textinput.Model
	value     string
	submitted bool
	cancelled bool
}

func newPromptModel(suggest []string) promptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = UserStyle
	ti.Placeholder = "Ask something (Tab completes)"
	ti.CharLimit = 4000
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggest)
	ti.Focus()
	return promptModel{input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 4

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.cancelled = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	switch {
	case m.submitted:
		// Leave the submitted line on screen.
		return UserStyle.Render("> ") + m.value + "\n"
	case m.cancelled:
		return ""
	}
	return m.input.View()
}

// isExitWord reports whether input ends the session.
func isExitWord(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit", "終了":
		return true
	}
	return false
}
