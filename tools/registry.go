package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"toolchat/calc"
	"toolchat/config"
	"toolchat/model"
	"toolchat/sandbox"
	"toolchat/storage"
)

// CodeRunner executes code in a remote sandbox. *sandbox.Client implements it.
type CodeRunner interface {
	Run(ctx context.Context, code string) (sandbox.Output, error)
}

// Registry holds the fixed tool set and dispatches decoded calls to it.
type Registry struct {
	todos  storage.TodoStore
	runner CodeRunner
	now    func() time.Time
}

// NewRegistry wires the tools to their backing store and sandbox.
func NewRegistry(todos storage.TodoStore, runner CodeRunner) *Registry {
	return &Registry{todos: todos, runner: runner, now: time.Now}
}

// Definitions returns the tool declarations sent to the model.
func (r *Registry) Definitions() []mcptypes.Tool {
	return []mcptypes.Tool{
		mcptypes.NewTool(NameWeather,
			mcptypes.WithDescription("Get the current weather (temperature, condition, humidity) for a city. Returns mock data."),
			mcptypes.WithString("city",
				mcptypes.Required(),
				mcptypes.Description(`City name, e.g. "Tokyo" or "Osaka"`),
			),
		),
		mcptypes.NewTool(NameCalculate,
			mcptypes.WithDescription("Evaluate a math expression. Supports + - * / ** %, parentheses, the constants "+
				strings.Join(calc.Constants(), ", ")+" and the functions "+strings.Join(calc.Functions(), ", ")+"."),
			mcptypes.WithString("expression",
				mcptypes.Required(),
				mcptypes.Description(`Expression to evaluate, e.g. "2+3*4" or "sqrt(16)"`),
			),
		),
		mcptypes.NewTool(NameCreateTodo,
			mcptypes.WithDescription("Create a TODO item and save it to the TODO list."),
			mcptypes.WithString("task",
				mcptypes.Required(),
				mcptypes.Description("What needs to be done"),
			),
			mcptypes.WithString("priority",
				mcptypes.Enum(priorities...),
				mcptypes.DefaultString(DefaultPriority),
				mcptypes.Description("Priority of the task"),
			),
		),
		mcptypes.NewTool(NameExecutePython,
			mcptypes.WithDescription("Run Python code in a remote sandboxed interpreter and return its output."),
			mcptypes.WithString("code",
				mcptypes.Required(),
				mcptypes.Description("Python source to execute; use print() to produce output"),
			),
		),
	}
}

// Dispatch executes one tool call. It never returns an error: every failure,
// including an unknown tool name, becomes a failed result for the model.
func (r *Registry) Dispatch(ctx context.Context, tc model.ToolCall) model.ToolResult {
	content, err := r.execute(ctx, tc)
	result := model.ToolResult{CallID: tc.ID, Name: tc.Name, Content: content}
	if err != nil {
		result.Failed = true
		result.ErrorKind = ErrorKind(err)
		result.Content = fmt.Sprintf("%s: %v", result.ErrorKind, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Tools] %s failed=%v kind=%s", tc.Name, result.Failed, result.ErrorKind)
	}
	return result
}

func (r *Registry) execute(ctx context.Context, tc model.ToolCall) (string, error) {
	call, err := Decode(tc)
	if err != nil {
		return "", err
	}

	switch c := call.(type) {
	case WeatherCall:
		rec, err := lookupWeather(c.City, r.now())
		if err != nil {
			return "", err
		}
		return rec.String(), nil

	case CalculateCall:
		v, err := calc.Evaluate(c.Expression)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s = %s", strings.TrimSpace(c.Expression), calc.Format(v)), nil

	case CreateTodoCall:
		if r.todos == nil {
			return "", errors.New("todo storage is not configured")
		}
		item, err := createTodo(r.todos, c, r.now())
		if err != nil {
			return "", err
		}
		return formatTodo(item), nil

	case ExecutePythonCall:
		return r.executePython(ctx, c)

	default:
		return "", &DispatchError{Name: tc.Name}
	}
}

func (r *Registry) executePython(ctx context.Context, c ExecutePythonCall) (string, error) {
	if strings.TrimSpace(c.Code) == "" {
		return "", &ToolArgumentError{Tool: NameExecutePython, Argument: "code", Reason: "code must not be empty"}
	}
	if r.runner == nil {
		return "", &RemoteServiceError{Service: "sandbox", Err: errors.New("sandbox is not configured")}
	}

	out, err := r.runner.Run(ctx, c.Code)
	if err != nil {
		return "", &RemoteServiceError{Service: "sandbox", Err: err}
	}
	return out.Text(), nil
}
