package tools

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/sahilm/fuzzy"

	"toolchat/model"
)

// Kind identifies one of the registered tools.
type Kind int

const (
	KindWeather Kind = iota + 1
	KindCalculate
	KindCreateTodo
	KindExecutePython
)

// Tool names as declared to the model.
const (
	NameWeather       = "get_weather_info"
	NameCalculate     = "calculate_math_expression"
	NameCreateTodo    = "create_todo_item"
	NameExecutePython = "execute_python_code"
)

var kindNames = map[Kind]string{
	KindWeather:       NameWeather,
	KindCalculate:     NameCalculate,
	KindCreateTodo:    NameCreateTodo,
	KindExecutePython: NameExecutePython,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Names returns every registered tool name, sorted.
func Names() []string {
	names := make([]string, 0, len(kindNames))
	for _, name := range kindNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call is a decoded tool invocation. The set of implementations is closed.
type Call interface {
	Kind() Kind
	sealed()
}

type WeatherCall struct {
	City string `mapstructure:"city"`
}

type CalculateCall struct {
	Expression string `mapstructure:"expression"`
}

type CreateTodoCall struct {
	Task     string `mapstructure:"task"`
	Priority string `mapstructure:"priority"`
}

type ExecutePythonCall struct {
	Code string `mapstructure:"code"`
}

func (WeatherCall) Kind() Kind       { return KindWeather }
func (CalculateCall) Kind() Kind     { return KindCalculate }
func (CreateTodoCall) Kind() Kind    { return KindCreateTodo }
func (ExecutePythonCall) Kind() Kind { return KindExecutePython }

func (WeatherCall) sealed()       {}
func (CalculateCall) sealed()     {}
func (CreateTodoCall) sealed()    {}
func (ExecutePythonCall) sealed() {}

// Decode maps a model tool call onto its typed variant. Arguments are decoded
// weakly, so a number sent for a string field is accepted as its text.
func Decode(tc model.ToolCall) (Call, error) {
	var (
		call Call
		err  error
	)
	switch tc.Name {
	case NameWeather:
		var c WeatherCall
		err = decodeArgs(tc, &c)
		call = c
	case NameCalculate:
		var c CalculateCall
		err = decodeArgs(tc, &c)
		call = c
	case NameCreateTodo:
		var c CreateTodoCall
		err = decodeArgs(tc, &c)
		call = c
	case NameExecutePython:
		var c ExecutePythonCall
		err = decodeArgs(tc, &c)
		call = c
	default:
		return nil, &DispatchError{Name: tc.Name, Suggestions: suggest(tc.Name)}
	}
	if err != nil {
		return nil, err
	}
	return call, nil
}

func decodeArgs(tc model.ToolCall, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(tc.Arguments); err != nil {
		return &ToolArgumentError{Tool: tc.Name, Argument: "arguments", Reason: err.Error()}
	}
	return nil
}

// suggest returns registered names that fuzzily match name, best first.
func suggest(name string) []string {
	if name == "" {
		return nil
	}
	matches := fuzzy.Find(name, Names())
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
