package tools

import (
	"errors"
	"fmt"
	"strings"

	"toolchat/calc"
)

// ToolArgumentError reports invalid arguments passed to a tool.
type ToolArgumentError struct {
	Tool     string
	Argument string
	Reason   string
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %q for %s: %s", e.Argument, e.Tool, e.Reason)
}

// DispatchError reports a tool name that is not registered.
type DispatchError struct {
	Name        string
	Suggestions []string
}

func (e *DispatchError) Error() string {
	msg := fmt.Sprintf("unknown tool %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// RemoteServiceError reports a failed call to an external service.
type RemoteServiceError struct {
	Service string
	Err     error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}

// ErrorKind names the error class of err, as reported in
// model.ToolResult.ErrorKind.
func ErrorKind(err error) string {
	var (
		argErr      *ToolArgumentError
		evalErr     *calc.EvaluationError
		dispatchErr *DispatchError
		remoteErr   *RemoteServiceError
	)
	switch {
	case errors.As(err, &argErr):
		return "ToolArgumentError"
	case errors.As(err, &evalErr):
		return "EvaluationError"
	case errors.As(err, &dispatchErr):
		return "DispatchError"
	case errors.As(err, &remoteErr):
		return "RemoteServiceError"
	default:
		return "Error"
	}
}
