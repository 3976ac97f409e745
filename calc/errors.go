package calc

import "fmt"

// EvaluationError reports why an expression was rejected or could not be
// evaluated. Construct names the piece of the input that caused the failure
// (an identifier, operator, literal, or token) and Pos is its 0-based rune offset.
type EvaluationError struct {
	Construct string
	Pos       int
	Reason    string
}

func (e *EvaluationError) Error() string {
	if e.Construct == "" {
		return fmt.Sprintf("evaluation error at column %d: %s", e.Pos+1, e.Reason)
	}
	return fmt.Sprintf("evaluation error at column %d: %s: %q", e.Pos+1, e.Reason, e.Construct)
}

func errorAt(pos int, construct, reason string) *EvaluationError {
	return &EvaluationError{Construct: construct, Pos: pos, Reason: reason}
}
