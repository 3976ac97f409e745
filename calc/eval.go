package calc

import (
	"math"
	"strconv"
)

// Evaluate parses, validates, and evaluates expr with float64 semantics.
// Any failure is returned as *EvaluationError.
func Evaluate(expr string) (float64, error) {
	tree, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	if err := Validate(tree); err != nil {
		return 0, err
	}
	return eval(tree)
}

// Format renders a result for display with up to 15 significant digits.
func Format(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'g', 15, 64)
}

// eval assumes the tree already passed Validate.
func eval(n Node) (float64, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil

	case *Name:
		return constants[n.Ident], nil

	case *Unary:
		x, err := eval(n.X)
		if err != nil {
			return 0, err
		}
		if n.Op == "-" {
			return -x, nil
		}
		return x, nil

	case *Binary:
		l, err := eval(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := eval(n.Right)
		if err != nil {
			return 0, err
		}
		v, err := binary(n, l, r)
		if err != nil {
			return 0, err
		}
		return checkResult(v, n.Offset, n.Op)

	case *Call:
		name := n.Func.(*Name)
		args := make([]float64, len(n.Args))
		for i, arg := range n.Args {
			v, err := eval(arg)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return checkResult(functions[name.Ident].apply(args), name.Offset, name.Ident)
	}

	return 0, errorAt(n.Pos(), "", "unsupported expression")
}

func binary(n *Binary, l, r float64) (float64, error) {
	switch n.Op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, errorAt(n.Offset, n.Op, "division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, errorAt(n.Offset, n.Op, "modulo by zero")
		}
		// Result takes the sign of the divisor.
		m := math.Mod(l, r)
		if m != 0 && (m < 0) != (r < 0) {
			m += r
		}
		return m, nil
	case "**":
		if l == 0 && r < 0 {
			return 0, errorAt(n.Offset, n.Op, "zero raised to a negative power")
		}
		return math.Pow(l, r), nil
	}
	return 0, errorAt(n.Offset, n.Op, "unsupported operator")
}

func checkResult(v float64, pos int, construct string) (float64, error) {
	switch {
	case math.IsNaN(v):
		return 0, errorAt(pos, construct, "math domain error")
	case math.IsInf(v, 0):
		return 0, errorAt(pos, construct, "result out of range")
	}
	return v, nil
}
