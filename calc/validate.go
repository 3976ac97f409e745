package calc

import "fmt"

// Validate walks the tree and rejects every node kind and name that is not on
// the allow-list. A tree that passes can be evaluated without touching
// anything but arithmetic and the math functions in the allow-list.
func Validate(n Node) error {
	switch n := n.(type) {
	case *Number:
		return nil

	case *Name:
		if _, ok := constants[n.Ident]; ok {
			return nil
		}
		if _, ok := functions[n.Ident]; ok {
			return errorAt(n.Offset, n.Ident, "function used without a call")
		}
		return errorAt(n.Offset, n.Ident, "name is not allowed")

	case *Unary:
		return Validate(n.X)

	case *Binary:
		if err := Validate(n.Left); err != nil {
			return err
		}
		return Validate(n.Right)

	case *Call:
		return validateCall(n)

	case *Attribute:
		if err := Validate(n.X); err != nil {
			return err
		}
		return errorAt(n.Offset, "."+n.Attr, "attribute access is not allowed")

	case *Subscript:
		if err := Validate(n.X); err != nil {
			return err
		}
		return errorAt(n.Offset, "[", "subscripts are not allowed")

	case *String:
		return errorAt(n.Offset, n.Raw, "string literals are not allowed")

	default:
		return errorAt(n.Pos(), fmt.Sprintf("%T", n), "unsupported expression")
	}
}

func validateCall(c *Call) error {
	name, ok := c.Func.(*Name)
	if !ok {
		if err := Validate(c.Func); err != nil {
			return err
		}
		return errorAt(c.Offset, "(", "only allow-listed functions can be called")
	}

	fn, ok := functions[name.Ident]
	if !ok {
		if _, isConst := constants[name.Ident]; isConst {
			return errorAt(name.Offset, name.Ident, "constant is not callable")
		}
		return errorAt(name.Offset, name.Ident, "function is not allowed")
	}

	if len(c.Keywords) > 0 {
		kw := c.Keywords[0]
		return errorAt(kw.Offset, kw.Name+"=", "keyword arguments are not allowed")
	}

	if len(c.Args) < fn.minArgs || (fn.maxArgs >= 0 && len(c.Args) > fn.maxArgs) {
		return errorAt(name.Offset, name.Ident, fmt.Sprintf("wrong number of arguments (%d)", len(c.Args)))
	}

	for _, arg := range c.Args {
		if err := Validate(arg); err != nil {
			return err
		}
	}
	return nil
}
