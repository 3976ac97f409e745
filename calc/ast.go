package calc

// Node is an element of a parsed expression tree.
//
// The parser accepts a wider grammar than the evaluator allows (names,
// attribute access, subscripts, string literals, keyword arguments) so that
// the allow-list is enforced on the tree by Validate rather than on the raw text.
type Node interface {
	Pos() int
	node()
}

// Number is a numeric literal.
type Number struct {
	Value  float64
	Text   string
	Offset int
}

// Name is a bare identifier.
type Name struct {
	Ident  string
	Offset int
}

// String is a quoted string literal. Never allowed.
type String struct {
	Raw    string
	Offset int
}

// Unary is a prefix + or -.
type Unary struct {
	Op     string
	X      Node
	Offset int
}

// Binary is an infix arithmetic operation.
type Binary struct {
	Op     string
	Left   Node
	Right  Node
	Offset int
}

// Call is a function application.
type Call struct {
	Func     Node
	Args     []Node
	Keywords []Keyword
	Offset   int
}

// Keyword is a name=value call argument. Never allowed.
type Keyword struct {
	Name   string
	Value  Node
	Offset int
}

// Attribute is X.Attr. Never allowed.
type Attribute struct {
	X      Node
	Attr   string
	Offset int
}

// Subscript is X[Index]. Never allowed.
type Subscript struct {
	X      Node
	Index  Node
	Offset int
}

func (n *Number) Pos() int    { return n.Offset }
func (n *Name) Pos() int      { return n.Offset }
func (n *String) Pos() int    { return n.Offset }
func (n *Unary) Pos() int     { return n.Offset }
func (n *Binary) Pos() int    { return n.Offset }
func (n *Call) Pos() int      { return n.Offset }
func (n *Attribute) Pos() int { return n.Offset }
func (n *Subscript) Pos() int { return n.Offset }

func (*Number) node()    {}
func (*Name) node()      {}
func (*String) node()    {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}
func (*Attribute) node() {}
func (*Subscript) node() {}
