package calc

import "strings"

// maxDepth bounds recursion so that pathological nesting fails cleanly.
const maxDepth = 200

type parser struct {
	tokens []token
	pos    int
	depth  int
}

// Parse builds an expression tree from src. It does not apply the allow-list;
// use Validate (or Evaluate) for that.
//
// Grammar, with Python precedence:
//
//	expr    := term (('+' | '-') term)*
//	term    := unary (('*' | '/' | '%') unary)*
//	unary   := ('+' | '-') unary | power
//	power   := postfix ('**' unary)?
//	postfix := primary ('(' args ')' | '.' IDENT | '[' expr ']')*
//	primary := NUMBER | STRING | IDENT | '(' expr ')'
func Parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, errorAt(0, "", "empty expression")
	}

	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errorAt(tok.pos, tok.text, "unexpected token")
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) acceptOp(ops ...string) (token, bool) {
	tok := p.peek()
	if tok.kind != tokOp {
		return tok, false
	}
	for _, op := range ops {
		if tok.text == op {
			p.pos++
			return tok, true
		}
	}
	return tok, false
}

func (p *parser) expectOp(op string) error {
	if _, ok := p.acceptOp(op); ok {
		return nil
	}
	tok := p.peek()
	if tok.kind == tokEOF {
		return errorAt(tok.pos, op, "missing closing token")
	}
	return errorAt(tok.pos, tok.text, "expected "+op)
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxDepth {
		return errorAt(pos, "", "expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.acceptOp("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: tok.text, Left: left, Right: right, Offset: tok.pos}
	}
}

func (p *parser) term() (Node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: tok.text, Left: left, Right: right, Offset: tok.pos}
	}
}

func (p *parser) unary() (Node, error) {
	if tok, ok := p.acceptOp("+", "-"); ok {
		if err := p.enter(tok.pos); err != nil {
			return nil, err
		}
		defer p.leave()

		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: tok.text, X: x, Offset: tok.pos}, nil
	}
	return p.power()
}

func (p *parser) power() (Node, error) {
	base, err := p.postfix()
	if err != nil {
		return nil, err
	}
	tok, ok := p.acceptOp("**")
	if !ok {
		return base, nil
	}
	if err := p.enter(tok.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	exp, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &Binary{Op: "**", Left: base, Right: exp, Offset: tok.pos}, nil
}

func (p *parser) postfix() (Node, error) {
	n, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := p.acceptOp("(", ".", "[")
		if !ok {
			return n, nil
		}
		switch tok.text {
		case "(":
			n, err = p.call(n, tok.pos)
		case ".":
			attr := p.next()
			if attr.kind != tokIdent {
				return nil, errorAt(attr.pos, attr.text, "expected attribute name")
			}
			n = &Attribute{X: n, Attr: attr.text, Offset: tok.pos}
		case "[":
			n, err = p.subscript(n, tok.pos)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) subscript(x Node, pos int) (Node, error) {
	if err := p.enter(pos); err != nil {
		return nil, err
	}
	defer p.leave()

	index, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return &Subscript{X: x, Index: index, Offset: pos}, nil
}

func (p *parser) call(fn Node, pos int) (Node, error) {
	if err := p.enter(pos); err != nil {
		return nil, err
	}
	defer p.leave()

	c := &Call{Func: fn, Offset: fn.Pos()}
	if _, ok := p.acceptOp(")"); ok {
		return c, nil
	}
	for {
		if tok := p.peek(); tok.kind == tokIdent && p.tokens[p.pos+1].kind == tokOp && p.tokens[p.pos+1].text == "=" {
			p.pos += 2
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			c.Keywords = append(c.Keywords, Keyword{Name: tok.text, Value: v, Offset: tok.pos})
		} else {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
		}

		if _, ok := p.acceptOp(","); ok {
			continue
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (p *parser) primary() (Node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return &Number{Value: tok.num, Text: tok.text, Offset: tok.pos}, nil
	case tokIdent:
		return &Name{Ident: tok.text, Offset: tok.pos}, nil
	case tokString:
		return &String{Raw: tok.text, Offset: tok.pos}, nil
	case tokEOF:
		return nil, errorAt(tok.pos, "", "unexpected end of expression")
	}

	if tok.text != "(" {
		return nil, errorAt(tok.pos, tok.text, "unexpected token")
	}
	if err := p.enter(tok.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return n, nil
}
