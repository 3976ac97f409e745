package calc

import (
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// operators are matched longest first.
var operators = []string{"**", "+", "-", "*", "/", "%", "(", ")", ",", ".", "[", "]", "="}

// tokenize splits src into tokens. Positions are rune offsets so that errors
// point at the right column for non-ASCII input.
func tokenize(src string) ([]token, error) {
	runes := []rune(src)
	var tokens []token

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i = scanNumber(runes, i)
			text := string(runes[start:i])
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, errorAt(start, text, "invalid number literal")
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: v, pos: start})

		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[start:i]), pos: start})

		case r == '\'' || r == '"':
			start := i
			i++
			for i < len(runes) && runes[i] != r {
				if runes[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(runes) {
				return nil, errorAt(start, string(runes[start:]), "unterminated string literal")
			}
			i++
			tokens = append(tokens, token{kind: tokString, text: string(runes[start:i]), pos: start})

		default:
			op := matchOperator(runes[i:])
			if op == "" {
				return nil, errorAt(i, string(r), "unexpected character")
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: i})
			i += len([]rune(op))
		}
	}

	tokens = append(tokens, token{kind: tokEOF, pos: len(runes)})
	return tokens, nil
}

func scanNumber(runes []rune, i int) int {
	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			i = j
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
		}
	}
	return i
}

func matchOperator(rest []rune) string {
	s := string(rest[:min(2, len(rest))])
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}
