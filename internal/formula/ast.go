// Package formula evaluates the level-scaling expressions that drive
// building costs, health, effects and upgrade durations. Expressions are
// parsed once into a small typed AST and evaluated by a tree walk; the only
// free variables are "base" and "level", and only a whitelisted set of math
// functions is callable. Designer data stays data; nothing is ever passed
// to a general-purpose interpreter.
package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type nodeKind uint8

const (
	nodeLiteral nodeKind = iota
	nodeVariable
	nodeBinary
	nodeCall
)

type node struct {
	kind nodeKind

	lit  float64 // nodeLiteral
	name string  // nodeVariable (base|level) or nodeCall function name
	op   byte    // nodeBinary: + - * / %

	left  *node   // nodeBinary
	right *node   // nodeBinary
	args  []*node // nodeCall
}

// Program is a parsed, reusable scaling expression.
type Program struct {
	src  string
	root *node
}

// Source returns the expression text the program was parsed from.
func (p *Program) Source() string { return p.src }

type fixedFn struct {
	arity int // -1 = variadic, at least 2
	fn    func(args []float64) float64
}

// The whitelisted function set. "Math." prefixes in designer data are
// tolerated and stripped by the lexer.
var functions = map[string]fixedFn{
	"floor": {1, func(a []float64) float64 { return math.Floor(a[0]) }},
	"ceil":  {1, func(a []float64) float64 { return math.Ceil(a[0]) }},
	"round": {1, func(a []float64) float64 { return math.Round(a[0]) }},
	"sqrt":  {1, func(a []float64) float64 { return math.Sqrt(a[0]) }},
	"log":   {1, func(a []float64) float64 { return math.Log(a[0]) }},
	"log10": {1, func(a []float64) float64 { return math.Log10(a[0]) }},
	"abs":   {1, func(a []float64) float64 { return math.Abs(a[0]) }},
	"pow":   {2, func(a []float64) float64 { return math.Pow(a[0], a[1]) }},
	"min": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {-1, func(a []float64) float64 {
		m := a[0]
		for _, v := range a[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
}

// Parse compiles an expression into a Program. It fails on unknown
// identifiers, disallowed functions, and malformed syntax.
func Parse(src string) (*Program, error) {
	p := &parser{src: src}
	p.next()
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok != tokEOF {
		return nil, fmt.Errorf("formula %q: unexpected %q", src, p.text)
	}
	return &Program{src: src, root: root}, nil
}

// Eval evaluates the program with the given base and level bindings.
func (p *Program) Eval(base, level float64) (float64, error) {
	return eval(p.root, base, level)
}

func eval(n *node, base, level float64) (float64, error) {
	switch n.kind {
	case nodeLiteral:
		return n.lit, nil
	case nodeVariable:
		if n.name == "base" {
			return base, nil
		}
		return level, nil
	case nodeBinary:
		l, err := eval(n.left, base, level)
		if err != nil {
			return 0, err
		}
		r, err := eval(n.right, base, level)
		if err != nil {
			return 0, err
		}
		switch n.op {
		case '+':
			return l + r, nil
		case '-':
			return l - r, nil
		case '*':
			return l * r, nil
		case '/':
			if r == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return l / r, nil
		default: // '%'
			if r == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			return math.Mod(l, r), nil
		}
	default: // nodeCall
		args := make([]float64, len(n.args))
		for i, a := range n.args {
			v, err := eval(a, base, level)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return functions[n.name].fn(args), nil
	}
}

// ---- lexer / recursive descent parser ----

type token uint8

const (
	tokEOF token = iota
	tokNumber
	tokIdent
	tokOp     // + - * / %
	tokLParen // (
	tokRParen // )
	tokComma  // ,
)

type parser struct {
	src  string
	pos  int
	tok  token
	text string
	num  float64
}

func (p *parser) next() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok, p.text = tokEOF, ""
		return
	}

	c := p.src[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		start := p.pos
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
			p.pos++
		}
		p.text = p.src[start:p.pos]
		p.num, _ = strconv.ParseFloat(p.text, 64)
		p.tok = tokNumber
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		p.text = p.src[start:p.pos]
		// Designer data written against the original JS engine may spell
		// functions as "Math.floor". Fold the prefix away here.
		if p.text == "Math" && p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
			start = p.pos
			for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
				p.pos++
			}
			p.text = p.src[start:p.pos]
		}
		p.tok = tokIdent
	case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
		p.tok, p.text = tokOp, string(c)
		p.pos++
	case c == '(':
		p.tok, p.text = tokLParen, "("
		p.pos++
	case c == ')':
		p.tok, p.text = tokRParen, ")"
		p.pos++
	case c == ',':
		p.tok, p.text = tokComma, ","
		p.pos++
	default:
		p.tok, p.text = tokEOF, string(c)
		p.pos = len(p.src)
	}
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

func (p *parser) parseExpr() (*node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok == tokOp && (p.text == "+" || p.text == "-") {
		op := p.text[0]
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (*node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok == tokOp && (p.text == "*" || p.text == "/" || p.text == "%") {
		op := p.text[0]
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &node{kind: nodeBinary, op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (*node, error) {
	if p.tok == tokOp && p.text == "-" {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &node{
			kind: nodeBinary, op: '-',
			left:  &node{kind: nodeLiteral, lit: 0},
			right: inner,
		}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*node, error) {
	switch p.tok {
	case tokNumber:
		n := &node{kind: nodeLiteral, lit: p.num}
		p.next()
		return n, nil

	case tokLParen:
		p.next()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok != tokRParen {
			return nil, fmt.Errorf("formula %q: missing )", p.src)
		}
		p.next()
		return inner, nil

	case tokIdent:
		name := p.text
		p.next()
		if p.tok == tokLParen {
			return p.parseCall(name)
		}
		if name != "base" && name != "level" {
			return nil, fmt.Errorf("formula %q: unknown variable %q", p.src, name)
		}
		return &node{kind: nodeVariable, name: name}, nil

	default:
		return nil, fmt.Errorf("formula %q: unexpected %q", p.src, p.text)
	}
}

func (p *parser) parseCall(name string) (*node, error) {
	fn, ok := functions[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("formula %q: function %q not allowed", p.src, name)
	}
	name = strings.ToLower(name)

	p.next() // consume (
	var args []*node
	if p.tok != tokRParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.tok != tokComma {
				break
			}
			p.next()
		}
	}
	if p.tok != tokRParen {
		return nil, fmt.Errorf("formula %q: missing ) in call to %s", p.src, name)
	}
	p.next()

	if fn.arity >= 0 && len(args) != fn.arity {
		return nil, fmt.Errorf("formula %q: %s takes %d argument(s), got %d", p.src, name, fn.arity, len(args))
	}
	if fn.arity < 0 && len(args) < 2 {
		return nil, fmt.Errorf("formula %q: %s takes at least 2 arguments, got %d", p.src, name, len(args))
	}
	return &node{kind: nodeCall, name: name, args: args}, nil
}
