package tools

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// CalculateArgs is calculate's structured argument shape.
type CalculateArgs struct {
	Expression string `json:"expression"`
}

// NewCalculateTool builds the `calculate` built-in. Per
// SPEC_FULL.md SUPPLEMENTED FEATURES #5 (resolving spec.md §9's
// "sandbox escape risk" note about shelling out to an external
// calculator), this is an in-process recursive-descent evaluator over
// `+ - * / ( )` and numeric literals with no subprocess involved.
func NewCalculateTool() Descriptor {
	return Descriptor{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression (+ - * / parentheses).",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"expression": map[string]any{"type": "string"}},
			"required":   []string{"expression"},
		},
		RequiredCaps: 0,
		Executor: func(argsJSON string) Result {
			args, err := ParseArgs[CalculateArgs](argsJSON)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			v, err := evaluate(args.Expression)
			if err != nil {
				return Result{Success: false, Error: err.Error()}
			}
			return Result{Success: true, Output: strconv.FormatFloat(v, 'g', -1, 64)}
		},
	}
}

// evaluate parses and evaluates a basic arithmetic expression using a
// recursive-descent grammar: expr := term (('+'|'-') term)*
// term := factor (('*'|'/') factor)*, factor := number | '(' expr ')' | '-' factor.
func evaluate(expr string) (float64, error) {
	p := &exprParser{input: []rune(strings.TrimSpace(expr))}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, "unexpected trailing input in expression")
	}
	return v, nil
}

type exprParser struct {
	input []rune
	pos   int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *exprParser) peek() rune {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, neuronerr.New(neuronerr.KindInvalidArgument, "division by zero")
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseFactor() (float64, error) {
	c := p.peek()
	switch {
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		return -v, err
	case c == '+':
		p.pos++
		return p.parseFactor()
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, neuronerr.New(neuronerr.KindInvalidArgument, "missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case unicode.IsDigit(c) || c == '.':
		return p.parseNumber()
	default:
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, fmt.Sprintf("unexpected character %q", c))
	}
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(p.input[p.pos]) || p.input[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 0, neuronerr.New(neuronerr.KindInvalidArgument, "expected a number")
	}
	return strconv.ParseFloat(string(p.input[start:p.pos]), 64)
}
