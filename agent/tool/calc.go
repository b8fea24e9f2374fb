package tool

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
)

// Digits, whitespace, decimal points, operators, and parentheses.
var expressionCharset = regexp.MustCompile(`^[\d\s\+\-\*/%\^\(\)\.]+$`)

// Evaluate computes an arithmetic expression over float64. Supported:
// + - * / % ^ and parentheses. Any malformed input, division by zero, or
// non-finite result reports ErrInvalidComputation.
func Evaluate(expression string) (float64, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return 0, fmt.Errorf("%w: expression is empty", contractx.ErrInvalidComputation)
	}
	if !expressionCharset.MatchString(expression) {
		return 0, fmt.Errorf("%w: expression contains invalid characters", contractx.ErrInvalidComputation)
	}
	if err := checkParens(expression); err != nil {
		return 0, err
	}

	ev := &evaluator{src: expression}
	value, err := ev.sum()
	if err != nil {
		return 0, err
	}
	ev.skipSpaces()
	if ev.more() {
		return 0, fmt.Errorf("%w: unexpected token at position %d", contractx.ErrInvalidComputation, ev.pos)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: result is not finite", contractx.ErrInvalidComputation)
	}
	return value, nil
}

// ApplyDiscount returns amount reduced by percent. Percent must be within
// [0,100] and amount a finite non-negative number.
func ApplyDiscount(amount, percent float64) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, fmt.Errorf("%w: amount must be a finite non-negative number", contractx.ErrInvalidComputation)
	}
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, fmt.Errorf("%w: discount percent must be within [0,100]", contractx.ErrInvalidComputation)
	}
	return amount * (1 - percent/100), nil
}

func checkParens(expression string) error {
	depth := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced parentheses", contractx.ErrInvalidComputation)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses", contractx.ErrInvalidComputation)
	}
	return nil
}

// evaluator is a recursive-descent parser over the validated charset.
// Grammar, loosest binding first: sum -> term -> power -> unary -> primary.
type evaluator struct {
	src string
	pos int
}

func (e *evaluator) sum() (float64, error) {
	left, err := e.term()
	if err != nil {
		return 0, err
	}
	for {
		e.skipSpaces()
		switch {
		case e.accept('+'):
			right, err := e.term()
			if err != nil {
				return 0, err
			}
			left += right
		case e.accept('-'):
			right, err := e.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (e *evaluator) term() (float64, error) {
	left, err := e.power()
	if err != nil {
		return 0, err
	}
	for {
		e.skipSpaces()
		switch {
		case e.accept('*'):
			right, err := e.power()
			if err != nil {
				return 0, err
			}
			left *= right
		case e.accept('/'):
			right, err := e.power()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("%w: division by zero", contractx.ErrInvalidComputation)
			}
			left /= right
		case e.accept('%'):
			right, err := e.power()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("%w: modulo by zero", contractx.ErrInvalidComputation)
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (e *evaluator) power() (float64, error) {
	left, err := e.unary()
	if err != nil {
		return 0, err
	}
	e.skipSpaces()
	if e.accept('^') {
		// right-associative
		right, err := e.power()
		if err != nil {
			return 0, err
		}
		return math.Pow(left, right), nil
	}
	return left, nil
}

func (e *evaluator) unary() (float64, error) {
	e.skipSpaces()
	if e.accept('+') {
		return e.unary()
	}
	if e.accept('-') {
		value, err := e.unary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return e.primary()
}

func (e *evaluator) primary() (float64, error) {
	e.skipSpaces()
	if e.accept('(') {
		value, err := e.sum()
		if err != nil {
			return 0, err
		}
		e.skipSpaces()
		if !e.accept(')') {
			return 0, fmt.Errorf("%w: missing closing parenthesis at position %d", contractx.ErrInvalidComputation, e.pos)
		}
		return value, nil
	}
	return e.number()
}

func (e *evaluator) number() (float64, error) {
	e.skipSpaces()
	start := e.pos
	seenDigit, seenDot := false, false

	for e.more() {
		ch := e.src[e.pos]
		if ch >= '0' && ch <= '9' {
			seenDigit = true
			e.pos++
			continue
		}
		if ch == '.' {
			if seenDot {
				return 0, fmt.Errorf("%w: invalid number at position %d", contractx.ErrInvalidComputation, e.pos)
			}
			seenDot = true
			e.pos++
			continue
		}
		break
	}

	if !seenDigit {
		return 0, fmt.Errorf("%w: expected number at position %d", contractx.ErrInvalidComputation, start)
	}

	value, err := strconv.ParseFloat(e.src[start:e.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid number %q", contractx.ErrInvalidComputation, e.src[start:e.pos])
	}
	return value, nil
}

func (e *evaluator) skipSpaces() {
	for e.more() && e.src[e.pos] == ' ' {
		e.pos++
	}
}

func (e *evaluator) more() bool {
	return e.pos < len(e.src)
}

func (e *evaluator) accept(expected byte) bool {
	if e.more() && e.src[e.pos] == expected {
		e.pos++
		return true
	}
	return false
}
