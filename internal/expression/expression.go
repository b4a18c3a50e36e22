// Package expression parses and evaluates the scalar functions y = f(x, z, t) typed by the user.
package expression

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

var (
	// ErrEmpty is returned by Parse for blank input.
	ErrEmpty = errors.New("empty expression")

	// ErrNonFinite is returned by Evaluate when the result is NaN or infinite,
	// e.g. division by zero or sqrt of a negative number.
	ErrNonFinite = errors.New("result is not a finite number")
)

// Var is one of the variables an expression may reference.
type Var int

const (
	VarX Var = iota
	VarZ
	VarT
)

// String returns the name the variable has inside expressions.
func (v Var) String() string {
	switch v {
	case VarX:
		return "x"
	case VarZ:
		return "z"
	case VarT:
		return "t"
	default:
		return fmt.Sprintf("Var(%d)", int(v))
	}
}

// Bindings holds the value of every variable for one evaluation.
type Bindings struct {
	X float64
	Z float64
	T float64 // elapsed time in milliseconds
}

// env is the evaluation environment seen by compiled programs.
type env struct {
	X  float64 `expr:"x"`
	Z  float64 `expr:"z"`
	T  float64 `expr:"t"`
	Pi float64 `expr:"pi"`
	E  float64 `expr:"e"`
}

// ParseError reports text that could not be compiled.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EvalError reports a failed evaluation at specific bindings.
type EvalError struct {
	Bindings Bindings
	Err      error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate at x=%g z=%g t=%g: %v", e.Bindings.X, e.Bindings.Z, e.Bindings.T, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Expression is a compiled, immutable scalar function. It is safe for concurrent use.
type Expression struct {
	source  string
	program *vm.Program
	uses    [3]bool
}

// Parse compiles text into an Expression. A leading "y =" is accepted and ignored.
func Parse(text string) (*Expression, error) {
	body := stripAssignment(text)
	if strings.TrimSpace(body) == "" {
		return nil, &ParseError{Source: text, Err: ErrEmpty}
	}

	tree, err := parser.Parse(body)
	if err != nil {
		return nil, &ParseError{Source: text, Err: err}
	}

	opts := append([]expr.Option{expr.Env(env{}), expr.AsFloat64()}, functions...)
	program, err := expr.Compile(body, opts...)
	if err != nil {
		return nil, &ParseError{Source: text, Err: err}
	}

	e := &Expression{source: text, program: program}
	ast.Walk(&tree.Node, &varCollector{uses: &e.uses})
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(text string) *Expression {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

// Source returns the text the expression was parsed from.
func (e *Expression) Source() string {
	return e.source
}

// Uses reports whether the expression references v.
func (e *Expression) Uses(v Var) bool {
	if v < VarX || v > VarT {
		return false
	}
	return e.uses[v]
}

// Evaluate computes the expression for the given bindings.
func (e *Expression) Evaluate(b Bindings) (float64, error) {
	out, err := expr.Run(e.program, env{X: b.X, Z: b.Z, T: b.T, Pi: math.Pi, E: math.E})
	if err != nil {
		return 0, &EvalError{Bindings: b, Err: err}
	}
	y, ok := out.(float64)
	if !ok {
		return 0, &EvalError{Bindings: b, Err: fmt.Errorf("unexpected result type %T", out)}
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, &EvalError{Bindings: b, Err: ErrNonFinite}
	}
	return y, nil
}

// stripAssignment removes an optional "y =" prefix.
func stripAssignment(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "y") {
		return text
	}
	rest := strings.TrimSpace(s[1:])
	if strings.HasPrefix(rest, "=") && !strings.HasPrefix(rest, "==") {
		return rest[1:]
	}
	return text
}

type varCollector struct {
	uses *[3]bool
}

func (c *varCollector) Visit(node *ast.Node) {
	id, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}
	for _, v := range []Var{VarX, VarZ, VarT} {
		if id.Value == v.String() {
			c.uses[v] = true
		}
	}
}
