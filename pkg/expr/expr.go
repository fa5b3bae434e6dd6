// Package expr compiles CEL expressions into vertex predicates.
//
// An expression sees a single variable, vertex, holding the vertex properties
// plus its reserved "_id" key:
//
//	vertex.weight > 10 && vertex._id != "thor"
package expr

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common"

	"github.com/openfga/pipegraph/pkg/graph"
)

const vertexVariable = "vertex"

// ErrEvaluationFailed is the error wrapped by every failed evaluation.
var ErrEvaluationFailed = errors.New("failed to evaluate expression")

var celBaseEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable(vertexVariable, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to construct CEL base env: %v", err))
	}

	celBaseEnv = env
}

type CompilationError struct {
	Expression string
	Cause      error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile expression '%s': %v", e.Expression, e.Cause)
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("failed to evaluate expression '%s': %v", e.Expression, e.Cause)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

func (e *EvaluationError) Is(target error) bool {
	return target == ErrEvaluationFailed
}

// Predicate is a compiled boolean expression over a vertex. It is safe for
// concurrent use.
type Predicate struct {
	source  string
	program cel.Program
}

// Compile parses and checks source. The expression must produce a bool.
func Compile(source string) (*Predicate, error) {
	ast, issues := celBaseEnv.CompileSource(common.NewStringSource(source, "filter"))
	if issues != nil {
		if err := issues.Err(); err != nil {
			return nil, &CompilationError{Expression: source, Cause: err}
		}
	}

	if !reflect.DeepEqual(ast.OutputType(), cel.BoolType) {
		return nil, &CompilationError{
			Expression: source,
			Cause:      fmt.Errorf("expected a bool expression output, but got '%s'", ast.OutputType()),
		}
	}

	prg, err := celBaseEnv.Program(ast)
	if err != nil {
		return nil, &CompilationError{
			Expression: source,
			Cause:      fmt.Errorf("expression construction: %w", err),
		}
	}

	return &Predicate{source: source, program: prg}, nil
}

// String returns the expression source.
func (p *Predicate) String() string {
	return p.source
}

// Eval runs the predicate against v. Accessing a property v does not have is
// an evaluation error; guard with has(vertex.key) when properties are optional.
func (p *Predicate) Eval(v *graph.Vertex) (bool, error) {
	out, _, err := p.program.Eval(map[string]any{
		vertexVariable: graph.VertexFields(v),
	})
	if err != nil {
		return false, &EvaluationError{Expression: p.source, Cause: err}
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: p.source,
			Cause:      fmt.Errorf("expected a bool result, but got %T", out.Value()),
		}
	}
	return result, nil
}
