package traversal

import (
	"context"
	"fmt"
	"math"

	"github.com/openfga/pipegraph/pkg/expr"
	"github.com/openfga/pipegraph/pkg/graph"
)

// Names of the built-in pipetypes.
const (
	PipetypeVertex   = "vertex"
	PipetypeIn       = "in"
	PipetypeOut      = "out"
	PipetypeProperty = "property"
	PipetypeUnique   = "unique"
	PipetypeFilter   = "filter"
	PipetypeTake     = "take"
	PipetypeAs       = "as"
	PipetypeBack     = "back"
	PipetypeExcept   = "except"
	PipetypeMerge    = "merge"
)

// VertexPredicate is the callable form of the filter argument.
type VertexPredicate func(v *graph.Vertex, g *Gremlin) bool

// ExprCompiler compiles the expression form of the filter argument.
type ExprCompiler interface {
	Compile(source string) (*expr.Predicate, error)
}

type exprCompilerFunc func(string) (*expr.Predicate, error)

func (f exprCompilerFunc) Compile(source string) (*expr.Predicate, error) {
	return f(source)
}

// BuiltinOpt configures the built-in pipetypes.
type BuiltinOpt func(*builtins)

// WithExprCompiler makes filter stages compile expressions through c, e.g. an
// [expr.Compiler] shared across queries. By default each stage compiles its
// own expression.
func WithExprCompiler(c ExprCompiler) BuiltinOpt {
	return func(b *builtins) {
		b.compiler = c
	}
}

type builtins struct {
	compiler ExprCompiler
}

// RegisterBuiltins registers every built-in pipetype on r, replacing handlers
// already registered under the same names.
func RegisterBuiltins(r *Registry, opts ...BuiltinOpt) {
	b := &builtins{
		compiler: exprCompilerFunc(expr.Compile),
	}
	for _, opt := range opts {
		opt(b)
	}

	r.Register(PipetypeVertex, vertexPipe)
	r.Register(PipetypeIn, simpleTraversal(directionIn))
	r.Register(PipetypeOut, simpleTraversal(directionOut))
	r.Register(PipetypeProperty, propertyPipe)
	r.Register(PipetypeUnique, uniquePipe)
	r.Register(PipetypeFilter, b.filterPipe)
	r.Register(PipetypeTake, takePipe)
	r.Register(PipetypeAs, asPipe)
	r.Register(PipetypeBack, backPipe)
	r.Register(PipetypeExcept, exceptPipe)
	r.Register(PipetypeMerge, mergePipe)
}

// NewBuiltinRegistry returns a Registry holding the built-in pipetypes.
func NewBuiltinRegistry(opts ...BuiltinOpt) *Registry {
	r := NewRegistry()
	RegisterBuiltins(r, opts...)
	return r
}

type vertexState struct {
	primed   bool
	vertices []*graph.Vertex
}

// vertexPipe is a source: it emits one gremlin per vertex selected by args and
// is done once they run out. It never pulls, so every gremlin it emits starts a
// new lineage.
func vertexPipe(ctx context.Context, g graph.Graph, args []any, _ *Gremlin, s *StageState) (Outcome, error) {
	st := StateOf[vertexState](s)
	if !st.primed {
		vertices, err := g.FindVertices(ctx, args)
		if err != nil {
			return Outcome{}, err
		}
		st.vertices = vertices
		st.primed = true
	}

	if len(st.vertices) == 0 {
		return Done(), nil
	}

	return Emit(MakeGremlin(pop(&st.vertices), nil)), nil
}

type direction int

const (
	directionIn direction = iota
	directionOut
)

type traversalState struct {
	filter graph.EdgePredicate
	source *Gremlin
	edges  []*graph.Edge
}

func (st *traversalState) edgeFilter(args []any, s *StageState) graph.EdgePredicate {
	if st.filter != nil {
		return st.filter
	}

	var arg any
	switch len(args) {
	case 0:
	case 1:
		arg = args[0]
	default:
		arg = args
	}

	filter, err := graph.FilterEdges(arg)
	if err != nil {
		s.Report(err)
		filter, _ = graph.FilterEdges(nil)
	}
	st.filter = filter
	return filter
}

// simpleTraversal fans one gremlin out into one gremlin per matching edge in
// the given direction. Running out of edges is a pull, not done: the stage
// accepts a new gremlin on the next cycle.
func simpleTraversal(dir direction) Handler {
	return func(ctx context.Context, g graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
		st := StateOf[traversalState](s)
		if gremlin == nil && len(st.edges) == 0 {
			return Pull(), nil
		}

		if len(st.edges) == 0 {
			var (
				edges []*graph.Edge
				err   error
			)
			if dir == directionOut {
				edges, err = g.FindOutEdges(ctx, gremlin.Vertex)
			} else {
				edges, err = g.FindInEdges(ctx, gremlin.Vertex)
			}
			if err != nil {
				return Outcome{}, err
			}

			filter := st.edgeFilter(args, s)
			matching := edges[:0]
			for _, e := range edges {
				if filter(e) {
					matching = append(matching, e)
				}
			}
			st.edges = matching
			st.source = gremlin
		}

		if len(st.edges) == 0 {
			return Pull(), nil
		}

		e := pop(&st.edges)
		id := e.From
		if dir == directionOut {
			id = e.To
		}
		v, err := g.Vertex(ctx, id)
		if err != nil {
			return Outcome{}, err
		}
		return Emit(GotoVertex(st.source, v)), nil
	}
}

type reportOnce struct {
	reported bool
}

func (r *reportOnce) report(s *StageState, err error) {
	if !r.reported {
		r.reported = true
		s.Report(err)
	}
}

// propertyPipe sets the gremlin's result to one of its vertex properties.
// Gremlins whose vertex lacks the property are dropped.
func propertyPipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	key, err := stringArg(args, 0)
	if err != nil {
		StateOf[reportOnce](s).report(s, err)
		return Emit(gremlin), nil
	}

	value, ok := gremlin.Vertex.Property(key)
	if !ok || value == nil {
		return Pull(), nil
	}
	gremlin.Result = value
	return Emit(gremlin), nil
}

type uniqueState struct {
	seen map[string]struct{}
}

// uniquePipe drops every gremlin whose vertex an earlier gremlin already
// reached in this execution.
func uniquePipe(_ context.Context, _ graph.Graph, _ []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	st := StateOf[uniqueState](s)
	if st.seen == nil {
		st.seen = make(map[string]struct{})
	}

	id := gremlin.Vertex.ID
	if _, ok := st.seen[id]; ok {
		return Pull(), nil
	}
	st.seen[id] = struct{}{}
	return Emit(gremlin), nil
}

type filterState struct {
	reportOnce
	predicate *expr.Predicate
}

// filterPipe keeps the gremlins accepted by its argument: a property pattern,
// a VertexPredicate or a CEL expression. An argument it cannot use is reported
// and lets every gremlin through.
func (b *builtins) filterPipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	st := StateOf[filterState](s)
	if len(args) == 0 {
		st.report(s, fmt.Errorf("%w: filter requires a pattern, predicate or expression", ErrInvalidArgument))
		return Emit(gremlin), nil
	}

	var keep bool
	switch f := args[0].(type) {
	case map[string]any:
		keep = graph.MatchVertex(gremlin.Vertex, f)
	case VertexPredicate:
		keep = f(gremlin.Vertex, gremlin)
	case func(*graph.Vertex, *Gremlin) bool:
		keep = f(gremlin.Vertex, gremlin)
	case func(*graph.Vertex) bool:
		keep = f(gremlin.Vertex)
	case string:
		if st.predicate == nil {
			if st.reported {
				return Emit(gremlin), nil
			}
			p, err := b.compiler.Compile(f)
			if err != nil {
				st.report(s, err)
				return Emit(gremlin), nil
			}
			st.predicate = p
		}
		// an evaluation error, such as a missing property, fails the filter.
		keep, _ = st.predicate.Eval(gremlin.Vertex)
	default:
		st.report(s, fmt.Errorf("%w: filter argument of type %T is not a pattern, predicate or expression", ErrInvalidArgument, args[0]))
		return Emit(gremlin), nil
	}

	if !keep {
		return Pull(), nil
	}
	return Emit(gremlin), nil
}

type takeState struct {
	reportOnce
	taken int
}

// takePipe lets n gremlins through and is then done, which ends every stage
// upstream of it. An invalid bound is reported and lets everything through.
func takePipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	st := StateOf[takeState](s)

	n, err := intArg(args, 0)
	if err != nil {
		st.report(s, err)
		if gremlin == nil {
			return Pull(), nil
		}
		return Emit(gremlin), nil
	}

	if st.taken == n {
		st.taken = 0
		return Done(), nil
	}

	if gremlin == nil {
		return Pull(), nil
	}
	st.taken++
	return Emit(gremlin), nil
}

// asPipe checkpoints the gremlin's vertex under a label.
func asPipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	label, err := stringArg(args, 0)
	if err != nil {
		StateOf[reportOnce](s).report(s, err)
		return Emit(gremlin), nil
	}

	gremlin.State.SetLabel(label, gremlin.Vertex)
	return Emit(gremlin), nil
}

// backPipe returns the gremlin to a checkpointed vertex. Gremlins without the
// checkpoint are dropped.
func backPipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	label, err := stringArg(args, 0)
	if err != nil {
		StateOf[reportOnce](s).report(s, err)
		return Emit(gremlin), nil
	}

	v, ok := gremlin.State.Label(label)
	if !ok || v == nil {
		return Pull(), nil
	}
	return Emit(GotoVertex(gremlin, v)), nil
}

// exceptPipe drops the gremlins sitting on a checkpointed vertex. Gremlins
// without the checkpoint pass.
func exceptPipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	if gremlin == nil {
		return Pull(), nil
	}

	label, err := stringArg(args, 0)
	if err != nil {
		StateOf[reportOnce](s).report(s, err)
		return Emit(gremlin), nil
	}

	if v, ok := gremlin.State.Label(label); ok && sameVertex(v, gremlin.Vertex) {
		return Pull(), nil
	}
	return Emit(gremlin), nil
}

type mergeState struct {
	reportOnce
	source   *GremlinState
	vertices []*graph.Vertex
}

// mergePipe fans a gremlin out into one gremlin per label it has checkpointed
// among args. The new gremlins share the state of the one they came from.
func mergePipe(_ context.Context, _ graph.Graph, args []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	st := StateOf[mergeState](s)
	if gremlin == nil && len(st.vertices) == 0 {
		return Pull(), nil
	}

	if len(st.vertices) == 0 {
		st.source = gremlin.State
		for i := range args {
			label, err := stringArg(args, i)
			if err != nil {
				st.report(s, err)
				continue
			}
			if v, ok := gremlin.State.Label(label); ok && v != nil {
				st.vertices = append(st.vertices, v)
			}
		}
	}

	if len(st.vertices) == 0 {
		return Pull(), nil
	}
	return Emit(MakeGremlin(pop(&st.vertices), st.source)), nil
}

func sameVertex(a, b *graph.Vertex) bool {
	if a == b {
		return true
	}
	return a != nil && b != nil && a.ID == b.ID
}

func stringArg(args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: missing argument %d", ErrInvalidArgument, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: argument %d must be a string, got %T", ErrInvalidArgument, i, args[i])
	}
	return s, nil
}

func intArg(args []any, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: missing argument %d", ErrInvalidArgument, i)
	}

	var n int
	switch v := args[i].(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case uint:
		n = int(v)
	case uint32:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 {
			return 0, fmt.Errorf("%w: argument %d must be an integer, got %v", ErrInvalidArgument, i, v)
		}
		n = int(v)
	default:
		return 0, fmt.Errorf("%w: argument %d must be an integer, got %T", ErrInvalidArgument, i, args[i])
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: argument %d must not be negative, got %d", ErrInvalidArgument, i, n)
	}
	return n, nil
}
