// Package query provides a fluent builder and a YAML document format for
// traversal programs.
//
//	q := query.V("thor").Out("parent").Unique().Take(2)
//	results, err := q.Run(ctx, traversal.NewBuiltinRegistry(), g)
package query

import (
	"context"
	"strings"

	"github.com/openfga/pipegraph/pkg/graph"
	"github.com/openfga/pipegraph/pkg/traversal"
)

// Query is an ordered list of steps. Every method appends a step and returns
// the receiver, so calls chain. A Query is a description only: it can be
// compiled and run any number of times.
type Query struct {
	steps []traversal.Step
}

// New returns an empty query.
func New() *Query {
	return &Query{}
}

// V starts a query at the vertices selected by args.
func V(args ...any) *Query {
	return New().Add(traversal.PipetypeVertex, args...)
}

// Add appends a step of any registered pipetype.
func (q *Query) Add(pipetype string, args ...any) *Query {
	q.steps = append(q.steps, traversal.Step{Pipetype: pipetype, Args: args})
	return q
}

// V appends a vertex step selecting the vertices matched by args.
func (q *Query) V(args ...any) *Query {
	return q.Add(traversal.PipetypeVertex, args...)
}

// Out follows outgoing edges matching filter.
func (q *Query) Out(filter ...any) *Query {
	return q.Add(traversal.PipetypeOut, filter...)
}

// In follows incoming edges matching filter.
func (q *Query) In(filter ...any) *Query {
	return q.Add(traversal.PipetypeIn, filter...)
}

// Property sets each gremlin's result to the vertex property key.
func (q *Query) Property(key string) *Query {
	return q.Add(traversal.PipetypeProperty, key)
}

// Unique drops gremlins on a vertex already seen by the step.
func (q *Query) Unique() *Query {
	return q.Add(traversal.PipetypeUnique)
}

// Filter keeps the gremlins matching arg: a property pattern, a vertex
// predicate or a CEL expression.
func (q *Query) Filter(arg any) *Query {
	return q.Add(traversal.PipetypeFilter, arg)
}

// Take passes at most n gremlins.
func (q *Query) Take(n int) *Query {
	return q.Add(traversal.PipetypeTake, n)
}

// As labels the current vertex of each gremlin.
func (q *Query) As(label string) *Query {
	return q.Add(traversal.PipetypeAs, label)
}

// Back returns each gremlin to the vertex labeled label.
func (q *Query) Back(label string) *Query {
	return q.Add(traversal.PipetypeBack, label)
}

// Except drops gremlins standing on the vertex labeled label.
func (q *Query) Except(label string) *Query {
	return q.Add(traversal.PipetypeExcept, label)
}

// Merge emits one gremlin per vertex recorded under labels.
func (q *Query) Merge(labels ...string) *Query {
	args := make([]any, 0, len(labels))
	for _, l := range labels {
		args = append(args, l)
	}
	return q.Add(traversal.PipetypeMerge, args...)
}

// Steps returns a copy of the query steps.
func (q *Query) Steps() []traversal.Step {
	steps := make([]traversal.Step, len(q.steps))
	copy(steps, q.steps)
	return steps
}

// Compile builds a fresh Program from the query.
func (q *Query) Compile(r *traversal.Registry) (*traversal.Program, error) {
	return traversal.Compile(r, q.Steps())
}

// Run compiles the query and drives it to exhaustion over g.
func (q *Query) Run(ctx context.Context, r *traversal.Registry, g graph.Graph, opts ...traversal.DriverOpt) ([]*traversal.Gremlin, error) {
	p, err := q.Compile(r)
	if err != nil {
		return nil, err
	}
	return traversal.Run(ctx, g, p, opts...)
}

func (q *Query) String() string {
	parts := make([]string, 0, len(q.steps))
	for _, s := range q.steps {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, ".")
}
