// Package memory provides an ephemeral, memory-backed implementation of [graph.Graph].
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/openfga/pipegraph/pkg/graph"
)

var tracer = otel.Tracer("pipegraph/pkg/graph/memory")

var (
	// ErrVertexExists is returned when adding a vertex whose id is already taken.
	ErrVertexExists = errors.New("vertex already exists")

	// ErrEdgeExists is returned when adding an edge whose id is already taken.
	ErrEdgeExists = errors.New("edge already exists")

	// ErrMissingID is returned when adding a vertex without an id.
	ErrMissingID = errors.New("missing id")

	// ErrTooManyElements is returned once the configured element limit is reached.
	ErrTooManyElements = errors.New("graph element limit reached")
)

const defaultMaxElements = 1_000_000

// Option configures a [Graph].
type Option func(g *Graph)

// WithMaxElements caps the number of vertices plus edges the graph accepts.
func WithMaxElements(n int) Option {
	return func(g *Graph) { g.maxElements = n }
}

// WithEdgeIDGenerator overrides how ids are assigned to edges added without one.
// By default a ULID is generated.
func WithEdgeIDGenerator(fn func() string) Option {
	return func(g *Graph) { g.newEdgeID = fn }
}

// Graph is an in-memory property graph. It may be safely shared by multiple
// goroutines; reads never block each other.
type Graph struct {
	maxElements int
	newEdgeID   func() string

	mu sync.RWMutex

	// vertices by id, plus the sorted id index that gives FindVertices its order.
	vertices map[string]*graph.Vertex // GUARDED_BY(mu).
	order    *redblacktree.Tree       // GUARDED_BY(mu).

	edges map[string]*graph.Edge   // GUARDED_BY(mu).
	out   map[string][]*graph.Edge // GUARDED_BY(mu).
	in    map[string][]*graph.Edge // GUARDED_BY(mu).
}

var _ graph.Graph = (*Graph)(nil)

// New returns an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		maxElements: defaultMaxElements,
		newEdgeID:   func() string { return ulid.Make().String() },
		vertices:    make(map[string]*graph.Vertex),
		order:       redblacktree.NewWithStringComparator(),
		edges:       make(map[string]*graph.Edge),
		out:         make(map[string][]*graph.Edge),
		in:          make(map[string][]*graph.Edge),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AddVertex stores v. The vertex is kept by reference.
func (g *Graph) AddVertex(v *graph.Vertex) error {
	if v.ID == "" {
		return fmt.Errorf("cannot add vertex: %w", ErrMissingID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.vertices[v.ID]; ok {
		return fmt.Errorf("cannot add vertex '%s': %w", v.ID, ErrVertexExists)
	}
	if g.size() >= g.maxElements {
		return ErrTooManyElements
	}

	if v.Properties == nil {
		v.Properties = map[string]any{}
	}
	g.vertices[v.ID] = v
	g.order.Put(v.ID, nil)
	return nil
}

// AddEdge stores e. Both endpoints must already exist. An edge without an id is
// assigned one.
func (g *Graph) AddEdge(e *graph.Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, endpoint := range []string{e.From, e.To} {
		if _, ok := g.vertices[endpoint]; !ok {
			return fmt.Errorf("cannot add edge '%s' -> '%s': vertex '%s': %w", e.From, e.To, endpoint, graph.ErrVertexNotFound)
		}
	}
	if e.ID == "" {
		e.ID = g.newEdgeID()
	}
	if _, ok := g.edges[e.ID]; ok {
		return fmt.Errorf("cannot add edge '%s': %w", e.ID, ErrEdgeExists)
	}
	if g.size() >= g.maxElements {
		return ErrTooManyElements
	}

	if e.Properties == nil {
		e.Properties = map[string]any{}
	}
	g.edges[e.ID] = e
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	return nil
}

func (g *Graph) size() int {
	return len(g.vertices) + len(g.edges)
}

// Len returns the number of vertices and edges in the graph.
func (g *Graph) Len() (vertices, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.vertices), len(g.edges)
}

// FindVertices see [graph.Graph].FindVertices. Without args, vertices are
// returned sorted by id.
func (g *Graph) FindVertices(ctx context.Context, args []any) ([]*graph.Vertex, error) {
	_, span := tracer.Start(ctx, "memory.FindVertices")
	defer span.End()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(args) == 1 {
		if pattern, ok := args[0].(map[string]any); ok {
			return g.search(pattern), nil
		}
	}

	if len(args) == 0 {
		return g.search(nil), nil
	}

	vertices := make([]*graph.Vertex, 0, len(args))
	for _, arg := range args {
		id, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("%w: vertex selector %v (%T) is not an id", graph.ErrInvalidFilter, arg, arg)
		}
		if v, ok := g.vertices[id]; ok {
			vertices = append(vertices, v)
		}
	}
	span.SetAttributes(attribute.Int("vertices", len(vertices)))
	return vertices, nil
}

func (g *Graph) search(pattern map[string]any) []*graph.Vertex {
	vertices := make([]*graph.Vertex, 0, g.order.Size())
	for _, key := range g.order.Keys() {
		v := g.vertices[key.(string)]
		if pattern == nil || graph.MatchVertex(v, pattern) {
			vertices = append(vertices, v)
		}
	}
	return vertices
}

// FindOutEdges see [graph.Graph].FindOutEdges. Edges are returned in insertion order.
func (g *Graph) FindOutEdges(ctx context.Context, v *graph.Vertex) ([]*graph.Edge, error) {
	_, span := tracer.Start(ctx, "memory.FindOutEdges")
	defer span.End()

	return g.adjacent(ctx, g.out, v)
}

// FindInEdges see [graph.Graph].FindInEdges. Edges are returned in insertion order.
func (g *Graph) FindInEdges(ctx context.Context, v *graph.Vertex) ([]*graph.Edge, error) {
	_, span := tracer.Start(ctx, "memory.FindInEdges")
	defer span.End()

	return g.adjacent(ctx, g.in, v)
}

func (g *Graph) adjacent(ctx context.Context, index map[string][]*graph.Edge, v *graph.Vertex) ([]*graph.Edge, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if v == nil {
		return nil, fmt.Errorf("cannot list edges of a nil vertex: %w", graph.ErrVertexNotFound)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(index[v.ID]), nil
}

// Vertex see [graph.Graph].Vertex.
func (g *Graph) Vertex(ctx context.Context, id string) (*graph.Vertex, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	v, ok := g.vertices[id]
	if !ok {
		return nil, fmt.Errorf("vertex '%s': %w", id, graph.ErrVertexNotFound)
	}
	return v, nil
}
