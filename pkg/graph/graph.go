// Package graph contains the contract between the traversal core and the
// property-graph store it reads from.
//
//go:generate mockgen -source graph.go -destination ../../internal/mocks/mock_graph.go -package mocks
package graph

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrVertexNotFound is returned by Graph.Vertex when no vertex has the given id.
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrInvalidFilter is returned when an edge or vertex filter has an unsupported shape.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Vertex is a node of the property graph. Vertices are owned by the Graph that
// returned them; the traversal core only reads them and compares them by reference.
type Vertex struct {
	ID         string
	Properties map[string]any
}

// Property returns the value stored under key, if any. The reserved key "_id"
// resolves to the vertex id.
func (v *Vertex) Property(key string) (any, bool) {
	if key == IDKey {
		return v.ID, true
	}
	value, ok := v.Properties[key]
	return value, ok
}

// Edge is a directed, labeled connection between two vertices.
type Edge struct {
	ID         string
	Label      string
	From       string
	To         string
	Properties map[string]any
}

// IDKey and LabelKey are reserved pattern keys that match the element id and,
// for edges, the edge label.
const (
	IDKey    = "_id"
	LabelKey = "_label"
)

// Graph is the adapter the traversal core consumes. Implementations must return
// fresh slices from the Find methods: callers consume them destructively.
type Graph interface {
	// FindVertices returns the vertices selected by args. No args selects every
	// vertex. String args select vertices by id; unknown ids are skipped. A
	// single map[string]any arg selects the vertices matching that pattern.
	FindVertices(ctx context.Context, args []any) ([]*Vertex, error)

	// FindOutEdges returns the edges whose From is v.
	FindOutEdges(ctx context.Context, v *Vertex) ([]*Edge, error)

	// FindInEdges returns the edges whose To is v.
	FindInEdges(ctx context.Context, v *Vertex) ([]*Edge, error)

	// Vertex returns the vertex with the given id, or ErrVertexNotFound.
	Vertex(ctx context.Context, id string) (*Vertex, error)
}

// EdgePredicate reports whether an edge should be followed.
type EdgePredicate func(*Edge) bool

// FilterEdges builds the predicate used by the in and out pipetypes. A nil
// filter accepts every edge, a string matches the label, a []string matches any
// of its labels, a map is matched against the edge properties (see ObjectFilter)
// and an EdgePredicate or func(*Edge) bool is used as is.
func FilterEdges(filter any) (EdgePredicate, error) {
	switch f := filter.(type) {
	case nil:
		return func(*Edge) bool { return true }, nil
	case string:
		return func(e *Edge) bool { return e.Label == f }, nil
	case []string:
		return func(e *Edge) bool {
			for _, label := range f {
				if e.Label == label {
					return true
				}
			}
			return false
		}, nil
	case []any:
		labels := make([]string, 0, len(f))
		for _, item := range f {
			label, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: edge label list contains %T", ErrInvalidFilter, item)
			}
			labels = append(labels, label)
		}
		return FilterEdges(labels)
	case map[string]any:
		return func(e *Edge) bool { return ObjectFilter(edgeFields(e), f) }, nil
	case EdgePredicate:
		return f, nil
	case func(*Edge) bool:
		return f, nil
	default:
		return nil, fmt.Errorf("%w: unsupported edge filter type %T", ErrInvalidFilter, filter)
	}
}

func edgeFields(e *Edge) map[string]any {
	fields := make(map[string]any, len(e.Properties)+2)
	for k, v := range e.Properties {
		fields[k] = v
	}
	fields[IDKey] = e.ID
	fields[LabelKey] = e.Label
	return fields
}

// VertexFields returns the properties of v together with its reserved "_id" key.
func VertexFields(v *Vertex) map[string]any {
	fields := make(map[string]any, len(v.Properties)+1)
	for k, val := range v.Properties {
		fields[k] = val
	}
	fields[IDKey] = v.ID
	return fields
}

// ObjectFilter reports whether every key of pattern is present in fields with an
// equal value. Keys of fields that are not in the pattern are ignored.
func ObjectFilter(fields, pattern map[string]any) bool {
	for key, want := range pattern {
		got, ok := fields[key]
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// MatchVertex is ObjectFilter applied to a vertex, including its "_id".
func MatchVertex(v *Vertex, pattern map[string]any) bool {
	for key, want := range pattern {
		got, ok := v.Property(key)
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}
