package traversal

import (
	"maps"

	"github.com/openfga/pipegraph/pkg/graph"
)

// GremlinState is the state carried by a traversal lineage. Every gremlin
// derived through GotoVertex points at the same GremlinState, so label
// checkpoints recorded on one branch are visible on all branches forked from it.
type GremlinState struct {
	as map[string]*graph.Vertex
}

// NewGremlinState returns an empty state.
func NewGremlinState() *GremlinState {
	return &GremlinState{}
}

// Label returns the vertex checkpointed under name.
func (s *GremlinState) Label(name string) (*graph.Vertex, bool) {
	v, ok := s.as[name]
	return v, ok
}

// SetLabel checkpoints v under name, replacing any previous checkpoint.
func (s *GremlinState) SetLabel(name string, v *graph.Vertex) {
	if s.as == nil {
		s.as = make(map[string]*graph.Vertex)
	}
	s.as[name] = v
}

// Labels returns a copy of every checkpoint.
func (s *GremlinState) Labels() map[string]*graph.Vertex {
	return maps.Clone(s.as)
}

// Gremlin is the unit of in-flight traversal state: the vertex it currently
// sits on, the state shared with its lineage, and an optional result set by
// the property pipetype.
type Gremlin struct {
	Vertex *graph.Vertex
	State  *GremlinState
	Result any
}

// MakeGremlin creates a gremlin that is not derived from another one. A nil
// state starts a new, independent lineage.
func MakeGremlin(v *graph.Vertex, state *GremlinState) *Gremlin {
	if state == nil {
		state = NewGremlinState()
	}
	return &Gremlin{Vertex: v, State: state}
}

// GotoVertex advances g to v. The returned gremlin shares g's state.
func GotoVertex(g *Gremlin, v *graph.Vertex) *Gremlin {
	return &Gremlin{Vertex: v, State: g.State}
}
