package traversal

import (
	"context"
	"fmt"

	"github.com/openfga/pipegraph/pkg/graph"
)

// Signal tells the Driver where to move after a stage ran.
type Signal uint8

const (
	// SignalGremlin hands a gremlin to the next stage.
	SignalGremlin Signal = iota + 1

	// SignalPull asks the previous stage for another gremlin.
	SignalPull

	// SignalDone declares the stage permanently exhausted.
	SignalDone
)

func (s Signal) String() string {
	switch s {
	case SignalGremlin:
		return "gremlin"
	case SignalPull:
		return "pull"
	case SignalDone:
		return "done"
	default:
		return fmt.Sprintf("Signal(%d)", uint8(s))
	}
}

// Outcome is what a Handler returns. The zero Outcome is invalid.
type Outcome struct {
	Signal  Signal
	Gremlin *Gremlin
}

// Emit passes g downstream.
func Emit(g *Gremlin) Outcome {
	return Outcome{Signal: SignalGremlin, Gremlin: g}
}

// Pull requests more input from upstream.
func Pull() Outcome {
	return Outcome{Signal: SignalPull}
}

// Done reports that the stage will never produce or accept anything again.
func Done() Outcome {
	return Outcome{Signal: SignalDone}
}

// Handler implements a pipetype. It is called with the gremlin produced by the
// previous stage, or nil when the next stage pulled, and the private state of
// the stage being evaluated. A Handler may only mutate its own state and the
// Result of the gremlin it was given. A returned error aborts the traversal.
type Handler func(ctx context.Context, g graph.Graph, args []any, gremlin *Gremlin, state *StageState) (Outcome, error)

// StageState is the private, mutable record of one stage. It lives as long as
// the Program and plays the role of a suspended generator frame.
type StageState struct {
	value  any
	issues []error
}

// StateOf returns the typed record held by s, allocating it on first use.
// A stage must always use the same T.
func StateOf[T any](s *StageState) *T {
	if s.value == nil {
		v := new(T)
		s.value = v
		return v
	}
	return s.value.(*T)
}

// Report records a non-fatal configuration problem. The Driver logs it and
// exposes it through Driver.Issues.
func (s *StageState) Report(err error) {
	s.issues = append(s.issues, err)
}

func pop[T any](items *[]T) T {
	s := *items
	last := len(s) - 1
	item := s[last]

	var zero T
	s[last] = zero
	*items = s[:last]
	return item
}
