package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/pipegraph/pkg/graph"
)

func TestRegistry(t *testing.T) {
	t.Run("builtins", func(t *testing.T) {
		r := NewBuiltinRegistry()
		require.Equal(t, []string{
			PipetypeAs, PipetypeBack, PipetypeExcept, PipetypeFilter, PipetypeIn, PipetypeMerge,
			PipetypeOut, PipetypeProperty, PipetypeTake, PipetypeUnique, PipetypeVertex,
		}, r.Names())
	})

	t.Run("unknown_pipetype", func(t *testing.T) {
		_, err := NewRegistry().Lookup("vertex")
		require.ErrorIs(t, err, ErrUnknownPipetype)

		_, err = Compile(NewBuiltinRegistry(), []Step{step(PipetypeVertex), step("outE")})
		require.ErrorIs(t, err, ErrUnknownPipetype)
		require.EqualError(t, err, "failed to compile stage 1: unknown pipetype: 'outE'")
	})

	t.Run("override", func(t *testing.T) {
		r := NewBuiltinRegistry()
		before := compile(t, r, step(PipetypeVertex, "A"), step(PipetypeOut))

		// out that stays in place
		r.Register(PipetypeOut, func(_ context.Context, _ graph.Graph, _ []any, gremlin *Gremlin, _ *StageState) (Outcome, error) {
			if gremlin == nil {
				return Pull(), nil
			}
			return Emit(gremlin), nil
		})
		after := compile(t, r, step(PipetypeVertex, "A"), step(PipetypeOut))

		g := loadGraph(t, chainGraph)

		results, err := Run(context.Background(), g, before)
		require.NoError(t, err)
		require.Equal(t, []string{"B"}, vertexIDs(results))

		results, err = Run(context.Background(), g, after)
		require.NoError(t, err)
		require.Equal(t, []string{"A"}, vertexIDs(results))
	})
}

func TestProgram(t *testing.T) {
	p := compile(t, NewBuiltinRegistry(),
		step(PipetypeVertex, "A"),
		step(PipetypeOut),
		step(PipetypeFilter, map[string]any{"age": 3}),
		step(PipetypeFilter, func(*graph.Vertex) bool { return true }),
		step(PipetypeProperty, nil),
		step(PipetypeTake, 2),
	)

	require.Equal(t, 6, p.Len())
	require.Equal(t, PipetypeFilter, p.Stage(2).Pipetype())
	require.Equal(t, []any{"A"}, p.Stage(0).Args())
	require.Equal(t, `vertex("A").out().filter(map[age:3]).filter(func).property(null).take(2)`, p.String())
}

func TestSignal(t *testing.T) {
	require.Equal(t, "gremlin", SignalGremlin.String())
	require.Equal(t, "pull", SignalPull.String())
	require.Equal(t, "done", SignalDone.String())
	require.Equal(t, "Signal(0)", Signal(0).String())
}

func TestGremlinState(t *testing.T) {
	a := &graph.Vertex{ID: "A"}
	g := MakeGremlin(a, nil)
	require.NotNil(t, g.State)

	_, ok := g.State.Label("x")
	require.False(t, ok)

	next := GotoVertex(g, &graph.Vertex{ID: "B"})
	next.State.SetLabel("x", a)

	v, ok := g.State.Label("x")
	require.True(t, ok)
	require.Same(t, a, v)

	labels := g.State.Labels()
	delete(labels, "x")
	_, ok = g.State.Label("x")
	require.True(t, ok)

	other := MakeGremlin(a, nil)
	require.NotSame(t, g.State, other.State)
}
