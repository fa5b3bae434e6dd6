package traversal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/openfga/pipegraph/internal/mocks"
	"github.com/openfga/pipegraph/pkg/graph"
	"github.com/openfga/pipegraph/pkg/graph/memory"
	"github.com/openfga/pipegraph/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func step(pipetype string, args ...any) Step {
	return Step{Pipetype: pipetype, Args: args}
}

func loadGraph(t *testing.T, doc string) *memory.Graph {
	t.Helper()

	g, err := memory.Load(strings.NewReader(doc))
	require.NoError(t, err)
	return g
}

func compile(t *testing.T, r *Registry, steps ...Step) *Program {
	t.Helper()

	p, err := Compile(r, steps)
	require.NoError(t, err)
	return p
}

func vertexIDs(gremlins []*Gremlin) []string {
	ids := make([]string, 0, len(gremlins))
	for _, g := range gremlins {
		ids = append(ids, g.Vertex.ID)
	}
	return ids
}

func runIDs(t *testing.T, g graph.Graph, steps ...Step) []string {
	t.Helper()

	results, err := Run(context.Background(), g, compile(t, NewBuiltinRegistry(), steps...))
	require.NoError(t, err)
	return vertexIDs(results)
}

// forever re-emits the last gremlin it received, without end.
func forever(_ context.Context, _ graph.Graph, _ []any, gremlin *Gremlin, s *StageState) (Outcome, error) {
	st := StateOf[Gremlin](s)
	if gremlin != nil {
		*st = *gremlin
	}
	if st.Vertex == nil {
		return Pull(), nil
	}
	return Emit(GotoVertex(st, st.Vertex)), nil
}

const chainGraph = `
vertices:
  - id: A
  - id: B
  - id: C
edges:
  - {label: knows, from: A, to: B}
  - {label: knows, from: B, to: C}
`

func TestDriverNext(t *testing.T) {
	t.Run("yields_results_lazily", func(t *testing.T) {
		g := loadGraph(t, chainGraph)
		p := compile(t, NewBuiltinRegistry(), step(PipetypeVertex, "A"), step(PipetypeOut), step(PipetypeOut))

		d, err := NewDriver(g, p)
		require.NoError(t, err)

		gremlin, err := d.Next(context.Background())
		require.NoError(t, err)
		require.Equal(t, "C", gremlin.Vertex.ID)

		_, err = d.Next(context.Background())
		require.ErrorIs(t, err, ErrIteratorDone)
	})

	t.Run("stays_done_after_exhaustion", func(t *testing.T) {
		g := loadGraph(t, chainGraph)
		d, err := NewDriver(g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex, "C")))
		require.NoError(t, err)

		_, err = d.Next(context.Background())
		require.NoError(t, err)

		for range 3 {
			_, err = d.Next(context.Background())
			require.ErrorIs(t, err, ErrIteratorDone)
		}
	})

	t.Run("empty_program_yields_nothing", func(t *testing.T) {
		d, err := NewDriver(loadGraph(t, chainGraph), compile(t, NewBuiltinRegistry()))
		require.NoError(t, err)

		_, err = d.Next(context.Background())
		require.ErrorIs(t, err, ErrIteratorDone)
	})

	t.Run("max_results", func(t *testing.T) {
		g := loadGraph(t, chainGraph)
		p := compile(t, NewBuiltinRegistry(), step(PipetypeVertex))

		results, err := Run(context.Background(), g, p, WithMaxResults(2))
		require.NoError(t, err)
		require.Equal(t, []string{"C", "B"}, vertexIDs(results))
	})

	t.Run("program_cannot_be_driven_twice", func(t *testing.T) {
		g := loadGraph(t, chainGraph)
		p := compile(t, NewBuiltinRegistry(), step(PipetypeVertex))

		_, err := NewDriver(g, p)
		require.NoError(t, err)

		_, err = NewDriver(g, p)
		require.ErrorIs(t, err, ErrProgramConsumed)

		_, err = Run(context.Background(), g, p)
		require.ErrorIs(t, err, ErrProgramConsumed)
	})

	t.Run("run_id", func(t *testing.T) {
		g := loadGraph(t, chainGraph)

		d, err := NewDriver(g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex)), WithRunID("run-1"))
		require.NoError(t, err)
		require.Equal(t, "run-1", d.RunID())

		d, err = NewDriver(g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex)))
		require.NoError(t, err)
		require.NotEmpty(t, d.RunID())
	})
}

func TestDriverDeterminism(t *testing.T) {
	g := loadGraph(t, `
vertices:
  - id: A
  - id: B
  - id: C
  - id: D
edges:
  - {label: knows, from: A, to: B}
  - {label: knows, from: A, to: C}
  - {label: likes, from: A, to: D}
  - {label: knows, from: B, to: D}
  - {label: knows, from: C, to: A}
`)

	steps := []Step{step(PipetypeVertex), step(PipetypeOut), step(PipetypeOut)}
	first := runIDs(t, g, steps...)
	second := runIDs(t, g, steps...)

	require.Empty(t, cmp.Diff(first, second))
	require.Equal(t, []string{"D", "C", "B", "A", "D"}, first)
}

func TestDriverCancellation(t *testing.T) {
	g := loadGraph(t, chainGraph)
	r := NewBuiltinRegistry()
	r.Register("forever", forever)

	d, err := NewDriver(g, compile(t, r, step(PipetypeVertex, "A"), step("forever")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	for range 5 {
		gremlin, err := d.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, "A", gremlin.Vertex.ID)
	}

	cancel()
	_, err = d.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// cancellation is not sticky
	gremlin, err := d.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "A", gremlin.Vertex.ID)
}

func TestDriverAll(t *testing.T) {
	g := loadGraph(t, chainGraph)
	d, err := NewDriver(g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex)))
	require.NoError(t, err)

	var ids []string
	for gremlin, err := range d.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, gremlin.Vertex.ID)
		if len(ids) == 2 {
			break
		}
	}
	require.Equal(t, []string{"C", "B"}, ids)

	// the driver resumes where the loop stopped
	for gremlin, err := range d.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, gremlin.Vertex.ID)
	}
	require.Equal(t, []string{"C", "B", "A"}, ids)
}

func TestDriverFatalErrors(t *testing.T) {
	t.Run("graph_failure_is_sticky", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		boom := errors.New("connection reset")
		a := &graph.Vertex{ID: "A"}

		g := mocks.NewMockGraph(ctrl)
		g.EXPECT().FindVertices(gomock.Any(), []any{"A"}).Return([]*graph.Vertex{a}, nil).Times(1)
		g.EXPECT().FindOutEdges(gomock.Any(), a).Return(nil, boom).Times(1)

		d, err := NewDriver(g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex, "A"), step(PipetypeOut)))
		require.NoError(t, err)

		_, err = d.Next(context.Background())
		require.ErrorIs(t, err, boom)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		require.Equal(t, 1, stageErr.Stage)
		require.Equal(t, PipetypeOut, stageErr.Pipetype)

		_, err = d.Next(context.Background())
		require.ErrorIs(t, err, boom)
	})

	t.Run("dangling_edge", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := &graph.Vertex{ID: "A"}
		g := mocks.NewMockGraph(ctrl)
		g.EXPECT().FindVertices(gomock.Any(), gomock.Any()).Return([]*graph.Vertex{a}, nil)
		g.EXPECT().FindOutEdges(gomock.Any(), a).Return([]*graph.Edge{{Label: "knows", From: "A", To: "Z"}}, nil)
		g.EXPECT().Vertex(gomock.Any(), "Z").Return(nil, graph.ErrVertexNotFound)

		_, err := Run(context.Background(), g, compile(t, NewBuiltinRegistry(), step(PipetypeVertex, "A"), step(PipetypeOut)))
		require.ErrorIs(t, err, graph.ErrVertexNotFound)
	})

	t.Run("invalid_outcomes", func(t *testing.T) {
		tests := map[string]Handler{
			"zero_outcome": func(context.Context, graph.Graph, []any, *Gremlin, *StageState) (Outcome, error) {
				return Outcome{}, nil
			},
			"nil_gremlin": func(context.Context, graph.Graph, []any, *Gremlin, *StageState) (Outcome, error) {
				return Emit(nil), nil
			},
			"unknown_signal": func(context.Context, graph.Graph, []any, *Gremlin, *StageState) (Outcome, error) {
				return Outcome{Signal: Signal(42)}, nil
			},
		}

		for name, h := range tests {
			t.Run(name, func(t *testing.T) {
				r := NewRegistry()
				r.Register("broken", h)

				_, err := Run(context.Background(), loadGraph(t, chainGraph), compile(t, r, step("broken")))
				require.ErrorIs(t, err, ErrInvalidOutcome)
			})
		}
	})

	t.Run("logged_once", func(t *testing.T) {
		log, logs := logger.NewObserverLogger("error")
		r := NewRegistry()
		r.Register("broken", func(context.Context, graph.Graph, []any, *Gremlin, *StageState) (Outcome, error) {
			return Outcome{}, errors.New("broken")
		})

		d, err := NewDriver(loadGraph(t, chainGraph), compile(t, r, step("broken")), WithLogger(log))
		require.NoError(t, err)

		for range 2 {
			_, err = d.Next(context.Background())
			require.Error(t, err)
		}
		require.Equal(t, 1, logs.FilterMessage("traversal aborted").Len())
	})
}

func TestDriverIssues(t *testing.T) {
	log, logs := logger.NewObserverLogger("warn")
	g := loadGraph(t, chainGraph)
	p := compile(t, NewBuiltinRegistry(), step(PipetypeVertex), step(PipetypeFilter, 42))

	d, err := NewDriver(g, p, WithLogger(log), WithRunID("run-1"))
	require.NoError(t, err)

	var ids []string
	for gremlin, err := range d.All(context.Background()) {
		require.NoError(t, err)
		ids = append(ids, gremlin.Vertex.ID)
	}
	require.Equal(t, []string{"C", "B", "A"}, ids)

	require.Len(t, d.Issues(), 1)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, d.Issues()[0], &cfgErr)
	require.Equal(t, 1, cfgErr.Stage)
	require.Equal(t, PipetypeFilter, cfgErr.Pipetype)
	require.ErrorIs(t, cfgErr, ErrInvalidArgument)

	entries := logs.FilterMessage("stage configuration error").All()
	require.Len(t, entries, 1)
	require.Equal(t, "run-1", entries[0].ContextMap()["run_id"])
}
