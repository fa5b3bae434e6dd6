package query

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openfga/pipegraph/pkg/graph/memory"
	"github.com/openfga/pipegraph/pkg/traversal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const familyGraph = `
vertices:
  - id: thor
    properties: {species: god}
  - id: odin
    properties: {species: god}
  - id: frigg
    properties: {species: god}
  - id: loki
    properties: {species: giant}
edges:
  - {label: parent, from: thor, to: odin}
  - {label: parent, from: thor, to: frigg}
  - {label: parent, from: loki, to: odin}
`

func ids(results []*traversal.Gremlin) []string {
	out := make([]string, 0, len(results))
	for _, g := range results {
		out = append(out, g.Vertex.ID)
	}
	return out
}

func TestBuilder(t *testing.T) {
	q := V("thor").Out("parent").In("parent").Unique().Filter(map[string]any{"species": "god"}).Take(2)

	require.Equal(t, `vertex("thor").out("parent").in("parent").unique().filter(map[species:god]).take(2)`, q.String())
	require.Len(t, q.Steps(), 6)

	q.Steps()[0].Pipetype = "mutated"
	require.Equal(t, traversal.PipetypeVertex, q.Steps()[0].Pipetype)

	require.Equal(t,
		`vertex().as("a").out().as("b").merge("a", "b").back("a").except("b").property("name")`,
		New().V().As("a").Out().As("b").Merge("a", "b").Back("a").Except("b").Property("name").String(),
	)
}

func TestRun(t *testing.T) {
	g, err := memory.Load(strings.NewReader(familyGraph))
	require.NoError(t, err)
	r := traversal.NewBuiltinRegistry()

	q := V("thor").Out("parent").In("parent").Unique()

	// a query can run many times, each run compiles a fresh program
	first, err := q.Run(context.Background(), r, g)
	require.NoError(t, err)
	second, err := q.Run(context.Background(), r, g)
	require.NoError(t, err)

	require.Equal(t, []string{"thor", "loki"}, ids(first))
	require.Empty(t, cmp.Diff(ids(first), ids(second)))

	_, err = New().Add("nope").Run(context.Background(), r, g)
	require.ErrorIs(t, err, traversal.ErrUnknownPipetype)
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		document string
		expected []traversal.Step
	}{
		"steps": {
			document: `
- vertex: thor
- out: [parent, sibling]
- filter: {species: god}
- unique
- take: 2
`,
			expected: []traversal.Step{
				{Pipetype: "vertex", Args: []any{"thor"}},
				{Pipetype: "out", Args: []any{"parent", "sibling"}},
				{Pipetype: "filter", Args: []any{map[string]any{"species": "god"}}},
				{Pipetype: "unique"},
				{Pipetype: "take", Args: []any{float64(2)}},
			},
		},
		"null_arguments": {
			document: `
- vertex:
- out: null
`,
			expected: []traversal.Step{
				{Pipetype: "vertex"},
				{Pipetype: "out"},
			},
		},
		"json": {
			document: `[{"vertex": ["a", "b"]}, {"filter": "vertex.age > 3"}]`,
			expected: []traversal.Step{
				{Pipetype: "vertex", Args: []any{"a", "b"}},
				{Pipetype: "filter", Args: []any{"vertex.age > 3"}},
			},
		},
		"empty": {
			document: ``,
			expected: []traversal.Step{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := Parse([]byte(test.document))
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(test.expected, q.Steps()))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"not_a_list":      `vertex: thor`,
		"two_pipetypes":   `[{vertex: thor, out: parent}]`,
		"empty_map":       `[{}]`,
		"empty_pipetype":  `[""]`,
		"number_step":     `[1]`,
		"malformed_yaml":  `[vertex`,
		"nested_sequence": `[[vertex]]`,
	}

	for name, document := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(document))
			require.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- vertex: thor\n- take: 1\n"), 0o600))

	q, err := ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, `vertex("thor").take(1)`, q.String())

	g, err := memory.Load(strings.NewReader(familyGraph))
	require.NoError(t, err)
	results, err := q.Run(context.Background(), traversal.NewBuiltinRegistry(), g)
	require.NoError(t, err)
	require.Equal(t, []string{"thor"}, ids(results))

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
