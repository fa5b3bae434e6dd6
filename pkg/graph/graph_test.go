package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterEdges(t *testing.T) {
	knows := &Edge{ID: "e1", Label: "knows", From: "a", To: "b", Properties: map[string]any{"since": 2010}}
	likes := &Edge{ID: "e2", Label: "likes", From: "a", To: "c"}

	tests := []struct {
		name     string
		filter   any
		expected []bool
	}{
		{name: "nil_accepts_all", filter: nil, expected: []bool{true, true}},
		{name: "label", filter: "knows", expected: []bool{true, false}},
		{name: "label_list", filter: []string{"likes", "hates"}, expected: []bool{false, true}},
		{name: "decoded_label_list", filter: []any{"knows", "likes"}, expected: []bool{true, true}},
		{name: "pattern", filter: map[string]any{"since": 2010.0}, expected: []bool{true, false}},
		{name: "pattern_on_label", filter: map[string]any{LabelKey: "likes"}, expected: []bool{false, true}},
		{name: "predicate", filter: func(e *Edge) bool { return e.To == "c" }, expected: []bool{false, true}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pred, err := FilterEdges(test.filter)
			require.NoError(t, err)
			require.Equal(t, test.expected, []bool{pred(knows), pred(likes)})
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := FilterEdges(42)
		require.ErrorIs(t, err, ErrInvalidFilter)

		_, err = FilterEdges([]any{"knows", 3})
		require.ErrorIs(t, err, ErrInvalidFilter)
	})
}

func TestObjectFilter(t *testing.T) {
	fields := map[string]any{"name": "thor", "weight": 10, "tags": []any{"god"}}

	require.True(t, ObjectFilter(fields, map[string]any{}))
	require.True(t, ObjectFilter(fields, map[string]any{"weight": 10.0}))
	require.True(t, ObjectFilter(fields, map[string]any{"name": "thor", "tags": []any{"god"}}))
	require.False(t, ObjectFilter(fields, map[string]any{"weight": 11}))
	require.False(t, ObjectFilter(fields, map[string]any{"height": 10}))
	require.False(t, ObjectFilter(fields, map[string]any{"name": 10}))
}

func TestMatchVertex(t *testing.T) {
	v := &Vertex{ID: "thor", Properties: map[string]any{"species": "god"}}

	require.True(t, MatchVertex(v, map[string]any{IDKey: "thor"}))
	require.True(t, MatchVertex(v, map[string]any{"species": "god"}))
	require.False(t, MatchVertex(v, map[string]any{"species": "giant"}))

	fields := VertexFields(v)
	require.Equal(t, "thor", fields[IDKey])
	require.NotContains(t, v.Properties, IDKey)
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(int64(3), 3.0))
	require.True(t, Equal(uint8(1), 1))
	require.False(t, Equal(3, "3"))
	require.True(t, Equal("a", "a"))
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(nil, 0))
}
