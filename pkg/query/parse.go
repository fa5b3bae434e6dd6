package query

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ErrInvalidDocument is returned when a query document cannot be turned into steps.
var ErrInvalidDocument = errors.New("invalid query document")

// Parse reads a query document: a YAML or JSON list whose items are either a
// bare pipetype name or a single-key map from pipetype name to arguments.
//
//	[{vertex: thor}, {out: [parent, sibling]}, {filter: {species: god}}, unique, {take: 2}]
//
// A list value is spread into several arguments, a null value means no
// arguments and anything else is a single argument.
func Parse(data []byte) (*Query, error) {
	var items []any
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	q := New()
	for i, item := range items {
		switch step := item.(type) {
		case string:
			if step == "" {
				return nil, fmt.Errorf("%w: step %d has an empty pipetype", ErrInvalidDocument, i)
			}
			q.Add(step)
		case map[string]any:
			if len(step) != 1 {
				return nil, fmt.Errorf("%w: step %d must name exactly one pipetype, got %d", ErrInvalidDocument, i, len(step))
			}
			for pipetype, arg := range step {
				q.Add(pipetype, stepArgs(arg)...)
			}
		default:
			return nil, fmt.Errorf("%w: step %d is a %T, expected a pipetype name or a map", ErrInvalidDocument, i, item)
		}
	}

	return q, nil
}

// ParseFile is Parse over the file at path.
func ParseFile(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func stepArgs(arg any) []any {
	switch v := arg.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}
