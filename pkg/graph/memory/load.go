package memory

import (
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/openfga/pipegraph/pkg/graph"
)

// Document is the YAML/JSON representation of a graph.
//
//	vertices:
//	  - id: thor
//	    properties: {species: god}
//	edges:
//	  - {label: parent, from: thor, to: odin}
type Document struct {
	Vertices []VertexDocument `json:"vertices"`
	Edges    []EdgeDocument   `json:"edges"`
}

type VertexDocument struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
}

type EdgeDocument struct {
	ID         string         `json:"id,omitempty"`
	Label      string         `json:"label"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Load decodes a graph document from r and builds a Graph from it. Vertices are
// added before edges, so edges may reference vertices declared anywhere.
func Load(r io.Reader, opts ...Option) (*Graph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode graph document: %w", err)
	}

	return FromDocument(doc, opts...)
}

// LoadFile is Load over the file at path.
func LoadFile(path string, opts ...Option) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f, opts...)
}

// FromDocument builds a Graph from an already decoded document.
func FromDocument(doc Document, opts ...Option) (*Graph, error) {
	g := New(opts...)

	for i, v := range doc.Vertices {
		if err := g.AddVertex(&graph.Vertex{ID: v.ID, Properties: v.Properties}); err != nil {
			return nil, fmt.Errorf("vertices[%d]: %w", i, err)
		}
	}

	for i, e := range doc.Edges {
		edge := &graph.Edge{
			ID:         e.ID,
			Label:      e.Label,
			From:       e.From,
			To:         e.To,
			Properties: e.Properties,
		}
		if err := g.AddEdge(edge); err != nil {
			return nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
	}

	return g, nil
}
