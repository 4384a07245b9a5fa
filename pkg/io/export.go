package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// Document is the JSON form of a view.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one visible node.
type Node struct {
	ID      int    `json:"id"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Summary string `json:"summary,omitempty"`
	Cost    string `json:"cost"`
}

// Edge is one visible edge.
type Edge struct {
	From    int    `json:"from"`
	To      int    `json:"to"`
	Kind    string `json:"kind"`
	Hops    int    `json:"hops"`
	Through []int  `json:"through,omitempty"`
}

// NewDocument collects the visible nodes and edges of g.
func NewDocument(tr *trace.Trace, g *instgraph.Graph) Document {
	visible := g.VisibleNodes()
	doc := Document{Nodes: make([]Node, 0, len(visible))}
	for _, n := range visible {
		info, _ := analysis.DescribeNode(tr, g, n)
		doc.Nodes = append(doc.Nodes, Node{
			ID:      n.Index(),
			Label:   info.Index,
			Kind:    info.Kind,
			Summary: info.Summary,
			Cost:    info.Cost,
		})
	}
	edges := g.VisibleEdges()
	doc.Edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		info := analysis.DescribeEdge(tr, g, e)
		doc.Edges = append(doc.Edges, Edge{
			From:    e.From.Index(),
			To:      e.To.Index(),
			Kind:    info.Kind,
			Hops:    info.Hops,
			Through: info.Through,
		})
	}
	return doc
}

// WriteJSON encodes the visible part of g as JSON and writes it to w.
// The output can be read back with [ReadJSON].
func WriteJSON(tr *trace.Trace, g *instgraph.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(tr, g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes the visible part of g to a JSON file at path.
func ExportJSON(tr *trace.Trace, g *instgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(tr, g, f)
}
