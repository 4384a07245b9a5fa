package analysis

import (
	"fmt"

	"github.com/kiranandcode/axiom-profiler-2/pkg/errors"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// Build constructs the instantiation graph described by tr. Node and edge
// indices match the positions in tr.Nodes and tr.Edges.
//
// When the trace does not carry depths for every node, Build computes them
// in one topological pass; a cycle then fails the build with an
// [errors.ErrCodeGraphShape] error.
func Build(tr *trace.Trace) (*instgraph.Graph, error) {
	g := instgraph.New()
	withDepths := tr.HasDepths()

	for i, nf := range tr.Nodes {
		kind, err := instgraph.ParseNodeKind(nf.Kind, nf.Ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "node %d", i)
		}
		node := instgraph.Node{Kind: kind, Cost: nf.Cost}
		if withDepths {
			node.FwdDepth = instgraph.Depth{Min: nf.FwdDepth.Min, Max: nf.FwdDepth.Max}
			node.BwdDepth = instgraph.Depth{Min: nf.BwdDepth.Min, Max: nf.BwdDepth.Max}
		}
		if inst, ok := kind.Instantiation(); ok {
			if fact, ok := tr.Instantiation(inst); ok && fact.Generation != nil {
				node.Generation = instgraph.Generation{Value: *fact.Generation, Valid: true}
			}
		}
		if _, err := g.AddNode(node); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "node %d", i)
		}
	}

	for i, ef := range tr.Edges {
		kind, err := instgraph.ParseEdgeKind(ef.Kind, ef.Trigger)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "edge %d", i)
		}
		from, err := g.NodeAt(int(ef.From))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "edge %d source", i)
		}
		to, err := g.NodeAt(int(ef.To))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTrace, err, "edge %d target", i)
		}
		if _, err := g.AddEdge(instgraph.Edge{Kind: kind, From: from, To: to}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "edge %d", i)
		}
	}

	if !withDepths {
		if err := computeDepths(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// computeDepths fills FwdDepth and BwdDepth of every node from one
// topological order of the whole graph. Nodes left unordered are on or below
// a cycle.
func computeDepths(g *instgraph.Graph) error {
	count := g.NodeCount()
	fwd := make([]instgraph.Depth, count)
	bwd := make([]instgraph.Depth, count)

	indeg := make([]int, count)
	order := make([]instgraph.NodeIdx, 0, count)
	for n := range g.Nodes() {
		indeg[n.Index()] = g.InDegree(n)
		if indeg[n.Index()] == 0 {
			order = append(order, n)
		}
	}
	for k := 0; k < len(order); k++ {
		n := order[k]
		parents, _ := g.Parents(n)
		fwd[n.Index()] = extend(parents, fwd)
		children, _ := g.Children(n)
		for _, c := range children {
			indeg[c.Index()]--
			if indeg[c.Index()] == 0 {
				order = append(order, c)
			}
		}
	}
	if len(order) < count {
		for n := range g.Nodes() {
			if indeg[n.Index()] > 0 {
				return errors.New(errors.ErrCodeGraphShape, "compute depths: %s is on or below a cycle", n)
			}
		}
	}

	for k := len(order) - 1; k >= 0; k-- {
		n := order[k]
		children, _ := g.Children(n)
		bwd[n.Index()] = extend(children, bwd)
	}

	for n := range g.Nodes() {
		if err := g.SetDepths(n, fwd[n.Index()], bwd[n.Index()]); err != nil {
			return fmt.Errorf("set depths of %s: %w", n, err)
		}
	}
	return nil
}

// extend derives a node's depth from the already-known depths of its
// neighbours on one side. Nodes without neighbours there have depth zero.
func extend(neighbours []instgraph.NodeIdx, known []instgraph.Depth) instgraph.Depth {
	if len(neighbours) == 0 {
		return instgraph.Depth{}
	}
	d := instgraph.Depth{Min: ^uint32(0)}
	for _, nb := range neighbours {
		k := known[nb.Index()]
		d.Min = min(d.Min, k.Min+1)
		d.Max = max(d.Max, k.Max+1)
	}
	return d
}
