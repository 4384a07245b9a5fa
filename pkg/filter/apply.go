package filter

import (
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// Resolver looks up the trace entities that node kinds refer to.
// *trace.Trace implements it. Lookups of missing entities return false.
type Resolver interface {
	Instantiation(trace.InstIdx) (*trace.Instantiation, bool)
	Quantifier(trace.QuantIdx) (*trace.Quantifier, bool)
}

// OutputKind discriminates [Output].
type OutputKind uint8

const (
	// OutputNone means the filter only changed visibility.
	OutputNone OutputKind = iota
	// OutputLongestPath carries the path computed by ShowLongestPath.
	OutputLongestPath
	// OutputMatchingLoopTerms carries generalized matching-loop terms.
	OutputMatchingLoopTerms
	// OutputUnavailable is returned by reserved filters.
	OutputUnavailable
)

func (k OutputKind) String() string {
	switch k {
	case OutputLongestPath:
		return "longest-path"
	case OutputMatchingLoopTerms:
		return "matching-loop-terms"
	case OutputUnavailable:
		return "unavailable"
	}
	return "none"
}

// Output is the side result of applying a filter.
type Output struct {
	Kind              OutputKind
	LongestPath       []instgraph.NodeIdx
	MatchingLoopTerms []string
}

// Apply runs f against g. It fails only when f is anchored to a node that
// is not a handle of g; the graph is then left unchanged.
//
// Predicates that need trace facts read them through facts. A node whose
// instantiation or quantifier cannot be resolved never matches.
func (f Filter) Apply(g *instgraph.Graph, facts Resolver) (Output, error) {
	if f.anchored() {
		if err := g.Check(f.node); err != nil {
			return Output{}, err
		}
	}

	switch f.kind {
	case KindMaxNodeIdx:
		g.SetVisibilityWhen(true, func(n instgraph.NodeIdx, _ *instgraph.Node) bool { return n.Index() >= f.n })
	case KindMinNodeIdx:
		g.SetVisibilityWhen(true, func(n instgraph.NodeIdx, _ *instgraph.Node) bool { return n.Index() < f.n })
	case KindIgnoreTheorySolving:
		g.SetVisibilityWhen(true, instMatches(facts, (*trace.Instantiation).IsTheorySolving))
	case KindIgnoreQuantifier:
		g.SetVisibilityWhen(true, instMatches(facts, func(inst *trace.Instantiation) bool {
			q, ok := inst.QuantIdx()
			return ok == f.hasQuant && q == f.quant
		}))
	case KindIgnoreAllButQuantifier:
		g.SetVisibilityWhen(true, instMatches(facts, func(inst *trace.Instantiation) bool {
			q, ok := inst.QuantIdx()
			return ok != f.hasQuant || q != f.quant
		}))
	case KindMaxInsts:
		g.KeepFirstNCost(f.n, instgraph.KeepOptions{Only: isInstantiation, RetainAncestors: f.flag})
	case KindMaxBranching:
		g.KeepFirstNChildren(f.n)
	case KindShowNeighbours:
		nodes, _ := g.Neighbors(f.node, f.dir)
		_ = g.SetVisibilityMany(false, nodes)
	case KindVisitSourceTree:
		visit(g, f.node, instgraph.Incoming, f.flag)
	case KindVisitSubTreeWithRoot:
		visit(g, f.node, instgraph.Outgoing, f.flag)
	case KindMaxDepth:
		g.SetVisibilityWhen(true, func(_ instgraph.NodeIdx, n *instgraph.Node) bool { return int(n.FwdDepth.Min) > f.n })
	case KindShowLongestPath:
		path, _ := g.LongestPathThrough(f.node)
		return Output{Kind: OutputLongestPath, LongestPath: path}, nil
	case KindShowNamedQuantifier:
		g.SetVisibilityWhen(false, instMatches(facts, func(inst *trace.Instantiation) bool {
			q, ok := inst.QuantIdx()
			if !ok {
				return false
			}
			quant, ok := facts.Quantifier(q)
			return ok && quant.DisplayName() == f.quantName
		}))
	case KindSelectNthMatchingLoop, KindShowMatchingLoopSubgraph:
		return Output{Kind: OutputUnavailable}, nil
	}
	return Output{}, nil
}

func isInstantiation(_ instgraph.NodeIdx, n *instgraph.Node) bool {
	return n.Kind.Tag() == instgraph.TagInstantiation
}

// instMatches lifts a predicate over instantiations to one over nodes.
// Non-instantiation nodes and dangling references do not match.
func instMatches(facts Resolver, pred func(*trace.Instantiation) bool) func(instgraph.NodeIdx, *instgraph.Node) bool {
	return func(_ instgraph.NodeIdx, n *instgraph.Node) bool {
		i, ok := n.Kind.Instantiation()
		if !ok || facts == nil {
			return false
		}
		inst, ok := facts.Instantiation(i)
		return ok && pred(inst)
	}
}

// visit selects root and every node reachable from it in dir. With retain
// set the selection becomes exactly the filter-visible set, otherwise the
// selection is hidden and the rest is left alone.
func visit(g *instgraph.Graph, root instgraph.NodeIdx, dir instgraph.Direction, retain bool) {
	nodes, _ := g.Walk(root, dir)
	if !retain {
		_ = g.SetVisibilityMany(true, nodes)
		return
	}
	selected := make(map[instgraph.NodeIdx]struct{}, len(nodes))
	for _, n := range nodes {
		selected[n] = struct{}{}
	}
	g.SetVisibilityWhen(false, func(n instgraph.NodeIdx, _ *instgraph.Node) bool {
		_, ok := selected[n]
		return ok
	})
}
