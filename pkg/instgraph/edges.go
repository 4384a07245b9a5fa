package instgraph

import "github.com/bits-and-blooms/bitset"

// VisibleEdge is an edge of the effective visible graph.
//
// A direct edge has a Path of one stored edge. An indirect edge bridges a
// run of hidden nodes: Path lists the stored edges from From to To, and every
// node strictly inside the path is hidden.
type VisibleEdge struct {
	From NodeIdx
	To   NodeIdx
	Path []EdgeIdx
}

// Indirect reports whether the edge crosses hidden nodes.
func (e VisibleEdge) Indirect() bool { return len(e.Path) > 1 }

// VisibleEdges returns the edges of the graph induced by effective
// visibility, sources in index order.
//
// Every stored edge between two visible nodes is reported as is, so parallel
// edges stay parallel. Paths that leave a visible node, run through hidden
// nodes only, and arrive at a visible node are collapsed into one indirect
// edge per (From, To) pair, keeping the first path found in depth-first
// edge order.
func (g *Graph) VisibleEdges() []VisibleEdge {
	var out []VisibleEdge
	var seenHidden, seenTarget bitset.BitSet

	type frame struct {
		node uint32
		path []EdgeIdx
	}
	for u := range g.nodes {
		if !g.visible(uint32(u)) {
			continue
		}
		from := g.node(uint32(u))
		for _, e := range g.out[u] {
			if w := g.edges[e].To.idx; g.visible(w) {
				out = append(out, VisibleEdge{From: from, To: g.node(w), Path: []EdgeIdx{{g.id, e}}})
			}
		}

		seenHidden.ClearAll()
		seenTarget.ClearAll()
		var stack []frame
		pushHidden := func(cur uint32, path []EdgeIdx) {
			adj := g.out[cur]
			for k := len(adj) - 1; k >= 0; k-- {
				e := adj[k]
				w := g.edges[e].To.idx
				if g.visible(w) && cur == uint32(u) {
					continue // direct edge, already reported
				}
				if !g.visible(w) && seenHidden.Test(uint(w)) {
					continue
				}
				next := make([]EdgeIdx, len(path), len(path)+1)
				copy(next, path)
				stack = append(stack, frame{w, append(next, EdgeIdx{g.id, e})})
			}
		}
		pushHidden(uint32(u), nil)
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if g.visible(f.node) {
				if !seenTarget.Test(uint(f.node)) {
					seenTarget.Set(uint(f.node))
					out = append(out, VisibleEdge{From: from, To: g.node(f.node), Path: f.path})
				}
				continue
			}
			if seenHidden.Test(uint(f.node)) {
				continue
			}
			seenHidden.Set(uint(f.node))
			pushHidden(f.node, f.path)
		}
	}
	return out
}

// Ancestors returns every node from which n is reachable, excluding n
// itself, in depth-first preorder over incoming edges.
func (g *Graph) Ancestors(n NodeIdx) ([]NodeIdx, error) {
	order, err := g.Walk(n, Incoming)
	if err != nil {
		return nil, err
	}
	return order[1:], nil
}

// CountByTag returns the number of nodes of each variant, indexed by
// [NodeTag].
func (g *Graph) CountByTag() [NumNodeTags]int {
	var counts [NumNodeTags]int
	for i := range g.nodes {
		counts[g.nodes[i].Kind.tag]++
	}
	return counts
}
