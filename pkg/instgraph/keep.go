package instgraph

import (
	"cmp"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// KeepOptions tunes [Graph.KeepFirstNCost].
type KeepOptions struct {
	// Only restricts the candidates to nodes matching the predicate.
	// Nodes that are not candidates are never hidden by the call.
	// A nil predicate makes every node a candidate.
	Only func(NodeIdx, *Node) bool

	// RetainAncestors exempts every ancestor of a kept node from hiding,
	// so the causal chains leading to the costliest nodes stay intact.
	RetainAncestors bool
}

// byPriority orders nodes by cost descending, then index ascending.
func (g *Graph) byPriority(a, b uint32) int {
	if c := cmp.Compare(g.nodes[b].Cost, g.nodes[a].Cost); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// KeepFirstNCost keeps the n costliest candidates that are currently visible
// and hides the remaining candidates. Ties are broken by lower index.
// Hidden nodes, whether by a filter or a disabler, are not candidates and
// their bits are left untouched.
func (g *Graph) KeepFirstNCost(n int, opts KeepOptions) {
	var candidates []uint32
	for i := range g.nodes {
		if !g.visible(uint32(i)) {
			continue
		}
		if opts.Only != nil && !opts.Only(g.node(uint32(i)), &g.nodes[i]) {
			continue
		}
		candidates = append(candidates, uint32(i))
	}
	if n < 0 {
		n = 0
	}
	if len(candidates) <= n && !opts.RetainAncestors {
		return
	}
	slices.SortFunc(candidates, g.byPriority)

	kept := candidates[:min(n, len(candidates))]
	var keep bitset.BitSet
	if opts.RetainAncestors {
		g.walk(kept, Incoming, &keep, func(uint32) {})
	} else {
		for _, i := range kept {
			keep.Set(uint(i))
		}
	}
	for _, i := range candidates[len(kept):] {
		if !keep.Test(uint(i)) {
			g.filterHidden.Set(uint(i))
		}
	}
}

// KeepFirstNChildren bounds the branching factor of the visible graph.
// Parents are processed in index order; for each parent that is not
// filter-hidden and has more than n filter-visible children, the children with the
// lowest priority (cost descending, index ascending) beyond the first n are
// hidden. A child reached by parallel edges counts once.
func (g *Graph) KeepFirstNChildren(n int) {
	if n < 0 {
		n = 0
	}
	var seen bitset.BitSet
	children := make([]uint32, 0, 8)
	for p := range g.nodes {
		if g.filterHidden.Test(uint(p)) {
			continue
		}
		children = children[:0]
		for _, e := range g.out[p] {
			c := g.edges[e].To.idx
			if g.filterHidden.Test(uint(c)) || seen.Test(uint(c)) {
				continue
			}
			seen.Set(uint(c))
			children = append(children, c)
		}
		for _, c := range children {
			seen.Clear(uint(c))
		}
		if len(children) <= n {
			continue
		}
		slices.SortFunc(children, g.byPriority)
		for _, c := range children[n:] {
			g.filterHidden.Set(uint(c))
		}
	}
}
