package instgraph

// Visible reports the effective visibility of n: neither filter-hidden nor
// disabler-hidden. Invalid handles are never visible.
func (g *Graph) Visible(n NodeIdx) bool {
	if g.check(n) != nil {
		return false
	}
	return g.visible(n.idx)
}

func (g *Graph) visible(i uint32) bool {
	return !g.filterHidden.Test(uint(i)) && !g.disablerHidden.Test(uint(i))
}

// FilterHidden reports whether the filter pipeline hid n.
func (g *Graph) FilterHidden(n NodeIdx) bool {
	return g.check(n) == nil && g.filterHidden.Test(uint(n.idx))
}

// DisablerHidden reports whether the disabler pass hid n.
func (g *Graph) DisablerHidden(n NodeIdx) bool {
	return g.check(n) == nil && g.disablerHidden.Test(uint(n.idx))
}

// ResetVisibility clears the filter-hidden bit of every node. The
// disabler-hidden bits are left alone.
func (g *Graph) ResetVisibility() {
	g.filterHidden.ClearAll()
}

// SetVisibilityWhen re-evaluates the filter-hidden bit of every node: when
// pred holds the bit becomes hideWhenTrue, otherwise its complement.
//
// With hideWhenTrue set this hides everything matching pred and reveals the
// rest; with it cleared it keeps only the matching nodes. No earlier state
// survives the call, so the last call wins. pred must be pure.
func (g *Graph) SetVisibilityWhen(hideWhenTrue bool, pred func(NodeIdx, *Node) bool) {
	for i := range g.nodes {
		hit := pred(g.node(uint32(i)), &g.nodes[i])
		g.filterHidden.SetTo(uint(i), hit == hideWhenTrue)
	}
}

// SetVisibilityMany sets the filter-hidden bit of exactly the given nodes to
// hide and leaves every other node untouched. All handles are checked first;
// on error nothing is changed.
func (g *Graph) SetVisibilityMany(hide bool, nodes []NodeIdx) error {
	for _, n := range nodes {
		if err := g.check(n); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		g.filterHidden.SetTo(uint(n.idx), hide)
	}
	return nil
}

// ResetDisabledTo recomputes the disabler-hidden bit of every node from
// scratch: a node is disabled exactly when pred returns true. The previous
// disabler state is discarded before pred runs, so pred observes only the
// graph structure and filter state.
func (g *Graph) ResetDisabledTo(pred func(NodeIdx, *Graph) bool) {
	g.disablerHidden.ClearAll()
	for i := range g.nodes {
		if pred(g.node(uint32(i)), g) {
			g.disablerHidden.Set(uint(i))
		}
	}
}

// VisibleNodes returns the effectively visible nodes in index order.
func (g *Graph) VisibleNodes() []NodeIdx {
	var out []NodeIdx
	for i := range g.nodes {
		if g.visible(uint32(i)) {
			out = append(out, g.node(uint32(i)))
		}
	}
	return out
}

// VisibleCount returns the number of effectively visible nodes.
func (g *Graph) VisibleCount() int {
	n := 0
	for i := range g.nodes {
		if g.visible(uint32(i)) {
			n++
		}
	}
	return n
}
