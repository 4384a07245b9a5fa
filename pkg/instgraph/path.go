package instgraph

// LongestPathThrough returns the longest root-to-leaf walk passing through
// n, ordered from root to leaf.
//
// The walk is read off the precomputed depths instead of searching the
// graph: going up, each step takes the parent whose FwdDepth.Max is one less
// than the current node's; going down, each step takes the child whose
// BwdDepth.Max is one less. Ties go to the lowest index. The walk ignores
// visibility and stops early if the depths are inconsistent with the edges.
func (g *Graph) LongestPathThrough(n NodeIdx) ([]NodeIdx, error) {
	if err := g.check(n); err != nil {
		return nil, err
	}

	var up []uint32
	for cur := n.idx; g.nodes[cur].FwdDepth.Max > 0; {
		next, ok := g.step(cur, Incoming, func(nd *Node) uint32 { return nd.FwdDepth.Max })
		if !ok {
			break
		}
		up = append(up, next)
		cur = next
	}

	path := make([]NodeIdx, 0, len(up)+1+int(g.nodes[n.idx].BwdDepth.Max))
	for k := len(up) - 1; k >= 0; k-- {
		path = append(path, g.node(up[k]))
	}
	path = append(path, n)

	for cur := n.idx; g.nodes[cur].BwdDepth.Max > 0; {
		next, ok := g.step(cur, Outgoing, func(nd *Node) uint32 { return nd.BwdDepth.Max })
		if !ok {
			break
		}
		path = append(path, g.node(next))
		cur = next
	}
	return path, nil
}

// step finds the lowest-index neighbour of cur in dir whose depth (as
// selected by depth) is exactly one less than cur's.
func (g *Graph) step(cur uint32, dir Direction, depth func(*Node) uint32) (uint32, bool) {
	want := depth(&g.nodes[cur]) - 1
	best, found := uint32(0), false
	for _, e := range g.adjacent(cur, dir) {
		nb := g.endpoint(e, dir)
		if depth(&g.nodes[nb]) == want && (!found || nb < best) {
			best, found = nb, true
		}
	}
	return best, found
}
