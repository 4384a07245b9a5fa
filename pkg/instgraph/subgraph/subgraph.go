// Package subgraph computes reachability inside one weakly-connected
// component of an instantiation graph.
//
// A [Subgraph] ranks the component in topological order and stores, for
// every rank, the set of ranks reachable from it as a roaring bitmap.
// Building one never modifies the graph.
package subgraph

import (
	"errors"
	"iter"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

var (
	// ErrCycle is returned when the component contains a directed cycle, so
	// some vertices can never be ordered.
	ErrCycle = errors.New("component contains a cycle")

	// ErrNoSource is returned when no vertex of the component is free of
	// incoming edges.
	ErrNoSource = errors.New("component has no source vertex")
)

const unranked = ^uint32(0)

// Subgraph is the ranked weakly-connected component containing a root node
// together with its transitive closure. Ranks are dense, start at zero, and
// respect edge direction: every edge goes from a lower to a higher rank.
type Subgraph struct {
	nodes   []instgraph.NodeIdx // rank -> node
	rank    map[int]uint32      // node index -> rank
	closure []*roaring.Bitmap   // rank -> reachable ranks, including itself
}

// New builds the subgraph of the component containing root. visit, if not
// nil, is called once per vertex with its rank, in rank order.
//
// Returns ErrNoSource if the component has no vertex without parents and
// ErrCycle if a cycle keeps part of it from being ordered. In both cases
// visit may already have been called for some vertices.
func New(g *instgraph.Graph, root instgraph.NodeIdx, visit func(instgraph.NodeIdx, uint32)) (*Subgraph, error) {
	if err := g.Check(root); err != nil {
		return nil, err
	}

	component, sources := weakComponent(g, root)
	if len(sources) == 0 {
		return nil, ErrNoSource
	}

	s := &Subgraph{
		nodes: make([]instgraph.NodeIdx, 0, len(component)),
		rank:  make(map[int]uint32, len(component)),
	}

	// Stack-based topological walk seeded only from the local sources. A
	// vertex is pushed once its last incoming edge has been consumed.
	pending := make(map[int]int, len(component))
	for _, n := range component {
		pending[n.Index()] = g.InDegree(n)
	}
	stack := make([]instgraph.NodeIdx, 0, len(sources))
	for k := len(sources) - 1; k >= 0; k-- {
		stack = append(stack, sources[k])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r := uint32(len(s.nodes))
		s.nodes = append(s.nodes, n)
		s.rank[n.Index()] = r
		if visit != nil {
			visit(n, r)
		}

		children, _ := g.Children(n)
		for k := len(children) - 1; k >= 0; k-- {
			c := children[k].Index()
			pending[c]--
			if pending[c] == 0 {
				stack = append(stack, children[k])
			}
		}
	}
	if len(s.nodes) != len(component) {
		return nil, ErrCycle
	}

	s.buildClosure(g)
	return s, nil
}

// weakComponent collects the vertices connected to root ignoring edge
// direction, in DFS order, plus those without incoming edges. The undirected
// adjacency is built from one scan of the edge list.
func weakComponent(g *instgraph.Graph, root instgraph.NodeIdx) (component, sources []instgraph.NodeIdx) {
	undirected := make([][]instgraph.NodeIdx, g.NodeCount())
	for _, e := range g.Edges() {
		undirected[e.From.Index()] = append(undirected[e.From.Index()], e.To)
		undirected[e.To.Index()] = append(undirected[e.To.Index()], e.From)
	}

	seen := make([]bool, g.NodeCount())
	stack := []instgraph.NodeIdx{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n.Index()] {
			continue
		}
		seen[n.Index()] = true
		component = append(component, n)
		if g.InDegree(n) == 0 {
			sources = append(sources, n)
		}
		adj := undirected[n.Index()]
		for k := len(adj) - 1; k >= 0; k-- {
			if !seen[adj[k].Index()] {
				stack = append(stack, adj[k])
			}
		}
	}
	return component, sources
}

// buildClosure walks the ranks in reverse: each rank's set gains itself and
// is then merged into every direct predecessor, whose rank is lower.
func (s *Subgraph) buildClosure(g *instgraph.Graph) {
	s.closure = make([]*roaring.Bitmap, len(s.nodes))
	for r := range s.closure {
		s.closure[r] = roaring.New()
	}
	for r := len(s.nodes) - 1; r >= 0; r-- {
		cur := s.closure[r]
		cur.Add(uint32(r))
		parents, _ := g.Parents(s.nodes[r])
		for _, p := range parents {
			s.closure[s.rank[p.Index()]].Or(cur)
		}
	}
	for _, bm := range s.closure {
		bm.RunOptimize()
	}
}

// Len returns the number of vertices in the component.
func (s *Subgraph) Len() int { return len(s.nodes) }

// Node returns the vertex with the given rank.
func (s *Subgraph) Node(rank uint32) (instgraph.NodeIdx, bool) {
	if int(rank) >= len(s.nodes) {
		return instgraph.NodeIdx{}, false
	}
	return s.nodes[rank], true
}

// Rank returns the rank of n, or false if n is outside the component.
func (s *Subgraph) Rank(n instgraph.NodeIdx) (uint32, bool) {
	r, ok := s.rank[n.Index()]
	if !ok || s.nodes[r] != n {
		return unranked, false
	}
	return r, true
}

// Nodes returns the vertices in rank order. The slice must not be modified.
func (s *Subgraph) Nodes() []instgraph.NodeIdx { return s.nodes }

// InClosure reports whether rank to is reachable from rank from. Every rank
// reaches itself. Out-of-range ranks reach nothing.
func (s *Subgraph) InClosure(from, to uint32) bool {
	if int(from) >= len(s.closure) {
		return false
	}
	return s.closure[from].Contains(to)
}

// ReachableFrom yields the ranks reachable from rank from in ascending
// order, starting with from itself. The sequence can be iterated any number
// of times.
func (s *Subgraph) ReachableFrom(from uint32) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		if int(from) >= len(s.closure) {
			return
		}
		it := s.closure[from].Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ReachableFromMany returns the union of the ranks reachable from each of
// the given ranks. Out-of-range ranks are ignored.
func (s *Subgraph) ReachableFromMany(from []uint32) *roaring.Bitmap {
	sets := make([]*roaring.Bitmap, 0, len(from))
	for _, r := range from {
		if int(r) < len(s.closure) {
			sets = append(sets, s.closure[r])
		}
	}
	if len(sets) == 0 {
		return roaring.New()
	}
	return roaring.FastOr(sets...)
}
