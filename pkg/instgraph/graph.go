package instgraph

import (
	"fmt"
	"iter"
	"math"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// graphIDs hands out graph identities. Zero is never assigned, so the zero
// NodeIdx and EdgeIdx are foreign to every graph.
var graphIDs atomic.Uint32

// NodeIdx is an opaque handle to a node, bound to the graph that minted it.
type NodeIdx struct {
	graph uint32
	idx   uint32
}

// Index returns the dense 0-based position of the node in its graph.
func (n NodeIdx) Index() int { return int(n.idx) }

func (n NodeIdx) String() string { return fmt.Sprintf("n%d", n.idx) }

// EdgeIdx is an opaque handle to an edge, bound to the graph that minted it.
type EdgeIdx struct {
	graph uint32
	idx   uint32
}

// Index returns the dense 0-based position of the edge in its graph.
func (e EdgeIdx) Index() int { return int(e.idx) }

func (e EdgeIdx) String() string { return fmt.Sprintf("e%d", e.idx) }

// Depth is a shortest/longest distance pair counted in edges.
// Min <= Max always holds for depths stored in a Graph.
type Depth struct {
	Min uint32
	Max uint32
}

// Generation is the optional solver generation counter of a node.
type Generation struct {
	Value uint32
	Valid bool
}

// Node is a vertex of the instantiation graph.
//
// FwdDepth is the distance to a root (a node without parents) and BwdDepth
// the distance to a leaf. Both are supplied by the trace ingester or
// computed once when the graph is built; the engine only reads them.
type Node struct {
	Kind       NodeKind
	Cost       float64
	FwdDepth   Depth
	BwdDepth   Depth
	Generation Generation
}

// Edge is a directed causal dependency From → To.
type Edge struct {
	Kind EdgeKind
	From NodeIdx
	To   NodeIdx
}

// Direction selects edge orientation for neighbour queries and walks.
type Direction uint8

const (
	// Outgoing follows edges from a node to its children.
	Outgoing Direction = iota
	// Incoming follows edges from a node to its parents.
	Incoming
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction { return d ^ 1 }

func (d Direction) String() string {
	if d == Incoming {
		return "in"
	}
	return "out"
}

// Graph is the instantiation dependency graph of one analysis session.
//
// Nodes and edges are append-only: indices are assigned once and stay valid
// for the lifetime of the graph. Each node carries two independent
// visibility bits, filter-hidden and disabler-hidden, kept in parallel
// bit-vectors; effective visibility is derived on read by [Graph.Visible].
//
// The zero value is not usable - use New.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	id    uint32
	nodes []Node
	edges []Edge
	out   [][]uint32 // node -> outgoing edge indices
	in    [][]uint32 // node -> incoming edge indices

	filterHidden   bitset.BitSet
	disablerHidden bitset.BitSet
}

// New creates an empty graph with a fresh identity.
func New() *Graph {
	return &Graph{id: graphIDs.Add(1)}
}

// AddNode appends a node and returns its handle.
// Returns ErrNegativeCost or ErrInvalidDepth for malformed metrics.
func (g *Graph) AddNode(n Node) (NodeIdx, error) {
	if n.Cost < 0 || math.IsNaN(n.Cost) || math.IsInf(n.Cost, 0) {
		return NodeIdx{}, ErrNegativeCost
	}
	if n.FwdDepth.Min > n.FwdDepth.Max || n.BwdDepth.Min > n.BwdDepth.Max {
		return NodeIdx{}, ErrInvalidDepth
	}
	g.nodes = append(g.nodes, n)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return g.node(uint32(len(g.nodes) - 1)), nil
}

// AddEdge appends a directed edge between two nodes of this graph.
// Returns ErrForeignHandle if either endpoint was minted by another graph.
// Parallel edges are allowed.
func (g *Graph) AddEdge(e Edge) (EdgeIdx, error) {
	if err := g.check(e.From); err != nil {
		return EdgeIdx{}, fmt.Errorf("from: %w", err)
	}
	if err := g.check(e.To); err != nil {
		return EdgeIdx{}, fmt.Errorf("to: %w", err)
	}
	idx := uint32(len(g.edges))
	g.edges = append(g.edges, e)
	g.out[e.From.idx] = append(g.out[e.From.idx], idx)
	g.in[e.To.idx] = append(g.in[e.To.idx], idx)
	return EdgeIdx{graph: g.id, idx: idx}, nil
}

// SetDepths overwrites both depth metrics of a node. It is meant for graph
// construction when the ingester did not supply depths.
func (g *Graph) SetDepths(n NodeIdx, fwd, bwd Depth) error {
	if err := g.check(n); err != nil {
		return err
	}
	if fwd.Min > fwd.Max || bwd.Min > bwd.Max {
		return ErrInvalidDepth
	}
	g.nodes[n.idx].FwdDepth = fwd
	g.nodes[n.idx].BwdDepth = bwd
	return nil
}

func (g *Graph) node(i uint32) NodeIdx { return NodeIdx{graph: g.id, idx: i} }

// check verifies that n was minted by g and is in range.
func (g *Graph) check(n NodeIdx) error {
	if n.graph != g.id {
		return ErrForeignHandle
	}
	if int(n.idx) >= len(g.nodes) {
		return ErrOutOfRange
	}
	return nil
}

// Check returns nil if n is a valid handle for g.
func (g *Graph) Check(n NodeIdx) error { return g.check(n) }

// NodeAt returns the handle of the node at raw position i.
func (g *Graph) NodeAt(i int) (NodeIdx, error) {
	if i < 0 || i >= len(g.nodes) {
		return NodeIdx{}, fmt.Errorf("node %d: %w", i, ErrOutOfRange)
	}
	return g.node(uint32(i)), nil
}

// EdgeAt returns the handle of the edge at raw position i.
func (g *Graph) EdgeAt(i int) (EdgeIdx, error) {
	if i < 0 || i >= len(g.edges) {
		return EdgeIdx{}, fmt.Errorf("edge %d: %w", i, ErrOutOfRange)
	}
	return EdgeIdx{graph: g.id, idx: uint32(i)}, nil
}

// Node returns the node for n, or false if n is not a handle of this graph.
// The returned pointer refers to graph storage and must not be modified.
func (g *Graph) Node(n NodeIdx) (*Node, bool) {
	if g.check(n) != nil {
		return nil, false
	}
	return &g.nodes[n.idx], true
}

// Edge returns the edge for e, or false if e is not a handle of this graph.
func (g *Graph) Edge(e EdgeIdx) (Edge, bool) {
	if e.graph != g.id || int(e.idx) >= len(g.edges) {
		return Edge{}, false
	}
	return g.edges[e.idx], true
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes iterates over all nodes in index order.
func (g *Graph) Nodes() iter.Seq2[NodeIdx, *Node] {
	return func(yield func(NodeIdx, *Node) bool) {
		for i := range g.nodes {
			if !yield(g.node(uint32(i)), &g.nodes[i]) {
				return
			}
		}
	}
}

// Edges iterates over all edges in index order.
func (g *Graph) Edges() iter.Seq2[EdgeIdx, Edge] {
	return func(yield func(EdgeIdx, Edge) bool) {
		for i, e := range g.edges {
			if !yield(EdgeIdx{graph: g.id, idx: uint32(i)}, e) {
				return
			}
		}
	}
}

// OutDegree returns the number of outgoing edges of n, or 0 for an
// invalid handle.
func (g *Graph) OutDegree(n NodeIdx) int {
	if g.check(n) != nil {
		return 0
	}
	return len(g.out[n.idx])
}

// InDegree returns the number of incoming edges of n, or 0 for an invalid
// handle.
func (g *Graph) InDegree(n NodeIdx) int {
	if g.check(n) != nil {
		return 0
	}
	return len(g.in[n.idx])
}

// EdgesOf returns the handles of the edges leaving (Outgoing) or entering
// (Incoming) n, in insertion order.
func (g *Graph) EdgesOf(n NodeIdx, dir Direction) ([]EdgeIdx, error) {
	if err := g.check(n); err != nil {
		return nil, err
	}
	adj := g.adjacent(n.idx, dir)
	out := make([]EdgeIdx, len(adj))
	for i, e := range adj {
		out[i] = EdgeIdx{graph: g.id, idx: e}
	}
	return out, nil
}

// Neighbors returns the nodes one edge away from n in the given direction,
// one entry per edge (parallel edges repeat a neighbour).
func (g *Graph) Neighbors(n NodeIdx, dir Direction) ([]NodeIdx, error) {
	if err := g.check(n); err != nil {
		return nil, err
	}
	adj := g.adjacent(n.idx, dir)
	out := make([]NodeIdx, len(adj))
	for i, e := range adj {
		out[i] = g.node(g.endpoint(e, dir))
	}
	return out, nil
}

// Children returns the targets of n's outgoing edges.
func (g *Graph) Children(n NodeIdx) ([]NodeIdx, error) { return g.Neighbors(n, Outgoing) }

// Parents returns the sources of n's incoming edges.
func (g *Graph) Parents(n NodeIdx) ([]NodeIdx, error) { return g.Neighbors(n, Incoming) }

func (g *Graph) adjacent(i uint32, dir Direction) []uint32 {
	if dir == Incoming {
		return g.in[i]
	}
	return g.out[i]
}

// endpoint returns the far end of edge e when followed in direction dir.
func (g *Graph) endpoint(e uint32, dir Direction) uint32 {
	if dir == Incoming {
		return g.edges[e].From.idx
	}
	return g.edges[e].To.idx
}

// Walk returns every node reachable from start by following edges in dir,
// in depth-first preorder, starting with start itself.
func (g *Graph) Walk(start NodeIdx, dir Direction) ([]NodeIdx, error) {
	if err := g.check(start); err != nil {
		return nil, err
	}
	var visited bitset.BitSet
	var order []NodeIdx
	g.walk([]uint32{start.idx}, dir, &visited, func(i uint32) { order = append(order, g.node(i)) })
	return order, nil
}

// walk runs an iterative DFS from roots, skipping nodes already in visited.
func (g *Graph) walk(roots []uint32, dir Direction, visited *bitset.BitSet, visit func(uint32)) {
	stack := append([]uint32(nil), roots...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Test(uint(cur)) {
			continue
		}
		visited.Set(uint(cur))
		visit(cur)
		adj := g.adjacent(cur, dir)
		for k := len(adj) - 1; k >= 0; k-- {
			if next := g.endpoint(adj[k], dir); !visited.Test(uint(next)) {
				stack = append(stack, next)
			}
		}
	}
}
