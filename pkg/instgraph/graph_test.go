package instgraph

import (
	"errors"
	"slices"
	"testing"

	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// build creates a graph of instantiation nodes with the given costs and
// edges given as [from, to] index pairs.
func build(t *testing.T, costs []float64, edges [][2]int) (*Graph, []NodeIdx) {
	t.Helper()
	g := New()
	nodes := make([]NodeIdx, len(costs))
	for i, c := range costs {
		n, err := g.AddNode(Node{Kind: InstantiationKind(trace.InstIdx(i)), Cost: c})
		if err != nil {
			t.Fatalf("AddNode(%d) error: %v", i, err)
		}
		nodes[i] = n
	}
	for _, e := range edges {
		if _, err := g.AddEdge(Edge{Kind: SimpleEdgeKind(EdgeYield), From: nodes[e[0]], To: nodes[e[1]]}); err != nil {
			t.Fatalf("AddEdge(%v) error: %v", e, err)
		}
	}
	return g, nodes
}

func indices(ns []NodeIdx) []int {
	out := make([]int, len(ns))
	for i, n := range ns {
		out[i] = n.Index()
	}
	return out
}

func TestAddNode_RejectsBadMetrics(t *testing.T) {
	g := New()
	tests := []struct {
		name string
		node Node
		want error
	}{
		{"negative cost", Node{Cost: -1}, ErrNegativeCost},
		{"depth min above max", Node{FwdDepth: Depth{Min: 3, Max: 2}}, ErrInvalidDepth},
		{"bwd depth min above max", Node{BwdDepth: Depth{Min: 1, Max: 0}}, ErrInvalidDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.want)
			}
		})
	}
	if g.NodeCount() != 0 {
		t.Errorf("NodeCount() = %d, want 0", g.NodeCount())
	}
}

func TestForeignHandle(t *testing.T) {
	g1, n1 := build(t, []float64{1}, nil)
	g2, _ := build(t, []float64{1, 2}, nil)

	if _, ok := g2.Node(n1[0]); ok {
		t.Error("Node() accepted a handle from another graph")
	}
	if err := g2.SetVisibilityMany(true, n1); !errors.Is(err, ErrForeignHandle) {
		t.Errorf("SetVisibilityMany() error = %v, want ErrForeignHandle", err)
	}
	if _, err := g2.AddEdge(Edge{From: n1[0], To: n1[0]}); !errors.Is(err, ErrForeignHandle) {
		t.Errorf("AddEdge() error = %v, want ErrForeignHandle", err)
	}
	if g2.Visible(n1[0]) {
		t.Error("Visible() = true for foreign handle")
	}
	if _, err := g1.LongestPathThrough(NodeIdx{}); !errors.Is(err, ErrForeignHandle) {
		t.Errorf("LongestPathThrough(zero) error = %v, want ErrForeignHandle", err)
	}
	if g2.VisibleCount() != 2 {
		t.Errorf("VisibleCount() = %d, want 2", g2.VisibleCount())
	}
}

func TestSetVisibilityMany_AllOrNothing(t *testing.T) {
	g, n := build(t, []float64{1, 2, 3}, nil)
	other, _ := build(t, []float64{1}, nil)
	foreign, _ := other.NodeAt(0)

	if err := g.SetVisibilityMany(true, []NodeIdx{n[0], foreign, n[2]}); err == nil {
		t.Fatal("SetVisibilityMany() succeeded with a foreign handle")
	}
	if g.VisibleCount() != 3 {
		t.Errorf("VisibleCount() = %d, want 3 after failed call", g.VisibleCount())
	}
}

func TestSetVisibilityWhen_LastWins(t *testing.T) {
	g, n := build(t, []float64{1, 2, 3, 4}, nil)

	g.SetVisibilityWhen(true, func(NodeIdx, *Node) bool { return true })
	g.SetVisibilityWhen(true, func(i NodeIdx, _ *Node) bool { return i.Index() >= 2 })

	got := indices(g.VisibleNodes())
	if want := []int{0, 1}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}

	g.SetVisibilityWhen(false, func(i NodeIdx, _ *Node) bool { return i == n[3] })
	got = indices(g.VisibleNodes())
	if want := []int{3}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestVisibility_BitsAreIndependent(t *testing.T) {
	g, n := build(t, []float64{1, 2}, nil)

	g.ResetDisabledTo(func(i NodeIdx, _ *Graph) bool { return i == n[0] })
	g.SetVisibilityWhen(true, func(i NodeIdx, _ *Node) bool { return i == n[1] })

	if g.Visible(n[0]) || g.Visible(n[1]) {
		t.Fatal("both nodes should be hidden")
	}
	if !g.DisablerHidden(n[0]) || g.FilterHidden(n[0]) {
		t.Errorf("n0: disabler=%v filter=%v, want true false", g.DisablerHidden(n[0]), g.FilterHidden(n[0]))
	}

	g.ResetVisibility()
	if g.Visible(n[0]) || !g.Visible(n[1]) {
		t.Errorf("after ResetVisibility: n0=%v n1=%v, want false true", g.Visible(n[0]), g.Visible(n[1]))
	}

	g.ResetDisabledTo(func(NodeIdx, *Graph) bool { return false })
	if !g.Visible(n[0]) {
		t.Error("ResetDisabledTo() kept a stale disabler bit")
	}
}

func TestKeepFirstNCost(t *testing.T) {
	g, _ := build(t, []float64{1, 5, 2, 8, 3}, nil)

	g.KeepFirstNCost(2, KeepOptions{})

	got := indices(g.VisibleNodes())
	if want := []int{1, 3}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestKeepFirstNCost_TiesByLowerIndex(t *testing.T) {
	g, _ := build(t, []float64{4, 4, 4, 4}, nil)

	g.KeepFirstNCost(2, KeepOptions{})

	got := indices(g.VisibleNodes())
	if want := []int{0, 1}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestKeepFirstNCost_SkipsHiddenAndNonCandidates(t *testing.T) {
	g, n := build(t, []float64{9, 1, 5, 2}, nil)
	g.SetVisibilityWhen(true, func(i NodeIdx, _ *Node) bool { return i == n[0] })

	g.KeepFirstNCost(1, KeepOptions{Only: func(i NodeIdx, _ *Node) bool { return i != n[1] }})

	got := indices(g.VisibleNodes())
	if want := []int{1, 2}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestKeepFirstNCost_SkipsDisabled(t *testing.T) {
	g, n := build(t, []float64{9, 1, 5}, nil)
	g.ResetDisabledTo(func(i NodeIdx, _ *Graph) bool { return i == n[0] })

	g.KeepFirstNCost(1, KeepOptions{})

	if got, want := indices(g.VisibleNodes()), []int{2}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
	if g.FilterHidden(n[0]) {
		t.Error("disabled node should not be filter-hidden")
	}
	if !g.FilterHidden(n[1]) {
		t.Error("n1 should be filter-hidden")
	}
}

func TestKeepFirstNCost_RetainAncestors(t *testing.T) {
	// 0 -> 1 -> 3, 2 isolated; only 3 is expensive.
	g, _ := build(t, []float64{1, 1, 2, 10}, [][2]int{{0, 1}, {1, 3}})

	g.KeepFirstNCost(1, KeepOptions{RetainAncestors: true})

	got := indices(g.VisibleNodes())
	if want := []int{0, 1, 3}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestKeepFirstNChildren(t *testing.T) {
	// 0 has children 1..4 with costs 1, 7, 7, 3; 1 -> 2 as well.
	g, _ := build(t, []float64{0, 1, 7, 7, 3}, [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 4}, {1, 2}})

	g.KeepFirstNChildren(2)

	got := indices(g.VisibleNodes())
	if want := []int{0, 2, 3}; !slices.Equal(got, want) {
		t.Errorf("VisibleNodes() = %v, want %v", got, want)
	}
}

func TestLongestPathThrough(t *testing.T) {
	// 0 -> 1 -> 2 -> 3 and 0 -> 3, 4 -> 2.
	g, n := build(t, []float64{1, 1, 1, 1, 1}, [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}, {4, 2}})
	depths := []struct{ fwd, bwd Depth }{
		{Depth{0, 0}, Depth{1, 3}},
		{Depth{1, 1}, Depth{2, 2}},
		{Depth{1, 2}, Depth{1, 1}},
		{Depth{1, 3}, Depth{0, 0}},
		{Depth{0, 0}, Depth{2, 2}},
	}
	for i, d := range depths {
		if err := g.SetDepths(n[i], d.fwd, d.bwd); err != nil {
			t.Fatalf("SetDepths(%d) error: %v", i, err)
		}
	}

	tests := []struct {
		through int
		want    []int
	}{
		{2, []int{0, 1, 2, 3}},
		{4, []int{4, 2, 3}},
		{3, []int{0, 1, 2, 3}},
		{0, []int{0, 1, 2, 3}},
	}
	for _, tt := range tests {
		path, err := g.LongestPathThrough(n[tt.through])
		if err != nil {
			t.Fatalf("LongestPathThrough(%d) error: %v", tt.through, err)
		}
		if got := indices(path); !slices.Equal(got, tt.want) {
			t.Errorf("LongestPathThrough(%d) = %v, want %v", tt.through, got, tt.want)
		}
	}
}

func TestVisibleEdges_BridgesHiddenNodes(t *testing.T) {
	// 0 -> 1 -> 2 -> 3, 0 -> 3; hide 1 and 2.
	g, n := build(t, []float64{1, 1, 1, 1}, [][2]int{{0, 1}, {1, 2}, {2, 3}, {0, 3}})
	if err := g.SetVisibilityMany(true, []NodeIdx{n[1], n[2]}); err != nil {
		t.Fatal(err)
	}

	edges := g.VisibleEdges()
	if len(edges) != 2 {
		t.Fatalf("VisibleEdges() returned %d edges, want 2: %v", len(edges), edges)
	}
	if edges[0].Indirect() || edges[0].From != n[0] || edges[0].To != n[3] {
		t.Errorf("edges[0] = %+v, want direct 0 -> 3", edges[0])
	}
	if !edges[1].Indirect() || len(edges[1].Path) != 3 {
		t.Errorf("edges[1] = %+v, want indirect path of 3 edges", edges[1])
	}
	for _, e := range edges[1].Path[1:] {
		from, _ := g.Edge(e)
		if g.Visible(from.From) {
			t.Errorf("inner edge %v starts at visible node %v", e, from.From)
		}
	}
}

func TestVisibleEdges_DedupesIndirectPairs(t *testing.T) {
	// Two hidden routes 0 -> {1,2} -> 3.
	g, n := build(t, []float64{1, 1, 1, 1}, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})
	if err := g.SetVisibilityMany(true, []NodeIdx{n[1], n[2]}); err != nil {
		t.Fatal(err)
	}

	edges := g.VisibleEdges()
	if len(edges) != 1 {
		t.Fatalf("VisibleEdges() returned %d edges, want 1", len(edges))
	}
	first, _ := g.Edge(edges[0].Path[0])
	if first.To != n[1] {
		t.Errorf("indirect path goes through %v, want %v", first.To, n[1])
	}
}

func TestWalkAndAncestors(t *testing.T) {
	g, n := build(t, []float64{1, 1, 1, 1}, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})

	down, err := g.Walk(n[0], Outgoing)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := indices(down), []int{0, 1, 3, 2}; !slices.Equal(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}

	up, err := g.Ancestors(n[3])
	if err != nil {
		t.Fatal(err)
	}
	if got, want := indices(up), []int{1, 0, 2}; !slices.Equal(got, want) {
		t.Errorf("Ancestors() = %v, want %v", got, want)
	}
}

func TestCountByTag(t *testing.T) {
	g := New()
	kinds := []NodeKind{ENodeKind(0), ENodeKind(1), GivenEqualityKind(0), InstantiationKind(0)}
	for _, k := range kinds {
		if _, err := g.AddNode(Node{Kind: k}); err != nil {
			t.Fatal(err)
		}
	}
	got := g.CountByTag()
	if want := [NumNodeTags]int{2, 1, 0, 1}; got != want {
		t.Errorf("CountByTag() = %v, want %v", got, want)
	}
}

func TestParseKinds(t *testing.T) {
	k, err := ParseNodeKind(trace.NodeTransEquality, 4)
	if err != nil {
		t.Fatal(err)
	}
	if eq, ok := k.TransEquality(); !ok || eq != 4 {
		t.Errorf("TransEquality() = %d, %v, want 4, true", eq, ok)
	}
	if _, err := ParseNodeKind("bogus", 0); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseNodeKind(bogus) error = %v, want ErrUnknownKind", err)
	}

	e, err := ParseEdgeKind(trace.EdgeBlame, 2)
	if err != nil {
		t.Fatal(err)
	}
	if trig, ok := e.Trigger(); !ok || trig != 2 {
		t.Errorf("Trigger() = %d, %v, want 2, true", trig, ok)
	}
	e, _ = ParseEdgeKind(trace.EdgeYield, 2)
	if _, ok := e.Trigger(); ok {
		t.Error("yield edge reported a trigger")
	}
}
