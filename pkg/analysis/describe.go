package analysis

import (
	"fmt"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

const unknown = "unknown"

// BlameInfo is one matched trigger of an instantiation.
type BlameInfo struct {
	Trigger    string   `json:"trigger"`
	Matched    string   `json:"matched"`
	Equalities []string `json:"equalities,omitempty"`
}

// NodeInfo is the human-readable description of a node.
type NodeInfo struct {
	Index         string      `json:"index"`   // short label, e.g. "q12"
	Kind          string      `json:"kind"`    // ENode, Equality, Quantifier, MBQI, Axiom, Theory Solving
	Summary       string      `json:"summary"` // term text, equality text or instantiated axiom
	Cost          string      `json:"cost"`
	ToRoot        string      `json:"to_root"`
	ToLeaf        string      `json:"to_leaf"`
	Visible       bool        `json:"visible"`
	Body          string      `json:"body,omitempty"`
	Blame         []BlameInfo `json:"blame,omitempty"`
	Bound         []string    `json:"bound,omitempty"`
	ResultingTerm string      `json:"resulting_term,omitempty"`
	Yields        []string    `json:"yields,omitempty"`
}

// EdgeInfo is the human-readable description of a visible edge.
type EdgeInfo struct {
	Index   string `json:"index"` // "e1 → q2", or "e1 ↝ q2" for indirect edges
	Kind    string `json:"kind"`
	Blamed  string `json:"blamed"`
	Hops    int    `json:"hops"`
	Through []int  `json:"through,omitempty"` // hidden nodes crossed
}

// DescribeNode renders n for display. Entities missing from the trace are
// shown as "unknown". It returns false only for handles not minted by g.
func DescribeNode(tr *trace.Trace, g *instgraph.Graph, n instgraph.NodeIdx) (NodeInfo, bool) {
	node, ok := g.Node(n)
	if !ok {
		return NodeInfo{}, false
	}
	info := NodeInfo{
		Index:   node.Kind.String(),
		Kind:    kindLabel(tr, node.Kind),
		Summary: summary(tr, node.Kind),
		Cost:    fmt.Sprintf("%.1f", node.Cost),
		ToRoot:  fmt.Sprintf("short %d, long %d", node.FwdDepth.Min, node.FwdDepth.Max),
		ToLeaf:  fmt.Sprintf("short %d, long %d", node.BwdDepth.Min, node.BwdDepth.Max),
		Visible: g.Visible(n),
	}
	if node.Generation.Valid {
		info.Cost += fmt.Sprintf(" (z3 gen %d)", node.Generation.Value)
	}

	i, ok := node.Kind.Instantiation()
	if !ok {
		return info, true
	}
	inst, ok := tr.Instantiation(i)
	if !ok {
		return info, true
	}
	quant, hasQuant := tr.InstQuantifier(i)
	if hasQuant {
		info.Body = quant.Body
	}
	for _, b := range inst.Blame {
		info.Blame = append(info.Blame, BlameInfo{Trigger: b.Trigger, Matched: b.ENode, Equalities: b.Equalities})
	}
	for k, bound := range inst.Bound {
		name := fmt.Sprintf("qvar_%d", k)
		if hasQuant && k < len(quant.Vars) {
			name = quant.Vars[k]
		}
		info.Bound = append(info.Bound, name+" ↦ "+bound)
	}
	info.ResultingTerm = inst.ResultingTerm
	info.Yields = inst.Yields
	return info, true
}

func kindLabel(tr *trace.Trace, k instgraph.NodeKind) string {
	switch k.Tag() {
	case instgraph.TagENode:
		return "ENode"
	case instgraph.TagGivenEquality, instgraph.TagTransEquality:
		return "Equality"
	case instgraph.TagInstantiation:
		i, _ := k.Instantiation()
		inst, ok := tr.Instantiation(i)
		if !ok {
			return "Instantiation"
		}
		switch inst.Kind {
		case trace.MatchMBQI:
			return "MBQI"
		case trace.MatchTheorySolving:
			return "Theory Solving"
		case trace.MatchAxiom:
			return "Axiom"
		}
		return "Quantifier"
	}
	return unknown
}

func summary(tr *trace.Trace, k instgraph.NodeKind) string {
	switch k.Tag() {
	case instgraph.TagENode:
		t, _ := k.ENode()
		if term, ok := tr.Term(t); ok {
			return term.Text
		}
	case instgraph.TagGivenEquality, instgraph.TagTransEquality:
		e, ok := k.GivenEquality()
		if !ok {
			e, _ = k.TransEquality()
		}
		if eq, ok := tr.Equality(e); ok {
			return eq.Text
		}
	case instgraph.TagInstantiation:
		i, _ := k.Instantiation()
		inst, ok := tr.Instantiation(i)
		if !ok {
			break
		}
		if inst.IsTheorySolving() {
			return fmt.Sprintf("%s[%s]", inst.Namespace, inst.AxiomID)
		}
		if q, ok := tr.InstQuantifier(i); ok {
			return q.DisplayName()
		}
	}
	return unknown
}

var edgeLabels = map[instgraph.EdgeTag]string{
	instgraph.EdgeYield:                  "Yield",
	instgraph.EdgeBlameEq:                "Blame Equality",
	instgraph.EdgeEqualityFact:           "Equality Fact",
	instgraph.EdgeEqualityCongruence:     "Equality Congruence",
	instgraph.EdgeTEqualitySimple:        "Simple Equality",
	instgraph.EdgeTEqualityTransitive:    "Transitive Equality",
	instgraph.EdgeTEqualityTransitiveBwd: "Transitive Reverse Equality",
}

// DescribeEdge renders a visible edge of g for display. Indirect edges are
// labelled by the kinds of the first and last hidden node they cross.
func DescribeEdge(tr *trace.Trace, g *instgraph.Graph, e instgraph.VisibleEdge) EdgeInfo {
	label := func(n instgraph.NodeIdx) string {
		if node, ok := g.Node(n); ok {
			return node.Kind.String()
		}
		return unknown
	}
	kindOf := func(n instgraph.NodeIdx) string {
		if node, ok := g.Node(n); ok {
			return kindLabel(tr, node.Kind)
		}
		return unknown
	}

	arrow := "→"
	if e.Indirect() {
		arrow = "↝"
	}
	info := EdgeInfo{
		Index: fmt.Sprintf("%s %s %s", label(e.From), arrow, label(e.To)),
		Hops:  len(e.Path),
	}
	if from, ok := g.Node(e.From); ok {
		info.Blamed = summary(tr, from.Kind)
	}

	if len(e.Path) == 0 {
		info.Kind = unknown
		return info
	}
	if !e.Indirect() {
		stored, ok := g.Edge(e.Path[0])
		if !ok {
			info.Kind = unknown
			return info
		}
		if trig, isBlame := stored.Kind.Trigger(); isBlame {
			info.Kind = fmt.Sprintf("Blame trigger #%d", trig)
		} else {
			info.Kind = edgeLabels[stored.Kind.Tag()]
		}
		return info
	}

	first, _ := g.Edge(e.Path[0])
	last, _ := g.Edge(e.Path[len(e.Path)-1])
	info.Kind = fmt.Sprintf("Compound %s to %s", kindOf(first.To), kindOf(last.From))
	for _, p := range e.Path[1:] {
		stored, _ := g.Edge(p)
		info.Through = append(info.Through, stored.From.Index())
	}
	return info
}
