package instgraph

import (
	"fmt"

	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// NodeTag selects the variant of a [NodeKind].
type NodeTag uint8

const (
	// TagENode is an e-graph term.
	TagENode NodeTag = iota
	// TagGivenEquality is an asserted equality fact.
	TagGivenEquality
	// TagTransEquality is an equality derived by transitivity.
	TagTransEquality
	// TagInstantiation is one quantifier instantiation.
	TagInstantiation
)

// NumNodeTags is the number of node variants.
const NumNodeTags = 4

var nodeTagNames = [NumNodeTags]string{"ENode", "GivenEquality", "TransEquality", "Instantiation"}

func (t NodeTag) String() string {
	if int(t) < len(nodeTagNames) {
		return nodeTagNames[t]
	}
	return fmt.Sprintf("NodeTag(%d)", t)
}

// NodeKind is a closed tagged variant. Ref indexes the trace table selected
// by Tag: terms, equalities (both equality variants) or instantiations.
// Switch on [NodeKind.Tag] for exhaustive matching, or use the typed
// accessors.
type NodeKind struct {
	tag NodeTag
	ref uint32
}

// ENodeKind returns the kind of a term node.
func ENodeKind(t trace.TermIdx) NodeKind { return NodeKind{TagENode, uint32(t)} }

// GivenEqualityKind returns the kind of an asserted equality node.
func GivenEqualityKind(e trace.EqIdx) NodeKind { return NodeKind{TagGivenEquality, uint32(e)} }

// TransEqualityKind returns the kind of a transitive equality node.
func TransEqualityKind(e trace.EqIdx) NodeKind { return NodeKind{TagTransEquality, uint32(e)} }

// InstantiationKind returns the kind of an instantiation node.
func InstantiationKind(i trace.InstIdx) NodeKind { return NodeKind{TagInstantiation, uint32(i)} }

// Tag returns the active variant.
func (k NodeKind) Tag() NodeTag { return k.tag }

// ENode returns the term index if k is an ENode.
func (k NodeKind) ENode() (trace.TermIdx, bool) {
	return trace.TermIdx(k.ref), k.tag == TagENode
}

// GivenEquality returns the equality index if k is a given equality.
func (k NodeKind) GivenEquality() (trace.EqIdx, bool) {
	return trace.EqIdx(k.ref), k.tag == TagGivenEquality
}

// TransEquality returns the equality index if k is a transitive equality.
func (k NodeKind) TransEquality() (trace.EqIdx, bool) {
	return trace.EqIdx(k.ref), k.tag == TagTransEquality
}

// Instantiation returns the instantiation index if k is an instantiation.
func (k NodeKind) Instantiation() (trace.InstIdx, bool) {
	return trace.InstIdx(k.ref), k.tag == TagInstantiation
}

// String formats the kind as a short index label, e.g. "q12" for
// instantiation 12.
func (k NodeKind) String() string {
	switch k.tag {
	case TagENode:
		return fmt.Sprintf("e%d", k.ref)
	case TagGivenEquality:
		return fmt.Sprintf("=%d", k.ref)
	case TagTransEquality:
		return fmt.Sprintf("≡%d", k.ref)
	case TagInstantiation:
		return fmt.Sprintf("q%d", k.ref)
	}
	return fmt.Sprintf("?%d", k.ref)
}

// ParseNodeKind maps a trace node fact to its kind.
func ParseNodeKind(name string, ref uint32) (NodeKind, error) {
	switch name {
	case trace.NodeENode:
		return NodeKind{TagENode, ref}, nil
	case trace.NodeGivenEquality:
		return NodeKind{TagGivenEquality, ref}, nil
	case trace.NodeTransEquality:
		return NodeKind{TagTransEquality, ref}, nil
	case trace.NodeInstantiation:
		return NodeKind{TagInstantiation, ref}, nil
	}
	return NodeKind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// EdgeTag selects the variant of an [EdgeKind].
type EdgeTag uint8

const (
	EdgeYield EdgeTag = iota
	EdgeBlame
	EdgeBlameEq
	EdgeEqualityFact
	EdgeEqualityCongruence
	EdgeTEqualitySimple
	EdgeTEqualityTransitive
	EdgeTEqualityTransitiveBwd
)

var edgeTagNames = [...]string{
	EdgeYield:                  trace.EdgeYield,
	EdgeBlame:                  trace.EdgeBlame,
	EdgeBlameEq:                trace.EdgeBlameEq,
	EdgeEqualityFact:           trace.EdgeEqualityFact,
	EdgeEqualityCongruence:     trace.EdgeEqualityCongruence,
	EdgeTEqualitySimple:        trace.EdgeTEqualitySimple,
	EdgeTEqualityTransitive:    trace.EdgeTEqualityTransitive,
	EdgeTEqualityTransitiveBwd: trace.EdgeTEqualityTransitiveBwd,
}

func (t EdgeTag) String() string {
	if int(t) < len(edgeTagNames) {
		return edgeTagNames[t]
	}
	return fmt.Sprintf("EdgeTag(%d)", t)
}

// EdgeKind is a closed tagged variant; only Blame carries a payload, the
// index of the blamed trigger term.
type EdgeKind struct {
	tag     EdgeTag
	trigger uint32
}

// BlameKind returns a blame edge kind for the given trigger index.
func BlameKind(trigger uint32) EdgeKind { return EdgeKind{EdgeBlame, trigger} }

// SimpleEdgeKind returns a payload-free edge kind. Passing EdgeBlame yields
// a blame on trigger 0.
func SimpleEdgeKind(t EdgeTag) EdgeKind { return EdgeKind{tag: t} }

// Tag returns the active variant.
func (k EdgeKind) Tag() EdgeTag { return k.tag }

// Trigger returns the trigger index if k is a blame edge.
func (k EdgeKind) Trigger() (uint32, bool) { return k.trigger, k.tag == EdgeBlame }

// ParseEdgeKind maps a trace edge fact to its kind.
func ParseEdgeKind(name string, trigger uint32) (EdgeKind, error) {
	for i, n := range edgeTagNames {
		if n == name {
			k := EdgeKind{tag: EdgeTag(i)}
			if k.tag == EdgeBlame {
				k.trigger = trigger
			}
			return k, nil
		}
	}
	return EdgeKind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}
