// Package filter implements the visibility filter pipeline of an
// instantiation graph.
//
// A [Filter] is an immutable, comparable value naming one visibility
// transformation. Filters are applied in order through a [Chain]; each
// filter sees the filter-hidden state left by the previous ones and never
// touches the disabler-hidden state. Filters have a textual form
// ("max-insts=125") used by the CLI, the config file and the HTTP API, and a
// content hash used to key cached views.
package filter

import (
	"fmt"

	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// Kind selects the variant of a [Filter].
type Kind uint8

const (
	KindMaxNodeIdx Kind = iota
	KindMinNodeIdx
	KindIgnoreTheorySolving
	KindIgnoreQuantifier
	KindIgnoreAllButQuantifier
	KindMaxInsts
	KindMaxBranching
	KindShowNeighbours
	KindVisitSourceTree
	KindVisitSubTreeWithRoot
	KindMaxDepth
	KindShowLongestPath
	KindShowNamedQuantifier
	KindSelectNthMatchingLoop
	KindShowMatchingLoopSubgraph
)

// NumKinds is the number of filter variants.
const NumKinds = 15

// Filter is one step of a filter chain. The zero value is MaxNodeIdx(0),
// which hides every node; build filters with the constructors.
type Filter struct {
	kind      Kind
	n         int
	node      instgraph.NodeIdx
	dir       instgraph.Direction
	flag      bool // retain for the visit filters, keep ancestors for MaxInsts
	quant     trace.QuantIdx
	hasQuant  bool
	quantName string
}

// MaxNodeIdx hides every node whose index is n or above.
func MaxNodeIdx(n int) Filter { return Filter{kind: KindMaxNodeIdx, n: n} }

// MinNodeIdx hides every node whose index is below n.
func MinNodeIdx(n int) Filter { return Filter{kind: KindMinNodeIdx, n: n} }

// IgnoreTheorySolving hides instantiations produced by theory solving.
func IgnoreTheorySolving() Filter { return Filter{kind: KindIgnoreTheorySolving} }

// IgnoreQuantifier hides instantiations of quantifier q. With ok false it
// hides the instantiations that have no quantifier.
func IgnoreQuantifier(q trace.QuantIdx, ok bool) Filter {
	return quantFilter(KindIgnoreQuantifier, q, ok)
}

// IgnoreAllButQuantifier hides instantiations of every quantifier other
// than q. With ok false it hides every instantiation that has one.
func IgnoreAllButQuantifier(q trace.QuantIdx, ok bool) Filter {
	return quantFilter(KindIgnoreAllButQuantifier, q, ok)
}

func quantFilter(k Kind, q trace.QuantIdx, ok bool) Filter {
	if !ok {
		q = 0
	}
	return Filter{kind: k, quant: q, hasQuant: ok}
}

// MaxInsts keeps the n costliest visible instantiations and hides the
// other visible ones.
func MaxInsts(n int) Filter { return Filter{kind: KindMaxInsts, n: n} }

// MaxInstsWithAncestors is MaxInsts that also spares every ancestor of a
// kept instantiation.
func MaxInstsWithAncestors(n int) Filter { return Filter{kind: KindMaxInsts, n: n, flag: true} }

// MaxBranching limits every visible node to n visible children.
func MaxBranching(n int) Filter { return Filter{kind: KindMaxBranching, n: n} }

// ShowNeighbours reveals the nodes one edge away from node in dir.
func ShowNeighbours(node instgraph.NodeIdx, dir instgraph.Direction) Filter {
	return Filter{kind: KindShowNeighbours, node: node, dir: dir}
}

// VisitSourceTree selects node and everything it depends on. With retain
// set only the selection stays visible; otherwise the selection is hidden.
func VisitSourceTree(node instgraph.NodeIdx, retain bool) Filter {
	return Filter{kind: KindVisitSourceTree, node: node, flag: retain}
}

// VisitSubTreeWithRoot selects node and everything that depends on it.
// With retain set only the selection stays visible; otherwise the selection
// is hidden.
func VisitSubTreeWithRoot(node instgraph.NodeIdx, retain bool) Filter {
	return Filter{kind: KindVisitSubTreeWithRoot, node: node, flag: retain}
}

// MaxDepth hides nodes whose shortest distance to a root exceeds n.
func MaxDepth(n int) Filter { return Filter{kind: KindMaxDepth, n: n} }

// ShowLongestPath reports the longest path through node without changing
// visibility.
func ShowLongestPath(node instgraph.NodeIdx) Filter {
	return Filter{kind: KindShowLongestPath, node: node}
}

// ShowNamedQuantifier keeps only the instantiations of the quantifier
// displayed as name.
func ShowNamedQuantifier(name string) Filter {
	return Filter{kind: KindShowNamedQuantifier, quantName: name}
}

// SelectNthMatchingLoop is reserved for matching-loop analysis.
func SelectNthMatchingLoop(n int) Filter { return Filter{kind: KindSelectNthMatchingLoop, n: n} }

// ShowMatchingLoopSubgraph is reserved for matching-loop analysis.
func ShowMatchingLoopSubgraph() Filter { return Filter{kind: KindShowMatchingLoopSubgraph} }

// Kind returns the variant of f.
func (f Filter) Kind() Kind { return f.kind }

// N returns the numeric parameter of the count, index and depth filters.
func (f Filter) N() int { return f.n }

// Node returns the node parameter of the node-anchored filters.
func (f Filter) Node() instgraph.NodeIdx { return f.node }

// Direction returns the direction of ShowNeighbours.
func (f Filter) Direction() instgraph.Direction { return f.dir }

// Retain reports the retain flag of the visit filters.
func (f Filter) Retain() bool { return f.flag }

// Quantifier returns the quantifier of the ignore-quantifier filters.
func (f Filter) Quantifier() (trace.QuantIdx, bool) { return f.quant, f.hasQuant }

// Name returns the quantifier name of ShowNamedQuantifier.
func (f Filter) Name() string { return f.quantName }

// Reserved reports whether f is a placeholder that never changes the graph.
func (f Filter) Reserved() bool {
	return f.kind == KindSelectNthMatchingLoop || f.kind == KindShowMatchingLoopSubgraph
}

// anchored reports whether f refers to a node of a specific graph.
func (f Filter) anchored() bool {
	switch f.kind {
	case KindShowNeighbours, KindVisitSourceTree, KindVisitSubTreeWithRoot, KindShowLongestPath:
		return true
	}
	return false
}

func (f Filter) GoString() string { return fmt.Sprintf("filter.Filter(%s)", f) }
