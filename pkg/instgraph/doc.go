// Package instgraph holds the instantiation dependency graph of an SMT
// solver trace and the visibility primitives that the filter and disabler
// passes are built on.
//
// # Nodes and edges
//
// A node is a solver event: an e-graph term ([TagENode]), an asserted or a
// transitive equality, or a quantifier instantiation. Edges record causal
// dependencies (a term was yielded by an instantiation, an instantiation was
// triggered by a term, an equality was derived from another). Graphs are
// append-only; [NodeIdx] and [EdgeIdx] handles are bound to the graph that
// minted them and are rejected by any other graph with [ErrForeignHandle].
//
// # Visibility
//
// Each node carries two independent hidden bits. The filter bit is driven
// by [Graph.SetVisibilityWhen], [Graph.SetVisibilityMany],
// [Graph.KeepFirstNCost] and [Graph.KeepFirstNChildren]; the disabler bit is
// recomputed wholesale by [Graph.ResetDisabledTo]. A node is visible when
// neither bit is set. [Graph.VisibleEdges] derives the edges of the visible
// graph, bridging runs of hidden nodes with indirect edges.
//
// # Depths
//
// FwdDepth and BwdDepth are the shortest and longest edge distances to a
// root and to a leaf. [Graph.LongestPathThrough] reads a longest path off
// them without searching.
//
// A Graph is not safe for concurrent use.
package instgraph
