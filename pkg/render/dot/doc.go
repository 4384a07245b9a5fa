// Package dot renders the visible part of an instantiation graph as a
// node-link diagram.
//
// # Usage
//
// Convert the graph of a session to DOT, then render it with Graphviz:
//
//	src := dot.ToDOT(sess.Trace(), sess.Graph(), dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Only effectively visible nodes are emitted. Edges come from
// [instgraph.Graph.VisibleEdges]: direct edges are solid, edges bridging
// hidden nodes are dashed and labelled with the number of hops.
//
// # Options
//
//   - Detailed: node labels include cost and depth lines
//   - Highlight: nodes drawn with a bold red outline, e.g. a longest path
//   - LabelLimit: truncate summaries to this many characters
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// SVG and PNG rendering.
package dot
