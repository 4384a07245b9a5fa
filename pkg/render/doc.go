// Package render groups the output formats for instantiation graph views.
//
// The [dot] subpackage turns the visible part of a graph into Graphviz DOT
// and lays it out to SVG or PNG with go-graphviz. Edges that bridge hidden
// nodes are drawn dashed and labelled with the number of edges they stand
// for.
//
//	src := dot.ToDOT(tr, g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// For a machine-readable export of the same view, see [io].
//
// [dot]: github.com/kiranandcode/axiom-profiler-2/pkg/render/dot
// [io]: github.com/kiranandcode/axiom-profiler-2/pkg/io
package render
