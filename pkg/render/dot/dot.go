package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// DefaultLabelLimit is the summary length used when Options.LabelLimit is 0.
const DefaultLabelLimit = 40

// Options configures diagram generation.
type Options struct {
	// Detailed adds cost and depth lines to node labels.
	Detailed bool
	// Highlight lists nodes to outline, typically a longest path.
	Highlight []instgraph.NodeIdx
	// LabelLimit truncates node summaries. Negative disables truncation.
	LabelLimit int
}

var fillColors = [instgraph.NumNodeTags]string{
	instgraph.TagENode:         "#e8f1fb",
	instgraph.TagGivenEquality: "#fdf3e1",
	instgraph.TagTransEquality: "#fbe7d0",
	instgraph.TagInstantiation: "#ffffff",
}

// ToDOT converts the effectively visible graph to Graphviz DOT source.
// Node identifiers are "n<index>" so the output is stable across runs.
func ToDOT(tr *trace.Trace, g *instgraph.Graph, opts Options) string {
	limit := opts.LabelLimit
	if limit == 0 {
		limit = DefaultLabelLimit
	}
	highlight := make(map[instgraph.NodeIdx]bool, len(opts.Highlight))
	for _, n := range opts.Highlight {
		highlight[n] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14, fontname=\"monospace\", margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [arrowsize=0.7];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.VisibleNodes() {
		info, _ := analysis.DescribeNode(tr, g, n)
		node, _ := g.Node(n)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(info, opts.Detailed, limit)),
			fmt.Sprintf("fillcolor=%q", fillColors[node.Kind.Tag()]),
			fmt.Sprintf("tooltip=%q", info.Kind+": "+info.Summary),
		}
		if node.Kind.Tag() != instgraph.TagInstantiation {
			attrs = append(attrs, "shape=ellipse")
		}
		if highlight[n] {
			attrs = append(attrs, "color=\"#c0392b\"", "penwidth=2.5")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeID(n), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.VisibleEdges() {
		info := analysis.DescribeEdge(tr, g, e)
		attrs := []string{fmt.Sprintf("tooltip=%q", info.Index+" "+info.Kind)}
		if e.Indirect() {
			attrs = append(attrs, "style=dashed", fmt.Sprintf("label=\"%d\"", info.Hops))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", nodeID(e.From), nodeID(e.To), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(n instgraph.NodeIdx) string { return "n" + strconv.Itoa(n.Index()) }

func fmtLabel(info analysis.NodeInfo, detailed bool, limit int) string {
	head := fmt.Sprintf("[%s] %s", info.Index, truncate(info.Summary, limit))
	if !detailed {
		return head
	}
	return strings.Join([]string{
		head,
		info.Kind,
		"cost: " + info.Cost,
		"to root: " + info.ToRoot,
		"to leaf: " + info.ToLeaf,
	}, "\n")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit < 0 || len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	out, err := render(ctx, src, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG using Graphviz.
func RenderPNG(ctx context.Context, src string) ([]byte, error) {
	return render(ctx, src, graphviz.PNG)
}

func render(ctx context.Context, src string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
