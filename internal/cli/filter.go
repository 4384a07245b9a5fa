package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// defaultListLimit bounds the rows printed by filter.
const defaultListLimit = 50

// filterCommand creates the filter command.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		view  viewFlags
		limit int
		kinds bool
	)

	cmd := &cobra.Command{
		Use:   "filter <trace>",
		Short: "Apply a filter chain and list the visible nodes",
		Long: `Apply a filter chain and a set of disablers to the instantiation graph and
list the nodes that stay visible, costliest first.

Filters (comma-separated, applied left to right):
` + filterHelp() + `
Disablers: ` + disablerHelp(),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v, err := c.applyView(cmd, &view, sess)
			if err != nil {
				return err
			}
			writeView(cmd.OutOrStdout(), sess, v, limit, kinds)
			return nil
		},
	}

	view.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "maximum rows to list (0 for all)")
	cmd.Flags().BoolVar(&kinds, "kinds", false, "print visible node counts per kind instead of a node list")

	return cmd
}

func filterHelp() string {
	var b strings.Builder
	for k := filter.Kind(0); k < filter.NumKinds; k++ {
		fmt.Fprintf(&b, "  %s\n", k)
	}
	return b.String()
}

func disablerHelp() string {
	parts := make([]string, len(disabler.All))
	for i, d := range disabler.All {
		parts[i] = fmt.Sprintf("%s (%s)", d, d.Description())
	}
	return strings.Join(parts, ", ")
}

// writeView prints the outcome of a view: a summary line, side outputs and
// the visible nodes ordered by cost.
func writeView(w io.Writer, sess *analysis.Session, v *analysis.View, limit int, kinds bool) {
	g := sess.Graph()
	fmt.Fprintln(w, StyleTitle.Render("View")+" "+StyleDim.Render(v.Chain.String()))
	writeViewLine(w, v.Visible, g.NodeCount(), len(g.VisibleEdges()), false)

	var marked []instgraph.NodeIdx
	for i, out := range v.Outputs {
		switch out.Kind {
		case filter.OutputLongestPath:
			marked = out.LongestPath
			writeKeyValue(w, "longest path", joinNodes(out.LongestPath))
		case filter.OutputMatchingLoopTerms:
			writeKeyValue(w, "loop terms", strings.Join(out.MatchingLoopTerms, "\n"))
		case filter.OutputUnavailable:
			fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+
				StyleWarning.Render(fmt.Sprintf("%s is not available for this trace", v.Chain[i])))
		}
	}
	fmt.Fprintln(w)

	if kinds {
		writeKindCounts(w, g)
		return
	}
	writeNodeTable(w, sess, g.VisibleNodes(), marked, limit)
}

func writeKindCounts(w io.Writer, g *instgraph.Graph) {
	var visible [instgraph.NumNodeTags]int
	for _, n := range g.VisibleNodes() {
		node, _ := g.Node(n)
		visible[node.Kind.Tag()]++
	}
	total := g.CountByTag()
	rows := make([][]string, 0, instgraph.NumNodeTags)
	for tag := instgraph.NodeTag(0); tag < instgraph.NumNodeTags; tag++ {
		rows = append(rows, []string{tag.String(), strconv.Itoa(visible[tag]), strconv.Itoa(total[tag])})
	}
	writeTable(w, []string{"Kind", "Visible", "Total"}, rows, nil)
}

// writeNodeTable lists nodes costliest first, ties by index.
func writeNodeTable(w io.Writer, sess *analysis.Session, nodes []instgraph.NodeIdx, marked []instgraph.NodeIdx, limit int) {
	tr, g := sess.Trace(), sess.Graph()
	sortByCost(g, nodes)

	isMarked := make(map[instgraph.NodeIdx]bool, len(marked))
	for _, n := range marked {
		isMarked[n] = true
	}

	shown := nodes
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, 0, len(shown))
	markedRows := make(map[int]bool)
	for i, n := range shown {
		info, _ := analysis.DescribeNode(tr, g, n)
		rows = append(rows, []string{
			strconv.Itoa(n.Index()), info.Index, info.Kind, truncate(info.Summary, 48), info.Cost,
		})
		if isMarked[n] {
			markedRows[i] = true
		}
	}
	writeTable(w, []string{"Node", "Label", "Kind", "Summary", "Cost"}, rows, markedRows)
	if len(shown) < len(nodes) {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  … %d more (use --limit 0 to list all)", len(nodes)-len(shown))))
	}
}

func sortByCost(g *instgraph.Graph, nodes []instgraph.NodeIdx) {
	cost := func(n instgraph.NodeIdx) float64 {
		node, _ := g.Node(n)
		return node.Cost
	}
	slices.SortStableFunc(nodes, func(a, b instgraph.NodeIdx) int {
		if c := cmp.Compare(cost(b), cost(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Index(), b.Index())
	})
}

func joinNodes(ns []instgraph.NodeIdx) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n.Index())
	}
	return strings.Join(parts, " → ")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
