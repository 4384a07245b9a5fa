package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	perrors "github.com/kiranandcode/axiom-profiler-2/pkg/errors"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "inspect <trace> <node>",
		Short: "Describe a node and its visible edges",
		Long: `Describe one node of the instantiation graph: its kind, cost, depths and,
for instantiations, the quantifier body, matched triggers, bound terms and
yielded terms. The visible edges into and out of the node are listed under
the given view, so edges that bridge hidden nodes show up as compound edges.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := parseNode(sess, args[1])
			if err != nil {
				return err
			}
			if _, err := c.applyView(cmd, &view, sess); err != nil {
				return err
			}
			writeNodeInfo(cmd.OutOrStdout(), sess, n)
			return nil
		},
	}

	view.register(cmd)
	return cmd
}

// parseNode resolves a node index typed by the user.
func parseNode(sess *analysis.Session, s string) (instgraph.NodeIdx, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return instgraph.NodeIdx{}, perrors.New(perrors.ErrCodeInvalidInput, "node must be an index, got %q", s)
	}
	return sess.NodeByIndex(i)
}

func writeNodeInfo(w io.Writer, sess *analysis.Session, n instgraph.NodeIdx) {
	tr, g := sess.Trace(), sess.Graph()
	info, _ := analysis.DescribeNode(tr, g, n)

	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("[%s] %s", info.Index, info.Kind))+" "+StyleDim.Render("node "+strconv.Itoa(n.Index())))
	writeKeyValue(w, "summary", info.Summary)
	writeKeyValue(w, "cost", info.Cost)
	writeKeyValue(w, "to root", info.ToRoot)
	writeKeyValue(w, "to leaf", info.ToLeaf)
	writeKeyValue(w, "visible", strconv.FormatBool(info.Visible))
	if info.Body != "" {
		writeKeyValue(w, "body", info.Body)
	}
	for i, b := range info.Blame {
		line := fmt.Sprintf("%s matched %s", b.Trigger, b.Matched)
		if len(b.Equalities) > 0 {
			line += "\nusing " + strings.Join(b.Equalities, ", ")
		}
		writeKeyValue(w, fmt.Sprintf("blame #%d", i), line)
	}
	if len(info.Bound) > 0 {
		writeKeyValue(w, "bound", strings.Join(info.Bound, "\n"))
	}
	if info.ResultingTerm != "" {
		writeKeyValue(w, "result", info.ResultingTerm)
	}
	if len(info.Yields) > 0 {
		writeKeyValue(w, "yields", strings.Join(info.Yields, "\n"))
	}

	var rows [][]string
	for _, e := range g.VisibleEdges() {
		if e.From != n && e.To != n {
			continue
		}
		ei := analysis.DescribeEdge(tr, g, e)
		rows = append(rows, []string{ei.Index, ei.Kind, strconv.Itoa(ei.Hops), truncate(ei.Blamed, 40)})
	}
	fmt.Fprintln(w)
	if len(rows) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  no visible edges"))
		return
	}
	writeTable(w, []string{"Edge", "Kind", "Hops", "Blamed"}, rows, nil)
}
