package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
)

// reachCommand creates the reach command.
func (c *CLI) reachCommand() *cobra.Command {
	var to []string

	cmd := &cobra.Command{
		Use:   "reach <trace> <node>",
		Short: "Show what a node depends on and what depends on it",
		Long: `Build the connected component around a node and list its ancestors (nodes
it depends on) and descendants (nodes that depend on it), in topological
order. With --to, only report whether each target is reachable.

Reachability ignores filters and disablers.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}
			root, err := parseNode(sess, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(to) > 0 {
				for _, t := range to {
					target, err := parseNode(sess, t)
					if err != nil {
						return err
					}
					ok, err := sess.Reachable(ctx, root, target)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%d -> %d: %t\n", root.Index(), target.Index(), ok)
				}
				return nil
			}

			r, err := sess.Reach(ctx, root)
			if err != nil {
				return err
			}
			writeReach(out, r)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "target node(s) to test for reachability")
	return cmd
}

func writeReach(w io.Writer, r *analysis.Reach) {
	fmt.Fprintln(w, StyleTitle.Render("Reach")+" "+StyleDim.Render("node "+strconv.Itoa(r.Root.Index())))
	writeKeyValue(w, "component", fmt.Sprintf("%d nodes", r.Component))
	writeKeyValue(w, "ancestors", fmt.Sprintf("%d: %s", len(r.Ancestors), nodeList(r.Ancestors)))
	writeKeyValue(w, "descendants", fmt.Sprintf("%d: %s", len(r.Descendants), nodeList(r.Descendants)))
}

func nodeList(ns []instgraph.NodeIdx) string {
	if len(ns) == 0 {
		return "-"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n.Index())
	}
	return strings.Join(parts, " ")
}
