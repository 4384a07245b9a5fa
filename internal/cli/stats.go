package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
)

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var (
		top     int
		asJSON  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "stats <trace>",
		Short: "Print node counts and the most instantiated quantifiers",
		Long: `Print the number of nodes of each kind and how often each user-named
quantifier was instantiated, most frequent first. Quantifiers without a
user-given name (:qid) are not listed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}

			ch, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer ch.Close()

			key := cache.NewDefaultKeyer().StatsKey(sess.Trace().Hash())
			var st analysis.Stats
			hit, err := cache.GetJSON(ctx, ch, "stats", key, &st)
			if err != nil {
				c.Logger.Warn("cache read failed", "error", err)
			}
			if !hit {
				st = analysis.ComputeStats(sess.Trace(), sess.Graph())
				if err := cache.SetJSON(ctx, ch, "stats", key, st, c.cfg.Cache.TTL.Duration); err != nil {
					c.Logger.Warn("cache write failed", "error", err)
				}
			}
			c.Logger.Debug("stats", "cached", hit)

			out := cmd.OutOrStdout()
			if asJSON {
				st.TopInstantiations = st.Top(top)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			return st.WriteReport(out, top)
		},
	}

	cmd.Flags().IntVarP(&top, "top", "k", -1, "only list the K most instantiated quantifiers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
