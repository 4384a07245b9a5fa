package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/internal/server"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		view     viewFlags
		addr     string
		noCache  bool
		cacheTag string
	)

	cmd := &cobra.Command{
		Use:   "serve <trace>",
		Short: "Serve a trace over HTTP",
		Long: `Load a trace and serve its instantiation graph as a JSON API with
Prometheus metrics at /metrics. The initial view comes from --chain and
--disablers (or the config file); clients change it with POST /api/v1/view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") && c.cfg.Server.Addr != "" {
				addr = c.cfg.Server.Addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			server.NewMetrics(reg).Install()

			sess, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := c.applyView(cmd, &view, sess); err != nil {
				return err
			}

			ch, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer ch.Close()

			keyer := cache.NewDefaultKeyer()
			if cacheTag != "" {
				keyer = cache.NewScopedKeyer(keyer, cacheTag+":")
			}

			srv := server.New(sess, server.Options{
				Cache:    ch,
				Keyer:    keyer,
				TTL:      c.cfg.Cache.TTL.Duration,
				Logger:   c.Logger,
				Gatherer: reg,
			})
			printSuccess("Serving %s on %s", args[0], StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	view.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&cacheTag, "cache-scope", "", "prefix cache keys so deployments sharing a backend stay apart")

	return cmd
}
