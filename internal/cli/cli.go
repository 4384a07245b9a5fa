package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/buildinfo"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/config"
	"github.com/kiranandcode/axiom-profiler-2/pkg/disabler"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/trace"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level. Debug level also reports callers.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "axiom-profiler explores quantifier instantiation graphs of SMT solver runs",
		Long: `axiom-profiler loads the instantiation graph of an SMT solver run and helps
find the quantifiers responsible for slow or unstable proofs. Filter chains
and disablers select the part of the graph worth looking at; the result can
be printed, rendered with Graphviz, explored interactively or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/axiom-profiler/config.toml)")

	root.AddCommand(c.statsCommand())
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.reachCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Loading
// =============================================================================

// openSession reads the trace at path and builds its graph. The graph is
// fully visible; callers apply a view.
func (c *CLI) openSession(ctx context.Context, path string) (*analysis.Session, error) {
	logger := loggerFromContext(ctx)
	tm := startTimings(logger)
	tr, err := trace.Open(path)
	if err != nil {
		return nil, err
	}
	tm.stage("read")
	sess, err := analysis.NewSession(ctx, tr, analysis.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	tm.stage("build")
	g := sess.Graph()
	tm.done("Loaded trace", "file", filepath.Base(path), "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return sess, nil
}

// =============================================================================
// View Flags
// =============================================================================

// viewFlags are the flags shared by every command that applies a view.
// Unset flags fall back to the config file.
type viewFlags struct {
	chain           string
	disablers       string
	retainAncestors bool
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&v.chain, "chain", "c", "", `filter chain, e.g. "ignore-theory-solving, max-insts=50" (default from config)`)
	cmd.Flags().StringVarP(&v.disablers, "disablers", "d", "", `comma-separated disablers or "none" (default from config)`)
	cmd.Flags().BoolVar(&v.retainAncestors, "retain-ancestors", false, "max-insts keeps every ancestor of a kept instantiation")
}

// resolve turns the flags into a chain and disabler set for sess.
func (v *viewFlags) resolve(cmd *cobra.Command, cfg config.Config, sess *analysis.Session) (filter.Chain, []disabler.Disabler, error) {
	if cmd.Flags().Changed("chain") {
		cfg.Filters.Chain = v.chain
	}
	cfg.Keep.RetainAncestors = cfg.Keep.RetainAncestors || v.retainAncestors
	chain, err := cfg.Chain(sess.Graph())
	if err != nil {
		return nil, nil, err
	}

	ds := cfg.DisablerList()
	if cmd.Flags().Changed("disablers") {
		if ds, err = disabler.ParseList(v.disablers); err != nil {
			return nil, nil, err
		}
	}
	return chain, ds, nil
}

// applyView resolves the flags and applies the view to sess.
func (c *CLI) applyView(cmd *cobra.Command, v *viewFlags, sess *analysis.Session) (*analysis.View, error) {
	tm := startTimings(loggerFromContext(cmd.Context()))
	chain, ds, err := v.resolve(cmd, c.cfg, sess)
	if err != nil {
		return nil, err
	}
	tm.stage("resolve")
	view, err := sess.View(cmd.Context(), chain, ds)
	if err != nil {
		return nil, err
	}
	tm.stage("apply")
	tm.done("Applied view", "visible", view.Visible, "nodes", sess.Graph().NodeCount())
	return view, nil
}

// =============================================================================
// Cache
// =============================================================================

// openCache opens the configured backend, or a NullCache with noCache.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, c.cfg.CacheOptions())
}

// cacheDir returns the configured file cache directory.
func (c *CLI) cacheDir() string {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	return config.Default().Cache.Dir
}

// isTerminal reports whether f is attached to a terminal. Spinners only
// animate on terminals.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
