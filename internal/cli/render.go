package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kiranandcode/axiom-profiler-2/pkg/analysis"
	"github.com/kiranandcode/axiom-profiler-2/pkg/cache"
	"github.com/kiranandcode/axiom-profiler-2/pkg/filter"
	"github.com/kiranandcode/axiom-profiler-2/pkg/instgraph"
	pio "github.com/kiranandcode/axiom-profiler-2/pkg/io"
	"github.com/kiranandcode/axiom-profiler-2/pkg/render/dot"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG  = "png"
	formatJSON = "json"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path, base path for several formats, or "-"
	formats    []string // output formats: "dot", "svg", "png"
	detailed   bool     // add kind, cost and depths to node labels
	labelLimit int      // truncate node summaries
	noCache    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		view       viewFlags
		formatsStr string
		opts       = renderOpts{labelLimit: dot.DefaultLabelLimit}
	)

	cmd := &cobra.Command{
		Use:   "render <trace>",
		Short: "Render the visible graph to DOT, SVG or PNG",
		Long: `Render the nodes and edges left visible by a filter chain and disablers.
Edges that bridge hidden nodes are drawn dashed and labelled with the
number of edges they stand for. A show-longest-path filter outlines the
path it finds. The json format writes the visible nodes and edges as data.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output == "-" && len(opts.formats) > 1 {
				return fmt.Errorf("--output - needs exactly one format")
			}

			ctx := cmd.Context()
			sess, err := c.openSession(ctx, args[0])
			if err != nil {
				return err
			}
			v, err := c.applyView(cmd, &view, sess)
			if err != nil {
				return err
			}
			ch, err := c.openCache(ctx, opts.noCache)
			if err != nil {
				return err
			}
			defer ch.Close()

			return c.runRender(ctx, cmd.OutOrStdout(), args[0], sess, v, ch, &opts)
		},
	}

	view.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file, base path for several formats, or "-" for stdout`)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add kind, cost and depths to node labels")
	cmd.Flags().IntVar(&opts.labelLimit, "label-limit", opts.labelLimit, "truncate node summaries to N characters (-1 for no limit)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return parts
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatDOT: true, formatSVG: true, formatPNG: true, formatJSON: true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', 'png' or 'json')", f)
		}
	}
	return nil
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extensions from input, including a
// compression suffix ("run.json.zst" becomes "run").
func basePath(output, input string) string {
	if output == "" {
		base := input
		for _, ext := range []string{".zst", ".gz", ".json"} {
			base = strings.TrimSuffix(base, ext)
		}
		return base
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(ctx context.Context, stdout io.Writer, input string, sess *analysis.Session, v *analysis.View, ch cache.Cache, opts *renderOpts) error {
	keyer := cache.NewDefaultKeyer()
	names := make([]string, 0, len(v.Disablers))
	for _, d := range v.Disablers {
		names = append(names, d.String())
	}
	viewKey := keyer.ViewKey(sess.Trace().Hash(), cache.ViewKeyOpts{ChainHash: v.Chain.Hash(), Disablers: names})

	src := ""
	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		key := keyer.RenderKey(viewKey, cache.RenderKeyOpts{Format: format, Detailed: opts.detailed, LabelLimit: opts.labelLimit})
		data, hit, err := cache.GetRaw(ctx, ch, "render", key)
		if err != nil {
			c.Logger.Warn("cache read failed", "error", err)
		}
		if !hit {
			if format == formatJSON {
				data, err = exportJSON(sess)
			} else {
				if src == "" {
					src = dot.ToDOT(sess.Trace(), sess.Graph(), dot.Options{
						Detailed:   opts.detailed,
						Highlight:  highlight(v.Outputs),
						LabelLimit: opts.labelLimit,
					})
				}
				data, err = renderFormat(ctx, src, format)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", format, err)
			}
			if err := cache.SetRaw(ctx, ch, "render", key, data, c.cfg.Cache.TTL.Duration); err != nil {
				c.Logger.Warn("cache write failed", "error", err)
			}
		}
		c.Logger.Debugf("Generated %s: %d bytes (cached: %t)", format, len(data), hit)

		if opts.output == "-" {
			_, err := stdout.Write(data)
			return err
		}
		path := base + "." + format
		if len(opts.formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// renderFormat converts DOT source to format, showing a spinner while
// Graphviz lays out the graph.
func renderFormat(ctx context.Context, src, format string) ([]byte, error) {
	if format == formatDOT {
		return []byte(src), nil
	}
	spinner := newSpinnerWithContext(ctx, "Laying out graph...")
	spinner.Start()
	defer spinner.Stop()

	layout := dot.RenderSVG
	if format == formatPNG {
		layout = dot.RenderPNG
	}
	data, err := layout(ctx, src)
	if err != nil {
		if spinner.Cancelled() {
			return nil, ctx.Err()
		}
		spinner.StopWithError("Graphviz layout failed")
		return nil, err
	}
	return data, nil
}

// exportJSON writes the visible nodes and edges in the pkg/io format.
func exportJSON(sess *analysis.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := pio.WriteJSON(sess.Trace(), sess.Graph(), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// highlight returns the longest path reported by the view, if any.
func highlight(outs []filter.Output) []instgraph.NodeIdx {
	var path []instgraph.NodeIdx
	for _, out := range outs {
		if out.Kind == filter.OutputLongestPath {
			path = out.LongestPath
		}
	}
	return path
}
